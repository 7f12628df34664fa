package fsw

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dominicbreuker/fsw/native"
)

// Event is one file-system change reported by the monitor.
type Event struct {
	// Path is the path the native library reported, as-is.
	Path string
	// Timestamp is the native time_t of the event, in seconds since the epoch.
	Timestamp int64
	// Flags is the set of change kinds.
	Flags FlagSet
}

// Time returns the event timestamp as a time.Time.
func (e Event) Time() time.Time {
	return time.Unix(e.Timestamp, 0)
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s [%s]", e.Time().Format(time.RFC3339), e.Path, e.Flags)
}

// DecodeRecord converts one native record. Paths that are not valid UTF-8
// are rejected rather than replaced.
func DecodeRecord(r native.Record) (Event, error) {
	if !utf8.Valid(r.Path) {
		return Event{}, fmt.Errorf("%w: path %q is not valid UTF-8", ErrEncoding, r.Path)
	}
	return Event{
		Path:      string(r.Path),
		Timestamp: r.Time,
		Flags:     NewFlagSet(r.Flags...),
	}, nil
}

// DecodeBatch converts a native batch, preserving its order. A single
// undecodable record fails the whole batch.
func DecodeBatch(records []native.Record) ([]Event, error) {
	events := make([]Event, 0, len(records))
	for i, r := range records {
		e, err := DecodeRecord(r)
		if err != nil {
			return nil, fmt.Errorf("decoding record %d of %d: %w", i, len(records), err)
		}
		events = append(events, e)
	}
	return events, nil
}
