package engine

import (
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/dominicbreuker/fsw/native"
)

type session struct {
	handle      native.Handle
	monitorType native.MonitorType
	fallback    bool

	paths          []string
	properties     map[string]string
	latency        time.Duration
	recursive      bool
	directoryOnly  bool
	followSymlinks bool
	allowOverflow  bool
	eventTypes     []native.EventFlag
	filters        []filter

	callback native.Callback
	data     uintptr

	running bool
	stop    chan struct{}
}

// monitorConfig is the frozen configuration a monitor runs with.
type monitorConfig struct {
	monitorType native.MonitorType
	fallback    bool

	roots          []string
	properties     map[string]string
	latency        time.Duration
	recursive      bool
	directoryOnly  bool
	followSymlinks bool
	allowOverflow  bool
	eventTypes     []native.EventFlag
	filters        []filter

	callback native.Callback
	data     uintptr
	stop     <-chan struct{}
}

func (s *session) snapshot() *monitorConfig {
	return &monitorConfig{
		monitorType:    s.monitorType,
		fallback:       s.fallback,
		roots:          resolveRoots(s.paths, s.followSymlinks),
		properties:     maps.Clone(s.properties),
		latency:        s.latency,
		recursive:      s.recursive,
		directoryOnly:  s.directoryOnly,
		followSymlinks: s.followSymlinks,
		allowOverflow:  s.allowOverflow,
		eventTypes:     slices.Clone(s.eventTypes),
		filters:        slices.Clone(s.filters),
		callback:       s.callback,
		data:           s.data,
		stop:           s.stop,
	}
}

// resolveRoots makes every path absolute and clean, resolving symlinks when
// asked to. Duplicates are dropped, first occurrence wins.
func resolveRoots(paths []string, followSymlinks bool) []string {
	seen := make(map[string]struct{}, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		root, err := filepath.Abs(p)
		if err != nil {
			root = filepath.Clean(p)
		}
		if followSymlinks {
			if real, err := filepath.EvalSymlinks(root); err == nil {
				root = real
			}
		}
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	return roots
}

// record turns a driver change into a native record, applying path and
// event type filters. The second result is false when the change is dropped.
func (cfg *monitorConfig) record(c change, now time.Time) (native.Record, bool) {
	isOverflow := slices.Contains(c.flags, native.Overflow)
	if !isOverflow && !acceptPath(cfg.filters, c.path) {
		return native.Record{}, false
	}
	flags := filterFlags(cfg.eventTypes, c.flags)
	if len(flags) == 0 {
		return native.Record{}, false
	}
	return native.Record{
		Path:  []byte(c.path),
		Time:  now.Unix(),
		Flags: flags,
	}, true
}
