package fsw

import (
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/fsw/internal/logging"
	"github.com/dominicbreuker/fsw/native"
)

// Callback receives one batch of events, in the order the native library
// reported them.
type Callback func(events []Event)

// bridgeEntry is the Go side of the context value registered with the
// native library.
type bridgeEntry struct {
	id     uintptr
	logger logrus.FieldLogger

	mu       sync.RWMutex
	callback Callback
}

func (e *bridgeEntry) setCallback(cb Callback) {
	e.mu.Lock()
	e.callback = cb
	e.mu.Unlock()
}

func (e *bridgeEntry) current() Callback {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.callback
}

// bridgeRegistry maps context ids to entries. Only the id crosses into the
// native library.
type bridgeRegistry struct {
	sync.Mutex
	m      map[uintptr]*bridgeEntry
	lastID uintptr
}

var bridges = &bridgeRegistry{m: make(map[uintptr]*bridgeEntry)}

func (r *bridgeRegistry) add(logger logrus.FieldLogger) *bridgeEntry {
	r.Lock()
	defer r.Unlock()

	r.lastID++
	e := &bridgeEntry{id: r.lastID, logger: logger}
	r.m[e.id] = e
	return e
}

func (r *bridgeRegistry) get(id uintptr) (*bridgeEntry, bool) {
	r.Lock()
	defer r.Unlock()
	e, ok := r.m[id]
	return e, ok
}

func (r *bridgeRegistry) remove(id uintptr) {
	r.Lock()
	defer r.Unlock()
	delete(r.m, id)
}

func (r *bridgeRegistry) len() int {
	r.Lock()
	defer r.Unlock()
	return len(r.m)
}

// dispatch is the callback registered with the native library for every
// session. It never lets a panic or a decoding failure escape.
func dispatch(records []native.Record, data uintptr) {
	entry, ok := bridges.get(data)
	if !ok {
		logging.Log.WithField("context", data).Warn("Dropping events for unknown session")
		return
	}

	events, err := DecodeBatch(records)
	if err != nil {
		entry.logger.WithError(err).Error("Dropping undecodable event batch")
		return
	}

	cb := entry.current()
	if cb == nil {
		return
	}
	entry.invoke(cb, events)
}

func (e *bridgeEntry) invoke(cb Callback, events []Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Recovered from panic in event callback")
		}
	}()
	cb(events)
}
