// Package engine implements the libfswatch session API in Go on top of the
// notification facilities the platform already offers.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/fsw/internal/logging"
	"github.com/dominicbreuker/fsw/native"
)

const defaultLatency = time.Second

// Engine is a native.Library served by in-process monitor drivers.
type Engine struct {
	logger logrus.FieldLogger

	mu          sync.Mutex
	initialized bool
	sessions    map[native.Handle]*session
	nextHandle  native.Handle

	lastError atomic.Int32
	verbose   atomic.Bool
}

var _ native.Library = (*Engine)(nil)

// New returns an engine logging to logger, or to logging.Log when nil.
func New(logger logrus.FieldLogger) *Engine {
	if logger == nil {
		logger = logging.Log
	}
	return &Engine{
		logger:   logging.AddContext(logger, logging.Ctx{"backend": "engine"}),
		sessions: make(map[native.Handle]*session),
	}
}

func (e *Engine) fail(status native.Status) native.Status {
	e.lastError.Store(int32(status))
	return status
}

// Init marks the engine as initialized. It is idempotent.
func (e *Engine) Init() native.Status {
	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()
	return native.OK
}

// InitSession creates a session for an available monitor type.
func (e *Engine) InitSession(monitorType native.MonitorType) native.Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		e.fail(native.ErrUnknownError)
		return native.InvalidHandle
	}

	resolved, ok := resolveMonitor(monitorType)
	if !ok {
		e.fail(native.ErrUnknownMonitorType)
		return native.InvalidHandle
	}

	e.nextHandle++
	h := e.nextHandle
	e.sessions[h] = &session{
		handle:      h,
		monitorType: resolved,
		fallback:    monitorType == native.SystemDefaultMonitor,
		properties:  make(map[string]string),
		latency:     defaultLatency,
	}
	e.debug("Initialized session", logging.Ctx{"handle": h, "monitor": resolved.String()})
	return h
}

// configure runs f on the session for h unless it is unknown or running.
func (e *Engine) configure(h native.Handle, f func(s *session) native.Status) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[h]
	if !ok {
		return e.fail(native.ErrSessionUnknown)
	}
	if s.running {
		return e.fail(native.ErrMonitorAlreadyRunning)
	}
	status := f(s)
	if status != native.OK {
		return e.fail(status)
	}
	return native.OK
}

func (e *Engine) AddPath(h native.Handle, path string) native.Status {
	return e.configure(h, func(s *session) native.Status {
		if path == "" {
			return native.ErrInvalidPath
		}
		s.paths = append(s.paths, path)
		return native.OK
	})
}

func (e *Engine) AddProperty(h native.Handle, name string, value string) native.Status {
	return e.configure(h, func(s *session) native.Status {
		if name == "" {
			return native.ErrInvalidProperty
		}
		s.properties[name] = value
		return native.OK
	})
}

func (e *Engine) SetAllowOverflow(h native.Handle, allow bool) native.Status {
	return e.configure(h, func(s *session) native.Status {
		s.allowOverflow = allow
		return native.OK
	})
}

func (e *Engine) SetCallback(h native.Handle, cb native.Callback, data uintptr) native.Status {
	return e.configure(h, func(s *session) native.Status {
		if cb == nil {
			return native.ErrInvalidCallback
		}
		s.callback = cb
		s.data = data
		return native.OK
	})
}

func (e *Engine) SetLatency(h native.Handle, seconds float64) native.Status {
	return e.configure(h, func(s *session) native.Status {
		if seconds < 0 {
			return native.ErrInvalidLatency
		}
		s.latency = time.Duration(seconds * float64(time.Second))
		return native.OK
	})
}

func (e *Engine) SetRecursive(h native.Handle, recursive bool) native.Status {
	return e.configure(h, func(s *session) native.Status {
		s.recursive = recursive
		return native.OK
	})
}

func (e *Engine) SetDirectoryOnly(h native.Handle, directoryOnly bool) native.Status {
	return e.configure(h, func(s *session) native.Status {
		s.directoryOnly = directoryOnly
		return native.OK
	})
}

func (e *Engine) SetFollowSymlinks(h native.Handle, follow bool) native.Status {
	return e.configure(h, func(s *session) native.Status {
		s.followSymlinks = follow
		return native.OK
	})
}

func (e *Engine) AddEventTypeFilter(h native.Handle, flag native.EventFlag) native.Status {
	return e.configure(h, func(s *session) native.Status {
		if flag == native.NoOp {
			return native.ErrUnknownValue
		}
		s.eventTypes = append(s.eventTypes, flag)
		return native.OK
	})
}

func (e *Engine) AddFilter(h native.Handle, filter native.Filter) native.Status {
	return e.configure(h, func(s *session) native.Status {
		compiled, err := compileFilter(filter)
		if err != nil {
			e.debug("Rejected filter", logging.Ctx{"handle": h, "filter": filter.Text, "err": err})
			return native.ErrInvalidRegex
		}
		s.filters = append(s.filters, compiled)
		return native.OK
	})
}

// StartMonitor runs the session's monitor until StopMonitor is called or
// the driver fails. Callbacks run on the calling goroutine.
func (e *Engine) StartMonitor(h native.Handle) native.Status {
	e.mu.Lock()
	s, ok := e.sessions[h]
	if !ok {
		e.mu.Unlock()
		return e.fail(native.ErrSessionUnknown)
	}
	if s.running {
		e.mu.Unlock()
		return e.fail(native.ErrMonitorAlreadyRunning)
	}
	if s.callback == nil {
		e.mu.Unlock()
		return e.fail(native.ErrCallbackNotSet)
	}
	if len(s.paths) == 0 {
		e.mu.Unlock()
		return e.fail(native.ErrPathsNotSet)
	}
	s.running = true
	s.stop = make(chan struct{})
	cfg := s.snapshot()
	logger := logging.AddContext(e.logger, logging.Ctx{"handle": h, "monitor": cfg.monitorType.String()})
	e.mu.Unlock()

	status := run(cfg, logger, e.verbose.Load())

	e.mu.Lock()
	s.running = false
	s.stop = nil
	e.mu.Unlock()

	if status != native.OK {
		return e.fail(status)
	}
	return native.OK
}

// StopMonitor asks a running monitor to return. Stopping an idle session is
// a no-op.
func (e *Engine) StopMonitor(h native.Handle) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[h]
	if !ok {
		return e.fail(native.ErrSessionUnknown)
	}
	if s.running && s.stop != nil {
		select {
		case <-s.stop:
		default:
			close(s.stop)
		}
	}
	return native.OK
}

func (e *Engine) IsRunning(h native.Handle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[h]
	return ok && s.running
}

// DestroySession frees the session. Running sessions must be stopped first.
func (e *Engine) DestroySession(h native.Handle) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[h]
	if !ok {
		return e.fail(native.ErrSessionUnknown)
	}
	if s.running {
		return e.fail(native.ErrMonitorAlreadyRunning)
	}
	delete(e.sessions, h)
	e.debug("Destroyed session", logging.Ctx{"handle": h})
	return native.OK
}

func (e *Engine) LastError() native.Status {
	return native.Status(e.lastError.Load())
}

func (e *Engine) IsVerbose() bool {
	return e.verbose.Load()
}

func (e *Engine) SetVerbose(verbose bool) {
	e.verbose.Store(verbose)
}

func (e *Engine) debug(msg string, ctx logging.Ctx) {
	if !e.verbose.Load() {
		return
	}
	logging.AddContext(e.logger, ctx).Debug(msg)
}
