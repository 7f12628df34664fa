// Package nativetest provides an in-memory native.Library for tests.
package nativetest

import (
	"maps"
	"slices"
	"sync"

	"github.com/dominicbreuker/fsw/native"
)

// Call is one recorded invocation.
type Call struct {
	Op     string
	Handle native.Handle
	Arg    any
}

// Session is the state the fake keeps for a handle.
type Session struct {
	Handle         native.Handle
	MonitorType    native.MonitorType
	Paths          []string
	Properties     map[string]string
	Latency        float64
	Recursive      bool
	DirectoryOnly  bool
	FollowSymlinks bool
	AllowOverflow  bool
	EventTypes     []native.EventFlag
	Filters        []native.Filter
	Data           uintptr
	Starts         int

	callback native.Callback
	running  bool
	stop     chan struct{}
}

// Library is a scripted native.Library.
//
// StartMonitor delivers Batches to the registered callback in order on the
// calling goroutine, then either returns MonitorStatus or, with Block set,
// waits for StopMonitor first.
type Library struct {
	// InitStatus is returned by Init.
	InitStatus native.Status
	// Fail maps a method name such as "AddPath" to the status it returns.
	Fail map[string]native.Status
	// Batches are delivered by every StartMonitor call.
	Batches [][]native.Record
	// Block keeps StartMonitor running until StopMonitor.
	Block bool
	// MonitorStatus is returned when the monitor loop ends.
	MonitorStatus native.Status

	mu          sync.Mutex
	initialized bool
	sessions    map[native.Handle]*Session
	nextHandle  native.Handle
	calls       []Call
	lastError   native.Status
	verbose     bool
}

var _ native.Library = (*Library)(nil)

func New() *Library {
	return &Library{
		Fail:     make(map[string]native.Status),
		sessions: make(map[native.Handle]*Session),
	}
}

// record logs the call and returns the scripted failure for op, if any.
// Must be called with l.mu held.
func (l *Library) record(op string, h native.Handle, arg any) native.Status {
	l.calls = append(l.calls, Call{Op: op, Handle: h, Arg: arg})
	if status, ok := l.Fail[op]; ok && status != native.OK {
		l.lastError = status
		return status
	}
	return native.OK
}

func (l *Library) fail(status native.Status) native.Status {
	l.lastError = status
	return status
}

// session runs f on the session for h, failing for unknown handles and
// running monitors.
func (l *Library) session(op string, h native.Handle, arg any, f func(s *Session) native.Status) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	if status := l.record(op, h, arg); status != native.OK {
		return status
	}
	s, ok := l.sessions[h]
	if !ok {
		return l.fail(native.ErrSessionUnknown)
	}
	if s.running {
		return l.fail(native.ErrMonitorAlreadyRunning)
	}
	if status := f(s); status != native.OK {
		return l.fail(status)
	}
	return native.OK
}

func (l *Library) Init() native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, Call{Op: "Init"})
	if l.InitStatus != native.OK {
		return l.fail(l.InitStatus)
	}
	l.initialized = true
	return native.OK
}

func (l *Library) InitSession(monitorType native.MonitorType) native.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	if status := l.record("InitSession", native.InvalidHandle, monitorType); status != native.OK {
		return native.InvalidHandle
	}
	if !l.initialized {
		l.fail(native.ErrUnknownError)
		return native.InvalidHandle
	}
	l.nextHandle++
	h := l.nextHandle
	l.sessions[h] = &Session{
		Handle:      h,
		MonitorType: monitorType,
		Properties:  make(map[string]string),
	}
	return h
}

func (l *Library) AddPath(h native.Handle, path string) native.Status {
	return l.session("AddPath", h, path, func(s *Session) native.Status {
		if path == "" {
			return native.ErrInvalidPath
		}
		s.Paths = append(s.Paths, path)
		return native.OK
	})
}

func (l *Library) AddProperty(h native.Handle, name string, value string) native.Status {
	return l.session("AddProperty", h, name, func(s *Session) native.Status {
		if name == "" {
			return native.ErrInvalidProperty
		}
		s.Properties[name] = value
		return native.OK
	})
}

func (l *Library) SetAllowOverflow(h native.Handle, allow bool) native.Status {
	return l.session("SetAllowOverflow", h, allow, func(s *Session) native.Status {
		s.AllowOverflow = allow
		return native.OK
	})
}

func (l *Library) SetCallback(h native.Handle, cb native.Callback, data uintptr) native.Status {
	return l.session("SetCallback", h, data, func(s *Session) native.Status {
		if cb == nil {
			return native.ErrInvalidCallback
		}
		s.callback = cb
		s.Data = data
		return native.OK
	})
}

func (l *Library) SetLatency(h native.Handle, seconds float64) native.Status {
	return l.session("SetLatency", h, seconds, func(s *Session) native.Status {
		if seconds < 0 {
			return native.ErrInvalidLatency
		}
		s.Latency = seconds
		return native.OK
	})
}

func (l *Library) SetRecursive(h native.Handle, recursive bool) native.Status {
	return l.session("SetRecursive", h, recursive, func(s *Session) native.Status {
		s.Recursive = recursive
		return native.OK
	})
}

func (l *Library) SetDirectoryOnly(h native.Handle, directoryOnly bool) native.Status {
	return l.session("SetDirectoryOnly", h, directoryOnly, func(s *Session) native.Status {
		s.DirectoryOnly = directoryOnly
		return native.OK
	})
}

func (l *Library) SetFollowSymlinks(h native.Handle, follow bool) native.Status {
	return l.session("SetFollowSymlinks", h, follow, func(s *Session) native.Status {
		s.FollowSymlinks = follow
		return native.OK
	})
}

func (l *Library) AddEventTypeFilter(h native.Handle, flag native.EventFlag) native.Status {
	return l.session("AddEventTypeFilter", h, flag, func(s *Session) native.Status {
		s.EventTypes = append(s.EventTypes, flag)
		return native.OK
	})
}

func (l *Library) AddFilter(h native.Handle, filter native.Filter) native.Status {
	return l.session("AddFilter", h, filter, func(s *Session) native.Status {
		s.Filters = append(s.Filters, filter)
		return native.OK
	})
}

func (l *Library) StartMonitor(h native.Handle) native.Status {
	var (
		cb      native.Callback
		data    uintptr
		stop    chan struct{}
		batches [][]native.Record
	)
	status := l.session("StartMonitor", h, nil, func(s *Session) native.Status {
		if s.callback == nil {
			return native.ErrCallbackNotSet
		}
		if len(s.Paths) == 0 {
			return native.ErrPathsNotSet
		}
		s.Starts++
		s.running = true
		s.stop = make(chan struct{})
		cb, data, stop = s.callback, s.Data, s.stop
		batches = slices.Clone(l.Batches)
		return native.OK
	})
	if status != native.OK {
		return status
	}

	for _, batch := range batches {
		cb(batch, data)
	}
	if l.Block {
		<-stop
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.sessions[h]; ok {
		s.running = false
		s.stop = nil
	}
	if l.MonitorStatus != native.OK {
		return l.fail(l.MonitorStatus)
	}
	return native.OK
}

func (l *Library) StopMonitor(h native.Handle) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	if status := l.record("StopMonitor", h, nil); status != native.OK {
		return status
	}
	s, ok := l.sessions[h]
	if !ok {
		return l.fail(native.ErrSessionUnknown)
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

func (l *Library) IsRunning(h native.Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[h]
	return ok && s.running
}

func (l *Library) DestroySession(h native.Handle) native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	if status := l.record("DestroySession", h, nil); status != native.OK {
		return status
	}
	s, ok := l.sessions[h]
	if !ok {
		return l.fail(native.ErrSessionUnknown)
	}
	if s.running {
		return l.fail(native.ErrMonitorAlreadyRunning)
	}
	delete(l.sessions, h)
	return native.OK
}

func (l *Library) LastError() native.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastError
}

func (l *Library) IsVerbose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verbose
}

func (l *Library) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

// Deliver invokes the callback registered for h with records, as the
// native monitor would.
func (l *Library) Deliver(h native.Handle, records []native.Record) native.Status {
	l.mu.Lock()
	s, ok := l.sessions[h]
	if !ok || s.callback == nil {
		l.mu.Unlock()
		return native.ErrSessionUnknown
	}
	cb, data := s.callback, s.Data
	l.mu.Unlock()

	cb(records, data)
	return native.OK
}

// Session returns a copy of the state kept for h.
func (l *Library) Session(h native.Handle) (Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[h]
	if !ok {
		return Session{}, false
	}
	c := *s
	c.Paths = slices.Clone(s.Paths)
	c.Properties = maps.Clone(s.Properties)
	c.EventTypes = slices.Clone(s.EventTypes)
	c.Filters = slices.Clone(s.Filters)
	return c, true
}

// Live returns the number of sessions not yet destroyed.
func (l *Library) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Calls returns the recorded calls in order.
func (l *Library) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

// Count returns how often op was called.
func (l *Library) Count(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}
