package fsw

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/fsw/internal/logging"
	"github.com/dominicbreuker/fsw/native"
)

// LibraryState is the initialization state of a Library.
type LibraryState int

const (
	StateUninitialized LibraryState = iota
	StateInitialized
	StateFailedInit
)

func (s LibraryState) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateFailedInit:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Library guards the process-wide initialization of a native library and
// hands out sessions bound to it.
type Library struct {
	native native.Library
	logger logrus.FieldLogger

	mu    sync.Mutex
	state LibraryState
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger sessions and the callback bridge log to.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// NewLibrary wraps n. Most programs use Default instead; NewLibrary exists
// for embedding a different backend.
func NewLibrary(n native.Library, opts ...Option) *Library {
	l := &Library{native: n, logger: logging.Log}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
)

// Default returns the process-wide Library served by the backend this
// binary was built with.
func Default() *Library {
	defaultOnce.Do(func() {
		defaultLib = NewLibrary(defaultBackend())
	})
	return defaultLib
}

// Init initializes the native library. Calls after a successful Init are
// no-ops; a failed Init may be retried.
func (l *Library) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateInitialized {
		return nil
	}
	if status := l.native.Init(); status != native.OK {
		l.state = StateFailedInit
		return fmt.Errorf("%w: %w", ErrInit, &StatusError{Op: "init library", Status: status})
	}
	l.state = StateInitialized
	l.logger.Debug("Library initialized")
	return nil
}

// State returns the initialization state.
func (l *Library) State() LibraryState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Teardown marks the library uninitialized. libfswatch has no global
// teardown, so open sessions stay usable and must still be closed.
func (l *Library) Teardown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateUninitialized
}

func (l *Library) initialized() bool {
	return l.State() == StateInitialized
}

// Native returns the wrapped native library.
func (l *Library) Native() native.Library {
	return l.native
}

// LastError returns the last status recorded by the native library.
func (l *Library) LastError() native.Status {
	return l.native.LastError()
}

// Verbose reports whether native verbose logging is on.
func (l *Library) Verbose() bool {
	return l.native.IsVerbose()
}

// SetVerbose toggles native verbose logging.
func (l *Library) SetVerbose(verbose bool) {
	l.native.SetVerbose(verbose)
}

// NewSession allocates a native session for monitorType.
func (l *Library) NewSession(monitorType native.MonitorType) (*Session, error) {
	if !l.initialized() {
		return nil, ErrNotInitialized
	}

	h := l.native.InitSession(monitorType)
	if h == native.InvalidHandle {
		status := l.native.LastError()
		if status == native.OK {
			status = native.ErrUnknownError
		}
		return nil, checkStatus(fmt.Sprintf("init %s session", monitorType), status)
	}
	return newSession(l, h, monitorType), nil
}

// InitLibrary initializes the default library.
func InitLibrary() error {
	return Default().Init()
}

// NewSession allocates a session on the default library.
func NewSession(monitorType native.MonitorType) (*Session, error) {
	return Default().NewSession(monitorType)
}
