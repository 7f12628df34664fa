package fsw

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/fsw/internal/logging"
	"github.com/dominicbreuker/fsw/native"
)

// Filter is a path filter applied by the native monitor.
type Filter = native.Filter

const (
	FilterInclude = native.FilterInclude
	FilterExclude = native.FilterExclude
)

// Session owns one native monitoring session.
//
// Configuration methods must be called before StartMonitor. A Session is
// closed exactly once; every method of a closed Session fails with
// ErrInvalidHandle. Callers must Close every Session: the callback registry
// keeps it reachable, so an unclosed Session is never collected.
type Session struct {
	lib         *Library
	native      native.Library
	logger      logrus.FieldLogger
	id          uuid.UUID
	monitorType native.MonitorType
	bridge      *bridgeEntry

	mu          sync.Mutex
	handle      native.Handle
	closed      bool
	started     bool
	running     bool
	hasCallback bool
	paths       []string
}

func newSession(lib *Library, h native.Handle, monitorType native.MonitorType) *Session {
	id := uuid.New()
	logger := logging.AddContext(lib.logger, logging.Ctx{"session": id.String(), "handle": h})
	s := &Session{
		lib:         lib,
		native:      lib.native,
		logger:      logger,
		id:          id,
		monitorType: monitorType,
		bridge:      bridges.add(logger),
		handle:      h,
	}
	logger.WithField("monitor", monitorType.String()).Debug("Session created")
	return s
}

// usable must be called with s.mu held.
func (s *Session) usable() error {
	if s.closed {
		return ErrInvalidHandle
	}
	if s.started {
		return ErrAlreadyMonitoring
	}
	return nil
}

func (s *Session) configure(op string, f func(h native.Handle) native.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	return checkStatus(op, f(s.handle))
}

// AddPath adds path to the watch set. Adding a path twice is a no-op.
func (s *Session) AddPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrPath, path)
	}
	if slices.Contains(s.paths, path) {
		return nil
	}
	if err := checkStatus("add path", s.native.AddPath(s.handle, path)); err != nil {
		return err
	}
	s.paths = append(s.paths, path)
	return nil
}

// AddProperty sets a monitor-specific property.
func (s *Session) AddProperty(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if strings.IndexByte(name, 0) >= 0 || strings.IndexByte(value, 0) >= 0 {
		return fmt.Errorf("%w: property %q contains a NUL byte", ErrNotConfigured, name)
	}
	return checkStatus("add property", s.native.AddProperty(s.handle, name, value))
}

// AddFilter adds a path filter.
func (s *Session) AddFilter(filter Filter) error {
	return s.configure("add filter", func(h native.Handle) native.Status {
		return s.native.AddFilter(h, filter)
	})
}

// AddEventTypeFilter restricts reported flags. Once any event type filter
// is set, only the listed flags are reported.
func (s *Session) AddEventTypeFilter(flag native.EventFlag) error {
	return s.configure("add event type filter", func(h native.Handle) native.Status {
		return s.native.AddEventTypeFilter(h, flag)
	})
}

// SetLatency sets how long the monitor batches events before invoking the
// callback.
func (s *Session) SetLatency(latency time.Duration) error {
	return s.configure("set latency", func(h native.Handle) native.Status {
		return s.native.SetLatency(h, latency.Seconds())
	})
}

func (s *Session) SetRecursive(recursive bool) error {
	return s.configure("set recursive", func(h native.Handle) native.Status {
		return s.native.SetRecursive(h, recursive)
	})
}

func (s *Session) SetDirectoryOnly(directoryOnly bool) error {
	return s.configure("set directory only", func(h native.Handle) native.Status {
		return s.native.SetDirectoryOnly(h, directoryOnly)
	})
}

func (s *Session) SetFollowSymlinks(follow bool) error {
	return s.configure("set follow symlinks", func(h native.Handle) native.Status {
		return s.native.SetFollowSymlinks(h, follow)
	})
}

// SetAllowOverflow lets the monitor report queue overflows as Overflow
// events instead of failing.
func (s *Session) SetAllowOverflow(allow bool) error {
	return s.configure("set allow overflow", func(h native.Handle) native.Status {
		return s.native.SetAllowOverflow(h, allow)
	})
}

// SetCallback registers cb, replacing any earlier callback.
func (s *Session) SetCallback(cb Callback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if cb == nil {
		return fmt.Errorf("%w: nil callback", ErrNotConfigured)
	}
	if err := checkStatus("set callback", s.native.SetCallback(s.handle, dispatch, s.bridge.id)); err != nil {
		return err
	}
	s.bridge.setCallback(cb)
	s.hasCallback = true
	return nil
}

// StartMonitor runs the monitor and blocks until it stops. It can be called
// once per session; a call rejected for missing configuration does not
// count.
func (s *Session) StartMonitor() error {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if len(s.paths) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: no paths to watch", ErrNotConfigured)
	}
	if !s.hasCallback {
		s.mu.Unlock()
		return fmt.Errorf("%w: no callback set", ErrNotConfigured)
	}
	s.started = true
	s.running = true
	h := s.handle
	s.mu.Unlock()

	s.logger.WithField("paths", s.Paths()).Debug("Starting monitor")
	status := s.native.StartMonitor(h)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if status != native.OK {
		s.logger.WithField("status", status.String()).Debug("Monitor failed")
		return fmt.Errorf("%w: %w", ErrMonitor, &StatusError{Op: "start monitor", Status: status})
	}
	s.logger.Debug("Monitor stopped")
	return nil
}

// Stop asks a running monitor to return from StartMonitor. Stopping a
// session that is not monitoring is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrInvalidHandle
	}
	if !s.running {
		return nil
	}
	return checkStatus("stop monitor", s.native.StopMonitor(s.handle))
}

// Close releases the native session. It is safe to call more than once,
// but not while the monitor runs.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if s.running {
		return fmt.Errorf("%w: stop the monitor before closing", ErrAlreadyMonitoring)
	}

	err := checkStatus("destroy session", s.native.DestroySession(s.handle))
	if err != nil && !errors.Is(err, ErrInvalidHandle) {
		return err
	}
	s.closed = true
	s.handle = native.InvalidHandle
	bridges.remove(s.bridge.id)
	s.logger.Debug("Session closed")
	return nil
}

// Paths returns the watch set in insertion order.
func (s *Session) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.paths)
}

// ID is the session id used in log output.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Handle returns the native handle, or native.InvalidHandle once closed.
func (s *Session) Handle() native.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// MonitorType returns the monitor type the session was created with.
func (s *Session) MonitorType() native.MonitorType {
	return s.monitorType
}

// Monitoring reports whether StartMonitor is executing.
func (s *Session) Monitoring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
