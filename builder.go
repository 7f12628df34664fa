package fsw

import (
	"fmt"
	"time"

	"github.com/dominicbreuker/fsw/native"
)

// Builder stages a session configuration. Nothing is allocated in the
// native library until Build; a Builder can be built more than once and
// every build yields an independent Session.
type Builder struct {
	lib         *Library
	monitorType native.MonitorType
	paths       []string
	properties  [][2]string
	filters     []Filter
	eventTypes  []native.EventFlag
	callback    Callback

	latency        *time.Duration
	recursive      *bool
	directoryOnly  *bool
	followSymlinks *bool
	allowOverflow  *bool
}

// NewBuilder returns a builder for the default library.
func NewBuilder(paths ...string) *Builder {
	return Default().NewBuilder(paths...)
}

// NewBuilder returns a builder watching paths.
func (l *Library) NewBuilder(paths ...string) *Builder {
	return &Builder{lib: l, paths: append([]string(nil), paths...)}
}

func (b *Builder) Monitor(monitorType native.MonitorType) *Builder {
	b.monitorType = monitorType
	return b
}

func (b *Builder) Path(paths ...string) *Builder {
	b.paths = append(b.paths, paths...)
	return b
}

func (b *Builder) Property(name, value string) *Builder {
	b.properties = append(b.properties, [2]string{name, value})
	return b
}

func (b *Builder) Filter(filters ...Filter) *Builder {
	b.filters = append(b.filters, filters...)
	return b
}

func (b *Builder) EventType(flags ...native.EventFlag) *Builder {
	b.eventTypes = append(b.eventTypes, flags...)
	return b
}

func (b *Builder) Latency(latency time.Duration) *Builder {
	b.latency = &latency
	return b
}

func (b *Builder) Recursive(recursive bool) *Builder {
	b.recursive = &recursive
	return b
}

func (b *Builder) DirectoryOnly(directoryOnly bool) *Builder {
	b.directoryOnly = &directoryOnly
	return b
}

func (b *Builder) FollowSymlinks(follow bool) *Builder {
	b.followSymlinks = &follow
	return b
}

func (b *Builder) AllowOverflow(allow bool) *Builder {
	b.allowOverflow = &allow
	return b
}

// Callback stages cb; Build attaches it to the session.
func (b *Builder) Callback(cb Callback) *Builder {
	b.callback = cb
	return b
}

// Build creates and configures a session. If any step fails, the partially
// configured session is closed before the error is returned.
func (b *Builder) Build() (*Session, error) {
	return b.build(b.callback)
}

// BuildWithCallback builds a session with cb as its callback.
func (b *Builder) BuildWithCallback(cb Callback) (*Session, error) {
	if cb == nil {
		return nil, fmt.Errorf("%w: nil callback", ErrNotConfigured)
	}
	return b.build(cb)
}

// BuildIter builds a session and wraps it in an Iterator.
func (b *Builder) BuildIter(buffer int) (*Iterator, error) {
	s, err := b.build(nil)
	if err != nil {
		return nil, err
	}
	it, err := s.Iter(buffer)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return it, nil
}

func (b *Builder) build(cb Callback) (*Session, error) {
	if len(b.paths) == 0 {
		return nil, fmt.Errorf("%w: no paths to watch", ErrNotConfigured)
	}

	s, err := b.lib.NewSession(b.monitorType)
	if err != nil {
		return nil, err
	}

	revert := true
	defer func() {
		if !revert {
			return
		}
		if err := s.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close partially built session")
		}
	}()

	if err := b.apply(s); err != nil {
		return nil, err
	}
	if cb != nil {
		if err := s.SetCallback(cb); err != nil {
			return nil, err
		}
	}

	revert = false
	return s, nil
}

func (b *Builder) apply(s *Session) error {
	for _, p := range b.paths {
		if err := s.AddPath(p); err != nil {
			return err
		}
	}
	for _, p := range b.properties {
		if err := s.AddProperty(p[0], p[1]); err != nil {
			return err
		}
	}
	for _, f := range b.filters {
		if err := s.AddFilter(f); err != nil {
			return err
		}
	}
	for _, t := range b.eventTypes {
		if err := s.AddEventTypeFilter(t); err != nil {
			return err
		}
	}
	if b.latency != nil {
		if err := s.SetLatency(*b.latency); err != nil {
			return err
		}
	}
	if b.recursive != nil {
		if err := s.SetRecursive(*b.recursive); err != nil {
			return err
		}
	}
	if b.directoryOnly != nil {
		if err := s.SetDirectoryOnly(*b.directoryOnly); err != nil {
			return err
		}
	}
	if b.followSymlinks != nil {
		if err := s.SetFollowSymlinks(*b.followSymlinks); err != nil {
			return err
		}
	}
	if b.allowOverflow != nil {
		if err := s.SetAllowOverflow(*b.allowOverflow); err != nil {
			return err
		}
	}
	return nil
}
