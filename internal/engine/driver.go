package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/fsw/internal/walker"
	"github.com/dominicbreuker/fsw/native"
)

// change is one raw observation made by a driver.
type change struct {
	path  string
	flags []native.EventFlag
}

// driver is a low-level change source.
type driver interface {
	name() string
	// start sets up watches for cfg.
	start(cfg *monitorConfig) error
	// run sends changes on out until ctx is done or the source fails.
	run(ctx context.Context, out chan<- change) error
	close() error
}

var drivers = map[native.MonitorType]func(logger logrus.FieldLogger) driver{
	native.PollMonitor: newPoll,
}

// defaultMonitors lists the preferred monitor types of the platform.
var defaultMonitors = []native.MonitorType{native.PollMonitor}

// resolveMonitor maps a requested monitor type to one with a driver.
func resolveMonitor(t native.MonitorType) (native.MonitorType, bool) {
	if t == native.SystemDefaultMonitor {
		for _, candidate := range defaultMonitors {
			if _, ok := drivers[candidate]; ok {
				return candidate, true
			}
		}
		return native.PollMonitor, true
	}
	_, ok := drivers[t]
	return t, ok
}

// Available reports whether the engine can serve monitorType on this platform.
func Available(monitorType native.MonitorType) bool {
	_, ok := resolveMonitor(monitorType)
	return ok
}

// startDriver starts the configured driver. For the system default monitor
// it falls back on fsnotify and then on polling.
func startDriver(cfg *monitorConfig, logger logrus.FieldLogger) (driver, error) {
	d := drivers[cfg.monitorType](logger)
	err := d.start(cfg)
	if err == nil {
		return d, nil
	}
	if !cfg.fallback {
		return nil, fmt.Errorf("starting %s monitor: %w", d.name(), err)
	}

	for _, next := range []func(logrus.FieldLogger) driver{newFsnotify, newPoll} {
		fb := next(logger)
		if fb.name() == d.name() {
			continue
		}
		logger.WithError(err).Warnf("Failed to initialize %s, falling back on %s", d.name(), fb.name())
		err = fb.start(cfg)
		if err == nil {
			return fb, nil
		}
		d = fb
	}
	return nil, fmt.Errorf("starting %s monitor: %w", d.name(), err)
}

func emit(ctx context.Context, out chan<- change, c change) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// watchDepth is the walker depth for a root: the root itself, or the whole
// tree when recursive.
func watchDepth(recursive bool) int {
	if recursive {
		return -1
	}
	return 0
}

// rootDirs lists the directories to watch for root. A root that is not a
// directory yields nothing.
func rootDirs(cfg *monitorConfig, root string, logger logrus.FieldLogger) []string {
	dirs, errs := walker.Dirs(root, watchDepth(cfg.recursive), walker.Options{FollowSymlinks: cfg.followSymlinks})
	for _, err := range errs {
		logger.WithError(err).Debug("Failed to walk directory")
	}
	return dirs
}

// typeFlag classifies path as file, directory or symlink.
func typeFlag(path string) (native.EventFlag, bool) {
	fi, err := os.Lstat(path)
	if err != nil {
		return native.NoOp, false
	}
	return modeFlag(fi.Mode()), true
}

func modeFlag(mode os.FileMode) native.EventFlag {
	switch {
	case mode&os.ModeSymlink != 0:
		return native.IsSymLink
	case mode.IsDir():
		return native.IsDir
	default:
		return native.IsFile
	}
}
