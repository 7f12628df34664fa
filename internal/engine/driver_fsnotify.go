package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/fsw/native"
)

// fsnotifyDriver serves the kqueue and Windows monitor types, and is the
// first fallback of the system default monitor.
type fsnotifyDriver struct {
	logger  logrus.FieldLogger
	cfg     *monitorConfig
	watcher *fsnotify.Watcher
	watched map[string]struct{}
}

func newFsnotify(logger logrus.FieldLogger) driver {
	return &fsnotifyDriver{
		logger:  logger,
		watched: make(map[string]struct{}),
	}
}

func (d *fsnotifyDriver) name() string {
	return "fsnotify"
}

func (d *fsnotifyDriver) start(cfg *monitorConfig) error {
	d.cfg = cfg

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	d.watcher = w

	for _, root := range cfg.roots {
		fi, err := os.Stat(root)
		if err != nil {
			d.logger.WithError(err).WithField("path", root).Warn("Can't watch path")
			continue
		}
		if !fi.IsDir() {
			d.add(root)
			continue
		}
		for _, dir := range rootDirs(cfg, root, d.logger) {
			d.add(dir)
		}
	}
	return nil
}

func (d *fsnotifyDriver) add(path string) {
	if _, ok := d.watched[path]; ok {
		return
	}
	if err := d.watcher.Add(path); err != nil {
		d.logger.WithError(err).WithField("path", path).Debug("Can't create watcher")
		return
	}
	d.watched[path] = struct{}{}
}

func (d *fsnotifyDriver) run(ctx context.Context, out chan<- change) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				delete(d.watched, ev.Name)
			}
			flags := fsnotifyFlags(ev)
			if len(flags) == 0 {
				continue
			}
			if d.cfg.recursive && ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					for _, dir := range rootDirs(d.cfg, ev.Name, d.logger) {
						d.add(dir)
					}
				}
			}
			if !emit(ctx, out, change{path: ev.Name, flags: flags}) {
				return nil
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				if !emit(ctx, out, change{flags: []native.EventFlag{native.Overflow}}) {
					return nil
				}
				continue
			}
			return fmt.Errorf("fsnotify: %w", err)
		}
	}
}

func (d *fsnotifyDriver) close() error {
	if d.watcher == nil {
		return nil
	}
	w := d.watcher
	d.watcher = nil
	return w.Close()
}

func fsnotifyFlags(ev fsnotify.Event) []native.EventFlag {
	var set native.EventFlag
	if ev.Has(fsnotify.Create) {
		set |= native.Created
	}
	if ev.Has(fsnotify.Write) {
		set |= native.Updated
	}
	if ev.Has(fsnotify.Remove) {
		set |= native.Removed
	}
	if ev.Has(fsnotify.Rename) {
		set |= native.Renamed
	}
	if ev.Has(fsnotify.Chmod) {
		set |= native.AttributeModified
	}
	if set == 0 {
		return nil
	}
	if kind, ok := typeFlag(ev.Name); ok {
		set |= kind
	}
	return flagsFromMask(set)
}
