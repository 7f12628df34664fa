//go:build linux

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/dominicbreuker/fsw/native"
)

const (
	inotifyEvents       = unix.IN_ALL_EVENTS
	maximumWatchersFile = "/proc/sys/fs/inotify/max_user_watches"
	inotifyPollTimeout  = 100 // milliseconds
)

func init() {
	drivers[native.InotifyMonitor] = newInotify
	defaultMonitors = []native.MonitorType{native.InotifyMonitor}
}

// inotifyFlags maps inotify event bits to libfswatch flags.
var inotifyFlags = []struct {
	mask  uint32
	flags native.EventFlag
}{
	{unix.IN_ACCESS, native.PlatformSpecific},
	{unix.IN_ATTRIB, native.AttributeModified},
	{unix.IN_CLOSE_NOWRITE, native.PlatformSpecific},
	{unix.IN_CLOSE_WRITE, native.Updated},
	{unix.IN_CREATE, native.Created},
	{unix.IN_DELETE, native.Removed},
	{unix.IN_DELETE_SELF, native.Removed},
	{unix.IN_MODIFY, native.Updated},
	{unix.IN_MOVE_SELF, native.Renamed},
	{unix.IN_MOVED_FROM, native.Renamed | native.MovedFrom},
	{unix.IN_MOVED_TO, native.Renamed | native.MovedTo},
	{unix.IN_OPEN, native.PlatformSpecific},
}

type watcher struct {
	wd  int
	dir string
}

type inotify struct {
	logger      logrus.FieldLogger
	cfg         *monitorConfig
	fd          int
	watchers    map[int]*watcher
	maxWatchers int
	limitHit    bool
}

func newInotify(logger logrus.FieldLogger) driver {
	return &inotify{
		logger:   logger,
		fd:       -1,
		watchers: make(map[int]*watcher),
	}
}

func (i *inotify) name() string {
	return "inotify"
}

func (i *inotify) start(cfg *monitorConfig) error {
	i.cfg = cfg

	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return fmt.Errorf("initializing inotify: %w", err)
	}
	i.fd = fd

	i.maxWatchers, err = watcherLimit()
	if err != nil {
		i.logger.WithError(err).Debug("Can't get inotify watcher limit")
		i.maxWatchers = -1
	}

	for _, root := range cfg.roots {
		i.addRoot(root)
	}
	i.logger.Debug(i.String())
	return nil
}

func (i *inotify) addRoot(root string) {
	fi, err := os.Stat(root)
	if err != nil {
		i.logger.WithError(err).WithField("path", root).Warn("Can't watch path")
		return
	}
	if !fi.IsDir() {
		i.watchLogged(root)
		return
	}
	for _, dir := range rootDirs(i.cfg, root, i.logger) {
		if !i.watchLogged(dir) {
			return
		}
	}
}

// watchLogged adds a watch and logs failures. It returns false once the
// watcher limit is reached.
func (i *inotify) watchLogged(dir string) bool {
	if i.maxWatchers > 0 && len(i.watchers) >= i.maxWatchers {
		if !i.limitHit {
			i.limitHit = true
			i.logger.WithField("limit", i.maxWatchers).Warn("Inotify watcher limit reached")
		}
		return false
	}
	if err := i.watch(dir); err != nil {
		i.logger.WithError(err).Debug("Can't create watcher")
	}
	return true
}

func (i *inotify) watch(dir string) error {
	wd, err := unix.InotifyAddWatch(i.fd, dir, inotifyEvents)
	if err != nil {
		return fmt.Errorf("adding watcher on %s: %w", dir, err)
	}
	i.watchers[wd] = &watcher{
		wd:  wd,
		dir: dir,
	}
	return nil
}

func (i *inotify) run(ctx context.Context, out chan<- change) error {
	buf := make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1))
	fds := []unix.PollFd{{Fd: int32(i.fd), Events: unix.POLLIN}}

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.Poll(fds, inotifyPollTimeout)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("polling inotify fd %d: %w", i.fd, err)
		}
		if n == 0 {
			continue
		}

		n, err = unix.Read(i.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("reading from inotify fd %d: %w", i.fd, err)
		}
		if n < unix.SizeofInotifyEvent {
			i.logger.WithField("bytes", n).Warn("Short read from inotify")
			continue
		}

		if !i.parseEvents(ctx, buf[:n], out) {
			return nil
		}
	}
}

// parseEvents decodes every event in buf. It returns false if ctx ended
// while sending.
func (i *inotify) parseEvents(ctx context.Context, buf []byte, out chan<- change) bool {
	n := uint32(len(buf))
	var offset uint32
	for offset+unix.SizeofInotifyEvent <= n {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		mask := raw.Mask
		nameLen := raw.Len
		next := offset + unix.SizeofInotifyEvent + nameLen

		c, ok := i.parseEvent(raw.Wd, mask, buf[offset+unix.SizeofInotifyEvent:min(next, n)])
		offset = next
		if !ok {
			continue
		}
		if !emit(ctx, out, c) {
			return false
		}
	}
	return true
}

func (i *inotify) parseEvent(wd int32, mask uint32, nameBytes []byte) (change, bool) {
	if mask&unix.IN_Q_OVERFLOW != 0 {
		return change{flags: []native.EventFlag{native.Overflow}}, true
	}

	w, ok := i.watchers[int(wd)]
	if !ok {
		return change{}, false
	}
	if mask&unix.IN_IGNORED != 0 {
		delete(i.watchers, int(wd))
		return change{}, false
	}

	name := w.dir
	if len(nameBytes) > 0 {
		name = filepath.Join(w.dir, string(bytes.TrimRight(nameBytes, "\x00")))
	}

	if i.cfg.recursive && mask&unix.IN_ISDIR != 0 && mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0 {
		for _, dir := range rootDirs(i.cfg, name, i.logger) {
			if !i.watchLogged(dir) {
				break
			}
		}
	}

	flags := eventFlags(mask)
	if len(flags) == 0 {
		return change{}, false
	}
	return change{path: name, flags: flags}, true
}

func eventFlags(mask uint32) []native.EventFlag {
	var set native.EventFlag
	for _, m := range inotifyFlags {
		if mask&m.mask != 0 {
			set |= m.flags
		}
	}
	if set == 0 {
		return nil
	}
	if mask&unix.IN_ISDIR != 0 {
		set |= native.IsDir
	} else {
		set |= native.IsFile
	}
	return flagsFromMask(set)
}

func (i *inotify) close() error {
	if i.fd < 0 {
		return nil
	}
	fd := i.fd
	i.fd = -1
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("closing inotify fd: %w", err)
	}
	return nil
}

func (i *inotify) String() string {
	if len(i.watchers) < 20 {
		dirs := make([]string, 0)
		for _, w := range i.watchers {
			dirs = append(dirs, w.dir)
		}
		return fmt.Sprintf("Watching: %v", dirs)
	}
	return fmt.Sprintf("Watching %d directories", len(i.watchers))
}

func watcherLimit() (int, error) {
	b, err := os.ReadFile(maximumWatchersFile)
	if err != nil {
		return 0, fmt.Errorf("reading from %s: %w", maximumWatchersFile, err)
	}

	s := strings.TrimSpace(string(b))
	m, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("converting to integer: %w", err)
	}

	return m, nil
}
