package engine

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/fsw/native"
)

const minPollInterval = 10 * time.Millisecond

type pollEntry struct {
	mode    os.FileMode
	size    int64
	modTime time.Time
}

// poll detects changes by comparing stat snapshots taken every latency
// period.
type poll struct {
	logger   logrus.FieldLogger
	cfg      *monitorConfig
	interval time.Duration
	prev     map[string]pollEntry
}

func newPoll(logger logrus.FieldLogger) driver {
	return &poll{logger: logger}
}

func (d *poll) name() string {
	return "poll"
}

func (d *poll) start(cfg *monitorConfig) error {
	d.cfg = cfg
	d.interval = cfg.latency
	if d.interval <= 0 {
		d.interval = defaultLatency
	}
	if d.interval < minPollInterval {
		d.interval = minPollInterval
	}
	d.prev = d.scan()
	return nil
}

func (d *poll) run(ctx context.Context, out chan<- change) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			next := d.scan()
			for _, c := range diffSnapshots(d.prev, next) {
				if !emit(ctx, out, c) {
					return nil
				}
			}
			d.prev = next
		}
	}
}

func (d *poll) close() error {
	return nil
}

func (d *poll) stat(path string) (os.FileInfo, error) {
	if d.cfg.followSymlinks {
		return os.Stat(path)
	}
	return os.Lstat(path)
}

func (d *poll) scan() map[string]pollEntry {
	snap := make(map[string]pollEntry)
	add := func(path string, fi os.FileInfo) {
		if d.cfg.directoryOnly && !fi.IsDir() {
			return
		}
		snap[path] = pollEntry{mode: fi.Mode(), size: fi.Size(), modTime: fi.ModTime()}
	}

	for _, root := range d.cfg.roots {
		fi, err := d.stat(root)
		if err != nil {
			continue
		}
		add(root, fi)
		if !fi.IsDir() {
			continue
		}

		for _, dir := range rootDirs(d.cfg, root, d.logger) {
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, e := range entries {
				path := filepath.Join(dir, e.Name())
				fi, err := d.stat(path)
				if err != nil {
					continue
				}
				add(path, fi)
			}
		}
	}
	return snap
}

// diffSnapshots reports created, removed and modified paths in path order.
func diffSnapshots(prev, next map[string]pollEntry) []change {
	paths := make([]string, 0, len(next))
	for p := range next {
		paths = append(paths, p)
	}
	for p := range prev {
		if _, ok := next[p]; !ok {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)

	changes := make([]change, 0)
	for _, p := range paths {
		old, hadOld := prev[p]
		cur, hasCur := next[p]

		var mask native.EventFlag
		switch {
		case !hadOld:
			mask = native.Created | modeFlag(cur.mode)
		case !hasCur:
			mask = native.Removed | modeFlag(old.mode)
		default:
			if !cur.modTime.Equal(old.modTime) || cur.size != old.size {
				mask |= native.Updated
			}
			if cur.mode != old.mode {
				mask |= native.AttributeModified
			}
			if mask == 0 {
				continue
			}
			mask |= modeFlag(cur.mode)
		}
		changes = append(changes, change{path: p, flags: flagsFromMask(mask)})
	}
	return changes
}
