package walker

import (
	"fmt"
	"os"
	"path/filepath"
)

const maxInt = int(^uint(0) >> 1)

// Options controls how directories are descended.
type Options struct {
	// FollowSymlinks descends into symlinks pointing at directories.
	FollowSymlinks bool
}

// Walk sends root and, up to depth levels below it, every subdirectory on
// dirCh. A negative depth walks the whole tree. Errors are reported on errCh,
// which the caller must keep draining until dirCh is closed. Closing doneCh
// stops the walk early.
func Walk(root string, depth int, opts Options, errCh chan error) (dirCh chan string, doneCh chan struct{}) {
	if depth < 0 {
		depth = maxInt
	}
	dirCh = make(chan string)
	doneCh = make(chan struct{})

	go func() {
		visited := make(map[string]struct{})
		descent(root, depth, opts, visited, dirCh, errCh, doneCh)
		close(dirCh)
	}()
	return dirCh, doneCh
}

func descent(dir string, depth int, opts Options, visited map[string]struct{}, dirCh chan string, errCh chan error, doneCh chan struct{}) bool {
	fi, err := os.Stat(dir)
	if err != nil {
		return sendErr(fmt.Errorf("Can't walk directory %s: %w", dir, err), errCh, doneCh)
	}
	if !fi.IsDir() {
		return true
	}

	if opts.FollowSymlinks {
		real, err := filepath.EvalSymlinks(dir)
		if err == nil {
			if _, seen := visited[real]; seen {
				return true
			}
			visited[real] = struct{}{}
		}
	}

	select {
	case dirCh <- dir:
	case <-doneCh:
		return false
	}
	if depth <= 0 {
		return true
	}

	ls, err := os.ReadDir(dir)
	if err != nil {
		if !sendErr(fmt.Errorf("opening dir %s: %w", dir, err), errCh, doneCh) {
			return false
		}
	}

	for _, e := range ls {
		isDir := e.IsDir()
		if !isDir && opts.FollowSymlinks && e.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(dir, e.Name()))
			isDir = err == nil && target.IsDir()
		}
		if !isDir {
			continue
		}
		if !descent(filepath.Join(dir, e.Name()), depth-1, opts, visited, dirCh, errCh, doneCh) {
			return false
		}
	}
	return true
}

func sendErr(err error, errCh chan error, doneCh chan struct{}) bool {
	select {
	case errCh <- err:
		return true
	case <-doneCh:
		return false
	}
}

// Dirs runs Walk to completion and returns the directories in walk order
// together with every error encountered.
func Dirs(root string, depth int, opts Options) ([]string, []error) {
	errCh := make(chan error)
	dirCh, doneCh := Walk(root, depth, opts, errCh)
	defer close(doneCh)

	dirs := make([]string, 0)
	errs := make([]error, 0)
	for {
		select {
		case err := <-errCh:
			errs = append(errs, err)
		case dir, ok := <-dirCh:
			if !ok {
				return dirs, errs
			}
			dirs = append(dirs, dir)
		}
	}
}
