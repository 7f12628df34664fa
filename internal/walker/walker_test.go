package walker

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func setupTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "testdata")
	for _, d := range []string{"subdir/subsubdir"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatalf("creating %s: %v", d, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "subdir", "file"), []byte("x"), 0644); err != nil {
		t.Fatalf("creating file: %v", err)
	}
	return root
}

func TestWalk(t *testing.T) {
	root := setupTree(t)
	rel := func(dirs []string) []string {
		out := make([]string, 0, len(dirs))
		for _, d := range dirs {
			r, err := filepath.Rel(filepath.Dir(root), d)
			if err != nil {
				t.Fatalf("rel: %v", err)
			}
			out = append(out, filepath.ToSlash(r))
		}
		return out
	}

	tests := []struct {
		root   string
		depth  int
		result []string
		errs   []string
	}{
		{root: root, depth: 999, result: []string{
			"testdata",
			"testdata/subdir",
			"testdata/subdir/subsubdir",
		}, errs: []string{}},
		{root: root, depth: -1, result: []string{
			"testdata",
			"testdata/subdir",
			"testdata/subdir/subsubdir",
		}, errs: []string{}},
		{root: root, depth: 1, result: []string{
			"testdata",
			"testdata/subdir",
		}, errs: []string{}},
		{root: root, depth: 0, result: []string{
			"testdata",
		}, errs: []string{}},
		{root: filepath.Join(root, "subdir"), depth: 1, result: []string{
			"testdata/subdir",
			"testdata/subdir/subsubdir",
		}, errs: []string{}},
		{root: filepath.Join(root, "subdir", "file"), depth: 1, result: []string{}, errs: []string{}},
		{root: filepath.Join(root, "non-existing-dir"), depth: 1, result: []string{}, errs: []string{"Can't walk directory"}},
	}

	for i, tt := range tests {
		dirs, errs := Dirs(tt.root, tt.depth, Options{})

		if !reflect.DeepEqual(rel(dirs), tt.result) {
			t.Fatalf("[%d] Wrong dirs found: %+v", i, rel(dirs))
		}
		if len(errs) != len(tt.errs) {
			t.Fatalf("[%d] Wrong number of errs found: %+v vs %+v", i, errs, tt.errs)
		}
		for j, err := range errs {
			if !strings.HasPrefix(err.Error(), tt.errs[j]) {
				t.Fatalf("[%d] Wrong error: %v", i, err)
			}
		}
	}
}

func TestWalkFollowSymlinks(t *testing.T) {
	root := setupTree(t)
	link := filepath.Join(root, "link")
	if err := os.Symlink(filepath.Join(root, "subdir"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	dirs, _ := Dirs(root, -1, Options{})
	for _, d := range dirs {
		if d == link {
			t.Fatalf("symlink followed without FollowSymlinks: %v", dirs)
		}
	}

	dirs, _ = Dirs(link, -1, Options{FollowSymlinks: true})
	if len(dirs) != 2 {
		t.Fatalf("expected link and its subdirectory, got %v", dirs)
	}
}

func TestWalkStop(t *testing.T) {
	root := setupTree(t)
	errCh := make(chan error)
	dirCh, doneCh := Walk(root, -1, Options{}, errCh)

	if d := <-dirCh; d != root {
		t.Fatalf("expected root first, got %s", d)
	}
	close(doneCh)
	for range dirCh {
	}
}
