package cache

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// dirContents memoizes directory listings by absolute path.
// Concurrent callers may list the same directory twice; both store the
// same set, so the later Store is harmless.
type dirContents struct {
	fs    billy.Filesystem
	byDir *xsync.MapOf[string, map[string]struct{}]
}

func newDirContents(fs billy.Filesystem) *dirContents {
	return &dirContents{fs: fs, byDir: xsync.NewMapOf[string, map[string]struct{}]()}
}

// list returns the absolute paths of dir's immediate children.
// A missing path or a regular file lists as empty.
func (d *dirContents) list(dir string) (map[string]struct{}, error) {
	dir = filepath.Clean(dir)
	if set, ok := d.byDir.Load(dir); ok {
		return set, nil
	}
	infos, err := d.fs.ReadDir(dir)
	if err != nil {
		if fi, statErr := d.fs.Stat(dir); statErr == nil && fi.IsDir() {
			return nil, platformerrors.WithContext(
				platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to list %s", dir),
				"path", dir)
		}
		infos = nil
	}
	set := make(map[string]struct{}, len(infos))
	for _, fi := range infos {
		set[filepath.Join(dir, fi.Name())] = struct{}{}
	}
	d.byDir.Store(dir, set)
	return set, nil
}

// size returns the number of memoized directories.
func (d *dirContents) size() int {
	return d.byDir.Size()
}
