package cache

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	platformerrors "github.com/jmgilman/go/errors"

	"klibcache/internal/library"
	"klibcache/internal/target"
)

// Selector decides whether a directory holds a library's cache and of
// which shape. Directory listings are memoized per Selector.
type Selector struct {
	fs       billy.Filesystem
	target   target.Target
	contents *dirContents
}

// NewSelector creates a Selector reading from fs.
func NewSelector(fs billy.Filesystem, t target.Target) *Selector {
	return &Selector{fs: fs, target: t, contents: newDirContents(fs)}
}

// Select inspects dir for lib's cache. It reports false, and no error,
// when dir is missing or empty. Monolithic artifacts are looked up only
// under <dir>/bin; a non-empty dir without one is a per-file cache.
func (s *Selector) Select(lib library.Library, dir string) (Cache, bool, error) {
	dir = filepath.Clean(dir)

	// An empty directory is a valid "not cached" marker: the linker may
	// leave one behind when it renames its output.
	top, err := s.contents.list(dir)
	if err != nil {
		return nil, false, err
	}
	if len(top) == 0 {
		return nil, false, nil
	}

	binDir := filepath.Join(dir, BinaryLevelDirName)
	bin, err := s.contents.list(binDir)
	if err != nil {
		return nil, false, err
	}

	baseName := CachedLibraryName(lib)
	dynamicFile := filepath.Join(binDir, target.ArtifactName(s.target, baseName, target.DynamicCache))
	staticFile := filepath.Join(binDir, target.ArtifactName(s.target, baseName, target.StaticCache))
	_, hasDynamic := bin[dynamicFile]
	_, hasStatic := bin[staticFile]

	switch {
	case hasDynamic && hasStatic:
		return nil, false, platformerrors.WithContextMap(
			platformerrors.Newf(platformerrors.CodeConflict,
				"both dynamic and static caches files cannot be in the same directory (dynamic: %s, static: %s). Library: %s, path to cache: %s",
				dynamicFile, staticFile, lib.LibraryName(), dir),
			map[string]interface{}{"library": lib.LibraryName(), "path": dir})
	case hasDynamic:
		return newMonolithic(s.fs, s.target, Dynamic, dynamicFile), true, nil
	case hasStatic:
		return newMonolithic(s.fs, s.target, Static, staticFile), true, nil
	default:
		// Per-file caches are always static and have no top-level binary.
		return newPerFile(s.fs, s.target, Static, dir), true, nil
	}
}
