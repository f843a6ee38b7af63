// Package cache resolves and reads precompiled library caches.
//
// A cache is either Monolithic (one binary for the whole library) or
// PerFile (one subdirectory per source file). Both expose the same derived
// views: bitcode dependencies, binary paths and serialized IR metadata.
// Every view is computed at most once per Cache and is safe for concurrent
// readers.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"klibcache/internal/deps"
	"klibcache/internal/irmeta"
	"klibcache/internal/target"
)

// Cache is a resolved on-disk cache. Variants: *Monolithic, *PerFile.
type Cache interface {
	isCache()

	Kind() Kind
	Path() string

	BitcodeDependencies() ([]deps.BitcodeDependency, error)
	BinariesPaths() ([]string, error)
	SerializedInlineFunctionBodies() ([]irmeta.InlineFunctionReference, error)
	SerializedClassFields() ([]irmeta.ClassFields, error)
	SerializedEagerInitializedFiles() ([]irmeta.EagerInitializedFile, error)
}

// views holds the memoized derived collections of a cache.
type views struct {
	bitcodeDependencies  func() ([]deps.BitcodeDependency, error)
	binariesPaths        func() ([]string, error)
	inlineFunctionBodies func() ([]irmeta.InlineFunctionReference, error)
	classFields          func() ([]irmeta.ClassFields, error)
	eagerInitialized     func() ([]irmeta.EagerInitializedFile, error)
}

type base struct {
	fs     billy.Filesystem
	target target.Target
	kind   Kind
	path   string
	views  views
}

func (b *base) Kind() Kind   { return b.kind }
func (b *base) Path() string { return b.path }

func (b *base) BitcodeDependencies() ([]deps.BitcodeDependency, error) {
	return cloned(b.views.bitcodeDependencies())
}

func (b *base) BinariesPaths() ([]string, error) {
	return cloned(b.views.binariesPaths())
}

func (b *base) SerializedInlineFunctionBodies() ([]irmeta.InlineFunctionReference, error) {
	return cloned(b.views.inlineFunctionBodies())
}

func (b *base) SerializedClassFields() ([]irmeta.ClassFields, error) {
	return cloned(b.views.classFields())
}

func (b *base) SerializedEagerInitializedFiles() ([]irmeta.EagerInitializedFile, error) {
	return cloned(b.views.eagerInitialized())
}

// cloned keeps callers from mutating memoized slices.
func cloned[T any](s []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return slices.Clone(s), nil
}

// Monolithic is a cache with a single binary for the whole library.
// Path points at the binary inside the cache's "bin" directory.
type Monolithic struct {
	base
}

func (*Monolithic) isCache() {}

func newMonolithic(fs billy.Filesystem, t target.Target, kind Kind, path string) *Monolithic {
	c := &Monolithic{base: base{fs: fs, target: t, kind: kind, path: path}}
	c.views = views{
		bitcodeDependencies: sync.OnceValues(c.computeBitcodeDependencies),
		binariesPaths: sync.OnceValues(func() ([]string, error) {
			return []string{c.path}, nil
		}),
		inlineFunctionBodies: sync.OnceValues(func() ([]irmeta.InlineFunctionReference, error) {
			return readIR[irmeta.InlineFunctionReference](c.fs, c.irDir(), irmeta.InlineFunctionBodiesFileName)
		}),
		classFields: sync.OnceValues(func() ([]irmeta.ClassFields, error) {
			return readIR[irmeta.ClassFields](c.fs, c.irDir(), irmeta.ClassFieldsFileName)
		}),
		eagerInitialized: sync.OnceValues(func() ([]irmeta.EagerInitializedFile, error) {
			return readIR[irmeta.EagerInitializedFile](c.fs, c.irDir(), irmeta.EagerInitializedFileName)
		}),
	}
	return c
}

func (c *Monolithic) computeBitcodeDependencies() ([]deps.BitcodeDependency, error) {
	return readDependencies(c.fs, c.path, filepath.Join(filepath.Dir(c.path), BitcodeDependenciesFileName))
}

// irDir is <cache-root>/ir, two levels above the binary.
func (c *Monolithic) irDir() string {
	return filepath.Join(filepath.Dir(filepath.Dir(c.path)), IRLevelDirName)
}

// PerFile is a cache with one subdirectory per compiled source file.
// Path points at the cache root. Aggregate views follow file name order;
// BinariesPaths lists the expected artifact of every file without checking
// that it exists.
type PerFile struct {
	base
	files    func() ([]string, error)
	fileDeps *xsync.MapOf[string, func() ([]deps.BitcodeDependency, error)]
}

func (*PerFile) isCache() {}

func newPerFile(fs billy.Filesystem, t target.Target, kind Kind, path string) *PerFile {
	c := &PerFile{base: base{fs: fs, target: t, kind: kind, path: path}}
	c.files = sync.OnceValues(c.listFiles)
	c.fileDeps = xsync.NewMapOf[string, func() ([]deps.BitcodeDependency, error)]()
	c.views = views{
		bitcodeDependencies: sync.OnceValues(c.computeBitcodeDependencies),
		binariesPaths:       sync.OnceValues(c.computeBinariesPaths),
		inlineFunctionBodies: sync.OnceValues(func() ([]irmeta.InlineFunctionReference, error) {
			return readPerFileIR[irmeta.InlineFunctionReference](c, irmeta.InlineFunctionBodiesFileName)
		}),
		classFields: sync.OnceValues(func() ([]irmeta.ClassFields, error) {
			return readPerFileIR[irmeta.ClassFields](c, irmeta.ClassFieldsFileName)
		}),
		eagerInitialized: sync.OnceValues(func() ([]irmeta.EagerInitializedFile, error) {
			return readPerFileIR[irmeta.EagerInitializedFile](c, irmeta.EagerInitializedFileName)
		}),
	}
	return c
}

// Files returns the cached file names in sorted order.
func (c *PerFile) Files() ([]string, error) {
	return cloned(c.files())
}

// FileDependencies returns the bitcode dependencies of one cached file.
// Only that file's own dependency list is read.
func (c *PerFile) FileDependencies(file string) ([]deps.BitcodeDependency, error) {
	files, err := c.files()
	if err != nil {
		return nil, err
	}
	if _, ok := slices.BinarySearch(files, file); !ok {
		return nil, c.fileNotFound(file)
	}
	return cloned(c.fileDependencies(file))
}

// fileDependencies reads file's bitcode_deps at most once.
func (c *PerFile) fileDependencies(file string) ([]deps.BitcodeDependency, error) {
	read, _ := c.fileDeps.LoadOrCompute(file, func() func() ([]deps.BitcodeDependency, error) {
		return sync.OnceValues(func() ([]deps.BitcodeDependency, error) {
			dir := filepath.Join(c.path, file)
			return readDependencies(c.fs, dir, filepath.Join(dir, BinaryLevelDirName, BitcodeDependenciesFileName))
		})
	})
	return read()
}

// FileBinaryPath returns the path of one file's binary. The binary must exist.
func (c *PerFile) FileBinaryPath(file string) (string, error) {
	p := c.expectedBinaryPath(file)
	fi, err := c.fs.Stat(p)
	if err != nil || fi.IsDir() {
		return "", c.fileNotFound(file)
	}
	return p, nil
}

func (c *PerFile) expectedBinaryPath(file string) string {
	return filepath.Join(c.path, file, BinaryLevelDirName, target.ArtifactName(c.target, file, c.kind.OutputKind()))
}

func (c *PerFile) fileNotFound(file string) error {
	return platformerrors.WithContextMap(
		platformerrors.Newf(platformerrors.CodeNotFound, "file %s is not found in cache %s", file, c.path),
		map[string]interface{}{"path": c.path, "file": file})
}

func (c *PerFile) listFiles() ([]string, error) {
	infos, err := c.fs.ReadDir(c.path)
	if err != nil {
		return nil, readFailed(err, c.path)
	}
	var names []string
	for _, fi := range infos {
		if fi.IsDir() {
			names = append(names, fi.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func (c *PerFile) computeBitcodeDependencies() ([]deps.BitcodeDependency, error) {
	files, err := c.files()
	if err != nil {
		return nil, err
	}
	var out []deps.BitcodeDependency
	for _, f := range files {
		d, err := c.fileDependencies(f)
		if err != nil {
			return nil, err
		}
		out = append(out, d...)
	}
	return out, nil
}

func (c *PerFile) computeBinariesPaths() ([]string, error) {
	files, err := c.files()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = c.expectedBinaryPath(f)
	}
	return out, nil
}

func readPerFileIR[T irmeta.Record](c *PerFile, name string) ([]T, error) {
	files, err := c.files()
	if err != nil {
		return nil, err
	}
	var out []T
	for _, f := range files {
		p := filepath.Join(c.path, f, IRLevelDirName, name)
		if err := decodeFile(c.fs, p, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readIR[T irmeta.Record](fs billy.Filesystem, dir, name string) ([]T, error) {
	var out []T
	if err := decodeFile(fs, filepath.Join(dir, name), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeFile[T irmeta.Record](fs billy.Filesystem, p string, out *[]T) error {
	data, err := util.ReadFile(fs, p)
	if err != nil {
		return readFailed(err, p)
	}
	if err := irmeta.DecodeTo(data, out); err != nil {
		return platformerrors.WithContext(
			platformerrors.Wrapf(err, platformerrors.GetCode(err), "corrupted IR metadata %s", p),
			"path", p)
	}
	return nil
}

func readDependencies(fs billy.Filesystem, owner, p string) ([]deps.BitcodeDependency, error) {
	data, err := util.ReadFile(fs, p)
	if err != nil {
		return nil, readFailed(err, p)
	}
	return deps.Parse(owner, deps.ReadLines(data))
}

func readFailed(err error, p string) error {
	code := platformerrors.CodeInternal
	if errors.Is(err, os.ErrNotExist) {
		code = platformerrors.CodeNotFound
	}
	return platformerrors.WithContext(platformerrors.Wrapf(err, code, "failed to read %s", p), "path", p)
}

// Describe renders c for diagnostics, e.g. "monolithic static /c/foo-cache/bin/foo-cache.a".
func Describe(c Cache) string {
	switch c := c.(type) {
	case *Monolithic:
		return fmt.Sprintf("monolithic %s %s", c.kind, c.path)
	case *PerFile:
		return fmt.Sprintf("per-file %s %s", c.kind, c.path)
	case nil:
		return "none"
	default:
		panic(fmt.Sprintf("unexpected cache %T", c))
	}
}
