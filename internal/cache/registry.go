package cache

import (
	"context"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	platformerrors "github.com/jmgilman/go/errors"
	"golang.org/x/sync/errgroup"

	"klibcache/internal/library"
	"klibcache/internal/target"
	"klibcache/internal/trace"
)

// Options configures cache resolution for one compilation.
type Options struct {
	Target target.Target

	// Explicit maps a library unique name to the cache path the caller
	// promises holds its cache.
	Explicit map[string]string

	// ImplicitDirs are searched in order for libraries without an explicit path.
	ImplicitDirs []string

	// AutoCacheDir is searched last, and only for libraries whose file lies
	// under one of AutoCacheableFrom.
	AutoCacheDir      string
	AutoCacheableFrom []string

	// Jobs bounds parallel resolution; <= 0 means GOMAXPROCS, 1 means sequential.
	Jobs int
}

type entry struct {
	lib   library.Library
	cache Cache
}

// Registry holds the caches resolved for all libraries of a compilation.
// It is immutable after NewRegistry returns.
type Registry struct {
	byName     map[string]entry
	order      []string
	hasStatic  bool
	hasDynamic bool
	selector   *Selector
}

// NewRegistry resolves a cache for every library.
//
// A library with an explicit path must have a cache there. Otherwise each
// implicit directory is probed in order, per-file cache name first, then the
// auto-cache directory; the first hit wins and no hit means "not cached".
func NewRegistry(ctx context.Context, fs billy.Filesystem, libs []library.Library, opts Options) (*Registry, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeRegistry, "registry", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	libs = distinct(libs)
	r := &Registry{
		byName:   make(map[string]entry, len(libs)),
		order:    make([]string, 0, len(libs)),
		selector: NewSelector(fs, opts.Target),
	}

	results := make([]Cache, len(libs))
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	if jobs == 1 || len(libs) < 2 {
		for i, lib := range libs {
			c, err := r.resolve(ctx, lib, opts)
			if err != nil {
				span.End("failed")
				return nil, err
			}
			results[i] = c
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(libs)))
		for i, lib := range libs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				c, err := r.resolve(gctx, lib, opts)
				if err != nil {
					return err
				}
				// Indexes are unique per goroutine, no lock needed.
				results[i] = c
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			span.End("failed")
			return nil, err
		}
	}

	for i, lib := range libs {
		c := results[i]
		if c == nil {
			continue
		}
		r.byName[lib.UniqueName()] = entry{lib: lib, cache: c}
		r.order = append(r.order, lib.UniqueName())
		switch c.Kind() {
		case Static:
			r.hasStatic = true
		case Dynamic:
			r.hasDynamic = true
		}
	}

	span.WithExtra("libraries", strconv.Itoa(len(libs))).
		WithExtra("cached", strconv.Itoa(len(r.order))).
		WithExtra("dirs", strconv.Itoa(r.selector.contents.size())).
		End("")
	return r, nil
}

func (r *Registry) resolve(ctx context.Context, lib library.Library, opts Options) (Cache, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeLibrary, "library:"+lib.LibraryName(), trace.CurrentSpan(ctx))

	c, err := r.lookup(tracer, span.ID(), lib, opts)
	if err != nil {
		trace.Error(tracer, trace.ScopeLibrary, "library:"+lib.LibraryName(), err, span.ID())
		span.End("failed")
		return nil, err
	}
	span.End(Describe(c))
	return c, nil
}

func (r *Registry) lookup(tracer trace.Tracer, parent uint64, lib library.Library, opts Options) (Cache, error) {
	if explicit, ok := opts.Explicit[lib.UniqueName()]; ok {
		c, found, err := r.probe(tracer, parent, lib, explicit)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, platformerrors.WithContextMap(
				platformerrors.Newf(platformerrors.CodeInvalidConfig,
					"no cache found for library %s at %s", lib.LibraryName(), explicit),
				map[string]interface{}{"library": lib.LibraryName(), "path": explicit})
		}
		return c, nil
	}

	for _, dir := range opts.ImplicitDirs {
		c, found, err := r.probeRoot(tracer, parent, lib, dir)
		if err != nil || found {
			return c, err
		}
	}

	if opts.AutoCacheDir != "" && underAny(lib.LibraryFile(), opts.AutoCacheableFrom) {
		c, found, err := r.probeRoot(tracer, parent, lib, opts.AutoCacheDir)
		if err != nil || found {
			return c, err
		}
	}
	return nil, nil
}

// probeRoot tries the per-file cache directory, then the monolithic one.
func (r *Registry) probeRoot(tracer trace.Tracer, parent uint64, lib library.Library, root string) (Cache, bool, error) {
	c, found, err := r.probe(tracer, parent, lib, filepath.Join(root, PerFileCachedLibraryName(lib)))
	if err != nil || found {
		return c, found, err
	}
	return r.probe(tracer, parent, lib, filepath.Join(root, CachedLibraryName(lib)))
}

func (r *Registry) probe(tracer trace.Tracer, parent uint64, lib library.Library, dir string) (Cache, bool, error) {
	c, found, err := r.selector.Select(lib, dir)
	if err == nil {
		trace.Point(tracer, trace.ScopeProbe, dir, Describe(c), parent)
	}
	return c, found, err
}

// IsLibraryCached reports whether lib resolved to a cache.
func (r *Registry) IsLibraryCached(lib library.Library) bool {
	_, ok := r.LibraryCache(lib)
	return ok
}

// LibraryCache returns the cache resolved for lib.
func (r *Registry) LibraryCache(lib library.Library) (Cache, bool) {
	if r == nil || lib == nil {
		return nil, false
	}
	e, ok := r.byName[lib.UniqueName()]
	if !ok {
		return nil, false
	}
	return e.cache, true
}

// HasStaticCaches reports whether any resolved cache is static.
func (r *Registry) HasStaticCaches() bool { return r != nil && r.hasStatic }

// HasDynamicCaches reports whether any resolved cache is dynamic.
func (r *Registry) HasDynamicCaches() bool { return r != nil && r.hasDynamic }

// Libraries returns the cached libraries in input order.
func (r *Registry) Libraries() []library.Library {
	if r == nil {
		return nil
	}
	out := make([]library.Library, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name].lib
	}
	return out
}

// BinariesPaths concatenates the binaries of every cached library in input order.
func (r *Registry) BinariesPaths() ([]string, error) {
	var out []string
	for _, lib := range r.Libraries() {
		paths, err := r.byName[lib.UniqueName()].cache.BinariesPaths()
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

func distinct(libs []library.Library) []library.Library {
	seen := make(map[string]struct{}, len(libs))
	out := make([]library.Library, 0, len(libs))
	for _, lib := range libs {
		if lib == nil {
			continue
		}
		if _, dup := seen[lib.UniqueName()]; dup {
			continue
		}
		seen[lib.UniqueName()] = struct{}{}
		out = append(out, lib)
	}
	return out
}

func underAny(file string, roots []string) bool {
	if file == "" {
		return false
	}
	file = filepath.Clean(file)
	for _, root := range roots {
		root = filepath.Clean(root)
		if file == root || strings.HasPrefix(file, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
