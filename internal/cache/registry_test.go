package cache

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/google/go-cmp/cmp"
	platformerrors "github.com/jmgilman/go/errors"

	"klibcache/internal/deps"
	"klibcache/internal/library"
	"klibcache/internal/trace"
)

func TestRegistryExplicitMonolithicScenario(t *testing.T) {
	fs := memfs.New()
	foo := klib("foo")
	p := "/overrides/foo"
	artifact := writeMonolithic(t, fs, p, foo, Static, "bar|")

	r, err := NewRegistry(context.Background(), fs, []library.Library{foo}, Options{
		Target:   testTarget,
		Explicit: map[string]string{"foo": p},
	})
	if err != nil {
		t.Fatal(err)
	}
	c, ok := r.LibraryCache(foo)
	if !ok {
		t.Fatal("foo should be cached")
	}
	m, isMono := c.(*Monolithic)
	if !isMono || m.Kind() != Static {
		t.Fatalf("expected static monolithic cache, got %s", Describe(c))
	}
	gotDeps, err := m.BitcodeDependencies()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]deps.BitcodeDependency{deps.WholeModule{Library: "bar"}}, gotDeps); diff != "" {
		t.Fatalf("dependencies (-want +got):\n%s", diff)
	}
	bins, err := m.BinariesPaths()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{filepath.Join(p, "bin", "foo-cache.a")}, bins); diff != "" || artifact != bins[0] {
		t.Fatalf("binaries (-want +got):\n%s", diff)
	}
	if !r.HasStaticCaches() || r.HasDynamicCaches() {
		t.Fatalf("static=%v dynamic=%v", r.HasStaticCaches(), r.HasDynamicCaches())
	}
}

func TestRegistryExplicitWithoutCacheIsConfigError(t *testing.T) {
	fs := memfs.New()
	mkdir(t, fs, "/overrides/foo")

	_, err := NewRegistry(context.Background(), fs, []library.Library{klib("foo")}, Options{
		Target:   testTarget,
		Explicit: map[string]string{"foo": "/overrides/foo"},
	})
	if platformerrors.GetCode(err) != platformerrors.CodeInvalidConfig {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "foo") || !strings.Contains(err.Error(), "/overrides/foo") {
		t.Fatalf("error should name library and path: %v", err)
	}
}

func TestRegistryOverrideWins(t *testing.T) {
	fs := newCountingFS()
	foo := klib("foo")
	writeMonolithic(t, fs, "/implicit/foo-cache", foo, Dynamic)
	writeMonolithic(t, fs, "/explicit/foo", foo, Static)

	r, err := NewRegistry(context.Background(), fs, []library.Library{foo}, Options{
		Target:       testTarget,
		Explicit:     map[string]string{"foo": "/explicit/foo"},
		ImplicitDirs: []string{"/implicit"},
	})
	if err != nil {
		t.Fatal(err)
	}
	c, _ := r.LibraryCache(foo)
	if c.Kind() != Static || !strings.HasPrefix(c.Path(), "/explicit/foo") {
		t.Fatalf("override lost: %s", Describe(c))
	}
	for _, dir := range []string{"/implicit/foo-cache", "/implicit/foo-per-file-cache"} {
		if n := fs.listed(dir); n != 0 {
			t.Fatalf("implicit dir %s listed %d times", dir, n)
		}
	}
}

func TestRegistryImplicitSearchOrder(t *testing.T) {
	fs := memfs.New()
	foo, bar, baz := klib("foo"), klib("bar"), klib("baz")

	// foo: per-file name beats plain name within the same root.
	writeMonolithic(t, fs, "/first/foo-cache", foo, Dynamic)
	writePerFileEntry(t, fs, "/first/foo-per-file-cache", "a")
	// bar: empty placeholder in the first root, real cache in the second.
	mkdir(t, fs, "/first/bar-cache")
	writeMonolithic(t, fs, "/second/bar-cache", bar, Dynamic)
	// baz: nowhere.

	r, err := NewRegistry(context.Background(), fs, []library.Library{foo, bar, baz}, Options{
		Target:       testTarget,
		ImplicitDirs: []string{"/first", "/second"},
	})
	if err != nil {
		t.Fatal(err)
	}

	fc, _ := r.LibraryCache(foo)
	if _, ok := fc.(*PerFile); !ok || fc.Path() != "/first/foo-per-file-cache" {
		t.Fatalf("foo: %s", Describe(fc))
	}
	bc, _ := r.LibraryCache(bar)
	if bc == nil || bc.Path() != "/second/bar-cache/bin/libbar-cache.so" {
		t.Fatalf("bar: %s", Describe(bc))
	}
	if r.IsLibraryCached(baz) {
		t.Fatal("baz should be uncached")
	}
	if !r.HasStaticCaches() || !r.HasDynamicCaches() {
		t.Fatalf("static=%v dynamic=%v", r.HasStaticCaches(), r.HasDynamicCaches())
	}
	names := []string{}
	for _, lib := range r.Libraries() {
		names = append(names, lib.UniqueName())
	}
	if diff := cmp.Diff([]string{"foo", "bar"}, names); diff != "" {
		t.Fatalf("libraries (-want +got):\n%s", diff)
	}
}

func TestRegistryConflictFailsConstruction(t *testing.T) {
	fs := memfs.New()
	foo := klib("foo")
	writeMonolithic(t, fs, "/implicit/foo-cache", foo, Static)
	writeMonolithic(t, fs, "/implicit/foo-cache", foo, Dynamic)

	_, err := NewRegistry(context.Background(), fs, []library.Library{foo}, Options{
		Target:       testTarget,
		ImplicitDirs: []string{"/implicit"},
	})
	if platformerrors.GetCode(err) != platformerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegistryAutoCache(t *testing.T) {
	fs := memfs.New()
	auto := library.NewKlib("auto", "auto", "/home/u/.konan/libs/auto.klib", false)
	local := library.NewKlib("local", "local", "/project/build/local.klib", false)
	writeMonolithic(t, fs, "/auto-cache/auto-cache", auto, Static)
	writeMonolithic(t, fs, "/auto-cache/local-cache", local, Static)

	r, err := NewRegistry(context.Background(), fs, []library.Library{auto, local}, Options{
		Target:            testTarget,
		AutoCacheDir:      "/auto-cache",
		AutoCacheableFrom: []string{"/home/u/.konan"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsLibraryCached(auto) {
		t.Fatal("library under a cacheable root should use the auto cache")
	}
	if r.IsLibraryCached(local) {
		t.Fatal("library outside cacheable roots must not use the auto cache")
	}
}

func TestRegistryParallelMatchesSequential(t *testing.T) {
	fs := memfs.New()
	var libs []library.Library
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		lib := klib(name)
		libs = append(libs, lib)
		switch name {
		case "a", "c", "e":
			writeMonolithic(t, fs, "/implicit/"+name+"-cache", lib, Static)
		case "b", "f":
			writePerFileEntry(t, fs, "/implicit/"+name+"-per-file-cache", "main")
		case "d":
			writeMonolithic(t, fs, "/implicit/d-cache", lib, Dynamic)
		}
	}

	describe := func(jobs int) []string {
		r, err := NewRegistry(context.Background(), fs, libs, Options{
			Target:       testTarget,
			ImplicitDirs: []string{"/implicit"},
			Jobs:         jobs,
		})
		if err != nil {
			t.Fatal(err)
		}
		var out []string
		for _, lib := range libs {
			c, _ := r.LibraryCache(lib)
			out = append(out, lib.UniqueName()+"="+Describe(c))
		}
		return out
	}

	sequential := describe(1)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(sequential, describe(4)); diff != "" {
			t.Fatalf("parallel resolution differs (-seq +par):\n%s", diff)
		}
	}
}

func TestRegistryBinariesPaths(t *testing.T) {
	fs := memfs.New()
	foo, bar := klib("foo"), klib("bar")
	writeMonolithic(t, fs, "/implicit/foo-cache", foo, Static)
	writePerFileEntry(t, fs, "/implicit/bar-per-file-cache", "y")
	writePerFileEntry(t, fs, "/implicit/bar-per-file-cache", "x")

	r, err := NewRegistry(context.Background(), fs, []library.Library{foo, bar, foo}, Options{
		Target:       testTarget,
		ImplicitDirs: []string{"/implicit"},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.BinariesPaths()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"/implicit/foo-cache/bin/foo-cache.a",
		"/implicit/bar-per-file-cache/x/bin/x.a",
		"/implicit/bar-per-file-cache/y/bin/y.a",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("binaries (-want +got):\n%s", diff)
	}
}

func TestRegistryTracesResolution(t *testing.T) {
	fs := memfs.New()
	foo := klib("foo")
	writeMonolithic(t, fs, "/implicit/foo-cache", foo, Static)

	var buf bytes.Buffer
	ctx := trace.WithTracer(context.Background(), trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatText))
	if _, err := NewRegistry(ctx, fs, []library.Library{foo, klib("bar")}, Options{
		Target:       testTarget,
		ImplicitDirs: []string{"/implicit"},
		Jobs:         1,
	}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"→ registry",
		"library:foo (monolithic static /implicit/foo-cache/bin/foo-cache.a)",
		"/implicit/foo-per-file-cache (none)",
		"library:bar (none)",
		"cached=1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q:\n%s", want, out)
		}
	}
}

func TestRegistryNilSafe(t *testing.T) {
	var r *Registry
	if r.IsLibraryCached(klib("foo")) || r.HasStaticCaches() || r.HasDynamicCaches() || r.Libraries() != nil {
		t.Fatal("nil registry must report nothing cached")
	}
}
