package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"klibcache/internal/irmeta"
	"klibcache/internal/library"
	"klibcache/internal/target"
)

var testTarget = target.LinuxX64

func writeFile(t *testing.T, fs billy.Filesystem, p string, data []byte) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
	}
	if err := util.WriteFile(fs, p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

func mkdir(t *testing.T, fs billy.Filesystem, p string) {
	t.Helper()
	if err := fs.MkdirAll(p, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", p, err)
	}
}

func lines(ls ...string) []byte {
	if len(ls) == 0 {
		return nil
	}
	return []byte(strings.Join(ls, "\n") + "\n")
}

func writeIR[T irmeta.Record](t *testing.T, fs billy.Filesystem, p string, records []T) {
	t.Helper()
	data, err := irmeta.Encode(records)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, fs, p, data)
}

// writeMonolithic lays out <root>/bin/<artifact> and its dependency list.
func writeMonolithic(t *testing.T, fs billy.Filesystem, root string, lib library.Library, kind Kind, depLines ...string) string {
	t.Helper()
	artifact := filepath.Join(root, BinaryLevelDirName, target.ArtifactName(testTarget, CachedLibraryName(lib), kind.OutputKind()))
	writeFile(t, fs, artifact, []byte("binary"))
	writeFile(t, fs, filepath.Join(root, BinaryLevelDirName, BitcodeDependenciesFileName), lines(depLines...))
	return artifact
}

// writePerFileEntry lays out <root>/<file>/bin/<artifact> and its dependency list.
func writePerFileEntry(t *testing.T, fs billy.Filesystem, root, file string, depLines ...string) string {
	t.Helper()
	artifact := filepath.Join(root, file, BinaryLevelDirName, target.ArtifactName(testTarget, file, target.StaticCache))
	writeFile(t, fs, artifact, []byte("binary"))
	writeFile(t, fs, filepath.Join(root, file, BinaryLevelDirName, BitcodeDependenciesFileName), lines(depLines...))
	return artifact
}

// countingFS counts ReadDir calls per path.
type countingFS struct {
	billy.Filesystem
	mu    sync.Mutex
	lists map[string]int
}

func newCountingFS() *countingFS {
	return &countingFS{Filesystem: memfs.New(), lists: map[string]int{}}
}

func (c *countingFS) ReadDir(p string) ([]os.FileInfo, error) {
	c.mu.Lock()
	c.lists[filepath.Clean(p)]++
	c.mu.Unlock()
	return c.Filesystem.ReadDir(p)
}

func (c *countingFS) listed(p string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists[filepath.Clean(p)]
}

func klib(name string) *library.Klib {
	return library.NewKlib(name, name, "/libs/"+name+".klib", false)
}
