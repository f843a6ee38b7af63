package cache

import "klibcache/internal/library"

// On-disk layout names shared with cache producers.
const (
	BinaryLevelDirName          = "bin"
	IRLevelDirName              = "ir"
	BitcodeDependenciesFileName = "bitcode_deps"

	cachedLibrarySuffix        = "-cache"
	perFileCachedLibrarySuffix = "-per-file-cache"
)

// CachedLibraryName is the base name of a library's monolithic cache: "<uniqueName>-cache".
func CachedLibraryName(lib library.Library) string {
	return CachedLibraryNameOf(lib.UniqueName())
}

// CachedLibraryNameOf is CachedLibraryName for a raw unique name.
func CachedLibraryNameOf(uniqueName string) string {
	return uniqueName + cachedLibrarySuffix
}

// PerFileCachedLibraryName is the directory name of a library's per-file
// cache: "<uniqueName>-per-file-cache".
func PerFileCachedLibraryName(lib library.Library) string {
	return lib.UniqueName() + perFileCachedLibrarySuffix
}
