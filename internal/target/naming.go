package target

// OutputKind is the kind of artifact the compiler produces for a target.
type OutputKind uint8

const (
	StaticCache OutputKind = iota + 1
	DynamicCache
)

// String returns the string representation of OutputKind.
func (k OutputKind) String() string {
	switch k {
	case StaticCache:
		return "static_cache"
	case DynamicCache:
		return "dynamic_cache"
	default:
		return "unknown"
	}
}

// Prefix returns the file name prefix for kind on t.
// Static caches are never prefixed so that the cache name stays recognisable.
func Prefix(t Target, kind OutputKind) string {
	switch kind {
	case StaticCache:
		return ""
	case DynamicCache:
		switch t.Family {
		case FamilyMingw:
			return ""
		default:
			return "lib"
		}
	default:
		return ""
	}
}

// Suffix returns the file name suffix (including the dot) for kind on t.
func Suffix(t Target, kind OutputKind) string {
	switch kind {
	case StaticCache:
		return ".a"
	case DynamicCache:
		switch t.Family {
		case FamilyOSX, FamilyIOS:
			return ".dylib"
		case FamilyMingw:
			return ".dll"
		default:
			return ".so"
		}
	default:
		return ""
	}
}

// ArtifactName builds the on-disk file name: <prefix><base><suffix>.
func ArtifactName(t Target, base string, kind OutputKind) string {
	return Prefix(t, kind) + base + Suffix(t, kind)
}
