package library

import "fmt"

// Origin tells where a module descriptor came from.
// The set of variants is closed: CurrentlyCompiled, Deserialized, Synthetic.
type Origin interface {
	isOrigin()
	String() string
}

// CurrentlyCompiled is the module being compiled by this invocation.
type CurrentlyCompiled struct{}

// Deserialized is a module read back from an existing library.
type Deserialized struct {
	Library Library
}

// Synthetic is a module fabricated by the compiler (builtins, stubs).
type Synthetic struct{}

func (CurrentlyCompiled) isOrigin() {}
func (Deserialized) isOrigin()      {}
func (Synthetic) isOrigin()         {}

func (CurrentlyCompiled) String() string { return "currently-compiled" }
func (Synthetic) String() string         { return "synthetic" }
func (d Deserialized) String() string {
	if d.Library == nil {
		return "deserialized(<nil>)"
	}
	return fmt.Sprintf("deserialized(%s)", d.Library.LibraryName())
}

// KlibOf returns the library behind origin. Only Deserialized has one.
func KlibOf(origin Origin) (Library, bool) {
	switch o := origin.(type) {
	case Deserialized:
		return o.Library, o.Library != nil
	case CurrentlyCompiled, Synthetic:
		return nil, false
	default:
		panic(fmt.Sprintf("unexpected origin %T", origin))
	}
}

// IsInteropOrigin reports whether origin is a deserialized interop library.
func IsInteropOrigin(origin Origin) bool {
	lib, ok := KlibOf(origin)
	return ok && lib.IsInterop()
}

// Module is a module descriptor. Its origin is fixed at creation.
type Module struct {
	name   string
	origin Origin
}

// NewModule creates a module descriptor with the given origin.
// A nil origin is treated as Synthetic.
func NewModule(name string, origin Origin) *Module {
	if origin == nil {
		origin = Synthetic{}
	}
	return &Module{name: name, origin: origin}
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Origin returns the module origin.
func (m *Module) Origin() Origin { return m.origin }

// Library returns the library the module was deserialized from, if any.
func (m *Module) Library() (Library, bool) { return KlibOf(m.origin) }

// Libraries collects the distinct libraries behind mods, keeping first-seen order.
func Libraries(mods []*Module) []Library {
	seen := make(map[string]struct{}, len(mods))
	out := make([]Library, 0, len(mods))
	for _, m := range mods {
		lib, ok := m.Library()
		if !ok {
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
