// Package library models library identity and module origin.
//
// Every module descriptor carries exactly one Origin. Only a module
// deserialized from an existing library has a Library handle, and only
// such modules can have a precompiled cache.
package library

import "strings"

// Library is an opaque handle to a compiled library on disk.
type Library interface {
	// UniqueName is stable across compilations and derives cache file names.
	UniqueName() string
	// LibraryName is the human-readable name used in diagnostics.
	LibraryName() string
	// IsInterop reports whether the library wraps external native declarations.
	IsInterop() bool
	// LibraryFile is the absolute path of the library on disk ("" if unknown).
	LibraryFile() string
}

// Klib is the concrete Library loaded from a klib file or directory.
type Klib struct {
	Unique  string
	Name    string
	File    string
	Interop bool
}

var _ Library = (*Klib)(nil)

// NewKlib creates a Klib. An empty name falls back to the unique name.
func NewKlib(unique, name, file string, interop bool) *Klib {
	if strings.TrimSpace(name) == "" {
		name = unique
	}
	return &Klib{Unique: unique, Name: name, File: file, Interop: interop}
}

func (k *Klib) UniqueName() string  { return k.Unique }
func (k *Klib) LibraryName() string { return k.Name }
func (k *Klib) IsInterop() bool     { return k.Interop }
func (k *Klib) LibraryFile() string { return k.File }

// String returns the library name.
func (k *Klib) String() string { return k.Name }
