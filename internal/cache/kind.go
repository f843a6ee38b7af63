package cache

import (
	"fmt"

	"klibcache/internal/target"
)

// Kind tells how a cache is linked.
type Kind uint8

const (
	Static Kind = iota + 1
	Dynamic
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// OutputKind maps k to the artifact kind used for naming.
func (k Kind) OutputKind() target.OutputKind {
	switch k {
	case Static:
		return target.StaticCache
	case Dynamic:
		return target.DynamicCache
	default:
		panic(fmt.Sprintf("unexpected cache kind %d", k))
	}
}
