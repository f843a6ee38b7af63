package target

import (
	"runtime"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
)

// Family groups targets that share artifact naming conventions.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyLinux
	FamilyOSX
	FamilyIOS
	FamilyMingw
)

// String returns the string representation of Family.
func (f Family) String() string {
	switch f {
	case FamilyLinux:
		return "linux"
	case FamilyOSX:
		return "osx"
	case FamilyIOS:
		return "ios"
	case FamilyMingw:
		return "mingw"
	default:
		return "unknown"
	}
}

// Target is a native compilation target.
type Target struct {
	Name   string
	Family Family
}

var (
	LinuxX64   = Target{Name: "linux_x64", Family: FamilyLinux}
	LinuxArm64 = Target{Name: "linux_arm64", Family: FamilyLinux}
	MacosX64   = Target{Name: "macos_x64", Family: FamilyOSX}
	MacosArm64 = Target{Name: "macos_arm64", Family: FamilyOSX}
	IosArm64   = Target{Name: "ios_arm64", Family: FamilyIOS}
	MingwX64   = Target{Name: "mingw_x64", Family: FamilyMingw}
)

var known = []Target{LinuxX64, LinuxArm64, MacosX64, MacosArm64, IosArm64, MingwX64}

// Known returns all supported targets.
func Known() []Target {
	out := make([]Target, len(known))
	copy(out, known)
	return out
}

// ParseTarget converts a target name like "linux_x64" to a Target.
func ParseTarget(s string) (Target, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range known {
		if t.Name == name {
			return t, nil
		}
	}
	names := make([]string, len(known))
	for i, t := range known {
		names[i] = t.Name
	}
	return Target{}, platformerrors.Newf(platformerrors.CodeInvalidInput, "unknown target: %q (expected: %s)", s, strings.Join(names, "|"))
}

// Host returns the target matching the running machine, falling back to linux_x64.
func Host() Target {
	switch runtime.GOOS + "/" + runtime.GOARCH {
	case "linux/arm64":
		return LinuxArm64
	case "darwin/amd64":
		return MacosX64
	case "darwin/arm64":
		return MacosArm64
	case "windows/amd64":
		return MingwX64
	default:
		return LinuxX64
	}
}

// String returns the target name.
func (t Target) String() string { return t.Name }
