package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredWithoutColor(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, origNoColor }()
	color.NoColor = true

	tests := []struct{ in, want string }{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"1.0.0-rc.1", "1.0.0-rc.1"},
		{"weird", "weird"},
	}
	for _, tt := range tests {
		Version = tt.in
		if got := Colored(); got != tt.want {
			t.Errorf("Colored(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLongIncludesBuildInfo(t *testing.T) {
	origCommit, origDate, origNoColor := GitCommit, BuildDate, color.NoColor
	defer func() { GitCommit, BuildDate, color.NoColor = origCommit, origDate, origNoColor }()
	color.NoColor = true

	GitCommit, BuildDate = "abc123", "2024-01-15"
	want := Version + " (abc123) built 2024-01-15"
	if got := Long(); got != want {
		t.Fatalf("Long() = %q, want %q", got, want)
	}
}
