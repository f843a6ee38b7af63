package deps_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	platformerrors "github.com/jmgilman/go/errors"

	"klibcache/internal/deps"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []deps.BitcodeDependency
	}{
		{
			name:  "empty",
			lines: nil,
			want:  []deps.BitcodeDependency{},
		},
		{
			name:  "whole module",
			lines: []string{"bar|"},
			want:  []deps.BitcodeDependency{deps.WholeModule{Library: "bar"}},
		},
		{
			name:  "files aggregate per library in order",
			lines: []string{"bar|b.kt", "baz|x.kt", "bar|a.kt"},
			want: []deps.BitcodeDependency{
				deps.CertainFiles{Library: "bar", Files: []string{"b.kt", "a.kt"}},
				deps.CertainFiles{Library: "baz", Files: []string{"x.kt"}},
			},
		},
		{
			name:  "whole module records come first",
			lines: []string{"bar|a.kt", "stdlib|", "qux|"},
			want: []deps.BitcodeDependency{
				deps.WholeModule{Library: "stdlib"},
				deps.WholeModule{Library: "qux"},
				deps.CertainFiles{Library: "bar", Files: []string{"a.kt"}},
			},
		},
		{
			name:  "rightmost delimiter splits",
			lines: []string{"org|weird|lib|src/a.kt", "org|weird|lib|"},
			want:  []deps.BitcodeDependency{deps.WholeModule{Library: "org|weird|lib"}},
		},
		{
			name:  "whole module subsumes files and duplicates collapse",
			lines: []string{"bar|a.kt", "bar|", "bar|"},
			want:  []deps.BitcodeDependency{deps.WholeModule{Library: "bar"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := deps.Parse("/cache/foo", tt.lines)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMissingDelimiter(t *testing.T) {
	_, err := deps.Parse("/cache/foo-cache/bin/foo-cache.a", []string{"bar|", "garbage"})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := platformerrors.GetCode(err); code != platformerrors.CodeInvalidInput {
		t.Fatalf("code = %s, want %s", code, platformerrors.CodeInvalidInput)
	}
	if !strings.Contains(err.Error(), "/cache/foo-cache/bin/foo-cache.a") {
		t.Fatalf("error should name the cache path: %v", err)
	}
}

func TestParseOneRecordPerLibrary(t *testing.T) {
	lines := []string{"a|1", "b|", "a|2", "c|3", "b|4", "c|"}
	got, err := deps.Parse("owner", lines)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]int{}
	for _, d := range got {
		seen[d.LibraryName()]++
	}
	for lib, n := range seen {
		if n != 1 {
			t.Errorf("library %q has %d records", lib, n)
		}
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 libraries, got %v", seen)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	in := []deps.BitcodeDependency{
		deps.CertainFiles{Library: "bar", Files: []string{"z.kt", "a.kt"}},
		deps.WholeModule{Library: "stdlib"},
		deps.CertainFiles{Library: "org|lib", Files: []string{"x.kt"}},
	}
	got, err := deps.Parse("owner", deps.Serialize(in))
	if err != nil {
		t.Fatal(err)
	}
	byName := func(s []deps.BitcodeDependency) []deps.BitcodeDependency {
		out := append([]deps.BitcodeDependency(nil), s...)
		sort.Slice(out, func(i, j int) bool { return out[i].LibraryName() < out[j].LibraryName() })
		return out
	}
	if diff := cmp.Diff(byName(in), byName(got)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadLines(t *testing.T) {
	got := deps.ReadLines([]byte("bar|\r\nbaz|a.kt\n"))
	want := []string{"bar|", "baz|a.kt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ReadLines mismatch (-want +got):\n%s", diff)
	}
	if got := deps.ReadLines(nil); len(got) != 0 {
		t.Fatalf("expected no lines, got %v", got)
	}
}
