// Package deps decodes the bitcode dependency lists stored next to cached
// binaries.
//
// Each line has the form "<libraryName>|<filePath>". The line is split at
// the last '|', so library names may contain the delimiter. An empty file
// path means the owner depends on the whole library.
package deps

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
)

// Delimiter separates the library name from the file path.
const Delimiter = '|'

// BitcodeDependency is a link-time dependency on another library.
// The set of variants is closed: WholeModule and CertainFiles.
type BitcodeDependency interface {
	isBitcodeDependency()
	// LibraryName is the library depended upon.
	LibraryName() string
}

// WholeModule depends on every file of Library.
type WholeModule struct {
	Library string
}

// CertainFiles depends only on Files of Library, in encounter order.
type CertainFiles struct {
	Library string
	Files   []string
}

func (WholeModule) isBitcodeDependency()  {}
func (CertainFiles) isBitcodeDependency() {}

func (d WholeModule) LibraryName() string  { return d.Library }
func (d CertainFiles) LibraryName() string { return d.Library }

func (d WholeModule) String() string { return d.Library }
func (d CertainFiles) String() string {
	return fmt.Sprintf("%s[%s]", d.Library, strings.Join(d.Files, ","))
}

// Parse decodes raw dependency lines of the cache at owner.
//
// WholeModule records come first in first-seen order, followed by one
// CertainFiles record per library in first-seen order. A library that has a
// whole-module entry gets no CertainFiles record.
func Parse(owner string, lines []string) ([]BitcodeDependency, error) {
	var (
		whole     []string
		wholeSeen = make(map[string]struct{})
		fileLibs  []string
		files     = make(map[string][]string)
	)
	for _, line := range lines {
		idx := strings.LastIndexByte(line, Delimiter)
		if idx < 0 {
			return nil, platformerrors.WithContext(
				platformerrors.Newf(platformerrors.CodeInvalidInput, "invalid dependency %q at %s", line, owner),
				"path", owner)
		}
		lib, file := line[:idx], line[idx+1:]
		if file == "" {
			if _, ok := wholeSeen[lib]; !ok {
				wholeSeen[lib] = struct{}{}
				whole = append(whole, lib)
			}
			continue
		}
		if _, ok := files[lib]; !ok {
			fileLibs = append(fileLibs, lib)
		}
		files[lib] = append(files[lib], file)
	}

	out := make([]BitcodeDependency, 0, len(whole)+len(fileLibs))
	for _, lib := range whole {
		out = append(out, WholeModule{Library: lib})
	}
	for _, lib := range fileLibs {
		if _, ok := wholeSeen[lib]; ok {
			continue
		}
		out = append(out, CertainFiles{Library: lib, Files: files[lib]})
	}
	return out, nil
}

// Serialize encodes deps in the line format accepted by Parse.
func Serialize(deps []BitcodeDependency) []string {
	var out []string
	for _, d := range deps {
		switch d := d.(type) {
		case WholeModule:
			out = append(out, d.Library+string(Delimiter))
		case CertainFiles:
			for _, f := range d.Files {
				out = append(out, d.Library+string(Delimiter)+f)
			}
		default:
			panic(fmt.Sprintf("unexpected dependency %T", d))
		}
	}
	return out
}

// ReadLines splits a dependency file into lines.
// A trailing newline does not produce an empty last line; CRLF is accepted.
func ReadLines(data []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}
