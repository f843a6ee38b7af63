package main

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"klibcache/internal/cache"
	"klibcache/internal/library"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show which libraries are cached and where",
	Args:  cobra.NoArgs,
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(cmd)

	printResolveTable(cmd.OutOrStdout(), s.manifest.Libraries(), s.registry)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\ntarget %s: %d of %d libraries cached (static: %v, dynamic: %v)\n",
		s.manifest.Target(), len(s.registry.Libraries()), len(s.manifest.Libraries()),
		s.registry.HasStaticCaches(), s.registry.HasDynamicCaches())
	return nil
}

type resolveRow struct {
	name, kind, shape, path string
	cached                  bool
}

func printResolveTable(out io.Writer, libs []library.Library, reg *cache.Registry) {
	rows := make([]resolveRow, 0, len(libs))
	for _, lib := range libs {
		row := resolveRow{name: lib.LibraryName(), kind: "-", shape: "-", path: "-"}
		if c, ok := reg.LibraryCache(lib); ok {
			row.cached = true
			row.kind = c.Kind().String()
			row.path = c.Path()
			switch c.(type) {
			case *cache.Monolithic:
				row.shape = "monolithic"
			case *cache.PerFile:
				row.shape = "per-file"
			}
		}
		rows = append(rows, row)
	}

	header := resolveRow{name: "LIBRARY", kind: "KIND", shape: "SHAPE", path: "PATH"}
	nameW, kindW, shapeW := runewidth.StringWidth(header.name), runewidth.StringWidth(header.kind), runewidth.StringWidth(header.shape)
	for _, r := range rows {
		nameW = max(nameW, runewidth.StringWidth(r.name))
		kindW = max(kindW, runewidth.StringWidth(r.kind))
		shapeW = max(shapeW, runewidth.StringWidth(r.shape))
	}

	line := func(r resolveRow) string {
		return runewidth.FillRight(r.name, nameW) + "  " +
			runewidth.FillRight(r.kind, kindW) + "  " +
			runewidth.FillRight(r.shape, shapeW) + "  " + r.path
	}
	_, _ = fmt.Fprintln(out, headingColor.Sprint(line(header)))
	for _, r := range rows {
		if r.cached {
			_, _ = fmt.Fprintln(out, kindColor.Sprint(line(r)))
		} else {
			_, _ = fmt.Fprintln(out, missColor.Sprint(line(r)))
		}
	}
}
