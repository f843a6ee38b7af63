package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"klibcache/internal/cache"
	"klibcache/internal/deps"
)

var depsCmd = &cobra.Command{
	Use:   "deps <library>",
	Short: "Print the bitcode dependencies recorded in a library's cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeps,
}

func init() {
	depsCmd.Flags().String("file", "", "only the dependencies of one file of a per-file cache")
	depsCmd.Flags().Bool("raw", false, "print in the on-disk line format")
}

func runDeps(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(cmd)

	lib, c, err := s.cacheOf(args[0])
	if err != nil {
		return err
	}
	file, _ := cmd.Flags().GetString("file")
	raw, _ := cmd.Flags().GetBool("raw")

	var list []deps.BitcodeDependency
	switch c := c.(type) {
	case *cache.PerFile:
		if file != "" {
			list, err = c.FileDependencies(file)
		} else {
			list, err = c.BitcodeDependencies()
		}
	case *cache.Monolithic:
		if file != "" {
			return fmt.Errorf("library %s has a monolithic cache; --file needs a per-file cache", lib.LibraryName())
		}
		list, err = c.BitcodeDependencies()
	}
	if err != nil {
		return err
	}
	printDependencies(cmd.OutOrStdout(), list, raw)
	return nil
}

func printDependencies(out io.Writer, list []deps.BitcodeDependency, raw bool) {
	if raw {
		for _, line := range deps.Serialize(list) {
			_, _ = fmt.Fprintln(out, line)
		}
		return
	}
	for _, d := range list {
		switch d := d.(type) {
		case deps.WholeModule:
			_, _ = fmt.Fprintf(out, "%s %s\n", kindColor.Sprint("whole"), d.Library)
		case deps.CertainFiles:
			_, _ = fmt.Fprintf(out, "%s %s: %s\n", kindColor.Sprint("files"), d.Library, strings.Join(d.Files, ", "))
		}
	}
}
