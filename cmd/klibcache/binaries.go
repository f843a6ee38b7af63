package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"klibcache/internal/cache"
)

var binariesCmd = &cobra.Command{
	Use:   "binaries [library...]",
	Short: "Print the cached binaries a linker would pull in",
	Long:  "Print cached binary paths, one per line. Without arguments every cached library is listed in configuration order.",
	RunE:  runBinaries,
}

func init() {
	binariesCmd.Flags().String("file", "", "only the binary of one file of a per-file cache (requires exactly one library)")
}

func runBinaries(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(cmd)

	file, _ := cmd.Flags().GetString("file")
	if file != "" && len(args) != 1 {
		return fmt.Errorf("--file requires exactly one library")
	}

	var paths []string
	switch {
	case len(args) == 0:
		paths, err = s.registry.BinariesPaths()
		if err != nil {
			return err
		}
	case file != "":
		lib, c, err := s.cacheOf(args[0])
		if err != nil {
			return err
		}
		pf, ok := c.(*cache.PerFile)
		if !ok {
			return fmt.Errorf("library %s has a monolithic cache; --file needs a per-file cache", lib.LibraryName())
		}
		p, err := pf.FileBinaryPath(file)
		if err != nil {
			return err
		}
		paths = []string{p}
	default:
		for _, name := range args {
			_, c, err := s.cacheOf(name)
			if err != nil {
				return err
			}
			bins, err := c.BinariesPaths()
			if err != nil {
				return err
			}
			paths = append(paths, bins...)
		}
	}

	for _, p := range paths {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
