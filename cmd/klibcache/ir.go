package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var irCmd = &cobra.Command{
	Use:   "ir <library>",
	Short: "Summarize the serialized IR metadata of a library's cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runIR,
}

func init() {
	irCmd.Flags().Bool("files", false, "list files with eagerly initialized properties")
}

func runIR(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close(cmd)

	_, c, err := s.cacheOf(args[0])
	if err != nil {
		return err
	}
	inline, err := c.SerializedInlineFunctionBodies()
	if err != nil {
		return err
	}
	fields, err := c.SerializedClassFields()
	if err != nil {
		return err
	}
	eager, err := c.SerializedEagerInitializedFiles()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "inline function bodies: %d\n", len(inline))
	_, _ = fmt.Fprintf(out, "class layouts:          %d\n", len(fields))
	_, _ = fmt.Fprintf(out, "eager-init files:       %d\n", len(eager))
	if listFiles, _ := cmd.Flags().GetBool("files"); listFiles {
		for _, f := range eager {
			_, _ = fmt.Fprintf(out, "  %s (%s)\n", f.File.Path, f.File.FqName)
		}
	}
	return nil
}
