package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"klibcache/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "klibcache",
	Short: "Inspect precompiled native library caches",
	Long: `klibcache resolves the precompiled caches of the libraries described in
klibcache.toml and shows what a compiler driver or linker would pick up.`,
	SilenceUsage:      true,
	PersistentPreRunE: applyColorMode,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(binariesCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to klibcache.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write heap profile to file")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("jobs", 0, "parallel resolution workers (0 = config or GOMAXPROCS)")
}

// main executes the root command.
// If command execution returns an error, the process exits with status code 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
