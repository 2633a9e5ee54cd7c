package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "parafor",
		Short: "Work-stealing parallel-for runtime demos and benchmarks",
		Long: `parafor is a CLI tool for exercising the parafor work-stealing
parallel-for runtime: run a loop across a worker pool, benchmark it against a
plain sequential loop, and inspect its scheduling traces.`,
		Version: version,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(traceCmd)
}
