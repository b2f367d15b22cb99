// Command ablate runs criterion ablation experiments and analyses their results.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ablate",
		Short: "Criterion ablation experiments for artificial life",
		Long: `ablate runs populations of simple organisms with one or two of their
life criteria disabled, compares each condition against the full system
across many seeds, and reports which criteria the population depends on.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config YAML overlaid on the defaults")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format: json or text")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "Print machine-readable output")

	rootCmd.AddCommand(
		newRunCmd(),
		newAnalyzeCmd(),
		newConditionsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}
