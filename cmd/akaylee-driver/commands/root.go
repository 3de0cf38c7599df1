/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: root.go
Description: Root command for the Akaylee Driver CLI. Wires the persistent flags into
viper and registers the check and resolve commands.
*/

package commands

import (
	"github.com/spf13/cobra"
)

// Version of the driver tooling
const Version = "1.0.0"

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "akaylee-driver",
		Short: "Akaylee Driver - companion tool for fuzz harness binaries",
		Long: `Akaylee Driver links a Go test function into a harness binary that runs under
afl-fuzz, honggfuzz or on its own. This tool checks the driver environment and shows
how a harness would resolve its arguments, without running a target.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Driver configuration file (overrides AKAYLEE_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "Logging level (debug, info, warn, error)")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate driver settings and instrumentation",
		Long: `Load the driver settings exactly like a harness would and verify them: build mode,
instrumentation capabilities, and that the duplicate report, log and summary
destinations are writable.`,
		Args: cobra.NoArgs,
		RunE: PerformSelfCheck,
	}
	rootCmd.AddCommand(checkCmd)

	resolveCmd := &cobra.Command{
		Use:   "resolve [-runs=N] [paths...]",
		Short: "Show the inputs a standalone harness would replay",
		Long: `Parse harness arguments and print the run cap, the input ceiling and the resolved
input list, in replay order. Arguments are passed through untouched, so libFuzzer-style
-runs=N works as it does on a harness.`,
		DisableFlagParsing: true,
		RunE:               ResolveInputs,
	}
	rootCmd.AddCommand(resolveCmd)

	return rootCmd
}
