// Command nextrunner is the thin CLI front door over the core library:
// every subcommand here does nothing but parse flags and call straight
// into internal/config, internal/filter, internal/dispatcher, or
// internal/store. Flag semantics, help text, and exit-code conventions
// are intentionally minimal — CLI parsing is non-goal scope for the
// core, and this package exists only so the module is runnable.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextrunner/nextrunner/pkg/logging"
)

// rootCmd is the base command for nextrunner.
var rootCmd = &cobra.Command{
	Use:          "nextrunner",
	Short:        "Run compiled test binaries concurrently with isolation, retries, and a record store",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("workspace", ".", "workspace root containing config.toml")
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStoreCmd())

	logging.InitDirect(logging.LevelInfo, os.Stderr)
}

// Execute runs the root command, exiting with a non-zero status on
// failure. Exit-code derivation beyond success/failure is the CLI
// collaborator's job per spec.md §7 — the core itself only ever hands
// back a structured RunStats.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nextrunner:", err)
		os.Exit(1)
	}
}
