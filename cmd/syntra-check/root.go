package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syntra-hq/syntra-go"
)

var rootFlags struct {
	dsn   string
	debug bool
}

var rootCmd = &cobra.Command{
	Use:     "syntra-check",
	Short:   "Verify a Syntra SDK setup",
	Version: syntra.Version,
	Long: `syntra-check exercises the Syntra Go SDK against a real ingest endpoint.

It reads the same SYNTRA_* environment variables the SDK reads, with
flags taking precedence, so it doubles as a quick way to validate a
deployment's telemetry configuration before shipping it.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.dsn, "dsn", "", "Syntra DSN (defaults to SYNTRA_DSN)")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debug, "debug", false, "enable SDK debug logging")
}
