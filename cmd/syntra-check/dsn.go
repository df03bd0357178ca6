package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syntra-hq/syntra-go"
)

var dsnCmd = &cobra.Command{
	Use:   "dsn [dsn]",
	Short: "Parse a DSN and print its components",
	Long: `Dsn parses the given DSN (or --dsn, or SYNTRA_DSN) and prints its
components and the ingest URL the SDK would post telemetry to. Nothing
is sent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDSN,
}

func init() {
	rootCmd.AddCommand(dsnCmd)
}

func runDSN(cmd *cobra.Command, args []string) error {
	raw := rootFlags.dsn
	if len(args) > 0 {
		raw = args[0]
	}
	if raw == "" {
		raw = os.Getenv("SYNTRA_DSN")
	}
	if raw == "" {
		return errors.New("no DSN given: pass one as an argument, --dsn, or SYNTRA_DSN")
	}

	dsn, err := syntra.ParseDSN(raw)
	if err != nil {
		return err
	}

	fmt.Printf("protocol    %s\n", dsn.Protocol)
	fmt.Printf("public key  %s\n", dsn.PublicKey)
	fmt.Printf("host        %s\n", dsn.Host)
	fmt.Printf("project     %s\n", dsn.ProjectID)
	fmt.Printf("ingest URL  %s\n", dsn.IngestURL())
	return nil
}
