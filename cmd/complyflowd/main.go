package main

import (
	"fmt"
	"os"

	"github.com/complyflow-labs/complyflow/internal/cli"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "complyflowd",
		Short: "ComplyFlow daemon and CLI",
		Long: `ComplyFlow daemon for the compliance retrieval and verification service.

Runs the HTTP API and discovery watchers, and provides one-shot
ingestion for operator backfills.`,
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IngestCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
