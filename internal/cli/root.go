package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "brahma",
	Short: "Governance and audit layer for the Brahma wellness agent",
	Long:  "Records an append-only audit trail, aggregates session analytics, and gates the conversational agent on safety policy. All state stays on the local device.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to governance config (default ~/.brahma/policy.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
