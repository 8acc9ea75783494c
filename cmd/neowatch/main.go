// Command neowatch ranks near-Earth objects by how closely they pass Earth
// in the coming week, using the NASA NeoWs API.
package main

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/neo-approach-service/internal/config"
	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:           "neowatch",
		Short:         "Rank near-Earth objects by closest approach in the coming week",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger = observability.NewLogger(cfg)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(scanCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("neowatch failed", "error", err)
		os.Exit(1)
	}
}
