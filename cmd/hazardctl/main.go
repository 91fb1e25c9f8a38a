// hazardctl drives the hazard tile pipeline: downloading source datasets,
// converting them to PMTiles and COG archives, combining partitioned builds,
// and seeding the coastline store.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazard-tile-service/internal/config"
	"github.com/couchcryptid/hazard-tile-service/internal/observability"
)

var (
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
)

var rootCmd = &cobra.Command{
	Use:           "hazardctl",
	Short:         "Hazard tile pipeline",
	Long:          "Download, convert, and combine hazard datasets into tile archives.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load() // optional .env for local runs

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
		metrics = observability.NewMetrics()
		return nil
	},
}

func main() {
	rootCmd.AddCommand(downloadCmd, processCmd, combineCmd, seedCoastlineCmd, catalogCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
