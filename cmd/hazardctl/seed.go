package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazard-tile-service/internal/coastline"
)

var seedFile string

var seedCoastlineCmd = &cobra.Command{
	Use:   "seed-coastline",
	Short: "Load shoreline points into the coastline store",
	Long: `Parse the processed shoreline GeoJSON and insert its points into
Postgres for distance-to-coast queries. A source file that was already
loaded is skipped, so reruns are idempotent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is not configured")
		}
		path := seedFile
		if path == "" {
			path = filepath.Join(cfg.ProcessedDir(), "us_medium_shoreline.geojson")
		}
		source := filepath.Base(path)

		points, err := coastline.ParsePointsFile(path, source)
		if err != nil {
			return err
		}
		logger.Info("shoreline parsed", "source", source, "points", len(points))

		store, err := coastline.NewStore(cfg.PostgresDSN, logger, metrics)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck // process exits next

		if err := store.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("postgres unreachable: %w", err)
		}

		inserted, err := store.Seed(cmd.Context(), source, points)
		if err != nil {
			return err
		}
		logger.Info("coastline seeded", "source", source, "inserted", inserted)
		return nil
	},
}

func init() {
	seedCoastlineCmd.Flags().StringVar(&seedFile, "file", "",
		"shoreline GeoJSON path (defaults to the processed shoreline output)")
}
