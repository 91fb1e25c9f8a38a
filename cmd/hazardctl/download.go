package main

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazard-tile-service/internal/catalog"
	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/download"
)

var downloadFIPS []string

var downloadCmd = &cobra.Command{
	Use:   "download <dataset>",
	Short: "Download raw source files for a dataset",
	Long: `Download the upstream source files for one dataset into the raw
storage directory. Files already present are skipped.

Datasets: floodzone (requires --fips), surge, wildfire, structures, nri,
coastline, cems`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataset, ok := domain.ParseDataset(args[0])
		if !ok {
			return fmt.Errorf("unknown dataset %q", args[0])
		}

		sources, err := download.SourcesFor(dataset, downloadFIPS)
		if err != nil {
			return err
		}
		destDir := filepath.Join(cfg.RawDir(), download.SubdirFor(dataset))

		fetcher := download.NewFetcher(&http.Client{Timeout: cfg.DownloadTimeout}, logger, metrics)
		results := fetcher.FetchAll(cmd.Context(), dataset, sources, destDir, cfg.DownloadConcurrency)

		manifest := catalog.NewManifest(dataset)
		failures := 0
		for _, res := range results {
			entry := catalog.ManifestEntry{
				Step:      "download",
				File:      res.Source.Filename,
				Status:    string(res.Status),
				SizeBytes: res.Size,
				Sources:   []string{res.Source.URL},
			}
			if res.Err != nil {
				entry.Error = res.Err.Error()
				failures++
			}
			manifest.Add(entry)
		}
		if path, err := manifest.Write(cfg.ManifestDir()); err != nil {
			logger.Error("manifest write failed", "error", err)
		} else {
			logger.Info("manifest written", "path", path)
		}

		publishManifest(cmd.Context(), manifest)

		if failures > 0 {
			return fmt.Errorf("%d of %d downloads failed", failures, len(results))
		}
		logger.Info("download complete", "dataset", dataset, "files", len(results))
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringSliceVar(&downloadFIPS, "fips", nil,
		"state FIPS codes for floodzone downloads, e.g. --fips 12,48")
}
