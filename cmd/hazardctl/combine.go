package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazard-tile-service/internal/catalog"
	"github.com/couchcryptid/hazard-tile-service/internal/combine"
	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

var (
	nfhlOutput    string
	surgeRegion   string
	surgeRunTag   string
	surgeNoResume bool
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Combine processed outputs into servable archives",
}

var combineNFHLCmd = &cobra.Command{
	Use:   "nfhl",
	Short: "Merge per-state flood zone archives into one",
	Long: `Merge every NFHL PMTiles archive in the tiles directory into a single
combined archive. Zoom partitions are merged full-range first, so overlapping
tiles keep the full-range rendition.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m := &combine.Merger{Logger: logger, Metrics: metrics}
		result, err := m.MergeNFHL(cmd.Context(), cfg.TilesDir(), nfhlOutput, nil)
		if err != nil {
			return err
		}

		manifest := catalog.NewManifest(domain.DatasetFloodzone)
		manifest.Add(catalog.ManifestEntry{
			Step:    "combine/nfhl",
			File:    filepath.Base(result.Output),
			Status:  "built",
			Sources: baseNames(result.Inputs),
		})
		if path, err := manifest.Write(cfg.ManifestDir()); err != nil {
			logger.Error("manifest write failed", "error", err)
		} else {
			logger.Info("manifest written", "path", path)
		}
		publishManifest(cmd.Context(), manifest)

		logger.Info("merge complete", "output", result.Output,
			"inputs", len(result.Inputs), "written", result.TilesWritten, "skipped", result.TilesSkipped)
		return nil
	},
}

var combineSurgeCmd = &cobra.Command{
	Use:   "slosh",
	Short: "Build per-category storm surge archives for a region",
	Long: `Build one PMTiles archive per hurricane category from the freshest
processed COGs of a region, stitching the per-zoom-range variants.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		region, ok := domain.ParseRegion(surgeRegion)
		if !ok {
			return fmt.Errorf("--region must be one of %s", strings.Join(domain.RegionNames(), ", "))
		}

		c := &combine.SLOSHCombiner{
			Runner:       &toolchain.ExecRunner{Logger: logger, Metrics: metrics},
			Logger:       logger,
			ProcessedDir: cfg.ProcessedDir(),
			OutputDir:    cfg.TilesDir(),
			Resume:       !surgeNoResume,
		}

		results := c.CombineRegion(cmd.Context(), region, surgeRunTag)

		manifest := catalog.NewManifest(domain.DatasetSurge)
		failures := 0
		for _, res := range results {
			entry := catalog.ManifestEntry{
				Step:   "combine/surge/" + strings.ToLower(res.Category),
				File:   filepath.Base(res.Path),
				Status: res.Status,
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
			return fmt.Errorf("%d categories failed", failures)
		}
		logger.Info("surge combine complete", "region", region.Folder, "categories", len(results))
		return nil
	},
}

func init() {
	combineNFHLCmd.Flags().StringVar(&nfhlOutput, "output", "NFHL_combined.pmtiles",
		"filename for the combined archive")
	combineSurgeCmd.Flags().StringVar(&surgeRegion, "region", "",
		"SLOSH region: "+strings.Join(domain.RegionNames(), ", "))
	combineSurgeCmd.Flags().StringVar(&surgeRunTag, "run-tag", "",
		"only use COGs carrying this tag")
	combineSurgeCmd.Flags().BoolVar(&surgeNoResume, "no-resume", false,
		"rebuild archives that already exist")
	combineCmd.AddCommand(combineNFHLCmd, combineSurgeCmd)
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
