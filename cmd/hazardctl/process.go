package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazard-tile-service/internal/catalog"
	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/download"
	"github.com/couchcryptid/hazard-tile-service/internal/process"
	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

var (
	processRegion string
	processRunTag string
)

var processCmd = &cobra.Command{
	Use:   "process <dataset>",
	Short: "Convert downloaded source files into tile archives",
	Long: `Run the conversion pipeline over every downloaded source file for a
dataset. Stages whose outputs already exist are skipped, so an interrupted
run resumes where it stopped.

Surge processing builds per-category COGs and requires --region. CEMS-EFAS
processing builds zoom-banded COGs per return period; --run-tag names the
build.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataset, ok := domain.ParseDataset(args[0])
		if !ok {
			return fmt.Errorf("unknown dataset %q", args[0])
		}

		var region domain.Region
		if dataset == domain.DatasetSurge {
			region, ok = domain.ParseRegion(processRegion)
			if !ok {
				return fmt.Errorf("surge processing requires --region, one of %s",
					strings.Join(domain.RegionNames(), ", "))
			}
		}

		// CEMS-EFAS ships bare GeoTIFFs; every other source is zipped.
		sourceExt := ".zip"
		if dataset == domain.DatasetCEMS {
			sourceExt = ".tif"
		}

		rawDir := filepath.Join(cfg.RawDir(), download.SubdirFor(dataset))
		sources, err := listSources(rawDir, sourceExt)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			return fmt.Errorf("no %s source files under %s, run download first", sourceExt, rawDir)
		}

		p := &process.Processor{
			Runner:       &toolchain.ExecRunner{Logger: logger, Metrics: metrics},
			Logger:       logger,
			RawDir:       rawDir,
			ProcessedDir: cfg.ProcessedDir(),
			TilesDir:     cfg.TilesDir(),
		}

		manifest := catalog.NewManifest(dataset)
		failures := 0
		for _, srcName := range sources {
			results := dispatch(cmd.Context(), p, dataset, region, srcName)
			for _, res := range results {
				entry := catalog.ManifestEntry{
					Step:      res.Step,
					File:      filepath.Base(res.Path),
					Status:    string(res.Status),
					SizeBytes: res.SizeBytes,
					Sources:   []string{srcName},
				}
				if res.Err != nil {
					entry.Error = res.Err.Error()
					failures++
				}
				manifest.Add(entry)
			}
		}

		if path, err := manifest.Write(cfg.ManifestDir()); err != nil {
			logger.Error("manifest write failed", "error", err)
		} else {
			logger.Info("manifest written", "path", path)
		}
		publishManifest(cmd.Context(), manifest)

		if failures > 0 {
			return fmt.Errorf("%d pipeline stages failed", failures)
		}
		logger.Info("processing complete", "dataset", dataset, "sources", len(sources))
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processRegion, "region", "",
		"SLOSH region for surge processing: "+strings.Join(domain.RegionNames(), ", "))
	processCmd.Flags().StringVar(&processRunTag, "run-tag", "",
		"tag embedded in CEMS-EFAS output names (default: today's date)")
}

func dispatch(ctx context.Context, p *process.Processor, dataset domain.Dataset, region domain.Region, srcName string) []process.StepResult {
	switch dataset {
	case domain.DatasetFloodzone:
		return p.Floodzone(ctx, srcName)
	case domain.DatasetSurge:
		return p.Surge(ctx, region, srcName)
	case domain.DatasetWildfire:
		return p.Wildfire(ctx, srcName)
	case domain.DatasetStructures:
		return p.Structures(ctx, srcName)
	case domain.DatasetNRI:
		return p.NRI(ctx, srcName)
	case domain.DatasetCoastline:
		return []process.StepResult{p.CoastlineGeoJSON(ctx, srcName)}
	case domain.DatasetCEMS:
		return p.CEMS(ctx, srcName, processRunTag)
	default:
		return nil
	}
}

func listSources(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list raw files: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
