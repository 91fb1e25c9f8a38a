package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// Zoom partitions for the census-tract risk index. The low-zoom build caps
// detail to keep nationwide tract polygons from blowing the tile budget.
var nriBuilds = []struct {
	suffix string
	opts   toolchain.TippecanoeOpts
}{
	{suffix: "z0_10", opts: toolchain.TippecanoeOpts{MinZoom: -1, MaxZoom: 10, Detail: 10}},
	{suffix: "z10_16", opts: toolchain.TippecanoeOpts{MinZoom: 10, MaxZoom: 16, Detail: -1}},
	{suffix: "z17", opts: toolchain.TippecanoeOpts{MinZoom: 17, MaxZoom: 17, Detail: -1}},
	{suffix: "z18", opts: toolchain.TippecanoeOpts{MinZoom: 18, MaxZoom: 18, Detail: -1}},
}

// NRI converts the national risk index shapefile zip into four
// zoom-partitioned PMTiles archives.
func (p *Processor) NRI(ctx context.Context, zipName string) []StepResult {
	stem := strings.TrimSuffix(zipName, ".zip")
	fgbPath := filepath.Join(p.ProcessedDir, stem+".fgb")

	results := []StepResult{p.nriFGB(ctx, zipName, stem, fgbPath)}
	if results[0].Status == StatusFailed {
		return results
	}

	for _, build := range nriBuilds {
		step := "nri/tiles/" + build.suffix
		out := filepath.Join(p.TilesDir, stem+"_"+build.suffix+".pmtiles")
		if res, ok := p.skipIfExists(step, out); ok {
			results = append(results, res)
			continue
		}
		opts := build.opts
		opts.Layer = domain.DatasetNRI.LayerName()
		if err := p.run(ctx, toolchain.Tippecanoe(fgbPath, out, opts), out); err != nil {
			results = append(results, p.fail(step, err))
			continue
		}
		results = append(results, p.success(step, out))
	}
	return results
}

func (p *Processor) nriFGB(ctx context.Context, zipName, stem, fgbPath string) StepResult {
	const step = "nri/fgb"
	if res, ok := p.skipIfExists(step, fgbPath); ok {
		return res
	}

	zipPath := filepath.Join(p.RawDir, zipName)
	if _, err := os.Stat(zipPath); err != nil {
		return p.fail(step, err)
	}

	tempDir, err := os.MkdirTemp("", "nri-*")
	if err != nil {
		return p.fail(step, err)
	}
	defer os.RemoveAll(tempDir)

	if err := unzip(zipPath, tempDir); err != nil {
		return p.fail(step, err)
	}
	shpPath, err := findFirst(tempDir, ".shp", false)
	if err != nil {
		return p.fail(step, err)
	}

	if err := p.run(ctx, toolchain.ShapefileToFlatGeobuf(shpPath, fgbPath), fgbPath); err != nil {
		return p.fail(step, err)
	}
	return p.success(step, fgbPath)
}
