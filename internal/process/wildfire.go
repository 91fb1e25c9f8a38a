package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// Wildfire converts one state wildfire-risk zip into a PMTiles archive:
// shapefile to FlatGeobuf, then a z0-14 build. Risk polygons are coarser
// than flood zones, so higher zooms add bytes without adding detail.
func (p *Processor) Wildfire(ctx context.Context, zipName string) []StepResult {
	state := wildfireState(zipName)
	fgbPath := filepath.Join(p.ProcessedDir, "Wildfire_"+state+".fgb")
	tilesPath := filepath.Join(p.TilesDir, "Wildfire_"+state+".pmtiles")

	results := []StepResult{p.wildfireFGB(ctx, zipName, fgbPath)}
	if results[0].Status == StatusFailed {
		return results
	}
	return append(results, p.wildfireTiles(ctx, fgbPath, tilesPath))
}

// wildfireState pulls the state name from an RDS archive filename,
// e.g. "RDS-2020-0060-2_NewMexico.zip".
func wildfireState(zipName string) string {
	stem := strings.TrimSuffix(zipName, ".zip")
	if i := strings.LastIndex(stem, "_"); i >= 0 {
		return stem[i+1:]
	}
	return stem
}

func (p *Processor) wildfireFGB(ctx context.Context, zipName, fgbPath string) StepResult {
	const step = "wildfire/fgb"
	if res, ok := p.skipIfExists(step, fgbPath); ok {
		return res
	}

	zipPath := filepath.Join(p.RawDir, zipName)
	if _, err := os.Stat(zipPath); err != nil {
		return p.fail(step, err)
	}

	tempDir, err := os.MkdirTemp("", "wildfire-*")
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

func (p *Processor) wildfireTiles(ctx context.Context, fgbPath, tilesPath string) StepResult {
	const step = "wildfire/tiles"
	if res, ok := p.skipIfExists(step, tilesPath); ok {
		return res
	}

	opts := toolchain.TippecanoeOpts{
		MinZoom: -1,
		MaxZoom: 14,
		Detail:  -1,
		Layer:   domain.DatasetWildfire.LayerName(),
	}
	if err := p.run(ctx, toolchain.Tippecanoe(fgbPath, tilesPath, opts), tilesPath); err != nil {
		return p.fail(step, err)
	}
	return p.success(step, tilesPath)
}
