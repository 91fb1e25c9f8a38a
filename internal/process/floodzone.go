package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// The NFHL geodatabase layer holding flood hazard area polygons.
const floodHazardLayer = "S_FLD_HAZ_AR"

// Floodzone converts one state NFHL zip into a filtered PMTiles archive.
// Two stages: geodatabase to filtered FlatGeobuf, then a z0-18 tile build.
func (p *Processor) Floodzone(ctx context.Context, zipName string) []StepResult {
	stem := strings.TrimSuffix(zipName, ".zip")
	fgbPath := filepath.Join(p.ProcessedDir, stem+".fgb")
	tilesPath := filepath.Join(p.TilesDir, stem+".pmtiles")

	results := []StepResult{p.floodzoneFGB(ctx, zipName, stem, fgbPath)}
	if results[0].Status == StatusFailed {
		return results
	}
	return append(results, p.floodzoneTiles(ctx, fgbPath, tilesPath))
}

func (p *Processor) floodzoneFGB(ctx context.Context, zipName, stem, fgbPath string) StepResult {
	const step = "floodzone/fgb"
	if res, ok := p.skipIfExists(step, fgbPath); ok {
		return res
	}

	zipPath := filepath.Join(p.RawDir, zipName)
	if _, err := os.Stat(zipPath); err != nil {
		return p.fail(step, err)
	}

	tempDir, err := os.MkdirTemp("", "floodzone-*")
	if err != nil {
		return p.fail(step, err)
	}
	defer os.RemoveAll(tempDir)

	if err := unzip(zipPath, tempDir); err != nil {
		return p.fail(step, err)
	}
	gdbDir, err := findFirst(tempDir, ".gdb", true)
	if err != nil {
		return p.fail(step, err)
	}

	rawFGB := filepath.Join(tempDir, stem+"_raw.fgb")
	if err := p.run(ctx, toolchain.GDBToFlatGeobuf(gdbDir, floodHazardLayer, rawFGB), rawFGB); err != nil {
		return p.fail(step, err)
	}
	if err := p.run(ctx, toolchain.FilterFloodzones(rawFGB, fgbPath), fgbPath); err != nil {
		return p.fail(step, err)
	}
	return p.success(step, fgbPath)
}

func (p *Processor) floodzoneTiles(ctx context.Context, fgbPath, tilesPath string) StepResult {
	const step = "floodzone/tiles"
	if res, ok := p.skipIfExists(step, tilesPath); ok {
		return res
	}

	opts := toolchain.TippecanoeOpts{
		MinZoom: -1,
		MaxZoom: 18,
		Detail:  -1,
		Layer:   domain.DatasetFloodzone.LayerName(),
	}
	if err := p.run(ctx, toolchain.Tippecanoe(fgbPath, tilesPath, opts), tilesPath); err != nil {
		return p.fail(step, err)
	}
	return p.success(step, tilesPath)
}
