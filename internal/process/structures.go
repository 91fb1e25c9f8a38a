package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// Deliverable zips embed the release date and state code in the filename.
var deliverablePattern = regexp.MustCompile(`Deliverable(\d{8})([A-Z]{2})\.zip$`)

// Structures converts one state building-footprint deliverable into a
// z0-16 PMTiles archive, going through GeoJSON since the geodatabase layer
// names vary by state.
func (p *Processor) Structures(ctx context.Context, zipName string) []StepResult {
	const step = "structures"

	m := deliverablePattern.FindStringSubmatch(zipName)
	if m == nil {
		return []StepResult{p.fail(step, fmt.Errorf("unrecognized deliverable name %q", zipName))}
	}
	date, state := m[1], m[2]

	geojsonPath := filepath.Join(p.ProcessedDir, fmt.Sprintf("Structures_%s_%s.geojson", state, date))
	tilesPath := filepath.Join(p.TilesDir, fmt.Sprintf("Structures_%s_%s.pmtiles", state, date))

	results := []StepResult{p.structuresGeoJSON(ctx, zipName, geojsonPath)}
	if results[0].Status == StatusFailed {
		return results
	}
	return append(results, p.structuresTiles(ctx, geojsonPath, tilesPath))
}

func (p *Processor) structuresGeoJSON(ctx context.Context, zipName, geojsonPath string) StepResult {
	const step = "structures/geojson"
	if res, ok := p.skipIfExists(step, geojsonPath); ok {
		return res
	}

	zipPath := filepath.Join(p.RawDir, zipName)
	if _, err := os.Stat(zipPath); err != nil {
		return p.fail(step, err)
	}

	tempDir, err := os.MkdirTemp("", "structures-*")
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

	// Empty layer converts the default (first) layer, which is the
	// footprint layer in every deliverable inspected so far.
	if err := p.run(ctx, toolchain.GDBToGeoJSON(gdbDir, "", geojsonPath), geojsonPath); err != nil {
		return p.fail(step, err)
	}
	return p.success(step, geojsonPath)
}

func (p *Processor) structuresTiles(ctx context.Context, geojsonPath, tilesPath string) StepResult {
	const step = "structures/tiles"
	if res, ok := p.skipIfExists(step, tilesPath); ok {
		return res
	}

	opts := toolchain.TippecanoeOpts{
		MinZoom:     0,
		MaxZoom:     16,
		Detail:      -1,
		Layer:       domain.DatasetStructures.LayerName(),
		DropDensest: true,
		ExtendZooms: true,
	}
	if err := p.run(ctx, toolchain.Tippecanoe(geojsonPath, tilesPath, opts), tilesPath); err != nil {
		return p.fail(step, err)
	}
	return p.success(step, tilesPath)
}
