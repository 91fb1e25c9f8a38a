package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// CoastlineGeoJSON extracts a shoreline zip to WGS84 GeoJSON, ready for the
// coastline point seeder.
func (p *Processor) CoastlineGeoJSON(ctx context.Context, zipName string) StepResult {
	const step = "coastline/geojson"
	stem := strings.TrimSuffix(zipName, ".zip")
	geojsonPath := filepath.Join(p.ProcessedDir, stem+".geojson")
	if res, ok := p.skipIfExists(step, geojsonPath); ok {
		return res
	}

	zipPath := filepath.Join(p.RawDir, zipName)
	if _, err := os.Stat(zipPath); err != nil {
		return p.fail(step, err)
	}

	tempDir, err := os.MkdirTemp("", "coastline-*")
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

	if err := p.run(ctx, toolchain.ExtractGeoJSON(shpPath, geojsonPath), geojsonPath); err != nil {
		return p.fail(step, err)
	}
	return p.success(step, geojsonPath)
}
