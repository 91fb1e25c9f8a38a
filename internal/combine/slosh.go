package combine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/hazard-tile-service/internal/catalog"
	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// COG zoom variants mosaicked per category, low zoom first so gdalbuildvrt
// keeps the higher-resolution rasters on top where they overlap.
var sloshZoomRanges = []string{"z0_10", "z10_16", "z16_20"}

// SLOSHCombiner mosaics per-category surge COGs into PMTiles archives.
type SLOSHCombiner struct {
	Runner       toolchain.Runner
	Logger       *slog.Logger
	ProcessedDir string // per-region COG subdirectories
	OutputDir    string // per-region archive subdirectories
	Resume       bool   // skip categories whose output exists
}

// CategoryResult reports one category build.
type CategoryResult struct {
	Category string
	Status   string // built, skipped, missing, failed
	Path     string
	Err      error
}

// CombineRegion builds one PMTiles archive per hurricane category for the
// region. runTag narrows COG selection to a single pipeline run; empty
// means newest available.
func (c *SLOSHCombiner) CombineRegion(ctx context.Context, region domain.Region, runTag string) []CategoryResult {
	results := make([]CategoryResult, 0, len(domain.HurricaneCategories))
	for _, category := range domain.HurricaneCategories {
		results = append(results, c.combineCategory(ctx, region, category, runTag))
	}
	return results
}

func (c *SLOSHCombiner) combineCategory(ctx context.Context, region domain.Region, category, runTag string) CategoryResult {
	outputName := fmt.Sprintf("%s_%s.pmtiles", region.Prefix, category)
	destination := filepath.Join(c.OutputDir, region.Folder, outputName)

	if c.Resume {
		if _, err := os.Stat(destination); err == nil {
			c.Logger.Info("category skipped, output exists", "category", category, "path", destination)
			return CategoryResult{Category: category, Status: "skipped", Path: destination}
		}
	}

	cogs, err := c.findCategoryCOGs(region, category, runTag)
	if err != nil {
		return CategoryResult{Category: category, Status: "failed", Err: err}
	}
	if len(cogs) == 0 {
		c.Logger.Warn("no COGs for category", "region", region.Folder, "category", category)
		return CategoryResult{Category: category, Status: "missing"}
	}

	c.Logger.Info("building category archive", "category", category, "cogs", len(cogs))
	if err := c.buildArchive(ctx, region, category, cogs, destination); err != nil {
		return CategoryResult{Category: category, Status: "failed", Err: err}
	}
	return CategoryResult{Category: category, Status: "built", Path: destination}
}

// findCategoryCOGs picks the freshest COG per zoom range. Ranges with no
// match are simply absent from the mosaic.
func (c *SLOSHCombiner) findCategoryCOGs(region domain.Region, category, runTag string) ([]string, error) {
	dir := filepath.Join(c.ProcessedDir, region.Folder)
	var cogs []string
	for _, zoomRange := range sloshZoomRanges {
		pattern := fmt.Sprintf("*_%s_%s*.cog.tif", category, zoomRange)
		if runTag != "" {
			pattern = fmt.Sprintf("*_%s_%s_%s.cog.tif", category, zoomRange, runTag)
		}
		latest, err := catalog.LatestMatching(dir, pattern)
		if err != nil {
			return nil, err
		}
		if latest != "" {
			cogs = append(cogs, latest)
		}
	}
	return cogs, nil
}

// buildArchive mosaics the COGs and converts the result: VRT, WebMercator
// warp, MBTiles, overviews, then PMTiles.
func (c *SLOSHCombiner) buildArchive(ctx context.Context, region domain.Region, category string, cogs []string, destination string) error {
	tempDir, err := os.MkdirTemp("", "slosh-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	stem := fmt.Sprintf("%s_%s", region.Prefix, category)
	vrt := filepath.Join(tempDir, stem+".vrt")
	warped := filepath.Join(tempDir, stem+"_3857.tif")
	mbtiles := filepath.Join(tempDir, stem+".mbtiles")
	archive := filepath.Join(tempDir, stem+".pmtiles")

	steps := []toolchain.Command{
		toolchain.BuildVRT(vrt, cogs),
		toolchain.WarpToWebMercatorCOG(vrt, warped),
		toolchain.TranslateToMBTiles(warped, mbtiles),
		toolchain.AddOverviews(mbtiles),
		toolchain.ConvertToPMTiles(mbtiles, archive),
	}
	for _, cmd := range steps {
		if err := c.Runner.Run(ctx, cmd); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}
	return copyFile(archive, destination)
}

// copyFile copies across filesystems; the temp dir and output dir may not
// share a device, so rename is not an option.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
