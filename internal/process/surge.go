package process

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// Per-category raster variants. Low and medium zooms are resampled to keep
// tile reads cheap; the high-zoom COG keeps source resolution.
var surgeVariants = []struct {
	suffix     string
	resolution float64 // 0 means full resolution
}{
	{suffix: "z0_10", resolution: 0.001},
	{suffix: "z10_16", resolution: 0.0001},
	{suffix: "z16_20", resolution: 0},
}

// Surge converts one SLOSH region zip into per-category COGs, three zoom
// variants each.
func (p *Processor) Surge(ctx context.Context, region domain.Region, zipName string) []StepResult {
	const step = "surge/extract"

	zipPath := filepath.Join(p.RawDir, zipName)
	if _, err := os.Stat(zipPath); err != nil {
		return []StepResult{p.fail(step, err)}
	}

	tempDir, err := os.MkdirTemp("", "surge-*")
	if err != nil {
		return []StepResult{p.fail(step, err)}
	}
	defer os.RemoveAll(tempDir)

	if err := unzip(zipPath, tempDir); err != nil {
		return []StepResult{p.fail(step, err)}
	}

	tifs, err := findCategoryTIFs(tempDir)
	if err != nil {
		return []StepResult{p.fail(step, err)}
	}

	outputDir := filepath.Join(p.ProcessedDir, region.Folder)
	var results []StepResult
	for category, tif := range tifs {
		results = append(results, p.surgeCategory(ctx, region, category, tif, outputDir)...)
	}
	return results
}

func (p *Processor) surgeCategory(ctx context.Context, region domain.Region, category, tif, outputDir string) []StepResult {
	results := make([]StepResult, 0, len(surgeVariants))
	for _, v := range surgeVariants {
		step := "surge/" + strings.ToLower(category) + "/" + v.suffix
		out := filepath.Join(outputDir, fmt.Sprintf("%s_%s_%s.cog.tif", region.Prefix, category, v.suffix))
		if res, ok := p.skipIfExists(step, out); ok {
			results = append(results, res)
			continue
		}

		var cmd toolchain.Command
		if v.resolution > 0 {
			cmd = toolchain.ResampleCOG(tif, out, v.resolution)
		} else {
			cmd = toolchain.FullResolutionCOG(tif, out)
		}
		if err := p.run(ctx, cmd, out); err != nil {
			results = append(results, p.fail(step, err))
			continue
		}
		results = append(results, p.success(step, out))
	}
	return results
}

// findCategoryTIFs locates the per-category inundation rasters in an
// extracted region zip, keyed by category name.
func findCategoryTIFs(root string) (map[string]string, error) {
	tifs := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tif") {
			return nil
		}
		for _, category := range domain.HurricaneCategories {
			if strings.Contains(d.Name(), category) {
				tifs[category] = path
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(tifs) == 0 {
		return nil, fmt.Errorf("no category rasters found under %s", root)
	}
	return tifs, nil
}
