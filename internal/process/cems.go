package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// cemsDataset is one CEMS-EFAS raster layer: the filled-depth grids per
// return period plus the water-body and spurious-depth masks.
type cemsDataset struct {
	key     string
	rawFile string
	prefix  string
}

var cemsDatasets = []cemsDataset{
	{key: "rp10", rawFile: "Europe_RP10_filled_depth.tif", prefix: "CEMS_EFAS_RP10"},
	{key: "rp20", rawFile: "Europe_RP20_filled_depth.tif", prefix: "CEMS_EFAS_RP20"},
	{key: "rp30", rawFile: "Europe_RP30_filled_depth.tif", prefix: "CEMS_EFAS_RP30"},
	{key: "rp40", rawFile: "Europe_RP40_filled_depth.tif", prefix: "CEMS_EFAS_RP40"},
	{key: "rp50", rawFile: "Europe_RP50_filled_depth.tif", prefix: "CEMS_EFAS_RP50"},
	{key: "rp75", rawFile: "Europe_RP75_filled_depth.tif", prefix: "CEMS_EFAS_RP75"},
	{key: "rp100", rawFile: "Europe_RP100_filled_depth.tif", prefix: "CEMS_EFAS_RP100"},
	{key: "rp200", rawFile: "Europe_RP200_filled_depth.tif", prefix: "CEMS_EFAS_RP200"},
	{key: "rp500", rawFile: "Europe_RP500_filled_depth.tif", prefix: "CEMS_EFAS_RP500"},
	{key: "water_bodies", rawFile: "Europe_permanent_water_bodies.tif", prefix: "CEMS_EFAS_WATER"},
	{key: "spurious", rawFile: "Europe_spurious_depth_areas.tif", prefix: "CEMS_EFAS_SPURIOUS"},
}

// Per-layer zoom-banded resolutions in degrees per pixel. Depth values
// average cleanly, so every band goes through gdal_translate with averaged
// resampling.
var cemsVariants = []struct {
	suffix     string
	resolution float64
}{
	{suffix: "z0_8", resolution: 0.005},
	{suffix: "z8_12", resolution: 0.001},
	{suffix: "z12_18", resolution: 0.00025},
}

// CEMS converts one downloaded CEMS-EFAS raster into three zoom-banded COGs
// under processed/cems/<key>/. The run tag lands in the output filenames so
// successive builds coexist; empty means today's date.
func (p *Processor) CEMS(ctx context.Context, tifName, runTag string) []StepResult {
	if runTag == "" {
		runTag = domain.Now().Format("20060102")
	}
	runTag = strings.ReplaceAll(strings.TrimSpace(runTag), " ", "_")

	ds, ok := cemsDatasetFor(tifName)
	if !ok {
		return []StepResult{p.fail("cems/match", fmt.Errorf("unrecognized CEMS-EFAS raster %q", tifName))}
	}

	raw := filepath.Join(p.RawDir, tifName)
	if _, err := os.Stat(raw); err != nil {
		return []StepResult{p.fail("cems/"+ds.key, err)}
	}

	outputDir := filepath.Join(p.ProcessedDir, "cems", ds.key)
	results := make([]StepResult, 0, len(cemsVariants))
	for _, v := range cemsVariants {
		step := "cems/" + ds.key + "/" + v.suffix
		out := filepath.Join(outputDir, fmt.Sprintf("%s_%s_%s.cog.tif", ds.prefix, v.suffix, runTag))
		if res, skipped := p.skipIfExists(step, out); skipped {
			results = append(results, res)
			continue
		}
		if err := p.run(ctx, toolchain.TranslateCOG(raw, out, v.resolution), out); err != nil {
			results = append(results, p.fail(step, err))
			continue
		}
		results = append(results, p.success(step, out))
	}
	return results
}

func cemsDatasetFor(tifName string) (cemsDataset, bool) {
	for _, d := range cemsDatasets {
		if d.rawFile == tifName {
			return d, true
		}
	}
	return cemsDataset{}, false
}
