package process

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

func TestSurgeBuildsVariantsPerCategory(t *testing.T) {
	runner := &fakeRunner{}
	p := testProcessor(t, runner)
	region, ok := domain.ParseRegion("pr")
	require.True(t, ok)

	makeZip(t, filepath.Join(p.RawDir, "PR_SLOSH_MOM_Inundation.zip"), map[string]string{
		"PR_Category1_MOM_Inundation_HighTide.tif": "raster",
		"PR_Category3_MOM_Inundation_HighTide.tif": "raster",
		"readme.txt": "notes",
	})

	results := p.Surge(context.Background(), region, "PR_SLOSH_MOM_Inundation.zip")

	require.Len(t, results, 6) // 2 categories x 3 zoom variants
	for _, res := range results {
		assert.Equal(t, StatusSuccess, res.Status, res.Step)
	}

	var warps, translates int
	for _, cmd := range runner.commands {
		switch cmd.Tool {
		case "gdalwarp":
			warps++
		case "gdal_translate":
			translates++
		}
	}
	assert.Equal(t, 4, warps)
	assert.Equal(t, 2, translates)

	outputDir := filepath.Join(p.ProcessedDir, "puerto_rico")
	for _, name := range []string{
		"SLOSH_PR_Category1_z0_10.cog.tif",
		"SLOSH_PR_Category1_z10_16.cog.tif",
		"SLOSH_PR_Category1_z16_20.cog.tif",
		"SLOSH_PR_Category3_z0_10.cog.tif",
		"SLOSH_PR_Category3_z10_16.cog.tif",
		"SLOSH_PR_Category3_z16_20.cog.tif",
	} {
		assert.FileExists(t, filepath.Join(outputDir, name))
	}
}

func TestSurgeFailsWithoutCategoryRasters(t *testing.T) {
	runner := &fakeRunner{}
	p := testProcessor(t, runner)
	region, ok := domain.ParseRegion("pr")
	require.True(t, ok)

	makeZip(t, filepath.Join(p.RawDir, "PR_SLOSH_MOM_Inundation.zip"), map[string]string{
		"readme.txt": "no rasters here",
	})

	results := p.Surge(context.Background(), region, "PR_SLOSH_MOM_Inundation.zip")

	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Empty(t, runner.commands)
}
