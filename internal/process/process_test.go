package process

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// fakeRunner records commands and fabricates their output files so the
// skip-if-exists logic sees realistic state.
type fakeRunner struct {
	commands []toolchain.Command
	failTool string
}

func (r *fakeRunner) Run(_ context.Context, cmd toolchain.Command) error {
	r.commands = append(r.commands, cmd)
	if r.failTool != "" && cmd.Tool == r.failTool {
		return fmt.Errorf("%s exploded", cmd.Tool)
	}
	out := outputPath(cmd)
	if out == "" {
		return fmt.Errorf("no output path in %v", cmd)
	}
	return os.WriteFile(out, []byte(cmd.Tool), 0o644)
}

// outputPath extracts the destination from a toolchain command. ogr2ogr puts
// the output before the input; the GDAL raster tools put it last; tippecanoe
// flags it explicitly.
func outputPath(cmd toolchain.Command) string {
	switch cmd.Tool {
	case "tippecanoe":
		for _, arg := range cmd.Args {
			if rest, ok := strings.CutPrefix(arg, "--output="); ok {
				return rest
			}
		}
	case "ogr2ogr":
		for _, arg := range cmd.Args {
			for _, ext := range []string{".fgb", ".geojson"} {
				if strings.HasSuffix(arg, ext) {
					return arg
				}
			}
		}
	case "gdalwarp", "gdal_translate":
		return cmd.Args[len(cmd.Args)-1]
	}
	return ""
}

func (r *fakeRunner) tools() []string {
	tools := make([]string, len(r.commands))
	for i, cmd := range r.commands {
		tools[i] = cmd.Tool
	}
	return tools
}

func testProcessor(t *testing.T, runner toolchain.Runner) *Processor {
	t.Helper()
	root := t.TempDir()
	p := &Processor{
		Runner:       runner,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		RawDir:       filepath.Join(root, "raw"),
		ProcessedDir: filepath.Join(root, "processed"),
		TilesDir:     filepath.Join(root, "tiles"),
	}
	for _, dir := range []string{p.RawDir, p.ProcessedDir, p.TilesDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return p
}

// makeZip writes a zip at path with the given entries. Names ending in "/"
// become directories.
func makeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		if strings.HasSuffix(name, "/") {
			_, err := w.Create(name)
			require.NoError(t, err)
			continue
		}
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestFloodzoneBuildsFilteredTiles(t *testing.T) {
	runner := &fakeRunner{}
	p := testProcessor(t, runner)
	makeZip(t, filepath.Join(p.RawDir, "NFHL_12_20250101.zip"), map[string]string{
		"NFHL_12_20250101.gdb/gdb": "table data",
	})

	results := p.Floodzone(context.Background(), "NFHL_12_20250101.zip")

	require.Len(t, results, 2)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, StatusSuccess, results[1].Status)
	assert.False(t, Failed(results))

	require.Equal(t, []string{"ogr2ogr", "ogr2ogr", "tippecanoe"}, runner.tools())
	assert.Contains(t, runner.commands[0].Args, "S_FLD_HAZ_AR")
	assert.Contains(t, runner.commands[1].Args, "-where")
	assert.Contains(t, runner.commands[2].Args, "-z18")
	assert.Contains(t, runner.commands[2].Args, "floodzones")

	assert.FileExists(t, filepath.Join(p.TilesDir, "NFHL_12_20250101.pmtiles"))
}

func TestFloodzoneSkipsExistingOutputs(t *testing.T) {
	runner := &fakeRunner{}
	p := testProcessor(t, runner)
	require.NoError(t, os.WriteFile(filepath.Join(p.ProcessedDir, "NFHL_12_20250101.fgb"), []byte("fgb"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(p.TilesDir, "NFHL_12_20250101.pmtiles"), []byte("tiles"), 0o644))

	results := p.Floodzone(context.Background(), "NFHL_12_20250101.zip")

	require.Len(t, results, 2)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, StatusSkipped, results[1].Status)
	assert.Empty(t, runner.commands)
}

func TestFloodzoneStopsAfterFailedConversion(t *testing.T) {
	runner := &fakeRunner{failTool: "ogr2ogr"}
	p := testProcessor(t, runner)
	makeZip(t, filepath.Join(p.RawDir, "NFHL_12_20250101.zip"), map[string]string{
		"NFHL_12_20250101.gdb/gdb": "table data",
	})

	results := p.Floodzone(context.Background(), "NFHL_12_20250101.zip")

	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.True(t, Failed(results))
}

func TestNRIBuildsZoomPartitions(t *testing.T) {
	runner := &fakeRunner{}
	p := testProcessor(t, runner)
	makeZip(t, filepath.Join(p.RawDir, "NRI_Shapefile_CensusTracts.zip"), map[string]string{
		"NRI_Shapefile_CensusTracts.shp": "shapes",
		"NRI_Shapefile_CensusTracts.dbf": "attrs",
	})

	results := p.NRI(context.Background(), "NRI_Shapefile_CensusTracts.zip")

	require.Len(t, results, 5)
	for _, res := range results {
		assert.Equal(t, StatusSuccess, res.Status, res.Step)
	}

	require.Equal(t, []string{"ogr2ogr", "tippecanoe", "tippecanoe", "tippecanoe", "tippecanoe"}, runner.tools())
	assert.Contains(t, runner.commands[1].Args, "-z10")
	assert.Contains(t, runner.commands[1].Args, "-D10")
	assert.Contains(t, runner.commands[2].Args, "-Z10")
	assert.Contains(t, runner.commands[3].Args, "-Z17")
	assert.Contains(t, runner.commands[4].Args, "-Z18")

	for _, suffix := range []string{"z0_10", "z10_16", "z17", "z18"} {
		assert.FileExists(t, filepath.Join(p.TilesDir, "NRI_Shapefile_CensusTracts_"+suffix+".pmtiles"))
	}
}

func TestStructuresNamesOutputFromDeliverable(t *testing.T) {
	runner := &fakeRunner{}
	p := testProcessor(t, runner)
	makeZip(t, filepath.Join(p.RawDir, "Deliverable20250606UT.zip"), map[string]string{
		"UT_Structures.gdb/gdb": "footprints",
	})

	results := p.Structures(context.Background(), "Deliverable20250606UT.zip")

	require.Len(t, results, 2)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, StatusSuccess, results[1].Status)

	tippecanoe := runner.commands[1]
	assert.Contains(t, tippecanoe.Args, "--drop-densest-as-needed")
	assert.Contains(t, tippecanoe.Args, "--extend-zooms-if-still-dropping")
	assert.Contains(t, tippecanoe.Args, "structures")

	assert.FileExists(t, filepath.Join(p.TilesDir, "Structures_UT_20250606.pmtiles"))
}

func TestStructuresRejectsUnrecognizedName(t *testing.T) {
	p := testProcessor(t, &fakeRunner{})

	results := p.Structures(context.Background(), "footprints.zip")

	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
}

func TestWildfireBuildsStateTiles(t *testing.T) {
	runner := &fakeRunner{}
	p := testProcessor(t, runner)
	makeZip(t, filepath.Join(p.RawDir, "RDS-2020-0060-2_NewMexico.zip"), map[string]string{
		"Data/whp_NM.shp": "risk polygons",
	})

	results := p.Wildfire(context.Background(), "RDS-2020-0060-2_NewMexico.zip")

	require.Len(t, results, 2)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, StatusSuccess, results[1].Status)

	assert.Contains(t, runner.commands[1].Args, "wildfire")
	assert.FileExists(t, filepath.Join(p.TilesDir, "Wildfire_NewMexico.pmtiles"))
}

func TestCoastlineGeoJSONExtract(t *testing.T) {
	runner := &fakeRunner{}
	p := testProcessor(t, runner)
	makeZip(t, filepath.Join(p.RawDir, "us_medium_shoreline.zip"), map[string]string{
		"us_medium_shoreline.shp": "lines",
	})

	res := p.CoastlineGeoJSON(context.Background(), "us_medium_shoreline.zip")

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, filepath.Join(p.ProcessedDir, "us_medium_shoreline.geojson"), res.Path)
	require.Len(t, runner.commands, 1)
	assert.Equal(t, "ogr2ogr", runner.commands[0].Tool)
}
