package combine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/observability"
	"github.com/couchcryptid/hazard-tile-service/internal/pmtiles"
)

type tileSpec struct {
	z    uint8
	x, y uint32
	data string
}

func writeArchive(t *testing.T, dir, name string, hdr pmtiles.Header, metadata map[string]any, tiles []tileSpec) {
	t.Helper()
	w, err := pmtiles.NewWriter(dir)
	require.NoError(t, err)
	for _, tile := range tiles {
		require.NoError(t, w.AddTile(tile.z, tile.x, tile.y, []byte(tile.data)))
	}
	require.NoError(t, w.Finalize(filepath.Join(dir, name), hdr, metadata))
}

func testMerger() *Merger {
	return &Merger{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: observability.NewMetricsForTesting(),
	}
}

func floodHeader(minZoom, maxZoom uint8, west, south, east, north float64) pmtiles.Header {
	b := domain.BoundsFromDegrees(west, south, east, north)
	return pmtiles.Header{
		TileType:        pmtiles.Mvt,
		TileCompression: pmtiles.NoCompression,
		MinZoom:         minZoom,
		MaxZoom:         maxZoom,
		MinLonE7:        b.MinLonE7,
		MinLatE7:        b.MinLatE7,
		MaxLonE7:        b.MaxLonE7,
		MaxLatE7:        b.MaxLatE7,
	}
}

func TestMergeNFHLFirstArchiveWins(t *testing.T) {
	dir := t.TempDir()

	// Full-range archive and a zoom partition that overlaps it at (1,0,0).
	writeArchive(t, dir, "NFHL_12_20250101.pmtiles",
		floodHeader(0, 18, -87.6, 24.5, -80.0, 31.0),
		map[string]any{"vector_layers": []any{map[string]any{"id": "floodzones"}}},
		[]tileSpec{{z: 1, x: 0, y: 0, data: "full"}})
	writeArchive(t, dir, "NFHL_12_20250101_z0_10.pmtiles",
		floodHeader(0, 10, -87.6, 24.5, -80.0, 31.0),
		map[string]any{"vector_layers": []any{map[string]any{"id": "floodzones"}}},
		[]tileSpec{
			{z: 1, x: 0, y: 0, data: "partition"},
			{z: 1, x: 1, y: 1, data: "extra"},
		})

	result, err := testMerger().MergeNFHL(context.Background(), dir, "NFHL_combined.pmtiles", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TilesWritten)
	assert.Equal(t, 1, result.TilesSkipped)
	// Full range carries merge priority over partitions.
	assert.Equal(t, []string{"NFHL_12_20250101.pmtiles", "NFHL_12_20250101_z0_10.pmtiles"}, result.Inputs)

	reader, err := pmtiles.OpenFile(result.Output)
	require.NoError(t, err)
	defer reader.Close()

	data, ok, err := reader.Get(1, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "full", string(data))

	data, ok, err = reader.Get(1, 1, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "extra", string(data))
}

func TestMergeNFHLUnionsBoundsLayersAndZooms(t *testing.T) {
	dir := t.TempDir()

	writeArchive(t, dir, "NFHL_12_20250101.pmtiles",
		floodHeader(0, 10, -87.6, 24.5, -80.0, 31.0),
		map[string]any{"vector_layers": []any{map[string]any{"id": "floodzones", "minzoom": float64(0)}}},
		[]tileSpec{{z: 1, x: 0, y: 0, data: "fl"}})
	writeArchive(t, dir, "NFHL_48_20250101.pmtiles",
		floodHeader(5, 18, -106.6, 25.8, -93.5, 36.5),
		map[string]any{"vector_layers": []any{
			map[string]any{"id": "floodzones", "minzoom": float64(5)},
			map[string]any{"id": "levees"},
		}},
		[]tileSpec{{z: 1, x: 1, y: 0, data: "tx"}})

	result, err := testMerger().MergeNFHL(context.Background(), dir, "NFHL_combined.pmtiles", nil)
	require.NoError(t, err)

	reader, err := pmtiles.OpenFile(result.Output)
	require.NoError(t, err)
	defer reader.Close()

	hdr := reader.Header()
	assert.Equal(t, uint8(0), hdr.MinZoom)
	assert.Equal(t, uint8(18), hdr.MaxZoom)

	want := domain.BoundsFromDegrees(-106.6, 24.5, -80.0, 36.5)
	assert.Equal(t, want.MinLonE7, hdr.MinLonE7)
	assert.Equal(t, want.MinLatE7, hdr.MinLatE7)
	assert.Equal(t, want.MaxLonE7, hdr.MaxLonE7)
	assert.Equal(t, want.MaxLatE7, hdr.MaxLatE7)

	metadata, err := reader.Metadata()
	require.NoError(t, err)
	layers := metadata["vector_layers"].([]any)
	require.Len(t, layers, 2)
	// First definition of floodzones wins the union.
	first := layers[0].(map[string]any)
	assert.Equal(t, "floodzones", first["id"])
	assert.Equal(t, float64(0), first["minzoom"])
	assert.Equal(t, "FEMA National Flood Hazard Layers (Combined)", metadata["name"])
}

func TestMergeNFHLIgnoresForeignArchives(t *testing.T) {
	dir := t.TempDir()

	writeArchive(t, dir, "NFHL_12_20250101.pmtiles",
		floodHeader(0, 18, -87.6, 24.5, -80.0, 31.0),
		nil, []tileSpec{{z: 0, x: 0, y: 0, data: "fl"}})
	writeArchive(t, dir, "NRI_Shapefile_CensusTracts_z18.pmtiles",
		floodHeader(18, 18, -125, 24, -66, 49),
		nil, []tileSpec{{z: 0, x: 0, y: 0, data: "nri"}})

	result, err := testMerger().MergeNFHL(context.Background(), dir, "NFHL_combined.pmtiles", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"NFHL_12_20250101.pmtiles"}, result.Inputs)
}

func TestProcessingOrder(t *testing.T) {
	got := processingOrder([]string{
		"NFHL_12_20250101_z18.pmtiles",
		"NFHL_12_20250101.pmtiles",
		"NFHL_06_20250101_z10_16.pmtiles",
		"NFHL_12_20250101_z0_10.pmtiles",
		"NFHL_06_20250101_z0_10.pmtiles",
	})

	want := []string{
		"NFHL_06_20250101_z0_10.pmtiles",
		"NFHL_06_20250101_z10_16.pmtiles",
		"NFHL_12_20250101.pmtiles",
		"NFHL_12_20250101_z0_10.pmtiles",
		"NFHL_12_20250101_z18.pmtiles",
	}
	assert.Equal(t, want, got)
}

func TestMergeNFHLEmptyDirectory(t *testing.T) {
	_, err := testMerger().MergeNFHL(context.Background(), t.TempDir(), "NFHL_combined.pmtiles", nil)
	require.Error(t, err)
}
