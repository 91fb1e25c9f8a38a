package http

import (
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

func writeTestArchive(t *testing.T, dir, name string, z uint8, x, y uint32, data []byte) {
	t.Helper()
	w, err := pmtiles.NewWriter(dir)
	require.NoError(t, err)
	require.NoError(t, w.AddTile(z, x, y, data))
	b := domain.BoundsFromDegrees(-87.6, 24.5, -80.0, 31.0)
	hdr := pmtiles.Header{
		TileType:        pmtiles.Mvt,
		TileCompression: pmtiles.Gzip,
		MinZoom:         0,
		MaxZoom:         18,
		MinLonE7:        b.MinLonE7,
		MinLatE7:        b.MinLatE7,
		MaxLonE7:        b.MaxLonE7,
		MaxLatE7:        b.MaxLatE7,
	}
	require.NoError(t, w.Finalize(filepath.Join(dir, name), hdr, nil))
}

// A lookup that acquired the archive set before a reload must keep working
// against the old readers; they close only when the last holder lets go.
func TestReloadKeepsInFlightSnapshotReadable(t *testing.T) {
	dir := t.TempDir()
	payload := []byte{0x12, 0x05, 0x0a, 0x03, 0x66, 0x6f, 0x6f}
	writeTestArchive(t, dir, "NFHL_12_20250101.pmtiles", 5, 8, 13, payload)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := NewTileSet(dir, logger, observability.NewMetricsForTesting())
	require.NoError(t, ts.Reload())
	t.Cleanup(ts.Close)

	snap := ts.snapshot()
	require.NotNil(t, snap)
	require.Len(t, snap.archives, 1)

	// Two reloads: the first replaces the generation the snapshot holds,
	// the second proves the old one is fully detached from the TileSet.
	require.NoError(t, ts.Reload())
	require.NoError(t, ts.Reload())

	data, ok, err := snap.archives[0].reader.Get(5, 8, 13)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, data)
	snap.release()

	// The current generation serves the tile as well.
	data, _, ok, err = ts.Tile(5, 8, 13)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, data)
}

// Once every holder releases a generation its readers are closed.
func TestReleasedGenerationClosesReaders(t *testing.T) {
	dir := t.TempDir()
	writeTestArchive(t, dir, "NFHL_12_20250101.pmtiles", 5, 8, 13, []byte{0x12, 0x01, 0x00})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := NewTileSet(dir, logger, observability.NewMetricsForTesting())
	require.NoError(t, ts.Reload())
	t.Cleanup(ts.Close)

	snap := ts.snapshot()
	require.NotNil(t, snap)
	require.NoError(t, ts.Reload())
	snap.release()

	_, _, err := snap.archives[0].reader.Get(5, 8, 13)
	assert.Error(t, err)
}
