package catalog

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

func TestManifest_WriteAndLatest(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.September, 18, 12, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	dir := t.TempDir()

	first := NewManifest(domain.DatasetFloodzone)
	first.Add(ManifestEntry{File: "NFHL_12_20250918.pmtiles", Status: "built", SizeBytes: 1024})
	_, err := first.Write(dir)
	require.NoError(t, err)

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.September, 19, 12, 0, 0, 0, time.UTC)))
	second := NewManifest(domain.DatasetFloodzone)
	second.Add(ManifestEntry{File: "NFHL_12_20250919.pmtiles", Status: "built", SizeBytes: 2048})
	_, err = second.Write(dir)
	require.NoError(t, err)

	// A run for another dataset must not shadow the floodzone manifests.
	other := NewManifest(domain.DatasetWildfire)
	other.Add(ManifestEntry{File: "wildfire_UT.pmtiles", Status: "built"})
	_, err = other.Write(dir)
	require.NoError(t, err)

	got, err := LatestManifest(dir, domain.DatasetFloodzone)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, got.RunID)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "NFHL_12_20250919.pmtiles", got.Entries[0].File)
	assert.True(t, got.GeneratedAt.Equal(time.Date(2025, time.September, 19, 12, 0, 0, 0, time.UTC)))
}

func TestLatestManifest_MissingDataset(t *testing.T) {
	_, err := LatestManifest(t.TempDir(), domain.DatasetNRI)
	require.Error(t, err)
}

func TestLatestManifest_OrdersSameDayRunsByTime(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.September, 18, 9, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	dir := t.TempDir()

	morning := NewManifest(domain.DatasetFloodzone)
	morning.Add(ManifestEntry{File: "NFHL_12_20250918.pmtiles", Status: "built"})
	_, err := morning.Write(dir)
	require.NoError(t, err)

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.September, 18, 17, 30, 0, 0, time.UTC)))
	evening := NewManifest(domain.DatasetFloodzone)
	evening.Add(ManifestEntry{File: "NFHL_12_20250918.pmtiles", Status: "built", SizeBytes: 4096})
	_, err = evening.Write(dir)
	require.NoError(t, err)

	got, err := LatestManifest(dir, domain.DatasetFloodzone)
	require.NoError(t, err)
	assert.Equal(t, evening.RunID, got.RunID)
}
