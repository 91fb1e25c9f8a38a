package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

func TestNFHLSources(t *testing.T) {
	sources := NFHLSources([]string{"72", "12"})

	require.Len(t, sources, 2)
	assert.Equal(t, "https://hazards.fema.gov/nfhlv2/output/State/NFHL_72.zip", sources[0].URL)
	assert.Equal(t, "NFHL_72.zip", sources[0].Filename)
	assert.Equal(t, "NFHL_12.zip", sources[1].Filename)
}

func TestSourcesFor(t *testing.T) {
	tests := []struct {
		dataset domain.Dataset
		fips    []string
		count   int
		wantErr bool
	}{
		{dataset: domain.DatasetFloodzone, fips: []string{"72"}, count: 1},
		{dataset: domain.DatasetFloodzone, wantErr: true},
		{dataset: domain.DatasetWildfire, count: 51},
		{dataset: domain.DatasetSurge, count: 9},
		{dataset: domain.DatasetNRI, count: 1},
		{dataset: domain.DatasetStructures, count: 56},
		{dataset: domain.DatasetCoastline, count: 1},
		{dataset: domain.DatasetCEMS, count: 11},
		{dataset: domain.Dataset("unknown"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.dataset), func(t *testing.T) {
			sources, err := SourcesFor(tt.dataset, tt.fips)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, sources, tt.count)
		})
	}
}

func TestSourceFilenamesAreUnique(t *testing.T) {
	for _, sources := range [][]Source{WildfireSources(), SLOSHSources(), StructureSources(), CEMSSources()} {
		seen := make(map[string]struct{}, len(sources))
		for _, src := range sources {
			_, dup := seen[src.Filename]
			assert.False(t, dup, "duplicate filename %s", src.Filename)
			seen[src.Filename] = struct{}{}
		}
	}
}
