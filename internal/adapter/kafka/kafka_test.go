package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 10, 0, 0, time.UTC)
	event := domain.BuildEvent{
		RunID:       "run-1",
		Dataset:     domain.DatasetFloodzone,
		Step:        "floodzone/tiles",
		Status:      "success",
		OutputFile:  "NFHL_12_20260314.pmtiles",
		SizeBytes:   1024,
		GeneratedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("run-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"dataset":"floodzone"`)
	assert.Contains(t, string(msg.Value), `"output_file":"NFHL_12_20260314.pmtiles"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "dataset", msg.Headers[0].Key)
	assert.Equal(t, []byte("floodzone"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}
