package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseZoomRange(t *testing.T) {
	z, err := ParseZoomRange("z0_10")
	require.NoError(t, err)
	assert.Equal(t, uint8(0), z.Min)
	assert.Equal(t, uint8(10), z.Max)
	assert.False(t, z.IsFull())

	z, err = ParseZoomRange("z18")
	require.NoError(t, err)
	assert.Equal(t, uint8(18), z.Min)
	assert.Equal(t, uint8(18), z.Max)
	assert.Equal(t, "z18", z.String())

	z, err = ParseZoomRange("full")
	require.NoError(t, err)
	assert.True(t, z.IsFull())
	assert.True(t, z.Contains(0))
	assert.True(t, z.Contains(18))

	for _, bad := range []string{"10_16", "zx_10", "z10_x", "z16_10"} {
		_, err := ParseZoomRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestZoomRangeContains(t *testing.T) {
	z, err := ParseZoomRange("z10_16")
	require.NoError(t, err)
	assert.False(t, z.Contains(9))
	assert.True(t, z.Contains(10))
	assert.True(t, z.Contains(16))
	assert.False(t, z.Contains(17))
}

func TestMergePriorityOrdersFullFirst(t *testing.T) {
	full := FullRange()
	low, _ := ParseZoomRange("z0_10")
	mid, _ := ParseZoomRange("z10_16")
	high, _ := ParseZoomRange("z18")

	assert.Less(t, full.MergePriority(), low.MergePriority())
	assert.Less(t, low.MergePriority(), mid.MergePriority())
	assert.Less(t, mid.MergePriority(), high.MergePriority())
}
