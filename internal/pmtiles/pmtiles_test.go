package pmtiles

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, tiles map[[3]uint32][]byte, metadata map[string]any) string {
	t.Helper()
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	for coord, data := range tiles {
		require.NoError(t, w.AddTile(uint8(coord[0]), coord[1], coord[2], data))
	}

	path := filepath.Join(t.TempDir(), "test.pmtiles")
	hdr := Header{
		TileType:        Mvt,
		TileCompression: Gzip,
		MinZoom:         0,
		MaxZoom:         18,
	}
	require.NoError(t, w.Finalize(path, hdr, metadata))
	return path
}

func TestWriterReader_EndToEnd(t *testing.T) {
	tiles := map[[3]uint32][]byte{
		{0, 0, 0}:    []byte("root tile"),
		{1, 0, 0}:    []byte("northwest"),
		{1, 1, 1}:    []byte("southeast"),
		{5, 10, 12}:  []byte("mid zoom"),
		{14, 80, 90}: []byte("deep zoom"),
	}
	path := writeArchive(t, tiles, map[string]any{"name": "test layer"})

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	for coord, want := range tiles {
		data, ok, err := r.Get(uint8(coord[0]), coord[1], coord[2])
		require.NoError(t, err)
		require.True(t, ok, "tile %v missing", coord)
		assert.Equal(t, want, data)
	}

	// Absent tile is not an error.
	_, ok, err := r.Get(3, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	meta, err := r.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "test layer", meta["name"])

	hdr := r.Header()
	assert.Equal(t, Mvt, hdr.TileType)
	assert.Equal(t, uint64(len(tiles)), hdr.AddressedTiles)
}

func TestWriter_DeduplicatesIdenticalTiles(t *testing.T) {
	shared := []byte("ocean tile, identical everywhere")
	tiles := map[[3]uint32][]byte{
		{4, 0, 0}: shared,
		{4, 3, 3}: shared,
		{4, 7, 1}: shared,
		{4, 2, 5}: []byte("land"),
	}
	path := writeArchive(t, tiles, nil)

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	hdr := r.Header()
	assert.Equal(t, uint64(4), hdr.AddressedTiles)
	assert.Equal(t, uint64(2), hdr.TileContents, "identical bytes stored once")

	data, ok, err := r.Get(4, 7, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, shared, data)
}

func TestWriter_RejectsDuplicateCoordinates(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	defer w.Abort()

	require.NoError(t, w.AddTile(2, 1, 1, []byte("a")))
	err = w.AddTile(2, 1, 1, []byte("b"))
	require.Error(t, err)
}

func TestWriter_LeafDirectories(t *testing.T) {
	// Enough distinct entries that the root directory cannot hold them all
	// and the writer must spill into leaves.
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	const z = uint8(12)
	count := 0
	for x := uint32(0); x < 150; x++ {
		for y := uint32(0); y < 100; y++ {
			// Unique payloads defeat dedup so every entry is distinct.
			require.NoError(t, w.AddTile(z, x, y, fmt.Appendf(nil, "tile-%d-%d", x, y)))
			count++
		}
	}

	path := filepath.Join(t.TempDir(), "big.pmtiles")
	require.NoError(t, w.Finalize(path, Header{TileType: Mvt, MinZoom: z, MaxZoom: z}, nil))

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	require.NotZero(t, r.Header().LeafLength, "expected leaf directories")

	data, ok, err := r.Get(z, 149, 99)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("tile-149-99"), data)

	visited := 0
	require.NoError(t, r.Traverse(func(uint8, uint32, uint32, []byte) error {
		visited++
		return nil
	}))
	assert.Equal(t, count, visited)
}

func TestReader_TraverseExpandsRuns(t *testing.T) {
	// Consecutive tile IDs with identical bytes coalesce into one run entry
	// but still traverse as individual tiles.
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	same := []byte("run payload")
	// z1 ids 1..4 are contiguous on the Hilbert curve.
	coords := [][3]uint32{{1, 0, 0}, {1, 0, 1}, {1, 1, 1}, {1, 1, 0}}
	for _, c := range coords {
		require.NoError(t, w.AddTile(uint8(c[0]), c[1], c[2], same))
	}

	path := filepath.Join(t.TempDir(), "runs.pmtiles")
	require.NoError(t, w.Finalize(path, Header{TileType: Png, MinZoom: 1, MaxZoom: 1}, nil))

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint64(1), r.Header().TileEntries)
	assert.Equal(t, uint64(4), r.Header().AddressedTiles)

	var got [][3]uint32
	require.NoError(t, r.Traverse(func(z uint8, x, y uint32, data []byte) error {
		assert.Equal(t, same, data)
		got = append(got, [3]uint32{uint32(z), x, y})
		return nil
	}))
	assert.Len(t, got, 4)
}

func TestFinalize_DefaultsCenterToBoundsMidpoint(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.AddTile(5, 8, 12, []byte("tile")))

	path := filepath.Join(t.TempDir(), "center.pmtiles")
	hdr := Header{
		TileType: Mvt,
		MinZoom:  4,
		MaxZoom:  12,
		MinLonE7: -876000000,
		MinLatE7: 245000000,
		MaxLonE7: -800000000,
		MaxLatE7: 310000000,
	}
	require.NoError(t, w.Finalize(path, hdr, nil))

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	got := r.Header()
	assert.Equal(t, int32(-838000000), got.CenterLonE7)
	assert.Equal(t, int32(277500000), got.CenterLatE7)
	assert.Equal(t, uint8(4), got.CenterZoom)
}

func TestFinalize_KeepsCallerCenter(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.AddTile(0, 0, 0, []byte("tile")))

	path := filepath.Join(t.TempDir(), "center2.pmtiles")
	hdr := Header{
		TileType:    Png,
		MinZoom:     0,
		MaxZoom:     8,
		CenterZoom:  6,
		CenterLonE7: -700000000,
		CenterLatE7: 180000000,
	}
	require.NoError(t, w.Finalize(path, hdr, nil))

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	got := r.Header()
	assert.Equal(t, int32(-700000000), got.CenterLonE7)
	assert.Equal(t, int32(180000000), got.CenterLatE7)
	assert.Equal(t, uint8(6), got.CenterZoom)
}
