package pmtiles

import (
	"encoding/binary"
	"fmt"
)

// HeaderLen is the fixed byte length of a v3 header.
const HeaderLen = 127

var magic = []byte("PMTiles")

// Compression identifies how directories, metadata, or tiles are compressed.
type Compression uint8

const (
	UnknownCompression Compression = 0
	NoCompression      Compression = 1
	Gzip               Compression = 2
	Brotli             Compression = 3
	Zstd               Compression = 4
)

// TileType identifies the payload format of the archive's tiles.
type TileType uint8

const (
	UnknownTileType TileType = 0
	Mvt             TileType = 1
	Png             TileType = 2
	Jpeg            TileType = 3
	Webp            TileType = 4
	Avif            TileType = 5
)

// Header is the fixed-size archive header.
type Header struct {
	SpecVersion         uint8
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafOffset          uint64
	LeafLength          uint64
	DataOffset          uint64
	DataLength          uint64
	AddressedTiles      uint64 // tile coordinates addressed, runs expanded
	TileEntries         uint64 // directory entries with run length > 0
	TileContents        uint64 // distinct tile byte ranges
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            TileType
	MinZoom             uint8
	MaxZoom             uint8
	MinLonE7            int32
	MinLatE7            int32
	MaxLonE7            int32
	MaxLatE7            int32
	CenterZoom          uint8
	CenterLonE7         int32
	CenterLatE7         int32
}

// serializeHeader renders the 127-byte on-disk form.
func serializeHeader(h Header) []byte {
	b := make([]byte, HeaderLen)
	copy(b[0:7], magic)
	b[7] = 3
	binary.LittleEndian.PutUint64(b[8:], h.RootOffset)
	binary.LittleEndian.PutUint64(b[16:], h.RootLength)
	binary.LittleEndian.PutUint64(b[24:], h.MetadataOffset)
	binary.LittleEndian.PutUint64(b[32:], h.MetadataLength)
	binary.LittleEndian.PutUint64(b[40:], h.LeafOffset)
	binary.LittleEndian.PutUint64(b[48:], h.LeafLength)
	binary.LittleEndian.PutUint64(b[56:], h.DataOffset)
	binary.LittleEndian.PutUint64(b[64:], h.DataLength)
	binary.LittleEndian.PutUint64(b[72:], h.AddressedTiles)
	binary.LittleEndian.PutUint64(b[80:], h.TileEntries)
	binary.LittleEndian.PutUint64(b[88:], h.TileContents)
	if h.Clustered {
		b[96] = 1
	}
	b[97] = byte(h.InternalCompression)
	b[98] = byte(h.TileCompression)
	b[99] = byte(h.TileType)
	b[100] = h.MinZoom
	b[101] = h.MaxZoom
	binary.LittleEndian.PutUint32(b[102:], uint32(h.MinLonE7))
	binary.LittleEndian.PutUint32(b[106:], uint32(h.MinLatE7))
	binary.LittleEndian.PutUint32(b[110:], uint32(h.MaxLonE7))
	binary.LittleEndian.PutUint32(b[114:], uint32(h.MaxLatE7))
	b[118] = h.CenterZoom
	binary.LittleEndian.PutUint32(b[119:], uint32(h.CenterLonE7))
	binary.LittleEndian.PutUint32(b[123:], uint32(h.CenterLatE7))
	return b
}

// deserializeHeader parses the on-disk form, validating magic and version.
func deserializeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("header truncated: %d bytes", len(b))
	}
	if string(b[0:7]) != string(magic) {
		return Header{}, fmt.Errorf("bad magic %q", b[0:7])
	}
	if b[7] != 3 {
		return Header{}, fmt.Errorf("unsupported spec version %d", b[7])
	}
	h := Header{
		SpecVersion:         b[7],
		RootOffset:          binary.LittleEndian.Uint64(b[8:]),
		RootLength:          binary.LittleEndian.Uint64(b[16:]),
		MetadataOffset:      binary.LittleEndian.Uint64(b[24:]),
		MetadataLength:      binary.LittleEndian.Uint64(b[32:]),
		LeafOffset:          binary.LittleEndian.Uint64(b[40:]),
		LeafLength:          binary.LittleEndian.Uint64(b[48:]),
		DataOffset:          binary.LittleEndian.Uint64(b[56:]),
		DataLength:          binary.LittleEndian.Uint64(b[64:]),
		AddressedTiles:      binary.LittleEndian.Uint64(b[72:]),
		TileEntries:         binary.LittleEndian.Uint64(b[80:]),
		TileContents:        binary.LittleEndian.Uint64(b[88:]),
		Clustered:           b[96] == 1,
		InternalCompression: Compression(b[97]),
		TileCompression:     Compression(b[98]),
		TileType:            TileType(b[99]),
		MinZoom:             b[100],
		MaxZoom:             b[101],
		MinLonE7:            int32(binary.LittleEndian.Uint32(b[102:])),
		MinLatE7:            int32(binary.LittleEndian.Uint32(b[106:])),
		MaxLonE7:            int32(binary.LittleEndian.Uint32(b[110:])),
		MaxLatE7:            int32(binary.LittleEndian.Uint32(b[114:])),
		CenterZoom:          b[118],
		CenterLonE7:         int32(binary.LittleEndian.Uint32(b[119:])),
		CenterLatE7:         int32(binary.LittleEndian.Uint32(b[123:])),
	}
	return h, nil
}
