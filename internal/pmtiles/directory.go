package pmtiles

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// Entry maps a tile ID to a byte range. RunLength > 0 addresses tile data
// shared by that many consecutive IDs; RunLength == 0 marks a root entry
// pointing into the leaf directory section.
type Entry struct {
	TileID    uint64
	Offset    uint64
	Length    uint32
	RunLength uint32
}

// serializeEntries encodes and gzip-compresses a directory. Entries must be
// sorted by tile ID.
func serializeEntries(entries []Entry) []byte {
	var raw bytes.Buffer
	var scratch [binary.MaxVarintLen64]byte
	putUvarint := func(v uint64) {
		n := binary.PutUvarint(scratch[:], v)
		raw.Write(scratch[:n])
	}

	putUvarint(uint64(len(entries)))
	var lastID uint64
	for _, e := range entries {
		putUvarint(e.TileID - lastID)
		lastID = e.TileID
	}
	for _, e := range entries {
		putUvarint(uint64(e.RunLength))
	}
	for _, e := range entries {
		putUvarint(uint64(e.Length))
	}
	for i, e := range entries {
		if i > 0 && e.Offset == entries[i-1].Offset+uint64(entries[i-1].Length) {
			putUvarint(0) // contiguous with the previous entry
		} else {
			putUvarint(e.Offset + 1)
		}
	}

	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	zw.Write(raw.Bytes()) //nolint:errcheck // bytes.Buffer writes cannot fail
	zw.Close()            //nolint:errcheck
	return out.Bytes()
}

// deserializeEntries decompresses and decodes a directory.
func deserializeEntries(data []byte, compression Compression) ([]Entry, error) {
	var r io.Reader = bytes.NewReader(data)
	switch compression {
	case Gzip, UnknownCompression:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("directory gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	case NoCompression:
	default:
		return nil, fmt.Errorf("unsupported directory compression %d", compression)
	}

	br := bufio.NewReader(r)
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("directory entry count: %w", err)
	}
	entries := make([]Entry, n)

	var lastID uint64
	for i := range entries {
		d, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("directory tile id: %w", err)
		}
		lastID += d
		entries[i].TileID = lastID
	}
	for i := range entries {
		v, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("directory run length: %w", err)
		}
		entries[i].RunLength = uint32(v)
	}
	for i := range entries {
		v, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("directory length: %w", err)
		}
		entries[i].Length = uint32(v)
	}
	for i := range entries {
		v, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("directory offset: %w", err)
		}
		if v == 0 {
			if i == 0 {
				return nil, fmt.Errorf("directory offset: first entry marked contiguous")
			}
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		} else {
			entries[i].Offset = v - 1
		}
	}
	return entries, nil
}

// findTile locates the entry covering id. For tile directories the entry's
// run must contain the ID; for leaf pointers (RunLength 0) the nearest
// preceding entry is returned and the caller descends into it.
func findTile(entries []Entry, id uint64) (Entry, bool) {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].TileID > id })
	if i == 0 {
		return Entry{}, false
	}
	e := entries[i-1]
	if e.RunLength == 0 {
		return e, true
	}
	if id < e.TileID+uint64(e.RunLength) {
		return e, true
	}
	return Entry{}, false
}
