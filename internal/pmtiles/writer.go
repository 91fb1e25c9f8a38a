package pmtiles

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// rootBudget is the serialized size the root directory must fit in before
// the writer spills entries into leaf directories.
const rootBudget = 16384

// initialLeafEntries is the starting leaf size when the root overflows; it
// doubles until the root of leaf pointers fits the budget.
const initialLeafEntries = 4096

// Writer assembles a v3 archive. Tiles may be added in any order; identical
// tile bytes are stored once. Tile data spills to a temp file so combining
// state-sized archives does not hold gigabytes in memory.
type Writer struct {
	spill   *os.File
	offset  uint64
	entries []Entry
	byHash  map[[sha256.Size]byte]Entry
	seen    map[uint64]struct{}
}

// NewWriter creates a Writer spilling tile data under dir (""  means the
// system temp dir).
func NewWriter(dir string) (*Writer, error) {
	f, err := os.CreateTemp(dir, "pmtiles-data-*")
	if err != nil {
		return nil, fmt.Errorf("create spill file: %w", err)
	}
	return &Writer{
		spill:  f,
		byHash: make(map[[sha256.Size]byte]Entry),
		seen:   make(map[uint64]struct{}),
	}, nil
}

// AddTile records the tile at z/x/y. Adding the same coordinates twice is an
// error; callers dedupe across inputs before writing.
func (w *Writer) AddTile(z uint8, x, y uint32, data []byte) error {
	id := ZxyToID(z, x, y)
	if _, dup := w.seen[id]; dup {
		return fmt.Errorf("tile %d/%d/%d added twice", z, x, y)
	}
	w.seen[id] = struct{}{}

	sum := sha256.Sum256(data)
	if prev, ok := w.byHash[sum]; ok {
		w.entries = append(w.entries, Entry{TileID: id, Offset: prev.Offset, Length: prev.Length, RunLength: 1})
		return nil
	}
	if _, err := w.spill.Write(data); err != nil {
		return fmt.Errorf("spill tile data: %w", err)
	}
	e := Entry{TileID: id, Offset: w.offset, Length: uint32(len(data)), RunLength: 1}
	w.offset += uint64(len(data))
	w.entries = append(w.entries, e)
	w.byHash[sum] = e
	return nil
}

// Count returns the number of tiles added so far.
func (w *Writer) Count() int { return len(w.entries) }

// Finalize writes the complete archive to path. The caller provides tile
// type, compressions, zoom span, and bounds on hdr; directory layout fields
// and tile counts are computed here. Metadata is JSON-encoded and compressed
// with the internal compression.
func (w *Writer) Finalize(path string, hdr Header, metadata map[string]any) error {
	defer w.cleanup()

	if len(w.entries) == 0 {
		return fmt.Errorf("no tiles written")
	}

	sort.Slice(w.entries, func(i, j int) bool { return w.entries[i].TileID < w.entries[j].TileID })
	entries := coalesceRuns(w.entries)

	hdr.SpecVersion = 3
	if hdr.InternalCompression == UnknownCompression {
		hdr.InternalCompression = Gzip
	}
	// Viewers open at the center; default it to the bounds midpoint at the
	// lowest zoom unless the caller set one.
	if hdr.CenterLonE7 == 0 && hdr.CenterLatE7 == 0 {
		hdr.CenterLonE7 = (hdr.MinLonE7 + hdr.MaxLonE7) / 2
		hdr.CenterLatE7 = (hdr.MinLatE7 + hdr.MaxLatE7) / 2
	}
	if hdr.CenterZoom == 0 {
		hdr.CenterZoom = hdr.MinZoom
	}
	hdr.AddressedTiles = uint64(len(w.seen))
	hdr.TileEntries = uint64(len(entries))
	hdr.TileContents = uint64(len(w.byHash))
	hdr.Clustered = isClustered(entries)

	root, leaves := buildDirectories(entries)

	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	var metaBuf bytes.Buffer
	zw := gzip.NewWriter(&metaBuf)
	zw.Write(metaJSON) //nolint:errcheck // buffer writes cannot fail
	zw.Close()         //nolint:errcheck

	hdr.RootOffset = HeaderLen
	hdr.RootLength = uint64(len(root))
	hdr.MetadataOffset = hdr.RootOffset + hdr.RootLength
	hdr.MetadataLength = uint64(metaBuf.Len())
	hdr.LeafOffset = hdr.MetadataOffset + hdr.MetadataLength
	hdr.LeafLength = uint64(len(leaves))
	hdr.DataOffset = hdr.LeafOffset + hdr.LeafLength
	hdr.DataLength = w.offset

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if err := w.writeSections(out, hdr, root, metaBuf.Bytes(), leaves); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (w *Writer) writeSections(out io.Writer, hdr Header, root, meta, leaves []byte) error {
	for _, section := range [][]byte{serializeHeader(hdr), root, meta, leaves} {
		if _, err := out.Write(section); err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
	}
	if _, err := w.spill.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind spill file: %w", err)
	}
	if _, err := io.Copy(out, w.spill); err != nil {
		return fmt.Errorf("copy tile data: %w", err)
	}
	return nil
}

// Abort discards the writer without producing an archive.
func (w *Writer) Abort() { w.cleanup() }

func (w *Writer) cleanup() {
	if w.spill != nil {
		name := w.spill.Name()
		w.spill.Close()
		os.Remove(name)
		w.spill = nil
	}
}

// coalesceRuns merges consecutive tile IDs that share the same byte range
// into run-length entries.
func coalesceRuns(entries []Entry) []Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if e.TileID == last.TileID+uint64(last.RunLength) &&
				e.Offset == last.Offset && e.Length == last.Length {
				last.RunLength++
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// isClustered reports whether data offsets never decrease in ID order, the
// property that lets readers fetch ranges of adjacent tiles in one request.
func isClustered(entries []Entry) bool {
	var prev uint64
	for _, e := range entries {
		if e.Offset < prev {
			return false
		}
		prev = e.Offset
	}
	return true
}

// buildDirectories serializes entries into a root directory and, when the
// root overflows its budget, leaf directories addressed by the root.
func buildDirectories(entries []Entry) (root, leaves []byte) {
	root = serializeEntries(entries)
	if len(root) <= rootBudget {
		return root, nil
	}

	for leafSize := initialLeafEntries; ; leafSize *= 2 {
		var leafBuf bytes.Buffer
		var rootEntries []Entry
		for i := 0; i < len(entries); i += leafSize {
			end := min(i+leafSize, len(entries))
			leaf := serializeEntries(entries[i:end])
			rootEntries = append(rootEntries, Entry{
				TileID:    entries[i].TileID,
				Offset:    uint64(leafBuf.Len()),
				Length:    uint32(len(leaf)),
				RunLength: 0,
			})
			leafBuf.Write(leaf)
		}
		root = serializeEntries(rootEntries)
		if len(root) <= rootBudget {
			return root, leafBuf.Bytes()
		}
	}
}
