package pmtiles

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// maxDirectoryDepth bounds leaf directory chains; the format allows nesting
// but well-formed archives never exceed a handful of levels.
const maxDirectoryDepth = 4

// Reader serves random tile lookups and full traversals of one archive.
// It is safe for concurrent use: lookups only issue ReadAt calls.
type Reader struct {
	src    io.ReaderAt
	closer io.Closer
	header Header
	root   []Entry
}

// OpenFile opens a PMTiles archive on disk.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader parses the header and root directory from src.
func NewReader(src io.ReaderAt) (*Reader, error) {
	hb := make([]byte, HeaderLen)
	if _, err := src.ReadAt(hb, 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header, err := deserializeHeader(hb)
	if err != nil {
		return nil, err
	}

	rb := make([]byte, header.RootLength)
	if _, err := src.ReadAt(rb, int64(header.RootOffset)); err != nil {
		return nil, fmt.Errorf("read root directory: %w", err)
	}
	root, err := deserializeEntries(rb, header.InternalCompression)
	if err != nil {
		return nil, fmt.Errorf("root directory: %w", err)
	}

	return &Reader{src: src, header: header, root: root}, nil
}

// Header returns the parsed archive header.
func (r *Reader) Header() Header { return r.header }

// Metadata decodes the archive's JSON metadata section.
func (r *Reader) Metadata() (map[string]any, error) {
	if r.header.MetadataLength == 0 {
		return map[string]any{}, nil
	}
	raw := make([]byte, r.header.MetadataLength)
	if _, err := r.src.ReadAt(raw, int64(r.header.MetadataOffset)); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if r.header.InternalCompression == Gzip {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("metadata gzip: %w", err)
		}
		defer zr.Close()
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("metadata gzip: %w", err)
		}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("metadata json: %w", err)
	}
	return m, nil
}

// Get returns the tile at z/x/y. The second return is false when the archive
// does not contain the tile; that is not an error.
func (r *Reader) Get(z uint8, x, y uint32) ([]byte, bool, error) {
	id := ZxyToID(z, x, y)
	entries := r.root
	for depth := 0; depth < maxDirectoryDepth; depth++ {
		e, ok := findTile(entries, id)
		if !ok {
			return nil, false, nil
		}
		if e.RunLength > 0 {
			data := make([]byte, e.Length)
			if _, err := r.src.ReadAt(data, int64(r.header.DataOffset+e.Offset)); err != nil {
				return nil, false, fmt.Errorf("read tile %d/%d/%d: %w", z, x, y, err)
			}
			return data, true, nil
		}
		var err error
		entries, err = r.leafDirectory(e)
		if err != nil {
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("directory depth exceeds %d", maxDirectoryDepth)
}

// Traverse visits every addressed tile in tile-ID order. Run-length entries
// are expanded, so fn may observe the same bytes under several coordinates.
func (r *Reader) Traverse(fn func(z uint8, x, y uint32, data []byte) error) error {
	return r.traverseEntries(r.root, 0, fn)
}

func (r *Reader) traverseEntries(entries []Entry, depth int, fn func(z uint8, x, y uint32, data []byte) error) error {
	if depth >= maxDirectoryDepth {
		return fmt.Errorf("directory depth exceeds %d", maxDirectoryDepth)
	}
	for _, e := range entries {
		if e.RunLength == 0 {
			leaf, err := r.leafDirectory(e)
			if err != nil {
				return err
			}
			if err := r.traverseEntries(leaf, depth+1, fn); err != nil {
				return err
			}
			continue
		}
		data := make([]byte, e.Length)
		if _, err := r.src.ReadAt(data, int64(r.header.DataOffset+e.Offset)); err != nil {
			return fmt.Errorf("read tile id %d: %w", e.TileID, err)
		}
		for i := uint32(0); i < e.RunLength; i++ {
			z, x, y := IDToZxy(e.TileID + uint64(i))
			if err := fn(z, x, y, data); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reader) leafDirectory(e Entry) ([]Entry, error) {
	raw := make([]byte, e.Length)
	if _, err := r.src.ReadAt(raw, int64(r.header.LeafOffset+e.Offset)); err != nil {
		return nil, fmt.Errorf("read leaf directory: %w", err)
	}
	entries, err := deserializeEntries(raw, r.header.InternalCompression)
	if err != nil {
		return nil, fmt.Errorf("leaf directory: %w", err)
	}
	return entries, nil
}

// Close releases the underlying file when the Reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
