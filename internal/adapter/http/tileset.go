package http

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/hazard-tile-service/internal/catalog"
	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/observability"
	"github.com/couchcryptid/hazard-tile-service/internal/pmtiles"
)

// openArchive is one loaded PMTiles file.
type openArchive struct {
	name   domain.ArchiveName
	bounds domain.BoundsE7
	reader *pmtiles.Reader
}

// archiveSet is one generation of loaded archives. Readers are shared with
// in-flight lookups, so they stay open until the last holder releases the
// generation; Reload only drops the set's own reference.
type archiveSet struct {
	archives []openArchive
	logger   *slog.Logger
	refs     atomic.Int64
}

func newArchiveSet(archives []openArchive, logger *slog.Logger) *archiveSet {
	s := &archiveSet{archives: archives, logger: logger}
	s.refs.Store(1)
	return s
}

func (s *archiveSet) acquire() { s.refs.Add(1) }

// release drops one reference and closes the readers once nobody holds the
// generation anymore.
func (s *archiveSet) release() {
	if s.refs.Add(-1) != 0 {
		return
	}
	for _, a := range s.archives {
		if err := a.reader.Close(); err != nil {
			s.logger.Warn("closing replaced archive", "file", a.name.File, "error", err)
		}
	}
}

// TileSet serves tile lookups across every archive in the tiles directory.
// Reload swaps the archive set atomically, so lookups never observe a
// half-loaded catalog.
type TileSet struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics

	mu  sync.RWMutex
	set *archiveSet
}

func NewTileSet(dir string, logger *slog.Logger, metrics *observability.Metrics) *TileSet {
	return &TileSet{dir: dir, logger: logger, metrics: metrics}
}

// Reload rescans the tiles directory, opens the freshest archive per
// partition, and swaps the set. Archives that fail to open are skipped so one
// corrupt file cannot take down serving.
func (t *TileSet) Reload() error {
	scanned, err := catalog.Scan(t.dir)
	if err != nil {
		return err
	}
	latest := catalog.SelectLatest(scanned)

	opened := make([]openArchive, 0, len(latest))
	for _, a := range latest {
		r, err := pmtiles.OpenFile(a.Path)
		if err != nil {
			t.logger.Warn("skipping unreadable archive", "file", a.Name.File, "error", err)
			continue
		}
		hdr := r.Header()
		opened = append(opened, openArchive{
			name: a.Name,
			bounds: domain.BoundsE7{
				MinLonE7: hdr.MinLonE7,
				MinLatE7: hdr.MinLatE7,
				MaxLonE7: hdr.MaxLonE7,
				MaxLatE7: hdr.MaxLatE7,
			},
			reader: r,
		})
	}

	next := newArchiveSet(opened, t.logger)
	t.mu.Lock()
	old := t.set
	t.set = next
	t.mu.Unlock()
	if old != nil {
		old.release()
	}

	t.metrics.ArchivesOpen.Set(float64(len(opened)))
	t.metrics.CatalogReload.Inc()
	t.logger.Info("tile catalog loaded", "dir", t.dir, "archives", len(opened))
	return nil
}

// Tile returns the tile at z/x/y and the dataset of the archive that served
// it. Archives whose declared zoom range and bounds cover the tile are probed
// first; the remaining archives are a fallback, matching how partitioned
// builds overlap at partition edges.
func (t *TileSet) Tile(z uint8, x, y uint32) ([]byte, domain.Dataset, bool, error) {
	set := t.snapshot()
	if set == nil {
		return nil, "", false, nil
	}
	defer set.release()
	archives := set.archives

	probed := make([]bool, len(archives))
	for i, a := range archives {
		if !a.name.Zoom.Contains(z) || !a.bounds.IntersectsTile(z, x, y) {
			continue
		}
		probed[i] = true
		data, ok, err := a.reader.Get(z, x, y)
		if err != nil {
			return nil, "", false, fmt.Errorf("archive %s: %w", a.name.File, err)
		}
		if ok {
			return data, a.name.Dataset, true, nil
		}
	}
	for i, a := range archives {
		if probed[i] {
			continue
		}
		data, ok, err := a.reader.Get(z, x, y)
		if err != nil {
			return nil, "", false, fmt.Errorf("archive %s: %w", a.name.File, err)
		}
		if ok {
			return data, a.name.Dataset, true, nil
		}
	}
	return nil, "", false, nil
}

// ArchiveInfo describes one loaded archive for the /info endpoint.
type ArchiveInfo struct {
	File    string    `json:"file"`
	Dataset string    `json:"dataset,omitempty"`
	MinZoom uint8     `json:"minzoom"`
	MaxZoom uint8     `json:"maxzoom"`
	Bounds  []float64 `json:"bounds"` // west, south, east, north
}

// Info summarizes every loaded archive plus the overall coverage.
type Info struct {
	Archives       []ArchiveInfo `json:"archives"`
	OverallBounds  []float64     `json:"overall_bounds,omitempty"`
	OverallMinZoom uint8         `json:"overall_minzoom"`
	OverallMaxZoom uint8         `json:"overall_maxzoom"`
}

func (t *TileSet) Info() Info {
	set := t.snapshot()
	if set == nil {
		return Info{Archives: []ArchiveInfo{}}
	}
	defer set.release()

	info := Info{Archives: make([]ArchiveInfo, 0, len(set.archives))}
	var union domain.BoundsE7
	for i, a := range set.archives {
		hdr := a.reader.Header()
		west, south, east, north := a.bounds.Degrees()
		info.Archives = append(info.Archives, ArchiveInfo{
			File:    a.name.File,
			Dataset: string(a.name.Dataset),
			MinZoom: hdr.MinZoom,
			MaxZoom: hdr.MaxZoom,
			Bounds:  []float64{west, south, east, north},
		})
		union = union.Union(a.bounds)
		if i == 0 {
			info.OverallMinZoom, info.OverallMaxZoom = hdr.MinZoom, hdr.MaxZoom
			continue
		}
		info.OverallMinZoom = min(info.OverallMinZoom, hdr.MinZoom)
		info.OverallMaxZoom = max(info.OverallMaxZoom, hdr.MaxZoom)
	}
	if !union.IsZero() {
		west, south, east, north := union.Degrees()
		info.OverallBounds = []float64{west, south, east, north}
	}
	return info
}

// Metadata returns each archive's embedded JSON metadata keyed by filename.
func (t *TileSet) Metadata() (map[string]any, error) {
	set := t.snapshot()
	if set == nil {
		return map[string]any{}, nil
	}
	defer set.release()

	out := make(map[string]any, len(set.archives))
	for _, a := range set.archives {
		meta, err := a.reader.Metadata()
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", a.name.File, err)
		}
		out[a.name.File] = meta
	}
	return out, nil
}

// CheckReadiness reports ready once at least one archive is loaded.
func (t *TileSet) CheckReadiness(context.Context) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.set == nil || len(t.set.archives) == 0 {
		return fmt.Errorf("no tile archives loaded")
	}
	return nil
}

// snapshot acquires the current generation for the caller, who must release
// it after use. Returns nil before the first Reload.
func (t *TileSet) snapshot() *archiveSet {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.set == nil {
		return nil
	}
	t.set.acquire()
	return t.set
}

// Close drops the TileSet's reference; archives close once in-flight
// lookups finish.
func (t *TileSet) Close() {
	t.mu.Lock()
	old := t.set
	t.set = nil
	t.mu.Unlock()
	if old != nil {
		old.release()
	}
	t.metrics.ArchivesOpen.Set(0)
}
