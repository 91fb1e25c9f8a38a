// Package combine builds region- and nation-scale archives out of the
// per-unit outputs the processing pipelines emit: NFHL state archives merge
// into one PMTiles file, and per-category surge COGs mosaic into PMTiles via
// the raster toolchain.
package combine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/observability"
	"github.com/couchcryptid/hazard-tile-service/internal/pmtiles"
)

// Merger combines NFHL PMTiles archives into a single archive.
type Merger struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// MergeResult summarizes one merge run.
type MergeResult struct {
	Output       string
	Inputs       []string
	TilesWritten int
	TilesSkipped int
}

// MergeNFHL merges the given archives under tilesDir into outputName.
// A nil inputs slice merges every flood zone archive in the directory.
//
// Archives are processed grouped by FIPS, widest zoom coverage first, and
// the first archive to supply a tile coordinate wins. That makes a full
// z0-18 build authoritative over zoom-partitioned rebuilds of the same
// state while still letting the partitions fill zoom levels the full build
// lacks.
func (m *Merger) MergeNFHL(ctx context.Context, tilesDir, outputName string, inputs []string) (*MergeResult, error) {
	if inputs == nil {
		var err error
		inputs, err = floodzoneArchives(tilesDir, outputName)
		if err != nil {
			return nil, err
		}
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no archives to merge under %s", tilesDir)
	}

	order := processingOrder(inputs)
	m.Logger.Info("merging archives", "count", len(order), "output", outputName)

	writer, err := pmtiles.NewWriter(tilesDir)
	if err != nil {
		return nil, err
	}
	defer writer.Abort()

	var (
		hdr      pmtiles.Header
		metadata map[string]any
		bounds   domain.BoundsE7
		layers   = newLayerUnion()
		coverage = make(map[uint64]struct{})
		result   = MergeResult{Inputs: order}
	)

	for i, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		written, skipped, err := m.mergeOne(filepath.Join(tilesDir, name), i == 0, writer, coverage, &hdr, &metadata, &bounds, layers)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", name, err)
		}
		m.Logger.Info("archive merged", "archive", name, "tiles_written", written, "tiles_skipped", skipped)
		result.TilesWritten += written
		result.TilesSkipped += skipped
	}

	hdr.MinLonE7, hdr.MinLatE7, hdr.MaxLonE7, hdr.MaxLatE7 = bounds.MinLonE7, bounds.MinLatE7, bounds.MaxLonE7, bounds.MaxLatE7
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["vector_layers"] = layers.list()
	if _, ok := metadata["name"]; !ok {
		metadata["name"] = "FEMA National Flood Hazard Layers (Combined)"
	}
	if _, ok := metadata["description"]; !ok {
		metadata["description"] = "Combined NFHL data from multiple FIPS codes and zoom levels"
	}

	output := filepath.Join(tilesDir, outputName)
	tmp := output + ".partial"
	if err := writer.Finalize(tmp, hdr, metadata); err != nil {
		os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, output); err != nil {
		os.Remove(tmp)
		return nil, err
	}

	result.Output = output
	m.Logger.Info("merge complete", "output", output, "unique_tiles", len(coverage))
	return &result, nil
}

// mergeOne copies every tile the coverage map has not seen yet. The first
// archive also seeds the header template and base metadata.
func (m *Merger) mergeOne(path string, first bool, writer *pmtiles.Writer, coverage map[uint64]struct{}, hdr *pmtiles.Header, metadata *map[string]any, bounds *domain.BoundsE7, layers *layerUnion) (written, skipped int, err error) {
	reader, err := pmtiles.OpenFile(path)
	if err != nil {
		return 0, 0, err
	}
	defer reader.Close()

	h := reader.Header()
	meta, err := reader.Metadata()
	if err != nil {
		return 0, 0, err
	}

	if first {
		*hdr = h
		*metadata = meta
		*bounds = domain.BoundsE7{MinLonE7: h.MinLonE7, MinLatE7: h.MinLatE7, MaxLonE7: h.MaxLonE7, MaxLatE7: h.MaxLatE7}
	} else {
		*bounds = bounds.Union(domain.BoundsE7{MinLonE7: h.MinLonE7, MinLatE7: h.MinLatE7, MaxLonE7: h.MaxLonE7, MaxLatE7: h.MaxLatE7})
		if h.MinZoom < hdr.MinZoom {
			hdr.MinZoom = h.MinZoom
		}
		if h.MaxZoom > hdr.MaxZoom {
			hdr.MaxZoom = h.MaxZoom
		}
	}
	layers.add(meta)

	err = reader.Traverse(func(z uint8, x, y uint32, data []byte) error {
		id := pmtiles.ZxyToID(z, x, y)
		if _, dup := coverage[id]; dup {
			skipped++
			m.Metrics.MergeTilesSkipped.Inc()
			return nil
		}
		coverage[id] = struct{}{}
		if err := writer.AddTile(z, x, y, data); err != nil {
			return err
		}
		written++
		m.Metrics.MergeTilesWritten.Inc()
		return nil
	})
	return written, skipped, err
}

// floodzoneArchives lists NFHL archives in dir, excluding the merge output.
func floodzoneArchives(dir, outputName string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == outputName || !strings.HasSuffix(e.Name(), ".pmtiles") {
			continue
		}
		parsed, err := domain.ParseArchiveName(e.Name())
		if err != nil || parsed.Dataset != domain.DatasetFloodzone {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// processingOrder groups archives by FIPS and orders each group by zoom
// coverage priority, then name for determinism.
func processingOrder(inputs []string) []string {
	type entry struct {
		name     string
		key      string
		priority int
	}
	entries := make([]entry, 0, len(inputs))
	for _, name := range inputs {
		e := entry{name: name, key: name, priority: 4}
		if parsed, err := domain.ParseArchiveName(name); err == nil {
			e.key = parsed.Key
			e.priority = parsed.Zoom.MergePriority()
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].name < entries[j].name
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// layerUnion accumulates vector_layers metadata across archives, first
// definition of each layer id wins.
type layerUnion struct {
	order []string
	byID  map[string]any
}

func newLayerUnion() *layerUnion {
	return &layerUnion{byID: make(map[string]any)}
}

func (u *layerUnion) add(metadata map[string]any) {
	raw, ok := metadata["vector_layers"].([]any)
	if !ok {
		return
	}
	for i, item := range raw {
		layer, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := layer["id"].(string)
		if id == "" {
			id, _ = layer["name"].(string)
		}
		if id == "" {
			id = fmt.Sprintf("layer-%d", i)
		}
		if _, seen := u.byID[id]; !seen {
			u.byID[id] = layer
			u.order = append(u.order, id)
		}
	}
}

func (u *layerUnion) list() []any {
	out := make([]any, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.byID[id])
	}
	return out
}
