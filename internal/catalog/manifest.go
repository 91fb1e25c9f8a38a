package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

// Manifest records the outcome of one pipeline run so later stages (and
// humans) can see what was produced from what.
type Manifest struct {
	RunID       string          `json:"run_id"`
	Dataset     domain.Dataset  `json:"dataset"`
	GeneratedAt time.Time       `json:"generated_at"`
	Entries     []ManifestEntry `json:"entries"`
}

// ManifestEntry is one output or attempted output of a run.
type ManifestEntry struct {
	Step      string   `json:"step,omitempty"`
	File      string   `json:"file"`
	Status    string   `json:"status"` // downloaded, skipped, built, failed
	SizeBytes int64    `json:"size_bytes,omitempty"`
	Sources   []string `json:"source_files,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// NewManifest starts a manifest for a run of the given dataset.
func NewManifest(dataset domain.Dataset) *Manifest {
	return &Manifest{
		RunID:       uuid.NewString(),
		Dataset:     dataset,
		GeneratedAt: domain.Now(),
	}
}

// Add appends an entry.
func (m *Manifest) Add(e ManifestEntry) { m.Entries = append(m.Entries, e) }

// Write stores the manifest in dir as
// manifest-<dataset>-<timestamp>-<run id prefix>.json, atomically. The name
// embeds the full UTC timestamp so lexicographic order is chronological even
// across runs on the same day.
func (m *Manifest) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("manifest dir: %w", err)
	}
	name := fmt.Sprintf("manifest-%s-%s-%s.json",
		m.Dataset, m.GeneratedAt.Format("20060102T150405Z"), m.RunID[:8])
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// LatestManifest loads the most recent manifest for a dataset, by filename
// order (names embed the timestamp, so lexicographic order is chronological).
func LatestManifest(dir string, dataset domain.Dataset) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("manifest dir: %w", err)
	}
	prefix := "manifest-" + string(dataset) + "-"
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no manifest for dataset %s in %s", dataset, dir)
	}
	sort.Strings(names)

	data, err := os.ReadFile(filepath.Join(dir, names[len(names)-1]))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", names[len(names)-1], err)
	}
	return &m, nil
}
