// Package catalog tracks the PMTiles archives and intermediate rasters the
// pipeline writes, and picks the freshest file per dataset partition.
package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
)

// Archive is one PMTiles file on disk with its parsed name.
type Archive struct {
	Name    domain.ArchiveName
	Path    string
	Size    int64
	ModTime time.Time
}

// Scan lists the .pmtiles archives under dir, including region
// subdirectories (surge builds are grouped per region). Files that are not
// archives are skipped silently so manifests and scratch files can share
// the directory.
func Scan(dir string) ([]Archive, error) {
	var out []Archive
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".pmtiles") {
			return nil
		}
		name, err := domain.ParseArchiveName(d.Name())
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", d.Name(), err)
		}
		out = append(out, Archive{
			Name:    name,
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan tiles dir: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.File < out[j].Name.File })
	return out, nil
}

// SelectLatest reduces archives to one per (dataset, key, zoom range),
// keeping the newest by (filename, mtime). Filenames embed build dates, so
// name order dominates; mtime breaks same-name rebuild ties across dirs.
func SelectLatest(archives []Archive) []Archive {
	type partition struct {
		group string
		zoom  string
	}
	latest := make(map[partition]Archive)
	for _, a := range archives {
		p := partition{group: a.Name.GroupKey(), zoom: a.Name.Zoom.String()}
		cur, ok := latest[p]
		if !ok || newer(a, cur) {
			latest[p] = a
		}
	}
	out := make([]Archive, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.File < out[j].Name.File })
	return out
}

func newer(a, b Archive) bool {
	if a.Name.File != b.Name.File {
		return a.Name.File > b.Name.File
	}
	return a.ModTime.After(b.ModTime)
}

// LatestMatching returns the newest file under dir whose base name matches
// the glob pattern, or "" when none match. Used to pick the freshest COG per
// (region, category, zoom range) when building surge archives.
func LatestMatching(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}
	var best string
	var bestInfo fs.FileInfo
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return "", err
		}
		if best == "" || filepath.Base(m) > filepath.Base(best) ||
			(filepath.Base(m) == filepath.Base(best) && info.ModTime().After(bestInfo.ModTime())) {
			best, bestInfo = m, info
		}
	}
	return best, nil
}
