// Package process runs the dataset conversion pipelines: raw downloads in,
// PMTiles archives and COGs out. Every stage skips work whose output already
// exists, so an interrupted run resumes where it stopped.
package process

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hazard-tile-service/internal/toolchain"
)

// Status classifies a pipeline stage outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// StepResult reports one pipeline stage.
type StepResult struct {
	Step      string
	Status    Status
	Path      string
	SizeBytes int64
	Err       error
}

// Processor drives the conversion toolchain over the storage layout.
type Processor struct {
	Runner       toolchain.Runner
	Logger       *slog.Logger
	RawDir       string
	ProcessedDir string
	TilesDir     string
}

// skipIfExists returns a skipped result when path is already present.
func (p *Processor) skipIfExists(step, path string) (StepResult, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return StepResult{}, false
	}
	p.Logger.Info("stage skipped, output exists", "step", step, "path", path, "size", info.Size())
	return StepResult{Step: step, Status: StatusSkipped, Path: path, SizeBytes: info.Size()}, true
}

// success stats the output so the result carries its size.
func (p *Processor) success(step, path string) StepResult {
	res := StepResult{Step: step, Status: StatusSuccess, Path: path}
	if info, err := os.Stat(path); err == nil {
		res.SizeBytes = info.Size()
	}
	p.Logger.Info("stage complete", "step", step, "path", path, "size", res.SizeBytes)
	return res
}

func (p *Processor) fail(step string, err error) StepResult {
	p.Logger.Error("stage failed", "step", step, "error", err)
	return StepResult{Step: step, Status: StatusFailed, Err: err}
}

// run executes a toolchain command writing to out, removing a partial output
// on failure.
func (p *Processor) run(ctx context.Context, cmd toolchain.Command, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := p.Runner.Run(ctx, cmd); err != nil {
		os.Remove(out)
		return err
	}
	return nil
}

// Failed reports whether any stage in a result set failed.
func Failed(results []StepResult) bool {
	for _, r := range results {
		if r.Status == StatusFailed {
			return true
		}
	}
	return false
}

// unzip extracts a zip archive into dest, rejecting entries that escape it.
func unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("zip entry %q escapes extraction dir", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// findFirst walks root for the first entry with the given suffix.
// Geodatabases are directories; everything else is a file.
func findFirst(root, suffix string, wantDir bool) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() == wantDir && strings.HasSuffix(d.Name(), suffix) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no %s found under %s", suffix, root)
	}
	return found, nil
}
