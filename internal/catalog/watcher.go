package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow batches the burst of fs events a finished pipeline run
// produces into a single reload.
const debounceWindow = 500 * time.Millisecond

// Watch reloads the tile catalog when archives appear in or vanish from dir.
// onChange runs on the watcher goroutine after the event burst settles.
// Blocks until ctx is cancelled.
func Watch(ctx context.Context, dir string, logger *slog.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	// Region subdirectories hold the surge archives.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := w.Add(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	logger.Info("watching tiles directory", "dir", dir)

	var pending *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.Add(ev.Name); err != nil {
						logger.Warn("watching new subdirectory failed", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if !strings.HasSuffix(strings.ToLower(ev.Name), ".pmtiles") {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			logger.Debug("tiles directory changed", "file", ev.Name, "op", ev.Op.String())
			if pending == nil {
				pending = time.NewTimer(debounceWindow)
				fire = pending.C
			} else {
				pending.Reset(debounceWindow)
			}
		case <-fire:
			pending, fire = nil, nil
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("tiles watcher error", "error", err)
		}
	}
}
