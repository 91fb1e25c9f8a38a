// Package download fetches raw hazard datasets over HTTP into local storage.
//
// Downloads are resumable at the file level: a destination that already
// exists is skipped, and in-flight transfers go to a .partial file that is
// renamed into place only on success. Transient failures retry with
// exponential backoff.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/observability"
)

// Status classifies the outcome of fetching one source.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// Result reports the outcome of one fetch.
type Result struct {
	Source Source
	Path   string
	Status Status
	Size   int64
	Err    error
}

// Fetcher downloads source files with retries and bounded parallelism.
type Fetcher struct {
	client  *http.Client
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewFetcher(client *http.Client, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, logger: logger, metrics: metrics}
}

// Fetch downloads one source into destDir. An existing destination file is
// left untouched and reported as skipped.
func (f *Fetcher) Fetch(ctx context.Context, dataset domain.Dataset, src Source, destDir string) Result {
	dest := filepath.Join(destDir, src.Filename)

	if info, err := os.Stat(dest); err == nil {
		f.logger.Info("download skipped, file exists", "file", src.Filename, "size", info.Size())
		f.metrics.Downloads.WithLabelValues(string(dataset), string(StatusSkipped)).Inc()
		return Result{Source: src, Path: dest, Status: StatusSkipped, Size: info.Size()}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		f.metrics.Downloads.WithLabelValues(string(dataset), string(StatusFailed)).Inc()
		return Result{Source: src, Status: StatusFailed, Err: err}
	}

	size, err := f.fetchWithRetry(ctx, src.URL, dest)
	if err != nil {
		f.logger.Error("download failed", "file", src.Filename, "url", src.URL, "error", err)
		f.metrics.Downloads.WithLabelValues(string(dataset), string(StatusFailed)).Inc()
		return Result{Source: src, Status: StatusFailed, Err: err}
	}

	f.logger.Info("download complete", "file", src.Filename, "size", size)
	f.metrics.Downloads.WithLabelValues(string(dataset), string(StatusDownloaded)).Inc()
	f.metrics.DownloadBytes.Add(float64(size))
	return Result{Source: src, Path: dest, Status: StatusDownloaded, Size: size}
}

// FetchAll downloads a source set with at most concurrency transfers in
// flight. All sources are attempted; per-source failures are reported in the
// results rather than aborting the set.
func (f *Fetcher) FetchAll(ctx context.Context, dataset domain.Dataset, sources []Source, destDir string, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))
	results := make([]Result, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Result{Source: src, Status: StatusFailed, Err: err}
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = f.Fetch(ctx, dataset, src, destDir)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// fetchWithRetry retries transient failures with exponential backoff,
// starting at 200ms and doubling to a 5s cap.
func (f *Fetcher) fetchWithRetry(ctx context.Context, url, dest string) (int64, error) {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second
	maxAttempts := 4

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		size, err := f.fetchOnce(ctx, url, dest)
		if err == nil {
			return size, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			return 0, err
		}
		f.logger.Warn("download attempt failed, retrying",
			"url", url,
			"attempt", attempt,
			"backoff", backoff,
			"error", err)
		if !sleepWithContext(ctx, backoff) {
			return 0, ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return 0, fmt.Errorf("download failed after %d attempts: %w", maxAttempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &httpStatusError{code: resp.StatusCode, url: url}
	}

	partial := dest + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return 0, err
	}

	size, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		os.Remove(partial)
		return 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return 0, err
	}
	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return 0, err
	}
	return size, nil
}

type httpStatusError struct {
	code int
	url  string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.code, e.url)
}

// isRetryable treats network errors and server-side statuses as transient.
// Client errors (403, 404) will not improve with retries.
func isRetryable(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.code >= 500 || statusErr.code == http.StatusTooManyRequests
	}
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
