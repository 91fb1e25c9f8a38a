package download

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/observability"
)

func testFetcher(t *testing.T) *Fetcher {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFetcher(http.DefaultClient, logger, observability.NewMetricsForTesting())
}

func TestFetchDownloadsFile(t *testing.T) {
	payload := []byte("zip contents")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	res := testFetcher(t).Fetch(context.Background(), domain.DatasetFloodzone, Source{URL: srv.URL, Filename: "data.zip"}, dir)

	require.Equal(t, StatusDownloaded, res.Status)
	assert.Equal(t, int64(len(payload)), res.Size)

	got, err := os.ReadFile(filepath.Join(dir, "data.zip"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = os.Stat(filepath.Join(dir, "data.zip.partial"))
	assert.True(t, os.IsNotExist(err), "partial file should be renamed away")
}

func TestFetchSkipsExistingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be contacted for an existing file")
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.zip"), []byte("already here"), 0o644))

	res := testFetcher(t).Fetch(context.Background(), domain.DatasetFloodzone, Source{URL: srv.URL, Filename: "data.zip"}, dir)

	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, int64(len("already here")), res.Size)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	res := testFetcher(t).Fetch(context.Background(), domain.DatasetFloodzone, Source{URL: srv.URL, Filename: "data.zip"}, t.TempDir())

	require.Equal(t, StatusDownloaded, res.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	res := testFetcher(t).Fetch(context.Background(), domain.DatasetFloodzone, Source{URL: srv.URL, Filename: "missing.zip"}, t.TempDir())

	require.Equal(t, StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchAllReportsPerSourceResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.zip" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	sources := []Source{
		{URL: srv.URL + "/a.zip", Filename: "a.zip"},
		{URL: srv.URL + "/bad.zip", Filename: "bad.zip"},
		{URL: srv.URL + "/b.zip", Filename: "b.zip"},
	}

	results := testFetcher(t).FetchAll(context.Background(), domain.DatasetFloodzone, sources, t.TempDir(), 2)

	require.Len(t, results, 3)
	assert.Equal(t, StatusDownloaded, results[0].Status)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Equal(t, StatusDownloaded, results[2].Status)
}
