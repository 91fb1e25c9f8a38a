// Package http serves hazard tiles and distance-to-coast queries, plus the
// health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/hazard-tile-service/internal/coastline"
	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/observability"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Options carries the optional server collaborators. Distance queries are
// only routed when a coastline store is configured; caches are nil when
// Redis is not configured.
type Options struct {
	TileCache     *TileCache
	Distance      *coastline.Store
	DistanceCache *coastline.DistanceCache

	// APIToken, when non-empty, gates distance queries behind a bearer
	// token carried in the Authorization header or a token query param.
	APIToken string
}

// Server exposes the tile, distance, health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *observability.Metrics
	tiles      *TileSet
	tileCache  *TileCache
	distance   *coastline.Store
	distCache  *coastline.DistanceCache
	apiToken   string
}

// NewServer wires the routes around a TileSet.
func NewServer(addr string, tiles *TileSet, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      cors(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:    logger,
		metrics:   metrics,
		tiles:     tiles,
		tileCache: opts.TileCache,
		distance:  opts.Distance,
		distCache: opts.DistanceCache,
		apiToken:  opts.APIToken,
	}

	mux.HandleFunc("GET /tiles/{z}/{x}/{y}", s.handleTile)
	mux.HandleFunc("GET /info", s.handleInfo)
	mux.HandleFunc("GET /metadata", s.handleMetadata)
	if s.distance != nil {
		mux.HandleFunc("GET /api/v1/distance_to_coast", s.handleDistance)
	}
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(tiles))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	z, errZ := strconv.ParseUint(r.PathValue("z"), 10, 8)
	x, errX := strconv.ParseUint(r.PathValue("x"), 10, 32)
	y, errY := strconv.ParseUint(r.PathValue("y"), 10, 32)
	if errZ != nil || errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tile coordinates must be non-negative integers"})
		return
	}

	if s.tileCache != nil {
		if data, dataset, ok := s.tileCache.Get(r.Context(), uint8(z), uint32(x), uint32(y)); ok {
			s.writeTile(w, dataset, data)
			return
		}
	}

	data, dataset, ok, err := s.tiles.Tile(uint8(z), uint32(x), uint32(y))
	if err != nil {
		// 204 instead of 500 keeps map viewers from flooding logs.
		s.logger.Error("tile lookup failed", "z", z, "x", x, "y", y, "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !ok {
		s.metrics.TilesMissing.Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if s.tileCache != nil {
		s.tileCache.Set(r.Context(), uint8(z), uint32(x), uint32(y), dataset, data)
	}
	s.writeTile(w, dataset, data)
}

func (s *Server) writeTile(w http.ResponseWriter, dataset domain.Dataset, data []byte) {
	contentType, gzipped := sniffTile(data)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if gzipped {
		w.Header().Set("Content-Encoding", "gzip")
	}
	s.metrics.TilesServed.WithLabelValues(string(dataset)).Inc()
	s.metrics.TileBytes.Add(float64(len(data)))
	w.Write(data) //nolint:errcheck // client disconnects are not actionable
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tiles.Info())
}

func (s *Server) handleMetadata(w http.ResponseWriter, _ *http.Request) {
	meta, err := s.tiles.Metadata()
	if err != nil {
		s.logger.Error("metadata read failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "metadata unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// cors allows any origin; tiles are public read-only data consumed by
// browser map viewers on other hosts.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
