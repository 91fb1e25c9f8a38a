package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by
// the tile server and the pipeline CLI.
type Metrics struct {
	// Tile serving.
	TilesServed   *prometheus.CounterVec // labels: dataset
	TilesMissing  prometheus.Counter
	TileBytes     prometheus.Counter
	TileCache     *prometheus.CounterVec // labels: result={hit,miss}
	ArchivesOpen  prometheus.Gauge
	CatalogReload prometheus.Counter

	// Pipeline.
	Downloads          *prometheus.CounterVec // labels: dataset, status={downloaded,skipped,failed}
	DownloadBytes      prometheus.Counter
	SubprocessRuns     *prometheus.CounterVec   // labels: tool, outcome={success,error}
	SubprocessDuration *prometheus.HistogramVec // labels: tool
	MergeTilesWritten  prometheus.Counter
	MergeTilesSkipped  prometheus.Counter

	// Distance-to-coast queries.
	DistanceQueries *prometheus.CounterVec // labels: outcome={success,error}
	DistanceCache   *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		TilesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "tiles_served_total",
			Help:      "Tiles served, by dataset.",
		}, []string{"dataset"}),
		TilesMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "tiles_missing_total",
			Help:      "Tile requests answered 204 because no archive had the tile.",
		}),
		TileBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "tile_bytes_total",
			Help:      "Tile payload bytes served.",
		}),
		TileCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "tile_cache_total",
			Help:      "Tile cache lookups by result.",
		}, []string{"result"}),
		ArchivesOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_tiles",
			Name:      "archives_open",
			Help:      "PMTiles archives currently loaded by the server.",
		}),
		CatalogReload: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "catalog_reloads_total",
			Help:      "Catalog reloads triggered by directory changes.",
		}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "downloads_total",
			Help:      "Source file downloads by dataset and status.",
		}, []string{"dataset", "status"}),
		DownloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "download_bytes_total",
			Help:      "Bytes fetched from upstream data sources.",
		}),
		SubprocessRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "subprocess_runs_total",
			Help:      "External tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		SubprocessDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hazard_tiles",
			Name:      "subprocess_duration_seconds",
			Help:      "External tool run duration.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600, 7200},
		}, []string{"tool"}),
		MergeTilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "merge_tiles_written_total",
			Help:      "Unique tiles written by the archive combiner.",
		}),
		MergeTilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "merge_tiles_skipped_total",
			Help:      "Duplicate tiles skipped by the archive combiner.",
		}),
		DistanceQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "distance_queries_total",
			Help:      "Distance-to-coast queries by outcome.",
		}, []string{"outcome"}),
		DistanceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_tiles",
			Name:      "distance_cache_total",
			Help:      "Distance query cache lookups by result.",
		}, []string{"result"}),
	}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TilesServed,
		m.TilesMissing,
		m.TileBytes,
		m.TileCache,
		m.ArchivesOpen,
		m.CatalogReload,
		m.Downloads,
		m.DownloadBytes,
		m.SubprocessRuns,
		m.SubprocessDuration,
		m.MergeTilesWritten,
		m.MergeTilesSkipped,
		m.DistanceQueries,
		m.DistanceCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
