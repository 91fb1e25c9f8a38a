package coastline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strings"

	_ "github.com/lib/pq" // postgres driver

	"github.com/couchcryptid/hazard-tile-service/internal/observability"
)

const metersPerMile = 1609.34

// insertBatchSize keeps multi-row inserts under the postgres parameter
// limit (3 params per row, 65535 max).
const insertBatchSize = 10000

// Store persists shoreline points in Postgres and answers nearest-coast
// queries with PostGIS.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStore opens a connection pool for the given DSN.
func NewStore(dsn string, logger *slog.Logger, metrics *observability.Metrics) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Store{db: db, logger: logger, metrics: metrics}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Seed loads points from one source file, batched. A source that is already
// present is skipped so re-running the seeder is idempotent.
func (s *Store) Seed(ctx context.Context, source string, points []Point) (int, error) {
	var existing int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM public.noaa_coastline WHERE source = $1", source,
	).Scan(&existing)
	if err != nil {
		return 0, fmt.Errorf("check existing source: %w", err)
	}
	if existing > 0 {
		s.logger.Info("source already loaded, skipping", "source", source, "points", existing)
		return 0, nil
	}
	if len(points) == 0 {
		return 0, nil
	}

	inserted := 0
	for start := 0; start < len(points); start += insertBatchSize {
		end := min(start+insertBatchSize, len(points))
		batch := points[start:end]
		if _, err := s.db.ExecContext(ctx, insertStatement(len(batch)), batchArgs(batch)...); err != nil {
			return inserted, fmt.Errorf("insert batch at %d: %w", start, err)
		}
		inserted += len(batch)
		s.logger.Info("batch inserted", "source", source, "inserted", inserted, "total", len(points))
	}
	return inserted, nil
}

// insertStatement builds a multi-row insert with numbered placeholders.
func insertStatement(rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO public.noaa_coastline (lat, lng, source) VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "($%d,$%d,$%d)", i*3+1, i*3+2, i*3+3)
	}
	return b.String()
}

func batchArgs(points []Point) []any {
	args := make([]any, 0, len(points)*3)
	for _, p := range points {
		args = append(args, p.Lat, p.Lng, p.Source)
	}
	return args
}

// NearestPoint is the closest shoreline vertex to a query location.
type NearestPoint struct {
	ID            int64   `json:"id"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	DistanceMeter float64 `json:"distance_meters"`
	DistanceMiles float64 `json:"distance_miles"`
}

// CoastPoint is one shoreline vertex inside the search radius.
type CoastPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceResult is the /distance response payload.
type DistanceResult struct {
	QueryLat             float64      `json:"query_lat"`
	QueryLng             float64      `json:"query_lng"`
	RadiusMiles          float64      `json:"radius_miles"`
	DistanceToCoastMiles float64      `json:"distance_to_coast_miles"`
	Nearest              NearestPoint `json:"nearest_point"`
	PointsFound          int          `json:"points_found"`
	CoastlinePoints      []CoastPoint `json:"coastline_points"`
}

// The KNN operator (<->) rides the point index for the nearest candidate;
// ST_Distance on geography then yields meters. Radius points are capped at
// 1000 for display.
const nearestWithRadiusQuery = `
WITH nearest AS (
    SELECT id, lat, lng,
        ST_Distance(
            ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
            ST_SetSRID(ST_MakePoint(lng, lat), 4326)::geography
        ) AS distance_meters
    FROM public.noaa_coastline
    ORDER BY ST_SetSRID(ST_MakePoint(lng, lat), 4326) <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
    LIMIT 1
),
radius_points AS (
    SELECT id, lat, lng,
        ST_Distance(
            ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
            ST_SetSRID(ST_MakePoint(lng, lat), 4326)::geography
        ) AS distance_meters
    FROM public.noaa_coastline
    WHERE ST_DWithin(
        ST_SetSRID(ST_MakePoint(lng, lat), 4326)::geography,
        ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
        $3
    )
    ORDER BY ST_SetSRID(ST_MakePoint(lng, lat), 4326) <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
    LIMIT 1000
)
SELECT * FROM nearest
UNION ALL
SELECT * FROM radius_points`

const nearestOnlyQuery = `
SELECT id, lat, lng,
    ST_Distance(
        ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
        ST_SetSRID(ST_MakePoint(lng, lat), 4326)::geography
    ) AS distance_meters
FROM public.noaa_coastline
ORDER BY ST_SetSRID(ST_MakePoint(lng, lat), 4326) <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
LIMIT 1`

// NearestCoast finds the nearest shoreline point and, for a positive
// radius, the shoreline points within it.
func (s *Store) NearestCoast(ctx context.Context, lat, lng, radiusMiles float64) (result *DistanceResult, err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.metrics.DistanceQueries.WithLabelValues(outcome).Inc()
	}()
	radiusMeters := radiusMiles * metersPerMile

	var rows *sql.Rows
	if radiusMeters > 0 {
		rows, err = s.db.QueryContext(ctx, nearestWithRadiusQuery, lng, lat, radiusMeters)
	} else {
		rows, err = s.db.QueryContext(ctx, nearestOnlyQuery, lng, lat)
	}
	if err != nil {
		return nil, fmt.Errorf("nearest coast query: %w", err)
	}
	defer rows.Close()

	result = &DistanceResult{QueryLat: lat, QueryLng: lng, RadiusMiles: radiusMiles, CoastlinePoints: []CoastPoint{}}
	first := true
	for rows.Next() {
		var id int64
		var pLat, pLng, meters float64
		if err := rows.Scan(&id, &pLat, &pLng, &meters); err != nil {
			return nil, err
		}
		if first {
			result.Nearest = NearestPoint{
				ID:            id,
				Lat:           pLat,
				Lng:           pLng,
				DistanceMeter: round2(meters),
				DistanceMiles: round2(meters / metersPerMile),
			}
			result.DistanceToCoastMiles = result.Nearest.DistanceMiles
			first = false
			continue
		}
		result.CoastlinePoints = append(result.CoastlinePoints, CoastPoint{Lat: pLat, Lng: pLng})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if first {
		return nil, fmt.Errorf("no coastline data found")
	}
	result.PointsFound = len(result.CoastlinePoints)
	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
