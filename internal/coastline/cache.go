package coastline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/hazard-tile-service/internal/observability"
)

// DistanceCache is a read-through Redis cache for distance responses.
// Coordinates are rounded to four decimals (~11m) so nearby repeat queries
// share entries. Cache errors degrade to a miss.
type DistanceCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewDistanceCache(client *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *DistanceCache {
	return &DistanceCache{client: client, ttl: ttl, logger: logger, metrics: metrics}
}

func cacheKey(lat, lng, radiusMiles float64) string {
	return fmt.Sprintf("distance:%.4f:%.4f:%.1f", lat, lng, radiusMiles)
}

// Get returns the cached result, or nil on miss.
func (c *DistanceCache) Get(ctx context.Context, lat, lng, radiusMiles float64) *DistanceResult {
	data, err := c.client.Get(ctx, cacheKey(lat, lng, radiusMiles)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("distance cache read failed", "error", err)
		}
		c.metrics.DistanceCache.WithLabelValues("miss").Inc()
		return nil
	}
	var result DistanceResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("distance cache entry corrupt", "error", err)
		c.metrics.DistanceCache.WithLabelValues("miss").Inc()
		return nil
	}
	c.metrics.DistanceCache.WithLabelValues("hit").Inc()
	return &result
}

// Set stores a result, best effort.
func (c *DistanceCache) Set(ctx context.Context, result *DistanceResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	key := cacheKey(result.QueryLat, result.QueryLng, result.RadiusMiles)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("distance cache write failed", "error", err)
	}
}
