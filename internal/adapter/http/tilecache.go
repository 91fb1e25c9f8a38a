package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/hazard-tile-service/internal/domain"
	"github.com/couchcryptid/hazard-tile-service/internal/observability"
)

// TileCache is an optional Redis cache in front of archive lookups. Entries
// carry the serving dataset so cache hits keep per-dataset counters accurate.
// Cache failures degrade to a miss.
type TileCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewTileCache(client *redis.Client, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *TileCache {
	return &TileCache{client: client, ttl: ttl, logger: logger, metrics: metrics}
}

func tileKey(z uint8, x, y uint32) string {
	return fmt.Sprintf("tile:%d:%d:%d", z, x, y)
}

// Get returns the cached tile and its dataset, or ok=false on miss.
func (c *TileCache) Get(ctx context.Context, z uint8, x, y uint32) (data []byte, dataset domain.Dataset, ok bool) {
	raw, err := c.client.Get(ctx, tileKey(z, x, y)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("tile cache read failed", "error", err)
		}
		c.metrics.TileCache.WithLabelValues("miss").Inc()
		return nil, "", false
	}
	// Entries are "<dataset>\x00<tile bytes>".
	sep := bytes.IndexByte(raw, 0)
	if sep < 0 {
		c.metrics.TileCache.WithLabelValues("miss").Inc()
		return nil, "", false
	}
	c.metrics.TileCache.WithLabelValues("hit").Inc()
	return raw[sep+1:], domain.Dataset(raw[:sep]), true
}

// Set stores a tile, best effort.
func (c *TileCache) Set(ctx context.Context, z uint8, x, y uint32, dataset domain.Dataset, data []byte) {
	entry := make([]byte, 0, len(dataset)+1+len(data))
	entry = append(entry, dataset...)
	entry = append(entry, 0)
	entry = append(entry, data...)
	if err := c.client.Set(ctx, tileKey(z, x, y), entry, c.ttl).Err(); err != nil {
		c.logger.Warn("tile cache write failed", "error", err)
	}
}
