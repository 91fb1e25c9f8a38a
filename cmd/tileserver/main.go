package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	httpadapter "github.com/couchcryptid/hazard-tile-service/internal/adapter/http"
	"github.com/couchcryptid/hazard-tile-service/internal/catalog"
	"github.com/couchcryptid/hazard-tile-service/internal/coastline"
	"github.com/couchcryptid/hazard-tile-service/internal/config"
	"github.com/couchcryptid/hazard-tile-service/internal/observability"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := os.MkdirAll(cfg.TilesDir(), 0o755); err != nil {
		logger.Error("failed to create tiles directory", "dir", cfg.TilesDir(), "error", err)
		os.Exit(1)
	}

	tiles := httpadapter.NewTileSet(cfg.TilesDir(), logger, metrics)
	if err := tiles.Reload(); err != nil {
		// Not fatal: the watcher reloads once the pipeline publishes archives.
		logger.Warn("initial catalog load failed", "error", err)
	}

	var rdb *redis.Client
	opts := httpadapter.Options{APIToken: cfg.APIToken}
	if cfg.CacheEnabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		opts.TileCache = httpadapter.NewTileCache(rdb, cfg.CacheTTL, logger, metrics)
		logger.Info("tile caching enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	}

	var store *coastline.Store
	if cfg.PostgresDSN != "" {
		store, err = coastline.NewStore(cfg.PostgresDSN, logger, metrics)
		if err != nil {
			logger.Error("failed to open coastline store", "error", err)
			os.Exit(1)
		}
		opts.Distance = store
		if rdb != nil {
			opts.DistanceCache = coastline.NewDistanceCache(rdb, cfg.CacheTTL, logger, metrics)
		}
		logger.Info("distance queries enabled")
	} else {
		logger.Info("distance queries disabled, no postgres DSN")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, tiles, opts, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reload the catalog when the pipeline publishes new archives.
	go func() {
		if err := catalog.Watch(ctx, cfg.TilesDir(), logger, func() {
			if err := tiles.Reload(); err != nil {
				logger.Error("catalog reload failed", "error", err)
			}
		}); err != nil {
			logger.Error("catalog watcher error", "error", err)
		}
	}()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	tiles.Close()
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("coastline store close error", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
