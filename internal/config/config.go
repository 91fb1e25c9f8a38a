package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
// A .env file in the working directory is honored when present (loaded by
// the binaries before Load runs).
type Config struct {
	// Storage layout. All pipeline inputs and outputs live under StorageRoot.
	StorageRoot string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Pipeline.
	DownloadConcurrency int
	DownloadTimeout     time.Duration

	// Coastline store (empty DSN disables the distance endpoint).
	PostgresDSN string

	// When set, distance queries require this bearer token.
	APIToken string

	// Redis caches (empty addr disables caching).
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Build-event publishing (no brokers disables it).
	KafkaBrokers     []string
	KafkaEventsTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := parseDuration("DOWNLOAD_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	concurrency, err := parseInt("DOWNLOAD_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StorageRoot:         envOrDefault("STORAGE_ROOT", "./data"),
		HTTPAddr:            envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
		LogFormat:           envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:     shutdownTimeout,
		DownloadConcurrency: concurrency,
		DownloadTimeout:     downloadTimeout,
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		APIToken:            os.Getenv("API_TOKEN"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		CacheTTL:            cacheTTL,
		KafkaBrokers:        parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaEventsTopic:    envOrDefault("KAFKA_EVENTS_TOPIC", "hazard-tile-events"),
	}

	if cfg.StorageRoot == "" {
		return nil, errors.New("STORAGE_ROOT is required")
	}
	if cfg.DownloadConcurrency <= 0 {
		return nil, errors.New("DOWNLOAD_CONCURRENCY must be positive")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}
	return cfg, nil
}

// Storage layout under the root. The pipeline mirrors the layout the
// conversion jobs expect: raw downloads, processed intermediates, final
// tiles, and run manifests.

func (c *Config) RawDir() string       { return filepath.Join(c.StorageRoot, "raw") }
func (c *Config) ProcessedDir() string { return filepath.Join(c.StorageRoot, "processed") }
func (c *Config) TilesDir() string     { return filepath.Join(c.StorageRoot, "tiles") }
func (c *Config) ManifestDir() string  { return filepath.Join(c.StorageRoot, "manifest") }

// EventsEnabled reports whether build events should be published.
func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

// CacheEnabled reports whether Redis caching is configured.
func (c *Config) CacheEnabled() bool { return c.RedisAddr != "" }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
