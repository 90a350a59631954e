// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Criticus server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Logging    LoggingConfig    `koanf:"logging"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Cache      CacheConfig      `koanf:"cache"`
	Popularity PopularityConfig `koanf:"popularity"`
	API        APIConfig        `koanf:"api"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Timeout bounds request read/write on the HTTP server.
	Timeout time.Duration `koanf:"timeout"`

	// ShutdownTimeout bounds graceful drain on SIGTERM.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds rating store (DuckDB) settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is accepted for tests.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the number of DuckDB threads (0 = runtime.NumCPU()).
	Threads int `koanf:"threads"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// SimilarityConfig holds similarity computation settings.
type SimilarityConfig struct {
	// MinCommonItems is the minimum number of commonly rated items a user
	// pair needs before a similarity edge is considered at all.
	// Default: 5
	MinCommonItems int `koanf:"min_common_items"`

	// Shrinkage regularizes small overlaps:
	// coefficient = raw * common / (common + shrinkage).
	// Default: 100
	Shrinkage float64 `koanf:"shrinkage"`

	// Workers is the fixed worker pool size for pair computation.
	// Default: 4
	Workers int `koanf:"workers"`

	// StalenessWindow is the age past which an edge reads as absent.
	// Default: 24h
	StalenessWindow time.Duration `koanf:"staleness_window"`

	// RefreshInterval is the cadence of the scheduled similarity refresh.
	// Default: 4h
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// RefreshTimeout bounds one refresh run.
	// Default: 30m
	RefreshTimeout time.Duration `koanf:"refresh_timeout"`

	// SnapshotDir is where adopted snapshots are persisted.
	// Default: /data/criticus/similarity
	SnapshotDir string `koanf:"snapshot_dir"`

	// RefreshOnStartup computes a snapshot at boot when none could be
	// loaded from SnapshotDir.
	// Default: true
	RefreshOnStartup bool `koanf:"refresh_on_startup"`
}

// RecommendConfig holds recommendation generation settings.
type RecommendConfig struct {
	// NeighborCap is the maximum number of similar users consulted per
	// target user.
	// Default: 20
	NeighborCap int `koanf:"neighbor_cap"`

	// MinScoringNeighbors is the minimum number of distinct neighbors that
	// must have rated an item before it is eligible for scoring.
	// Default: 1
	MinScoringNeighbors int `koanf:"min_scoring_neighbors"`

	// DefaultLimit is the topN used when the caller does not specify one.
	// Default: 20
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the topN a caller may request.
	// Default: 100
	MaxLimit int `koanf:"max_limit"`

	// GenerationTimeout bounds one on-demand generation. Exceeding it falls
	// back to a stale cache record when one exists.
	// Default: 5s
	GenerationTimeout time.Duration `koanf:"generation_timeout"`

	// MaxConcurrentGenerations caps simultaneous on-demand generations.
	// Default: 4
	MaxConcurrentGenerations int `koanf:"max_concurrent_generations"`
}

// CacheConfig holds recommendation cache settings.
type CacheConfig struct {
	// TTL is the lifetime of a cache record.
	// Default: 6h
	TTL time.Duration `koanf:"ttl"`

	// Dir is the BadgerDB directory for the persistent layer.
	// Empty disables persistence (memory only, used in tests).
	// Default: /data/criticus/cache
	Dir string `koanf:"dir"`

	// CleanupSchedule is a 5-field cron expression for the cleanup job.
	// Default: "0 4 * * *" (daily at 04:00)
	CleanupSchedule string `koanf:"cleanup_schedule"`

	// MaxAge is the cutoff past which records are physically purged by the
	// cleanup job regardless of TTL bookkeeping.
	// Default: 720h (30 days)
	MaxAge time.Duration `koanf:"max_age"`
}

// PopularityConfig holds the non-personalized fallback list settings.
type PopularityConfig struct {
	// PriorWeight is the damping constant C in the Bayesian mean
	// (count*mean + C*globalMean) / (count + C).
	// Default: 10
	PriorWeight float64 `koanf:"prior_weight"`

	// MinRatings is the minimum ratings an item needs to appear at all.
	// Default: 3
	MinRatings int `koanf:"min_ratings"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	// RequestTimeout bounds one HTTP request end to end.
	// Default: 10s
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RateLimitRequests is the per-IP request budget per window.
	// Default: 300
	RateLimitRequests int `koanf:"rate_limit_requests"`

	// RateLimitWindow is the rate limit window.
	// Default: 1m
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns off per-IP rate limiting. Intended for
	// private deployments behind an ingress that already throttles.
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// CORSOrigins lists allowed origins. Empty means same-origin only.
	CORSOrigins []string `koanf:"cors_origins"`
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSimilarity(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

func (c *Config) validateSimilarity() error {
	if c.Similarity.MinCommonItems < 2 {
		return fmt.Errorf("similarity.min_common_items must be at least 2, got %d", c.Similarity.MinCommonItems)
	}
	if c.Similarity.Shrinkage < 0 {
		return fmt.Errorf("similarity.shrinkage must not be negative, got %g", c.Similarity.Shrinkage)
	}
	if c.Similarity.Workers < 1 {
		return fmt.Errorf("similarity.workers must be at least 1, got %d", c.Similarity.Workers)
	}
	if c.Similarity.StalenessWindow <= 0 {
		return fmt.Errorf("similarity.staleness_window must be positive, got %s", c.Similarity.StalenessWindow)
	}
	if c.Similarity.RefreshInterval <= 0 {
		return fmt.Errorf("similarity.refresh_interval must be positive, got %s", c.Similarity.RefreshInterval)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.NeighborCap < 1 {
		return fmt.Errorf("recommend.neighbor_cap must be at least 1, got %d", c.Recommend.NeighborCap)
	}
	if c.Recommend.MinScoringNeighbors < 1 {
		return fmt.Errorf("recommend.min_scoring_neighbors must be at least 1, got %d", c.Recommend.MinScoringNeighbors)
	}
	if c.Recommend.DefaultLimit < 1 || c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit must be in 1-%d, got %d", c.Recommend.MaxLimit, c.Recommend.DefaultLimit)
	}
	if c.Recommend.GenerationTimeout <= 0 {
		return fmt.Errorf("recommend.generation_timeout must be positive, got %s", c.Recommend.GenerationTimeout)
	}
	if c.Recommend.MaxConcurrentGenerations < 1 {
		return fmt.Errorf("recommend.max_concurrent_generations must be at least 1, got %d", c.Recommend.MaxConcurrentGenerations)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.MaxAge < c.Cache.TTL {
		return fmt.Errorf("cache.max_age (%s) must not be below cache.ttl (%s)", c.Cache.MaxAge, c.Cache.TTL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
