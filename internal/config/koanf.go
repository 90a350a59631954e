// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/criticus/config.yaml",
	"/etc/criticus/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. These are layer
// one of the load; file and environment values override them.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/criticus/ratings.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Similarity: SimilarityConfig{
			MinCommonItems:   5,
			Shrinkage:        100,
			Workers:          4,
			StalenessWindow:  24 * time.Hour,
			RefreshInterval:  4 * time.Hour,
			RefreshTimeout:   30 * time.Minute,
			SnapshotDir:      "/data/criticus/similarity",
			RefreshOnStartup: true,
		},
		Recommend: RecommendConfig{
			NeighborCap:              20,
			MinScoringNeighbors:      1,
			DefaultLimit:             20,
			MaxLimit:                 100,
			GenerationTimeout:        5 * time.Second,
			MaxConcurrentGenerations: 4,
		},
		Cache: CacheConfig{
			TTL:             6 * time.Hour,
			Dir:             "/data/criticus/cache",
			CleanupSchedule: "0 4 * * *",
			MaxAge:          720 * time.Hour,
		},
		Popularity: PopularityConfig{
			PriorWeight: 10,
			MinRatings:  3,
		},
		API: APIConfig{
			RequestTimeout:    10 * time.Second,
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       nil,
		},
	}
}

// Load resolves configuration from defaults, an optional YAML file and
// environment variables, in that precedence order (env wins).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive from the environment as plain strings.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated env strings into slices for the
// known slice-valued paths.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		if !k.Exists(path) {
			continue
		}
		raw := k.Get(path)
		s, ok := raw.(string)
		if !ok {
			continue // already a slice (file or defaults layer)
		}
		parts := strings.Split(s, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps flat environment variable names to koanf config
// paths. Unmapped variables return "" and are skipped, which keeps unrelated
// environment noise out of the configuration.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - SIMILARITY_MIN_COMMON_ITEMS -> similarity.min_common_items
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":               "server.host",
		"http_port":               "server.port",
		"http_timeout":            "server.timeout",
		"server_shutdown_timeout": "server.shutdown_timeout",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Similarity mappings
		"similarity_min_common_items":   "similarity.min_common_items",
		"similarity_shrinkage":          "similarity.shrinkage",
		"similarity_workers":            "similarity.workers",
		"similarity_staleness_window":   "similarity.staleness_window",
		"similarity_refresh_interval":   "similarity.refresh_interval",
		"similarity_refresh_timeout":    "similarity.refresh_timeout",
		"similarity_snapshot_dir":       "similarity.snapshot_dir",
		"similarity_refresh_on_startup": "similarity.refresh_on_startup",

		// Recommendation mappings
		"recommend_neighbor_cap":          "recommend.neighbor_cap",
		"recommend_min_scoring_neighbors": "recommend.min_scoring_neighbors",
		"recommend_default_limit":         "recommend.default_limit",
		"recommend_max_limit":             "recommend.max_limit",
		"recommend_generation_timeout":    "recommend.generation_timeout",
		"recommend_max_concurrent":        "recommend.max_concurrent_generations",

		// Cache mappings
		"cache_ttl":              "cache.ttl",
		"cache_dir":              "cache.dir",
		"cache_cleanup_schedule": "cache.cleanup_schedule",
		"cache_max_age":          "cache.max_age",

		// Popularity mappings
		"popularity_prior_weight": "popularity.prior_weight",
		"popularity_min_ratings":  "popularity.min_ratings",

		// API mappings
		"api_request_timeout":     "api.request_timeout",
		"api_rate_limit_requests": "api.rate_limit_requests",
		"api_rate_limit_window":   "api.rate_limit_window",
		"disable_rate_limit":      "api.rate_limit_disabled",
		"cors_origins":            "api.cors_origins",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload. The caller guards
// its own config access; the callback fires after each change event.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
