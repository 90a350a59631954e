// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaultConfig().Validate() error = %v, want nil", err)
	}
}

func TestDefaultValues(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Similarity.MinCommonItems != 5 {
		t.Errorf("Similarity.MinCommonItems = %d, want 5", cfg.Similarity.MinCommonItems)
	}
	if cfg.Similarity.Shrinkage != 100 {
		t.Errorf("Similarity.Shrinkage = %g, want 100", cfg.Similarity.Shrinkage)
	}
	if cfg.Similarity.RefreshInterval != 4*time.Hour {
		t.Errorf("Similarity.RefreshInterval = %s, want 4h", cfg.Similarity.RefreshInterval)
	}
	if cfg.Recommend.NeighborCap != 20 {
		t.Errorf("Recommend.NeighborCap = %d, want 20", cfg.Recommend.NeighborCap)
	}
	if cfg.Recommend.MinScoringNeighbors != 1 {
		t.Errorf("Recommend.MinScoringNeighbors = %d, want 1", cfg.Recommend.MinScoringNeighbors)
	}
	if cfg.Cache.TTL != 6*time.Hour {
		t.Errorf("Cache.TTL = %s, want 6h", cfg.Cache.TTL)
	}
	if cfg.Cache.CleanupSchedule != "0 4 * * *" {
		t.Errorf("Cache.CleanupSchedule = %q, want %q", cfg.Cache.CleanupSchedule, "0 4 * * *")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "min common items below two",
			mutate:  func(c *Config) { c.Similarity.MinCommonItems = 1 },
			wantErr: "min_common_items",
		},
		{
			name:    "negative shrinkage",
			mutate:  func(c *Config) { c.Similarity.Shrinkage = -1 },
			wantErr: "shrinkage",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Similarity.Workers = 0 },
			wantErr: "workers",
		},
		{
			name:    "zero neighbor cap",
			mutate:  func(c *Config) { c.Recommend.NeighborCap = 0 },
			wantErr: "neighbor_cap",
		},
		{
			name:    "default limit above max",
			mutate:  func(c *Config) { c.Recommend.DefaultLimit = 500 },
			wantErr: "default_limit",
		},
		{
			name:    "zero generation timeout",
			mutate:  func(c *Config) { c.Recommend.GenerationTimeout = 0 },
			wantErr: "generation_timeout",
		},
		{
			name:    "max age below ttl",
			mutate:  func(c *Config) { c.Cache.MaxAge = time.Hour },
			wantErr: "max_age",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil error, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
