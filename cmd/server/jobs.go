// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/criticus/internal/cache"
	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/scheduler"
	"github.com/tomtom215/criticus/internal/similarity"
)

// Background job names as they appear on the /jobs endpoints.
const (
	jobSimilarityRefresh = "similarity-refresh"
	jobCacheCleanup      = "cache-cleanup"
)

// cleanupTimeout bounds one cache cleanup pass. The pass is a Badger
// iteration plus deletes, minutes at worst even on large stores.
const cleanupTimeout = 10 * time.Minute

// registerJobs wires the two recurring jobs into the scheduler: the
// interval-driven similarity refresh and the cron-driven cache cleanup.
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, refresher *similarity.Refresher, holder *similarity.Holder, cacheStore *cache.Store) error {
	if err := sched.Register(scheduler.Job{
		Name:     jobSimilarityRefresh,
		Interval: cfg.Similarity.RefreshInterval,
		Timeout:  cfg.Similarity.RefreshTimeout,
		Run:      similarityRefreshJob(refresher, holder, cacheStore),
	}); err != nil {
		return fmt.Errorf("register %s: %w", jobSimilarityRefresh, err)
	}

	if err := sched.Register(scheduler.Job{
		Name:    jobCacheCleanup,
		Cron:    cfg.Cache.CleanupSchedule,
		Timeout: cleanupTimeout,
		Run:     cacheStore.Cleanup,
	}); err != nil {
		return fmt.Errorf("register %s: %w", jobCacheCleanup, err)
	}

	return nil
}

// similarityRefreshJob runs one refresh and, when a new snapshot was
// adopted, invalidates the whole recommendation cache so no list keeps
// being served against the superseded graph. A run that adopts nothing
// (no changes since the last pass) leaves the cache alone.
func similarityRefreshJob(refresher *similarity.Refresher, holder *similarity.Holder, cacheStore *cache.Store) scheduler.JobFunc {
	return func(ctx context.Context) (string, error) {
		before := 0
		if snap := holder.Current(); snap != nil {
			before = snap.Version
		}

		detail, err := refresher.Refresh(ctx)
		if err != nil {
			return "", err
		}

		if snap := holder.Current(); snap != nil && snap.Version != before {
			dropped := cacheStore.InvalidateAll()
			logging.Info().
				Int("version", snap.Version).
				Int("invalidated", dropped).
				Msg("Recommendation cache invalidated after snapshot adoption")
			detail = fmt.Sprintf("%s invalidated=%d", detail, dropped)
		}

		return detail, nil
	}
}
