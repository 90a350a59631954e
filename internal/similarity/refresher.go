// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package similarity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/metrics"
	"github.com/tomtom215/criticus/internal/models"
)

// ErrNoRatings is returned when a refresh finds an empty corpus. The run
// fails and the prior snapshot stays in service.
var ErrNoRatings = errors.New("rating corpus is empty")

// RatingLister provides the rating corpus for refreshes.
type RatingLister interface {
	ListRatings(ctx context.Context, since time.Time) ([]models.Rating, error)
}

// Refresher drives similarity runs. It pulls ratings, chooses full or
// incremental mode, computes edges, persists the result, and publishes
// it to the holder. Concurrent Refresh calls are excluded by the
// scheduler's per-job lock; the refresher itself only guards its dirty
// set and run bookkeeping.
type Refresher struct {
	cfg      config.SimilarityConfig
	lister   RatingLister
	computer *Computer
	holder   *Holder
	store    *Store

	mu      sync.Mutex
	dirty   map[int64]struct{}
	lastRun time.Time
}

// NewRefresher creates a refresher. The store may be nil, which disables
// snapshot persistence.
func NewRefresher(cfg config.SimilarityConfig, lister RatingLister, holder *Holder, store *Store) *Refresher {
	return &Refresher{
		cfg:      cfg,
		lister:   lister,
		computer: NewComputer(cfg),
		holder:   holder,
		store:    store,
		dirty:    make(map[int64]struct{}),
	}
}

// MarkDirty records that a user's ratings changed. The next refresh
// recomputes every pair touching that user.
func (r *Refresher) MarkDirty(userID int64) {
	r.mu.Lock()
	r.dirty[userID] = struct{}{}
	r.mu.Unlock()
}

// Bootstrap loads the newest persisted snapshot into the holder when one
// exists and is still inside the staleness window. A stale or missing
// snapshot leaves the holder empty until the first refresh.
func (r *Refresher) Bootstrap(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	snap, meta, err := r.store.LoadLatest(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			logging.Info().Msg("No persisted similarity snapshot found")
			return nil
		}
		return fmt.Errorf("load similarity snapshot: %w", err)
	}

	if snap.Stale(r.cfg.StalenessWindow, time.Now()) {
		logging.Info().
			Int("version", snap.Version).
			Time("computed_at", snap.ComputedAt).
			Msg("Persisted similarity snapshot is stale, awaiting refresh")
		return nil
	}

	r.holder.Swap(snap)

	r.mu.Lock()
	r.lastRun = snap.ComputedAt
	r.mu.Unlock()

	logging.Info().
		Int("version", snap.Version).
		Int("edges", snap.EdgeCount()).
		Int("users", snap.UserCount()).
		Int64("size_bytes", meta.SizeBytes).
		Msg("Loaded persisted similarity snapshot")
	return nil
}

// Refresh runs one similarity computation and publishes the result. It
// returns a human-readable summary for the job run record. On failure the
// prior snapshot stays in service and the captured dirty set is restored
// so the next run still covers it.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	start := time.Now()

	r.mu.Lock()
	dirty := r.dirty
	r.dirty = make(map[int64]struct{})
	since := r.lastRun
	r.mu.Unlock()

	prior := r.holder.Current()

	mode := "full"
	if prior != nil && !prior.Stale(r.cfg.StalenessWindow, start) && !since.IsZero() {
		mode = "incremental"
	}

	detail, err := r.run(ctx, mode, prior, dirty, since, start)
	if err != nil {
		r.mu.Lock()
		for uid := range dirty {
			r.dirty[uid] = struct{}{}
		}
		r.mu.Unlock()
		return "", err
	}

	metrics.SimilarityRunDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	return detail, nil
}

func (r *Refresher) run(ctx context.Context, mode string, prior *Snapshot, dirty map[int64]struct{}, since, start time.Time) (string, error) {
	var edges []Edge

	if mode == "incremental" {
		changed, err := r.lister.ListRatings(ctx, since)
		if err != nil {
			return "", fmt.Errorf("list changed ratings: %w", err)
		}
		for _, rt := range changed {
			dirty[rt.UserID] = struct{}{}
		}

		if len(dirty) == 0 {
			r.mu.Lock()
			r.lastRun = start
			r.mu.Unlock()
			return "no changes since last run", nil
		}

		ratings, err := r.lister.ListRatings(ctx, time.Time{})
		if err != nil {
			return "", fmt.Errorf("list ratings: %w", err)
		}
		if len(ratings) == 0 {
			return "", ErrNoRatings
		}

		edges, err = r.computer.ComputeIncremental(ctx, prior, ratings, dirty)
		if err != nil {
			return "", err
		}
	} else {
		ratings, err := r.lister.ListRatings(ctx, time.Time{})
		if err != nil {
			return "", fmt.Errorf("list ratings: %w", err)
		}
		if len(ratings) == 0 {
			return "", ErrNoRatings
		}

		edges, err = r.computer.Compute(ctx, ratings)
		if err != nil {
			return "", err
		}
	}

	version := 1
	switch {
	case prior != nil:
		version = prior.Version + 1
	case r.store != nil:
		version = r.store.LatestVersion() + 1
	}

	snap := NewSnapshot(version, start, edges)

	if r.store != nil {
		if err := r.store.Save(ctx, snap); err != nil {
			logging.Warn().Err(err).Int("version", version).Msg("Failed to persist similarity snapshot")
		}
	}

	r.holder.Swap(snap)

	r.mu.Lock()
	r.lastRun = start
	r.mu.Unlock()

	logging.Info().
		Str("mode", mode).
		Int("version", version).
		Int("edges", snap.EdgeCount()).
		Int("users", snap.UserCount()).
		Int("touched_users", len(dirty)).
		Dur("elapsed", time.Since(start)).
		Msg("Similarity refresh complete")

	return fmt.Sprintf("mode=%s version=%d edges=%d users=%d", mode, version, snap.EdgeCount(), snap.UserCount()), nil
}
