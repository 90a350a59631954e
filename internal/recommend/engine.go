// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/criticus/internal/cache"
	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/metrics"
	"github.com/tomtom215/criticus/internal/models"
	"github.com/tomtom215/criticus/internal/similarity"
)

// Engine is the cache-fronted recommendation read path. It is safe for
// concurrent use.
type Engine struct {
	cfg        config.RecommendConfig
	staleAfter time.Duration

	gen    *Generator
	holder *similarity.Holder
	cache  *cache.Store

	// group deduplicates concurrent generations per cache key; sem caps
	// how many generations run at once across all keys.
	group singleflight.Group
	sem   *semaphore.Weighted
}

// NewEngine creates the read path around a generator, the active snapshot
// holder, and the layered cache. staleAfter is the similarity staleness
// window; a snapshot older than it reads as absent.
func NewEngine(cfg config.RecommendConfig, staleAfter time.Duration, gen *Generator, holder *similarity.Holder, store *cache.Store) *Engine {
	concurrency := cfg.MaxConcurrentGenerations
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Engine{
		cfg:        cfg,
		staleAfter: staleAfter,
		gen:        gen,
		holder:     holder,
		cache:      store,
		sem:        semaphore.NewWeighted(int64(concurrency)),
	}
}

// GetRecommendations serves one request: cache hit, else synchronous
// generation bounded by the configured timeout. On generation failure it
// serves the expired record when one exists, else ErrUnavailable.
func (e *Engine) GetRecommendations(ctx context.Context, userID int64, p Params) (*models.RecommendationsResponse, error) {
	p = e.prepareParams(p)

	if rec, ok := e.cache.Get(userID, p.TopN, p.ExcludeRated); ok {
		return e.response(rec, false), nil
	}

	// The flight is detached from the request context: a caller that
	// gives up stops waiting, but the computation finishes and fills the
	// cache for the next request. The generation timeout is the only
	// thing that cancels it.
	key := cache.Key(userID, p.TopN, p.ExcludeRated)
	ch := e.group.DoChan(key, func() (interface{}, error) {
		return e.generate(userID, p)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return e.fallback(userID, p, res.Err)
		}
		rec, ok := res.Val.(cache.Record)
		if !ok {
			return nil, fmt.Errorf("unexpected generation result type %T", res.Val)
		}
		return e.response(rec, false), nil

	case <-ctx.Done():
		return e.fallback(userID, p, ctx.Err())
	}
}

// prepareParams applies the configured default and cap to TopN.
func (e *Engine) prepareParams(p Params) Params {
	if p.TopN <= 0 {
		p.TopN = e.cfg.DefaultLimit
	}
	if e.cfg.MaxLimit > 0 && p.TopN > e.cfg.MaxLimit {
		p.TopN = e.cfg.MaxLimit
	}
	return p
}

// generate runs one bounded generation and caches the result. Exactly one
// generation outcome is counted per call.
func (e *Engine) generate(userID int64, p Params) (cache.Record, error) {
	gctx, cancel := context.WithTimeout(context.Background(), e.cfg.GenerationTimeout)
	defer cancel()

	// Waiting for a slot spends from the same budget as the generation.
	if err := e.sem.Acquire(gctx, 1); err != nil {
		metrics.GenerationsTotal.WithLabelValues("timeout").Inc()
		return cache.Record{}, fmt.Errorf("acquire generation slot: %w", err)
	}
	defer e.sem.Release(1)

	snap := e.holder.CurrentFresh(e.staleAfter, time.Now())

	batch, err := e.gen.Generate(gctx, userID, snap, p)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.GenerationsTotal.WithLabelValues(outcome).Inc()
		return cache.Record{}, err
	}

	rec := e.record(batch, p)
	e.cache.Put(rec)

	if batch.ColdStart {
		metrics.GenerationsTotal.WithLabelValues("cold_start").Inc()
	} else {
		metrics.GenerationsTotal.WithLabelValues("ok").Inc()
	}

	return rec, nil
}

// fallback serves the stale record for a failed or abandoned generation.
func (e *Engine) fallback(userID int64, p Params, genErr error) (*models.RecommendationsResponse, error) {
	if rec, ok := e.cache.GetStale(userID, p.TopN, p.ExcludeRated); ok {
		metrics.CacheStaleServes.Inc()
		logging.Warn().
			Err(genErr).
			Int64("user_id", userID).
			Msg("Serving stale recommendations after failed generation")
		return e.response(rec, true), nil
	}

	logging.Error().
		Err(genErr).
		Int64("user_id", userID).
		Msg("Recommendation generation failed with no fallback record")
	return nil, fmt.Errorf("%w: %s", ErrUnavailable, genErr)
}

// record turns a batch into the cache record for its key.
func (e *Engine) record(b *Batch, p Params) cache.Record {
	return cache.Record{
		CacheKey:         cache.Key(b.UserID, p.TopN, p.ExcludeRated),
		UserID:           b.UserID,
		Items:            b.Items,
		ColdStart:        b.ColdStart,
		BatchID:          b.BatchID,
		AlgorithmVersion: b.AlgorithmVersion,
		NeighborCount:    b.NeighborCount,
		GenerationTime:   b.GenerationTime,
		GeneratedAt:      b.GeneratedAt,
		ExpiresAt:        b.GeneratedAt.Add(e.cache.TTL()),
	}
}

// response builds the API payload from a cache record.
func (e *Engine) response(rec cache.Record, stale bool) *models.RecommendationsResponse {
	resp := &models.RecommendationsResponse{
		UserID:      rec.UserID,
		Items:       rec.Items,
		ColdStart:   rec.ColdStart,
		Stale:       stale,
		GeneratedAt: rec.GeneratedAt,
		ExpiresAt:   rec.ExpiresAt,
		BatchID:     rec.BatchID,
	}
	if rec.ColdStart {
		resp.Fallback = FallbackPopular
	}
	if resp.Items == nil {
		resp.Items = []models.RecommendationItem{}
	}
	return resp
}
