// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/metrics"
)

// Store is the layered recommendation cache. The memory layer is
// authoritative for reads; the Badger layer, when configured, mirrors
// writes and seeds the memory layer on boot. Persistence failures are
// logged and absorbed, they never fail the request path.
type Store struct {
	cfg     config.CacheConfig
	memory  *Memory
	persist *BadgerStore
}

// New creates the cache store. An empty cfg.Dir disables the persistent
// layer.
func New(cfg config.CacheConfig) (*Store, error) {
	s := &Store{
		cfg:    cfg,
		memory: NewMemory(),
	}

	if cfg.Dir != "" {
		persist, err := OpenBadger(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("open cache persistence: %w", err)
		}
		s.persist = persist
	}

	return s, nil
}

// NewWithPersistence creates the cache store around an existing Badger
// layer. Used by tests with an in-memory BadgerDB.
func NewWithPersistence(cfg config.CacheConfig, persist *BadgerStore) *Store {
	return &Store{
		cfg:     cfg,
		memory:  NewMemory(),
		persist: persist,
	}
}

// TTL returns the configured record lifetime.
func (s *Store) TTL() time.Duration {
	return s.cfg.TTL
}

// Get returns the fresh record for the given user and parameters.
func (s *Store) Get(userID int64, topN int, excludeRated bool) (Record, bool) {
	rec, ok := s.memory.Get(Key(userID, topN, excludeRated))
	if ok {
		metrics.CacheHits.Inc()
	} else {
		metrics.CacheMisses.Inc()
	}
	return rec, ok
}

// GetStale returns a record regardless of expiry, falling back to the
// persistent layer when the memory layer has nothing. The fallback covers
// records that were already expired at boot and therefore skipped by the
// warm start.
func (s *Store) GetStale(userID int64, topN int, excludeRated bool) (Record, bool) {
	key := Key(userID, topN, excludeRated)

	if rec, ok := s.memory.GetStale(key); ok {
		return rec, true
	}

	if s.persist == nil {
		return Record{}, false
	}

	rec, err := s.persist.Get(key)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			logging.Warn().Err(err).Str("key", key).Msg("Failed to read persisted cache record")
		}
		return Record{}, false
	}

	return rec, true
}

// Put stores a record in both layers. The record overwrites any prior
// record under the same key.
func (s *Store) Put(rec Record) {
	s.memory.Put(rec)
	metrics.CacheEntries.Set(float64(s.memory.Len()))

	if s.persist == nil {
		return
	}
	if err := s.persist.Put(rec); err != nil {
		logging.Warn().Err(err).Str("key", rec.CacheKey).Msg("Failed to persist cache record")
	}
}

// Invalidate removes every record belonging to one user from both layers
// and returns the number of memory records removed.
func (s *Store) Invalidate(userID int64) int {
	removed := s.memory.Invalidate(userID)
	metrics.CacheInvalidations.WithLabelValues("user").Add(float64(removed))
	metrics.CacheEntries.Set(float64(s.memory.Len()))

	if s.persist != nil {
		if _, err := s.persist.DeleteByUser(userID); err != nil {
			logging.Warn().Err(err).Int64("user_id", userID).Msg("Failed to invalidate persisted cache records")
		}
	}

	return removed
}

// InvalidateAll drops every record from both layers and returns the
// number of memory records removed. Called when a new similarity snapshot
// is adopted.
func (s *Store) InvalidateAll() int {
	removed := s.memory.InvalidateAll()
	metrics.CacheInvalidations.WithLabelValues("all").Add(float64(removed))
	metrics.CacheEntries.Set(0)

	if s.persist != nil {
		if err := s.persist.DeleteAll(); err != nil {
			logging.Warn().Err(err).Msg("Failed to clear persisted cache records")
		}
	}

	logging.Info().Int("removed", removed).Msg("Recommendation cache cleared")
	return removed
}

// WarmStart seeds the memory layer with the unexpired persisted records.
// Returns the number of records loaded.
func (s *Store) WarmStart(ctx context.Context) (int, error) {
	if s.persist == nil {
		return 0, nil
	}

	records, err := s.persist.LoadUnexpired(time.Now())
	if err != nil {
		return 0, fmt.Errorf("warm start cache: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		s.memory.Put(rec)
	}

	metrics.CacheEntries.Set(float64(s.memory.Len()))
	logging.Info().Int("records", len(records)).Msg("Recommendation cache warm-started")
	return len(records), nil
}

// Cleanup physically deletes records generated before the configured age
// cutoff from both layers. It is the body of the scheduled cache-cleanup
// job and returns a summary for the run record.
func (s *Store) Cleanup(ctx context.Context) (string, error) {
	cutoff := time.Now().Add(-s.cfg.MaxAge)

	memPurged := s.memory.PurgeAged(cutoff)
	metrics.CacheEntries.Set(float64(s.memory.Len()))

	persistPurged := 0
	if s.persist != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := s.persist.PurgeAged(cutoff)
		if err != nil {
			return "", fmt.Errorf("purge persisted records: %w", err)
		}
		persistPurged = n

		if err := s.persist.RunGC(); err != nil {
			logging.Warn().Err(err).Msg("Cache value log GC failed")
		}
	}

	purged := memPurged
	if persistPurged > purged {
		purged = persistPurged
	}
	metrics.CacheInvalidations.WithLabelValues("purged").Add(float64(purged))

	logging.Info().
		Int("memory_purged", memPurged).
		Int("persisted_purged", persistPurged).
		Int("entries", s.memory.Len()).
		Time("cutoff", cutoff).
		Msg("Cache cleanup complete")

	return fmt.Sprintf("memory_purged=%d persisted_purged=%d entries=%d", memPurged, persistPurged, s.memory.Len()), nil
}

// Stats returns the memory layer's counters.
func (s *Store) Stats() Stats {
	return s.memory.GetStats()
}

// HitRate returns the memory layer's hit rate as a percentage.
func (s *Store) HitRate() float64 {
	return s.memory.HitRate()
}

// Close closes the persistent layer if one is configured.
func (s *Store) Close() error {
	if s.persist == nil {
		return nil
	}
	return s.persist.Close()
}
