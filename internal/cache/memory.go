// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package cache

import (
	"strings"
	"sync"
	"time"
)

// Memory is the thread-safe in-memory cache layer.
//
// Unlike a plain TTL map, expiry here is purely logical: Get reports an
// expired record as a miss but leaves it in place so GetStale can still
// return it. Physical removal happens through invalidation and the
// scheduled cleanup, never on the read path.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	stats   Stats
}

// Stats tracks cache performance counters.
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// NewMemory creates an empty in-memory cache layer.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]Record),
		stats: Stats{
			LastCleanup: time.Now(),
		},
	}
}

// Get returns the record for key if it exists and has not expired.
//
// Behavior:
//   - Returns (Record{}, false) if the key is absent.
//   - Returns (Record{}, false) if the record has expired. The record is
//     retained for stale reads.
//   - Returns (record, true) otherwise.
func (m *Memory) Get(key string) (Record, bool) {
	m.mu.RLock()
	rec, exists := m.records[key]
	m.mu.RUnlock()

	if !exists || rec.Expired(time.Now()) {
		m.recordMiss()
		return Record{}, false
	}

	m.recordHit()
	return rec, true
}

// GetStale returns the record for key regardless of expiry. The engine
// uses it as the fallback when fresh generation times out.
func (m *Memory) GetStale(key string) (Record, bool) {
	m.mu.RLock()
	rec, exists := m.records[key]
	m.mu.RUnlock()
	return rec, exists
}

// Put stores a record under its CacheKey, overwriting any prior record in
// one map assignment. Readers observe either the old batch or the new one
// in full.
func (m *Memory) Put(rec Record) {
	m.mu.Lock()
	m.records[rec.CacheKey] = rec
	total := int64(len(m.records))
	m.mu.Unlock()

	m.stats.mu.Lock()
	m.stats.TotalKeys = total
	m.stats.mu.Unlock()
}

// Invalidate removes every record belonging to one user and returns the
// number removed.
func (m *Memory) Invalidate(userID int64) int {
	prefix := userPrefix(userID)

	m.mu.Lock()
	removed := 0
	for key := range m.records {
		if strings.HasPrefix(key, prefix) {
			delete(m.records, key)
			removed++
		}
	}
	total := int64(len(m.records))
	m.mu.Unlock()

	m.recordEvictions(int64(removed), total)
	return removed
}

// InvalidateAll drops every record and returns the number removed.
func (m *Memory) InvalidateAll() int {
	m.mu.Lock()
	removed := len(m.records)
	m.records = make(map[string]Record)
	m.mu.Unlock()

	m.recordEvictions(int64(removed), 0)
	return removed
}

// PurgeAged removes records generated before cutoff and returns the number
// removed. Expired-but-young records survive; they back stale serving.
func (m *Memory) PurgeAged(cutoff time.Time) int {
	m.mu.Lock()
	removed := 0
	for key, rec := range m.records {
		if rec.GeneratedAt.Before(cutoff) {
			delete(m.records, key)
			removed++
		}
	}
	total := int64(len(m.records))
	m.mu.Unlock()

	m.stats.mu.Lock()
	m.stats.Evictions += int64(removed)
	m.stats.TotalKeys = total
	m.stats.LastCleanup = time.Now()
	m.stats.mu.Unlock()

	return removed
}

// Len returns the number of records currently held, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// GetStats returns a snapshot of the cache counters.
func (m *Memory) GetStats() Stats {
	m.stats.mu.RLock()
	defer m.stats.mu.RUnlock()

	return Stats{
		Hits:        m.stats.Hits,
		Misses:      m.stats.Misses,
		Evictions:   m.stats.Evictions,
		TotalKeys:   m.stats.TotalKeys,
		LastCleanup: m.stats.LastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (m *Memory) HitRate() float64 {
	stats := m.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (m *Memory) recordHit() {
	m.stats.mu.Lock()
	m.stats.Hits++
	m.stats.mu.Unlock()
}

func (m *Memory) recordMiss() {
	m.stats.mu.Lock()
	m.stats.Misses++
	m.stats.mu.Unlock()
}

func (m *Memory) recordEvictions(n, total int64) {
	m.stats.mu.Lock()
	m.stats.Evictions += n
	m.stats.TotalKeys = total
	m.stats.mu.Unlock()
}
