// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package cache

import (
	"fmt"
	"time"

	"github.com/tomtom215/criticus/internal/models"
)

// Record is one cached recommendation batch. It carries the full ranked
// list plus the generation metadata needed to answer a request without
// touching the engine.
type Record struct {
	CacheKey         string                      `json:"cache_key"`
	UserID           int64                       `json:"user_id"`
	Items            []models.RecommendationItem `json:"items"`
	ColdStart        bool                        `json:"cold_start"`
	BatchID          string                      `json:"batch_id"`
	AlgorithmVersion int                         `json:"algorithm_version"`
	NeighborCount    int                         `json:"neighbor_count"`
	GenerationTime   time.Duration               `json:"generation_time"`
	GeneratedAt      time.Time                   `json:"generated_at"`
	ExpiresAt        time.Time                   `json:"expires_at"`
}

// Expired reports whether the record's TTL has passed.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Key builds the cache key for a user and generation parameters. The
// parameters are part of the key so requests with different shapes never
// collide.
func Key(userID int64, topN int, excludeRated bool) string {
	return fmt.Sprintf("rec:%d:%d:%t", userID, topN, excludeRated)
}

// userPrefix is the common prefix of every key belonging to one user.
func userPrefix(userID int64) string {
	return fmt.Sprintf("rec:%d:", userID)
}
