// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package recommend

import (
	"errors"
	"time"

	"github.com/tomtom215/criticus/internal/models"
)

// ErrUnavailable is returned when generation failed and no stale record
// exists to fall back on. The API layer maps it to 503.
var ErrUnavailable = errors.New("recommendations temporarily unavailable")

// Params shape one recommendation request. They are part of the cache key.
type Params struct {
	// TopN is the maximum number of items returned. Zero means the
	// configured default.
	TopN int

	// ExcludeRated drops items the target user has already rated.
	ExcludeRated bool
}

// Batch is one generated recommendation list with its provenance.
type Batch struct {
	BatchID string
	UserID  int64
	Items   []models.RecommendationItem

	// ColdStart marks a user with no ratings or no usable neighbors.
	// The batch is empty and cacheable; a later rating invalidates it.
	ColdStart bool

	// AlgorithmVersion is the version of the similarity snapshot the
	// batch was scored against. Zero for cold-start batches generated
	// without a snapshot.
	AlgorithmVersion int

	// NeighborCount is the number of neighbors consulted.
	NeighborCount int

	GenerationTime time.Duration
	GeneratedAt    time.Time
}
