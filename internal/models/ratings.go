// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package models

import (
	"math"
	"time"
)

// ScoreMin and ScoreMax bound the accepted rating scale.
const (
	ScoreMin = 0.0
	ScoreMax = 100.0
)

// Rating is one user's score for one item on the 0-100 scale.
// The (UserID, ItemID) pair is unique; re-rating overwrites in place.
type Rating struct {
	UserID  int64     `json:"user_id"`
	ItemID  int64     `json:"item_id"`
	Score   float64   `json:"score"`
	RatedAt time.Time `json:"rated_at"`
}

// ValidScore reports whether s is a finite value inside the rating scale.
// Out-of-range or non-finite scores are excluded from computations and
// counted, never propagated.
func ValidScore(s float64) bool {
	if math.IsNaN(s) {
		return false
	}
	return s >= ScoreMin && s <= ScoreMax
}

// CorpusStats summarizes the rating corpus as a whole.
type CorpusStats struct {
	Ratings int64 `json:"ratings"`
	Users   int64 `json:"users"`
	Items   int64 `json:"items"`
}
