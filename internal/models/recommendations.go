// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package models

import (
	"time"
)

// RecommendationItem is one ranked entry in a recommendations response.
type RecommendationItem struct {
	ItemID         int64   `json:"item_id"`
	PredictedScore float64 `json:"predicted_score"`
	Rank           int     `json:"rank"`
}

// RecommendationsResponse is the payload of the recommendations read path.
// ColdStart is set when the user has no usable rating signal; Fallback then
// names the non-personalized surface the caller can use instead. Stale is
// set when an expired record was served because fresh generation could not
// complete in time.
type RecommendationsResponse struct {
	UserID      int64                `json:"user_id"`
	Items       []RecommendationItem `json:"items"`
	ColdStart   bool                 `json:"cold_start"`
	Stale       bool                 `json:"stale,omitempty"`
	Fallback    string               `json:"fallback,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
	BatchID     string               `json:"batch_id,omitempty"`
}

// UserProfileResponse is the payload of the user profile endpoint.
type UserProfileResponse struct {
	UserID      int64     `json:"user_id"`
	RatingCount int       `json:"rating_count"`
	MeanScore   float64   `json:"mean_score"`
	ScoreStddev float64   `json:"score_stddev"`
	TierCounts  [5]int    `json:"tier_counts"`
	ComputedAt  time.Time `json:"computed_at"`
}

// PopularItem is one entry in the non-personalized popularity list.
type PopularItem struct {
	ItemID        int64   `json:"item_id"`
	RatingCount   int     `json:"rating_count"`
	MeanScore     float64 `json:"mean_score"`
	WeightedScore float64 `json:"weighted_score"`
}

// JobRun is the wire shape of one scheduler run record.
type JobRun struct {
	RunID      string    `json:"run_id"`
	JobName    string    `json:"job_name"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}
