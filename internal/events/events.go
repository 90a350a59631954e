// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package events

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version. Increment on
// breaking changes to RatingChanged.
const SchemaVersion = 1

// TopicRatingsChanged carries one message per accepted rating write.
const TopicRatingsChanged = "ratings.changed"

// RatingChanged is published after a rating has been stored and the
// user's cached recommendations invalidated.
type RatingChanged struct {
	SchemaVersion int    `json:"schema_version"`
	EventID       string `json:"event_id"`

	UserID int64   `json:"user_id"`
	ItemID int64   `json:"item_id"`
	Score  float64 `json:"score"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewRatingChanged creates an event with a unique ID and UTC timestamp.
func NewRatingChanged(userID, itemID int64, score float64) *RatingChanged {
	return &RatingChanged{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		ItemID:        itemID,
		Score:         score,
		OccurredAt:    time.Now().UTC(),
	}
}

// Validate checks the fields consumers depend on.
func (e *RatingChanged) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "must be positive"}
	}
	if e.ItemID <= 0 {
		return &ValidationError{Field: "item_id", Message: "must be positive"}
	}
	return nil
}

// ValidationError reports one invalid event field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
