// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package events

import (
	"testing"
)

func TestNewRatingChanged(t *testing.T) {
	ev := NewRatingChanged(7, 42, 85)

	if ev.EventID == "" {
		t.Error("Expected EventID to be set")
	}
	if ev.SchemaVersion != SchemaVersion {
		t.Errorf("Expected SchemaVersion=%d, got %d", SchemaVersion, ev.SchemaVersion)
	}
	if ev.UserID != 7 || ev.ItemID != 42 || ev.Score != 85 {
		t.Errorf("Expected user=7 item=42 score=85, got user=%d item=%d score=%v", ev.UserID, ev.ItemID, ev.Score)
	}
	if ev.OccurredAt.IsZero() {
		t.Error("Expected OccurredAt to be set")
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("Expected new event to validate, got %v", err)
	}
}

func TestRatingChanged_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   *RatingChanged
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid event",
			event:   &RatingChanged{EventID: "e-1", UserID: 1, ItemID: 2, Score: 50},
			wantErr: false,
		},
		{
			name:    "missing event_id",
			event:   &RatingChanged{UserID: 1, ItemID: 2},
			wantErr: true,
			errMsg:  "event_id: required",
		},
		{
			name:    "zero user_id",
			event:   &RatingChanged{EventID: "e-1", ItemID: 2},
			wantErr: true,
			errMsg:  "user_id: must be positive",
		},
		{
			name:    "negative item_id",
			event:   &RatingChanged{EventID: "e-1", UserID: 1, ItemID: -3},
			wantErr: true,
			errMsg:  "item_id: must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected validation error, got nil")
				}
				if err.Error() != tt.errMsg {
					t.Errorf("Expected error %q, got %q", tt.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}
