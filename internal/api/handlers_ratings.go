// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/criticus/internal/events"
	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/models"
)

// ratingPayload is the request body shared by the submission endpoint
// and the change-notification hook.
type ratingPayload struct {
	ItemID int64   `json:"item_id" validate:"required,gt=0"`
	Score  float64 `json:"score" validate:"score"`
}

// onRatingChanged runs the shared invalidation path for every rating
// mutation. The user's cached recommendations are dropped before the
// change event goes out, so a recommendation request arriving right
// after this returns never sees the pre-change payload. Publish failures
// are logged and swallowed: the cache is already invalidated and the
// similarity refresher's watermark re-reads the store on its next run.
func (h *Handler) onRatingChanged(ctx context.Context, ev *events.RatingChanged) int {
	invalidated := h.deps.Cache.Invalidate(ev.UserID)

	if h.deps.Bus != nil {
		if err := h.deps.Bus.PublishRatingChanged(ctx, ev); err != nil {
			logging.Warn().Err(err).
				Int64("user_id", ev.UserID).
				Int64("item_id", ev.ItemID).
				Msg("Failed to publish rating change event")
		}
	}

	return invalidated
}

// SubmitRating stores or updates one rating for a user.
//
// Method: POST
// Path: /api/v1/users/{id}/ratings
//
// Body: {"item_id": 42, "score": 85}
//
// Response:
//   - 200: rating stored, cached recommendations invalidated
//   - 400: invalid user id, body, or score outside [0, 100]
//   - 500: store write failed
//
// Resubmitting the same (user, item) pair overwrites the previous score.
func (h *Handler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "User id must be a positive integer", nil)
		return
	}

	var body ratingPayload
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be valid JSON", err)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	rating := models.Rating{
		UserID:  userID,
		ItemID:  body.ItemID,
		Score:   body.Score,
		RatedAt: time.Now().UTC(),
	}
	if err := h.deps.Writer.UpsertRating(r.Context(), rating); err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store rating", err)
		return
	}

	invalidated := h.onRatingChanged(r.Context(), events.NewRatingChanged(userID, body.ItemID, body.Score))

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"rating":              rating,
			"invalidated_entries": invalidated,
		},
		Metadata: metadata(r),
	})
}

// DeleteRating removes one rating. Deleting a rating the user never
// submitted succeeds without effect.
//
// Method: DELETE
// Path: /api/v1/users/{id}/ratings/{itemID}
//
// Response:
//   - 200: rating removed, cached recommendations invalidated
//   - 400: invalid user or item id
//   - 500: store write failed
func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "User id must be a positive integer", nil)
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Item id must be a positive integer", nil)
		return
	}

	if err := h.deps.Writer.DeleteRating(r.Context(), userID, itemID); err != nil {
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete rating", err)
		return
	}

	invalidated := h.onRatingChanged(r.Context(), events.NewRatingChanged(userID, itemID, 0))

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"deleted":             true,
			"invalidated_entries": invalidated,
		},
		Metadata: metadata(r),
	})
}

// RatingChanged is the notification hook for external systems that write
// ratings through their own channel. It does not store anything: it runs
// the same invalidate-and-publish path as the submission endpoints so
// cached recommendations drop immediately and the similarity refresher
// marks the user dirty.
//
// Method: POST
// Path: /api/v1/users/{id}/ratings-changed
//
// Body: {"item_id": 42, "score": 85}
//
// Response:
//   - 200: invalidation completed
//   - 400: invalid user id or body
func (h *Handler) RatingChanged(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "User id must be a positive integer", nil)
		return
	}

	var body ratingPayload
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be valid JSON", err)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	invalidated := h.onRatingChanged(r.Context(), events.NewRatingChanged(userID, body.ItemID, body.Score))

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"invalidated_entries": invalidated,
		},
		Metadata: metadata(r),
	})
}

// RatingHistory returns every rating a user has submitted, newest first.
//
// Method: GET
// Path: /api/v1/users/{id}/ratings
//
// Response:
//   - 200: history retrieved (empty list for unknown users)
//   - 400: invalid user id
//   - 503: rating store circuit breaker is open
//   - 500: query failure
func (h *Handler) RatingHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "User id must be a positive integer", nil)
		return
	}

	start := time.Now()
	ratings, err := h.deps.Ratings.ListRatingsForUser(r.Context(), userID)
	if err != nil {
		if isBreakerOpen(err) {
			respondError(w, r, http.StatusServiceUnavailable, "TEMPORARILY_UNAVAILABLE",
				"Rating store temporarily unavailable", err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list ratings", err)
		return
	}

	meta := metadata(r)
	meta.QueryTimeMS = time.Since(start).Milliseconds()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"user_id": userID,
			"ratings": ratings,
			"count":   len(ratings),
		},
		Metadata: meta,
	})
}

// UserProfile returns aggregate rating statistics for one user: count,
// mean, standard deviation, and the per-tier score distribution. Users
// with no ratings get a zero-count profile, not an error.
//
// Method: GET
// Path: /api/v1/users/{id}/profile
//
// Response:
//   - 200: profile retrieved
//   - 400: invalid user id
//   - 503: rating store circuit breaker is open
//   - 500: query failure
func (h *Handler) UserProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "User id must be a positive integer", nil)
		return
	}

	start := time.Now()
	profile, err := h.deps.Ratings.UserProfile(r.Context(), userID)
	if err != nil {
		if isBreakerOpen(err) {
			respondError(w, r, http.StatusServiceUnavailable, "TEMPORARILY_UNAVAILABLE",
				"Rating store temporarily unavailable", err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user profile", err)
		return
	}

	meta := metadata(r)
	meta.QueryTimeMS = time.Since(start).Milliseconds()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     profile,
		Metadata: meta,
	})
}
