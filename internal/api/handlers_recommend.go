// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/criticus/internal/models"
	"github.com/tomtom215/criticus/internal/recommend"
)

// Recommendations returns the ranked recommendation list for one user.
//
// Method: GET
// Path: /api/v1/users/{id}/recommendations
//
// Query parameters:
//   - limit: maximum items returned (default and cap from config)
//   - exclude_rated: drop items the user already rated (default true)
//
// Response:
//   - 200: list retrieved; cold-start users get an empty list with
//     cold_start true and the popularity fallback marker
//   - 400: user id or parameters invalid
//   - 503: generation timed out and no stale entry was available
//   - 500: unexpected failure
//
// Metadata reports whether the payload came from cache and whether it is
// stale (served past its TTL because fresh generation timed out).
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "User id must be a positive integer", nil)
		return
	}

	params := recommend.Params{
		TopN:         getIntParam(r, "limit", 0),
		ExcludeRated: getBoolParam(r, "exclude_rated", true),
	}

	start := time.Now()
	resp, err := h.deps.Recommender.GetRecommendations(r.Context(), userID, params)
	if err != nil {
		if errors.Is(err, recommend.ErrUnavailable) {
			respondError(w, r, http.StatusServiceUnavailable, "TEMPORARILY_UNAVAILABLE",
				"Recommendations temporarily unavailable, retry shortly", err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to generate recommendations", err)
		return
	}

	meta := metadata(r)
	meta.QueryTimeMS = time.Since(start).Milliseconds()
	// A payload generated before this request arrived was a cache hit.
	meta.Cached = resp.GeneratedAt.Before(start)
	meta.Stale = resp.Stale

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     resp,
		Metadata: meta,
	})
}

// Popular returns the globally popular items ranked by damped mean score.
//
// Method: GET
// Path: /api/v1/items/popular
//
// Query parameters:
//   - limit: maximum items returned (default and cap from config)
//
// Response:
//   - 200: ranking retrieved
//   - 503: rating store circuit breaker is open
//   - 500: query failure
//
// The ranking is identical for every caller, so unlike the personalized
// endpoints it is served with a short public cache policy.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	items, err := h.deps.Popularity.Top(r.Context(), getIntParam(r, "limit", 0))
	if err != nil {
		if isBreakerOpen(err) {
			respondError(w, r, http.StatusServiceUnavailable, "TEMPORARILY_UNAVAILABLE",
				"Rating store temporarily unavailable", err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to list popular items", err)
		return
	}

	meta := metadata(r)
	meta.QueryTimeMS = time.Since(start).Milliseconds()

	w.Header().Set("Cache-Control", "public, max-age=60")
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"items": items,
			"count": len(items),
		},
		Metadata: meta,
	})
}

// isBreakerOpen reports whether err is the rating store circuit breaker
// rejecting calls rather than a real query failure.
func isBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
