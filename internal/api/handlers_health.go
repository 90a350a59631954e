// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/criticus/internal/models"
	"github.com/tomtom215/criticus/internal/similarity"
)

// Version is reported by the health endpoint. Overridden at build time
// via -ldflags "-X github.com/tomtom215/criticus/internal/api.Version=...".
var Version = "dev"

// Health returns the aggregate health payload: rating store
// connectivity, similarity snapshot version and age, cache counters,
// and process uptime.
//
// Method: GET
// Path: /api/v1/health
//
// Response:
//   - 200: always; the payload's status field says "healthy" or
//     "degraded". A degraded process still serves recommendations from
//     stale cache entries and cold-start fallbacks.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.deps.Pinger != nil && h.deps.Pinger.Ping(r.Context()) == nil

	health := models.HealthStatus{
		Status:            "healthy",
		Version:           Version,
		DatabaseConnected: dbConnected,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	if !dbConnected {
		health.Status = "degraded"
	}

	var snap *similarity.Snapshot
	if h.deps.Snapshots != nil {
		snap = h.deps.Snapshots.Current()
	}
	if snap != nil {
		age := time.Since(snap.ComputedAt).Seconds()
		computedAt := snap.ComputedAt

		health.SnapshotVersion = snap.Version
		health.SnapshotAge = &age
		health.LastRefreshTime = &computedAt
		health.SnapshotStale = time.Since(snap.ComputedAt) > h.cfg.Similarity.StalenessWindow
		if health.SnapshotStale {
			health.Status = "degraded"
		}
	} else {
		// No snapshot yet. Every user is in cold start until the first
		// similarity refresh lands.
		health.SnapshotStale = true
		health.Status = "degraded"
	}

	if h.deps.Cache != nil {
		stats := h.deps.Cache.Stats()
		health.CacheEntries = stats.TotalKeys
		health.CacheHitRate = h.deps.Cache.HitRate()
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     health,
		Metadata: metadata(r),
	})
}

// HealthLive is the liveness probe. It answers 200 whenever the process
// can serve HTTP, regardless of dependency state.
//
// Method: GET
// Path: /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":          true,
			"uptime_seconds": time.Since(h.startTime).Seconds(),
		},
		Metadata: metadata(r),
	})
}

// HealthReady is the readiness probe. It answers 200 only when the
// rating store responds to pings; a process that cannot reach its store
// should be rotated out of traffic even though cached recommendations
// would still serve.
//
// Method: GET
// Path: /api/v1/health/ready
//
// Response:
//   - 200: ready
//   - 503: rating store unreachable
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.deps.Pinger != nil && h.deps.Pinger.Ping(r.Context()) == nil

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status": status,
			"ready":  ready,
		},
		Metadata: metadata(r),
	})
}
