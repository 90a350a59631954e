// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package models defines the shared API response envelope and the wire shapes
// returned by the HTTP layer.
package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"items": [...], "cold_start": false},
//	  "metadata": {"timestamp": "2026-08-23T12:00:00Z", "request_id": "..."}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Stale       bool      `json:"stale,omitempty"`
}

// APIError is the structured error payload.
//
// Common codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - NOT_FOUND: resource doesn't exist
//   - METHOD_NOT_ALLOWED: endpoint exists but not for this HTTP method
//   - UNKNOWN_JOB: job name is not registered with the scheduler
//   - TEMPORARILY_UNAVAILABLE: generation timed out with no stale fallback
//   - INTERNAL_ERROR: unexpected failure
//   - RATE_LIMIT_EXCEEDED: too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the payload for the aggregate health endpoint.
//
// Status is "healthy" when the rating store answers pings and a similarity
// snapshot has been adopted, "degraded" otherwise. A degraded process keeps
// serving: recommendations fall back to stale cache entries or cold-start
// responses until the next refresh succeeds.
type HealthStatus struct {
	Status            string     `json:"status"`
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	SnapshotVersion   int        `json:"snapshot_version"`
	SnapshotAge       *float64   `json:"snapshot_age_seconds,omitempty"`
	SnapshotStale     bool       `json:"snapshot_stale"`
	LastRefreshTime   *time.Time `json:"last_refresh_time,omitempty"`
	CacheEntries      int64      `json:"cache_entries"`
	CacheHitRate      float64    `json:"cache_hit_rate"`
	Uptime            float64    `json:"uptime_seconds"`
}
