// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package metrics provides Prometheus instrumentation for the recommendation
// engine: similarity runs, on-demand generation, cache efficiency, scheduled
// jobs, rating-store queries and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Similarity Computation Metrics
	SimilarityRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "similarity_run_duration_seconds",
			Help:    "Duration of similarity matrix computations in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"}, // "full", "incremental"
	)

	SimilarityEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_edges",
			Help: "Number of edges in the active similarity snapshot",
		},
	)

	SimilarityUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_users",
			Help: "Number of users with at least one edge in the active snapshot",
		},
	)

	SimilaritySnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_snapshot_version",
			Help: "Version of the active similarity snapshot (increments on adoption)",
		},
	)

	SimilarityPairsCompared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_pairs_compared_total",
			Help: "Total number of user pairs evaluated across all runs",
		},
	)

	// Recommendation Generation Metrics
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_generation_duration_seconds",
			Help:    "Duration of per-user recommendation generation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_generations_total",
			Help: "Total number of recommendation generations by outcome",
		},
		[]string{"outcome"}, // "ok", "cold_start", "timeout", "error"
	)

	MalformedRatings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "malformed_ratings_total",
			Help: "Total number of ratings excluded for violating score bounds",
		},
	)

	// Recommendation Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	CacheStaleServes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_stale_serves_total",
			Help: "Total number of expired records served because regeneration timed out",
		},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_invalidations_total",
			Help: "Total number of cache invalidations",
		},
		[]string{"scope"}, // "user", "all", "purged"
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendation_cache_entries",
			Help: "Current number of in-memory cache records",
		},
	)

	// Scheduled Job Metrics
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Total number of scheduled job runs by outcome",
		},
		[]string{"job", "status"}, // status: "succeeded", "failed", "skipped"
	)

	JobRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_run_duration_seconds",
			Help:    "Duration of scheduled job runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"job"},
	)

	JobLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "job_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful run per job",
		},
		[]string{"job"},
	)

	// Rating Store Metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rating_store_query_duration_seconds",
			Help:    "Duration of rating store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_store_query_errors_total",
			Help: "Total number of rating store query errors",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breakers by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the in-process bus",
		},
		[]string{"topic"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_handled_total",
			Help: "Total number of events handled by subscribers",
		},
		[]string{"topic", "outcome"}, // "ok", "error"
	)

	// HTTP API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordStoreQuery records a rating store query duration and error outcome.
func RecordStoreQuery(operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordJobRun records one scheduled job run.
func RecordJobRun(job, status string, duration time.Duration) {
	JobRunsTotal.WithLabelValues(job, status).Inc()
	if status != "skipped" {
		JobRunDuration.WithLabelValues(job).Observe(duration.Seconds())
	}
	if status == "succeeded" {
		JobLastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
