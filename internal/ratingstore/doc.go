// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package ratingstore provides read and write access to the rating
// corpus backed by an embedded DuckDB database.
//
// The store is the single owner of the ratings table. All analytical
// reads used by the similarity and recommendation layers go through
// this package so that query instrumentation and failure handling
// live in one place.
//
// Key features:
//   - Embedded DuckDB with configurable threads and memory limit
//   - Schema creation on open, idempotent across restarts
//   - Time-windowed listing for incremental similarity refreshes
//   - Per-user listing for on-demand recommendation generation
//   - Aggregated per-user profile statistics and damped popularity
//   - Optional circuit-breaker wrapper for the read path
//
// All queries are instrumented with Prometheus duration and error
// counters via the metrics package.
package ratingstore
