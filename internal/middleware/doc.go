// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

/*
Package middleware provides HTTP middleware for request tracking,
structured request logging, and Prometheus instrumentation.

All middleware follows the Chi convention func(http.Handler) http.Handler
so it composes with r.Use() and with the stock chi middleware (RealIP,
Recoverer, Compress, Timeout).

Key Components:

  - RequestID: X-Request-ID propagation plus a request-scoped zerolog
    logger in the context
  - RequestLogger: one structured completion line per request
  - Metrics: Prometheus request counters and latency histograms keyed by
    the matched route pattern

Middleware Stack:

The router applies the stack in this order:

	r.Use(middleware.RequestID())   // tracing context first
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)                     // global, handles OPTIONS preflight
	// per route group:
	r.Use(rateLimit)
	r.Use(middleware.Metrics())
	r.Use(middleware.RequestLogger())

RequestID runs first so every later layer, including panic recovery
logging, sees the request id. Metrics runs inside the route group so the
matched chi pattern (for example /api/v1/users/{id}/recommendations) is
available as a bounded-cardinality endpoint label.
*/
package middleware
