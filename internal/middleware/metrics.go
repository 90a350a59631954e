// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/criticus/internal/metrics"
)

// Metrics returns a middleware that records a Prometheus counter and
// latency observation for every request. The endpoint label is the chi
// route pattern, not the raw URL path, so /api/v1/users/42/recommendations
// and /api/v1/users/7/recommendations share one series instead of minting
// a series per user id.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			metrics.RecordHTTPRequest(
				r.Method,
				endpointLabel(r),
				strconv.Itoa(ww.Status()),
				time.Since(start),
			)
		})
	}
}

// endpointLabel resolves the matched route pattern after the handler ran.
// Unmatched requests (404s from the router itself) fall back to a single
// shared label rather than echoing arbitrary client paths into the metric.
func endpointLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
