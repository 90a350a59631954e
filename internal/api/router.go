// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/criticus/internal/middleware"
)

// Router assembles the HTTP routes over a Handler and the middleware
// factories.
type Router struct {
	handler *Handler
	mw      *Middleware
}

// NewRouter creates a router. A nil mw uses the default middleware
// configuration.
func NewRouter(handler *Handler, mw *Middleware) *Router {
	if mw == nil {
		mw = NewMiddleware(nil)
	}
	return &Router{handler: handler, mw: mw}
}

// Setup builds the chi route tree.
//
// Global middleware runs on every route: request id propagation first so
// panic recovery and all later layers log with the id attached, then
// real-IP resolution (rate limit keys depend on it), panic recovery,
// response compression, and CORS (global so OPTIONS preflight is
// answered everywhere).
//
// The /api/v1 group adds per-IP rate limiting, Prometheus
// instrumentation keyed by route pattern, request completion logging,
// and a request deadline. Health endpoints sit in their own group with a
// permissive rate limit and no request logging, keeping probe traffic
// out of the logs.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5, "application/json"))
	r.Use(router.mw.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.mw.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.mw.RateLimit())
		r.Use(middleware.Metrics())
		r.Use(middleware.RequestLogger())
		r.Use(chimiddleware.Timeout(router.requestTimeout()))

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/recommendations", router.handler.Recommendations)
			r.Get("/profile", router.handler.UserProfile)
			r.Get("/ratings", router.handler.RatingHistory)
			r.Post("/ratings", router.handler.SubmitRating)
			r.Delete("/ratings/{itemID}", router.handler.DeleteRating)
			r.Post("/ratings-changed", router.handler.RatingChanged)
		})

		r.Get("/items/popular", router.handler.Popular)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", router.handler.Jobs)
			r.Get("/{name}/runs", router.handler.JobRuns)
			r.Post("/{name}/trigger", router.handler.TriggerJob)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "No such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}

// requestTimeout resolves the per-request deadline, falling back to 10s
// when the config carries none.
func (router *Router) requestTimeout() time.Duration {
	if router.handler != nil && router.handler.cfg != nil && router.handler.cfg.API.RequestTimeout > 0 {
		return router.handler.cfg.API.RequestTimeout
	}
	return 10 * time.Second
}
