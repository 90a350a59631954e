// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/criticus/internal/config"
)

// healthRateLimit is the per-IP budget for the health endpoints.
// Permissive enough for aggressive monitoring intervals while still
// bounding abuse.
const healthRateLimit = 1000

// MiddlewareConfig holds configuration for the middleware factories.
type MiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	// Rate limiting configuration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultMiddlewareConfig returns a secure default configuration. CORS
// origins default to empty, requiring explicit configuration, which
// prevents accidental deployment with wildcard CORS.
func DefaultMiddlewareConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		CORSAllowedOrigins:   []string{},
		CORSAllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,

		RateLimitRequests: 300,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: false,
	}
}

// Middleware provides the router's CORS and rate limiting factories,
// built on the go-chi/cors and go-chi/httprate implementations.
type Middleware struct {
	config *MiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewMiddleware creates a middleware factory with the given
// configuration. A nil config uses the defaults.
func NewMiddleware(config *MiddlewareConfig) *Middleware {
	if config == nil {
		config = DefaultMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})

	return &Middleware{
		config: config,
		cors:   corsHandler,
	}
}

// NewMiddlewareFromConfig bridges the application config to the
// middleware factory.
func NewMiddlewareFromConfig(apiCfg config.APIConfig) *Middleware {
	cfg := DefaultMiddlewareConfig()
	cfg.CORSAllowedOrigins = apiCfg.CORSOrigins
	if apiCfg.RateLimitRequests > 0 {
		cfg.RateLimitRequests = apiCfg.RateLimitRequests
	}
	if apiCfg.RateLimitWindow > 0 {
		cfg.RateLimitWindow = apiCfg.RateLimitWindow
	}
	cfg.RateLimitDisabled = apiCfg.RateLimitDisabled

	return NewMiddleware(cfg)
}

// CORS returns the CORS middleware. Applied globally so OPTIONS
// preflight requests are answered on every route.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the per-IP rate limiter for API endpoints. Limited
// requests receive the standard error envelope with code
// RATE_LIMIT_EXCEEDED rather than httprate's plain-text default.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return passthrough
	}

	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

// RateLimitHealth returns the permissive per-IP limiter for the health
// endpoints, allowing frequent probe traffic.
func (m *Middleware) RateLimitHealth() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return passthrough
	}

	return httprate.Limit(
		healthRateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

// passthrough is the no-op middleware used when rate limiting is
// disabled.
func passthrough(next http.Handler) http.Handler {
	return next
}

// rateLimitExceeded writes the standard error envelope for throttled
// requests.
func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
		"Too many requests, slow down", nil)
}
