// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

/*
Package api implements the HTTP surface of the recommendation engine
using the Chi router.

The package wires four endpoint groups onto one router:

  - Recommendations: per-user ranked item lists with cold-start and
    stale-fallback semantics, plus the non-personalized popularity list
  - Ratings: the submission surface and the change-notification hook,
    both of which invalidate the user's cached recommendations before
    the change event is published
  - Jobs: background job inspection and manual triggering
  - Health: liveness, readiness, and an aggregate status payload

Endpoints:

	GET    /api/v1/users/{id}/recommendations
	GET    /api/v1/users/{id}/profile
	GET    /api/v1/users/{id}/ratings
	POST   /api/v1/users/{id}/ratings
	DELETE /api/v1/users/{id}/ratings/{itemID}
	POST   /api/v1/users/{id}/ratings-changed
	GET    /api/v1/items/popular
	GET    /api/v1/jobs
	GET    /api/v1/jobs/{name}/runs
	POST   /api/v1/jobs/{name}/trigger
	GET    /api/v1/health
	GET    /api/v1/health/live
	GET    /api/v1/health/ready
	GET    /metrics

Response Envelope:

Every JSON endpoint wraps its payload in models.APIResponse:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "...", "request_id": "...", "query_time_ms": 3}
	}

Errors use the same envelope with status "error" and a structured
models.APIError carrying a stable machine-readable code:

	{
	  "status": "error",
	  "data": null,
	  "metadata": {"timestamp": "...", "request_id": "..."},
	  "error": {"code": "TEMPORARILY_UNAVAILABLE", "message": "..."}
	}

Dependencies are injected through narrow interfaces declared in this
package (see Deps), so handler tests run against small fakes instead of
a live DuckDB instance or scheduler.

Middleware:

The router composes go-chi/cors for CORS, go-chi/httprate for per-IP
rate limiting, and the internal middleware package for request ids,
request logging, and Prometheus instrumentation. Rate-limited requests
receive the standard error envelope with code RATE_LIMIT_EXCEEDED.
*/
package api
