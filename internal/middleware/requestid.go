// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package middleware

import (
	"net/http"

	"github.com/tomtom215/criticus/internal/logging"
)

// HeaderRequestID is the header used to propagate request ids across hops.
const HeaderRequestID = "X-Request-ID"

// RequestID returns a middleware that ensures every request carries a
// request id. An id supplied by an upstream proxy via X-Request-ID is
// reused, otherwise a new one is generated. The id is echoed on the
// response header and stored in the request context together with a
// request-scoped logger, so handlers and later middleware log with the
// request_id field attached.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = logging.NewRequestID()
			}

			w.Header().Set(HeaderRequestID, requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithLogger(ctx, logging.With().Str("request_id", requestID).Logger())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
