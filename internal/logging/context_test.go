// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q, want empty", got)
	}

	id := NewRequestID()
	if id == "" {
		t.Fatal("NewRequestID() returned empty string")
	}

	ctx = ContextWithRequestID(ctx, id)
	if got := RequestIDFromContext(ctx); got != id {
		t.Errorf("RequestIDFromContext() = %q, want %q", got, id)
	}
}

func TestNewRequestIDUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRequestID()
		if seen[id] {
			t.Fatalf("duplicate request ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestLoggerFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	scoped := NewTestLogger(&buf).With().Str("request_id", "abc-123").Logger()

	ctx := ContextWithLogger(context.Background(), scoped)
	got := FromContext(ctx)
	got.Info().Msg("scoped line")

	if !strings.Contains(buf.String(), `"request_id":"abc-123"`) {
		t.Errorf("scoped logger not returned from context, got: %s", buf.String())
	}
}

func TestLoggerFromContextFallback(t *testing.T) {
	t.Parallel()

	// No logger stored: must not panic, must return a usable logger.
	logger := FromContext(context.Background())
	logger.Debug().Msg("fallback")
}
