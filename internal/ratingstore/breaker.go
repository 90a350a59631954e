// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package ratingstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/metrics"
	"github.com/tomtom215/criticus/internal/models"
)

// BreakerStore wraps the rating store read path with a circuit breaker.
// A wedged or corrupted database file surfaces as repeated query failures;
// the breaker fails those reads fast so recommendation requests fall back
// to cached results instead of queueing behind a dead store.
//
// Writes are not wrapped. The ingestion path is low-volume and its errors
// are reported to the caller directly.
type BreakerStore struct {
	store *Store
	cb    *gobreaker.CircuitBreaker[interface{}]
	name  string
}

// NewBreakerStore creates a circuit-breaker wrapped view of the store.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewBreakerStore(store *Store) *BreakerStore {
	cbName := "rating-store"

	metrics.BreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		// Opens when failure rate >= 60% with minimum 10 requests
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.BreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerStore{
		store: store,
		cb:    cb,
		name:  cbName,
	}
}

// execute wraps a store read with circuit breaker protection.
func (b *BreakerStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.BreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Read rejected")
		} else {
			metrics.BreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.BreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ListRatings lists ratings changed after since with circuit breaker protection.
func (b *BreakerStore) ListRatings(ctx context.Context, since time.Time) ([]models.Rating, error) {
	return castResult[[]models.Rating](b.execute(func() (interface{}, error) {
		return b.store.ListRatings(ctx, since)
	}))
}

// ListRatingsForUser lists one user's ratings with circuit breaker protection.
func (b *BreakerStore) ListRatingsForUser(ctx context.Context, userID int64) ([]models.Rating, error) {
	return castResult[[]models.Rating](b.execute(func() (interface{}, error) {
		return b.store.ListRatingsForUser(ctx, userID)
	}))
}

// UserProfile returns one user's profile with circuit breaker protection.
func (b *BreakerStore) UserProfile(ctx context.Context, userID int64) (*models.UserProfileResponse, error) {
	return castResult[*models.UserProfileResponse](b.execute(func() (interface{}, error) {
		return b.store.UserProfile(ctx, userID)
	}))
}

// TopByPopularity returns the popularity ranking with circuit breaker protection.
func (b *BreakerStore) TopByPopularity(ctx context.Context, limit int, priorWeight float64, minRatings int) ([]models.PopularItem, error) {
	return castResult[[]models.PopularItem](b.execute(func() (interface{}, error) {
		return b.store.TopByPopularity(ctx, limit, priorWeight, minRatings)
	}))
}

// CorpusStats returns corpus counts with circuit breaker protection.
func (b *BreakerStore) CorpusStats(ctx context.Context) (*models.CorpusStats, error) {
	return castResult[*models.CorpusStats](b.execute(func() (interface{}, error) {
		return b.store.CorpusStats(ctx)
	}))
}
