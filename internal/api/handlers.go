// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"context"
	"time"

	"github.com/tomtom215/criticus/internal/cache"
	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/events"
	"github.com/tomtom215/criticus/internal/models"
	"github.com/tomtom215/criticus/internal/recommend"
	"github.com/tomtom215/criticus/internal/scheduler"
	"github.com/tomtom215/criticus/internal/similarity"
)

// RecommendationSource serves per-user recommendation lists.
// Implemented by recommend.Engine.
type RecommendationSource interface {
	GetRecommendations(ctx context.Context, userID int64, p recommend.Params) (*models.RecommendationsResponse, error)
}

// PopularityLister serves the non-personalized popularity ranking.
// Implemented by recommend.Popularity.
type PopularityLister interface {
	Top(ctx context.Context, limit int) ([]models.PopularItem, error)
}

// RatingReader serves per-user rating data. Implemented by
// ratingstore.BreakerStore so profile and history reads share the
// circuit breaker with the batch read path.
type RatingReader interface {
	ListRatingsForUser(ctx context.Context, userID int64) ([]models.Rating, error)
	UserProfile(ctx context.Context, userID int64) (*models.UserProfileResponse, error)
}

// RatingWriter persists rating mutations. Implemented by the plain
// ratingstore.Store: writes bypass the circuit breaker because the
// submission path is low-volume and a failed write must surface to the
// client rather than trip reads into fallback.
type RatingWriter interface {
	UpsertRating(ctx context.Context, r models.Rating) error
	DeleteRating(ctx context.Context, userID, itemID int64) error
}

// StorePinger reports rating store connectivity for health checks.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// JobController exposes the background job scheduler to the API.
// Implemented by scheduler.Scheduler.
type JobController interface {
	Trigger(name string) (models.JobRun, error)
	Jobs() []scheduler.JobStatus
	Runs(name string, limit int) []models.JobRun
}

// EventPublisher publishes rating change events to the internal bus.
// Implemented by events.Bus.
type EventPublisher interface {
	PublishRatingChanged(ctx context.Context, ev *events.RatingChanged) error
}

// Deps bundles the collaborators a Handler needs. Every field is an
// interface or an in-process component cheap to construct, so tests
// assemble a Deps from fakes without touching DuckDB or Badger.
type Deps struct {
	Recommender RecommendationSource
	Popularity  PopularityLister
	Ratings     RatingReader
	Writer      RatingWriter
	Pinger      StorePinger
	Cache       *cache.Store
	Snapshots   *similarity.Holder
	Jobs        JobController
	Bus         EventPublisher
}

// Handler contains dependencies for the API handlers.
//
// Handler methods are split across files by endpoint group:
//   - handlers.go: Handler struct, dependency interfaces, constructor
//   - helpers.go: response envelope and parameter helpers
//   - handlers_recommend.go: recommendation and popularity endpoints
//   - handlers_ratings.go: rating submission, history, profile, hook
//   - handlers_jobs.go: scheduler inspection and trigger endpoints
//   - handlers_health.go: liveness, readiness, aggregate health
type Handler struct {
	cfg       *config.Config
	deps      Deps
	startTime time.Time
}

// NewHandler creates an API handler over the given dependencies.
func NewHandler(cfg *config.Config, deps Deps) *Handler {
	return &Handler{
		cfg:       cfg,
		deps:      deps,
		startTime: time.Now(),
	}
}
