// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package recommend

import (
	"context"
	"fmt"

	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/models"
)

// FallbackPopular names the non-personalized surface cold-start responses
// point callers at.
const FallbackPopular = "popular"

// PopularitySource provides the damped-mean popularity ranking.
type PopularitySource interface {
	TopByPopularity(ctx context.Context, limit int, priorWeight float64, minRatings int) ([]models.PopularItem, error)
}

// Popularity serves the non-personalized ranked item list. It is the
// documented fallback for cold-start users; choosing to fall back stays
// with the caller.
type Popularity struct {
	cfg    config.PopularityConfig
	limits config.RecommendConfig
	src    PopularitySource
}

// NewPopularity creates the popularity provider. The limit defaults and
// cap are shared with the recommendation read path.
func NewPopularity(cfg config.PopularityConfig, limits config.RecommendConfig, src PopularitySource) *Popularity {
	if cfg.PriorWeight <= 0 {
		cfg.PriorWeight = 10
	}
	if cfg.MinRatings <= 0 {
		cfg.MinRatings = 3
	}
	return &Popularity{cfg: cfg, limits: limits, src: src}
}

// Top returns up to limit items ranked by damped mean score. A limit of
// zero or less falls back to the default list size; oversized limits
// clamp to the maximum.
func (p *Popularity) Top(ctx context.Context, limit int) ([]models.PopularItem, error) {
	if limit <= 0 {
		limit = p.limits.DefaultLimit
	}
	if p.limits.MaxLimit > 0 && limit > p.limits.MaxLimit {
		limit = p.limits.MaxLimit
	}

	items, err := p.src.TopByPopularity(ctx, limit, p.cfg.PriorWeight, p.cfg.MinRatings)
	if err != nil {
		return nil, fmt.Errorf("list popular items: %w", err)
	}
	if items == nil {
		items = []models.PopularItem{}
	}
	return items, nil
}
