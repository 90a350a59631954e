// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/metrics"
	"github.com/tomtom215/criticus/internal/models"
	"github.com/tomtom215/criticus/internal/similarity"
)

// RatingSource provides per-user ratings for scoring. Implemented by the
// rating store's circuit-breaker wrapper.
type RatingSource interface {
	ListRatingsForUser(ctx context.Context, userID int64) ([]models.Rating, error)
}

// Generator scores items for one user against a similarity snapshot. It
// holds no mutable state; every call re-derives from current inputs.
type Generator struct {
	cfg     config.RecommendConfig
	ratings RatingSource
}

// NewGenerator creates a generator.
func NewGenerator(cfg config.RecommendConfig, ratings RatingSource) *Generator {
	if cfg.NeighborCap <= 0 {
		cfg.NeighborCap = 20
	}
	if cfg.MinScoringNeighbors <= 0 {
		cfg.MinScoringNeighbors = 1
	}
	return &Generator{cfg: cfg, ratings: ratings}
}

// itemAccum collects the weighted-mean terms for one candidate item.
type itemAccum struct {
	num     float64
	den     float64
	support int
}

// Generate builds the recommendation batch for userID. A nil snapshot, a
// target with no ratings, or a target with no neighbors all produce an
// empty cold-start batch, not an error.
//
// Scoring: for each item rated by a selected neighbor,
// predicted = sum(coef*score) / sum(|coef|). Negative coefficients
// subtract. Items no neighbor rated are absent, not zero.
func (g *Generator) Generate(ctx context.Context, userID int64, snap *similarity.Snapshot, p Params) (*Batch, error) {
	start := time.Now()

	target, err := g.ratings.ListRatingsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list target ratings: %w", err)
	}
	if len(target) == 0 || snap == nil {
		return g.coldStart(userID, start), nil
	}

	neighbors := snap.Neighbors(userID)
	if len(neighbors) > g.cfg.NeighborCap {
		neighbors = neighbors[:g.cfg.NeighborCap]
	}
	if len(neighbors) == 0 {
		return g.coldStart(userID, start), nil
	}

	rated := make(map[int64]struct{}, len(target))
	for _, rt := range target {
		rated[rt.ItemID] = struct{}{}
	}

	acc := make(map[int64]*itemAccum)
	for _, nb := range neighbors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		nbRatings, err := g.ratings.ListRatingsForUser(ctx, nb.UserID)
		if err != nil {
			return nil, fmt.Errorf("list neighbor ratings: %w", err)
		}

		for _, rt := range nbRatings {
			if !models.ValidScore(rt.Score) {
				metrics.MalformedRatings.Inc()
				logging.Warn().
					Int64("user_id", rt.UserID).
					Int64("item_id", rt.ItemID).
					Float64("score", rt.Score).
					Msg("Excluding malformed rating from scoring")
				continue
			}
			if p.ExcludeRated {
				if _, ok := rated[rt.ItemID]; ok {
					continue
				}
			}

			a := acc[rt.ItemID]
			if a == nil {
				a = &itemAccum{}
				acc[rt.ItemID] = a
			}
			a.num += nb.Coef * rt.Score
			a.den += math.Abs(nb.Coef)
			a.support++
		}
	}

	items := make([]models.RecommendationItem, 0, len(acc))
	for itemID, a := range acc {
		if a.support < g.cfg.MinScoringNeighbors || a.den == 0 {
			continue
		}
		items = append(items, models.RecommendationItem{
			ItemID:         itemID,
			PredictedScore: a.num / a.den,
		})
	}

	// Ties break on item ID, so identical inputs produce identical order.
	sort.Slice(items, func(i, j int) bool {
		if items[i].PredictedScore != items[j].PredictedScore {
			return items[i].PredictedScore > items[j].PredictedScore
		}
		return items[i].ItemID < items[j].ItemID
	})

	if len(items) > p.TopN {
		items = items[:p.TopN]
	}
	for i := range items {
		items[i].Rank = i + 1
	}

	elapsed := time.Since(start)
	metrics.GenerationDuration.Observe(elapsed.Seconds())

	return &Batch{
		BatchID:          uuid.New().String(),
		UserID:           userID,
		Items:            items,
		AlgorithmVersion: snap.Version,
		NeighborCount:    len(neighbors),
		GenerationTime:   elapsed,
		GeneratedAt:      start,
	}, nil
}

// coldStart builds the empty batch for a user without usable signal.
func (g *Generator) coldStart(userID int64, start time.Time) *Batch {
	return &Batch{
		BatchID:        uuid.New().String(),
		UserID:         userID,
		Items:          []models.RecommendationItem{},
		ColdStart:      true,
		GenerationTime: time.Since(start),
		GeneratedAt:    start,
	}
}
