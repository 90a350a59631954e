// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package similarity

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/metrics"
	"github.com/tomtom215/criticus/internal/models"
)

// Computer derives similarity edges from rating corpora.
type Computer struct {
	minCommonItems int
	shrinkage      float64
	workers        int
}

// NewComputer creates a computer from configuration, guarding against
// unusable values.
func NewComputer(cfg config.SimilarityConfig) *Computer {
	minCommon := cfg.MinCommonItems
	if minCommon < 2 {
		minCommon = 2
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	shrinkage := cfg.Shrinkage
	if shrinkage < 0 {
		shrinkage = 0
	}

	return &Computer{
		minCommonItems: minCommon,
		shrinkage:      shrinkage,
		workers:        workers,
	}
}

// Compute derives the full edge set for the corpus.
func (c *Computer) Compute(ctx context.Context, ratings []models.Rating) ([]Edge, error) {
	vecs := buildVectors(ratings)
	itemUsers := invertIndex(vecs)
	return c.pairEdges(ctx, vecs, itemUsers, sortedUserIDs(vecs), nil)
}

// ComputeIncremental recomputes every pair touching a dirty user against
// the full corpus and carries all other edges from prior forward. The
// touched portion of the result matches what Compute would produce over
// the same ratings.
func (c *Computer) ComputeIncremental(ctx context.Context, prior *Snapshot, ratings []models.Rating, dirty map[int64]struct{}) ([]Edge, error) {
	if prior == nil {
		return c.Compute(ctx, ratings)
	}
	if len(dirty) == 0 {
		return prior.Edges(), nil
	}

	vecs := buildVectors(ratings)
	itemUsers := invertIndex(vecs)

	outer := make([]int64, 0, len(dirty))
	for uid := range dirty {
		outer = append(outer, uid)
	}
	sort.Slice(outer, func(i, j int) bool { return outer[i] < outer[j] })

	recomputed, err := c.pairEdges(ctx, vecs, itemUsers, outer, dirty)
	if err != nil {
		return nil, err
	}

	edges := make([]Edge, 0, len(prior.Edges())+len(recomputed))
	for _, e := range prior.Edges() {
		if _, ok := dirty[e.UserA]; ok {
			continue
		}
		if _, ok := dirty[e.UserB]; ok {
			continue
		}
		edges = append(edges, e)
	}
	edges = append(edges, recomputed...)

	return edges, nil
}

// pairEdges evaluates candidate pairs discovered through the inverted
// index and returns the surviving edges.
//
// In full mode (dirty == nil) the outer slice holds every user and each
// pair is visited exactly once, at its smaller endpoint. In incremental
// mode the outer slice holds the dirty users; a pair of two dirty users
// is emitted by the smaller one, and a dirty-clean pair by the dirty one.
func (c *Computer) pairEdges(ctx context.Context, vecs map[int64]map[int64]float64, itemUsers map[int64][]int64, outer []int64, dirty map[int64]struct{}) ([]Edge, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var edges []Edge
	var compared atomic.Int64

	chunkSize := (len(outer) + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(outer) {
			end = len(outer)
		}
		if start >= end {
			break
		}

		users := outer[start:end]
		g.Go(func() error {
			local := make([]Edge, 0, len(users))
			var localCompared int64

			for _, uid := range users {
				if err := gctx.Err(); err != nil {
					return err
				}

				userVec := vecs[uid]
				if len(userVec) == 0 {
					continue
				}

				seen := make(map[int64]struct{})
				for itemID := range userVec {
					for _, other := range itemUsers[itemID] {
						if dirty == nil && other <= uid {
							continue
						}
						if dirty != nil && other == uid {
							continue
						}
						if _, dup := seen[other]; dup {
							continue
						}
						seen[other] = struct{}{}

						a, b := uid, other
						if a > b {
							a, b = b, a
						}
						if dirty != nil && a != uid {
							if _, otherDirty := dirty[other]; otherDirty {
								continue
							}
						}

						localCompared++
						if e, ok := c.edgeFor(a, b, vecs[a], vecs[b]); ok {
							local = append(local, e)
						}
					}
				}
			}

			compared.Add(localCompared)
			mu.Lock()
			edges = append(edges, local...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.SimilarityPairsCompared.Add(float64(compared.Load()))
	return edges, nil
}

// edgeFor evaluates one canonical pair (a < b). ok is false when the pair
// falls below the common-item floor or either side has zero variance.
func (c *Computer) edgeFor(a, b int64, va, vb map[int64]float64) (Edge, bool) {
	common := commonItems(va, vb)
	if len(common) < c.minCommonItems {
		return Edge{}, false
	}

	coef, ok := pearson(va, vb, common)
	if !ok {
		return Edge{}, false
	}

	if c.shrinkage > 0 {
		coef = coef * float64(len(common)) / (float64(len(common)) + c.shrinkage)
	}

	return Edge{UserA: a, UserB: b, Coef: coef, Support: len(common)}, true
}

// buildVectors maps user to item-score vectors, dropping malformed
// scores. Each exclusion is counted and logged, never propagated.
func buildVectors(ratings []models.Rating) map[int64]map[int64]float64 {
	vecs := make(map[int64]map[int64]float64)
	for _, r := range ratings {
		if !models.ValidScore(r.Score) {
			metrics.MalformedRatings.Inc()
			logging.Warn().
				Int64("user_id", r.UserID).
				Int64("item_id", r.ItemID).
				Float64("score", r.Score).
				Msg("Excluding malformed rating from similarity computation")
			continue
		}
		if vecs[r.UserID] == nil {
			vecs[r.UserID] = make(map[int64]float64)
		}
		vecs[r.UserID][r.ItemID] = r.Score
	}
	return vecs
}

// invertIndex maps each item to the users who rated it.
func invertIndex(vecs map[int64]map[int64]float64) map[int64][]int64 {
	itemUsers := make(map[int64][]int64)
	for userID, items := range vecs {
		for itemID := range items {
			itemUsers[itemID] = append(itemUsers[itemID], userID)
		}
	}
	return itemUsers
}

func sortedUserIDs(vecs map[int64]map[int64]float64) []int64 {
	ids := make([]int64, 0, len(vecs))
	for uid := range vecs {
		ids = append(ids, uid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// commonItems returns the items rated by both users, iterating the
// smaller vector. The result is sorted so summation order, and with it
// the exact coefficient, is identical across runs.
func commonItems(a, b map[int64]float64) []int64 {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	common := make([]int64, 0, len(small))
	for item := range small {
		if _, ok := large[item]; ok {
			common = append(common, item)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i] < common[j] })
	return common
}

// pearson computes the correlation over the common items, with means
// taken over that subset. ok is false when either user has zero variance
// across the common items.
func pearson(a, b map[int64]float64, common []int64) (float64, bool) {
	n := float64(len(common))
	var sumA, sumB float64
	for _, item := range common {
		sumA += a[item]
		sumB += b[item]
	}
	meanA := sumA / n
	meanB := sumB / n

	var num, denA, denB float64
	for _, item := range common {
		diffA := a[item] - meanA
		diffB := b[item] - meanB
		num += diffA * diffB
		denA += diffA * diffA
		denB += diffB * diffB
	}

	if denA == 0 || denB == 0 {
		return 0, false
	}

	return num / (math.Sqrt(denA) * math.Sqrt(denB)), true
}
