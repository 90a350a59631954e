// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package ratingstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/criticus/internal/metrics"
	"github.com/tomtom215/criticus/internal/models"
)

// queryTimeout bounds analytical reads. Full-corpus listings feed the
// similarity refresh and must not hold a connection indefinitely.
const queryTimeout = 30 * time.Second

// scanFunc scans a single row into a result type.
type scanFunc[T any] func(*sql.Rows) (T, error)

// queryAndScan executes a query and scans all rows using the provided scan function.
func queryAndScan[T any](ctx context.Context, db *sql.DB, query string, args []interface{}, scan scanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func scanRating(rows *sql.Rows) (models.Rating, error) {
	var r models.Rating
	if err := rows.Scan(&r.UserID, &r.ItemID, &r.Score, &r.RatedAt); err != nil {
		return models.Rating{}, fmt.Errorf("scan rating: %w", err)
	}
	return r, nil
}

// ListRatings returns all ratings changed strictly after since, ordered by
// user then item for deterministic iteration. A zero since returns the full
// corpus.
func (s *Store) ListRatings(ctx context.Context, since time.Time) ([]models.Rating, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT user_id, item_id, score, rated_at
		FROM ratings
		ORDER BY user_id, item_id
	`
	args := []interface{}{}
	if !since.IsZero() {
		query = `
			SELECT user_id, item_id, score, rated_at
			FROM ratings
			WHERE rated_at > ?
			ORDER BY user_id, item_id
		`
		args = append(args, since)
	}

	ratings, err := queryAndScan(ctx, s.conn, query, args, scanRating)
	metrics.RecordStoreQuery("list_ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	return ratings, nil
}

// ListRatingsForUser returns all ratings by one user ordered by item.
func (s *Store) ListRatingsForUser(ctx context.Context, userID int64) ([]models.Rating, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT user_id, item_id, score, rated_at
		FROM ratings
		WHERE user_id = ?
		ORDER BY item_id
	`

	ratings, err := queryAndScan(ctx, s.conn, query, []interface{}{userID}, scanRating)
	metrics.RecordStoreQuery("list_ratings_for_user", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query user ratings: %w", err)
	}
	return ratings, nil
}

// UpsertRating inserts a rating or overwrites the existing score for the
// same (user, item) pair.
func (s *Store) UpsertRating(ctx context.Context, r models.Rating) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO ratings (user_id, item_id, score, rated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET score = excluded.score, rated_at = excluded.rated_at
	`

	_, err := s.conn.ExecContext(ctx, query, r.UserID, r.ItemID, r.Score, r.RatedAt)
	metrics.RecordStoreQuery("upsert_rating", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// DeleteRating removes one (user, item) rating. Deleting a missing pair is
// not an error.
func (s *Store) DeleteRating(ctx context.Context, userID, itemID int64) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `DELETE FROM ratings WHERE user_id = ? AND item_id = ?`

	_, err := s.conn.ExecContext(ctx, query, userID, itemID)
	metrics.RecordStoreQuery("delete_rating", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}
	return nil
}

// CorpusStats returns corpus-wide counts used for health reporting and
// refresh logging.
func (s *Store) CorpusStats(ctx context.Context) (*models.CorpusStats, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT
			COUNT(*) AS ratings,
			COUNT(DISTINCT user_id) AS users,
			COUNT(DISTINCT item_id) AS items
		FROM ratings
	`

	var stats models.CorpusStats
	err := s.conn.QueryRowContext(ctx, query).Scan(&stats.Ratings, &stats.Users, &stats.Items)
	metrics.RecordStoreQuery("corpus_stats", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query corpus stats: %w", err)
	}
	return &stats, nil
}

// UserProfile returns aggregate rating statistics for one user, including
// a histogram over the five 20-point score tiers. A user with no ratings
// yields a zero-count profile, not an error.
func (s *Store) UserProfile(ctx context.Context, userID int64) (*models.UserProfileResponse, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT
			COUNT(*) AS rating_count,
			COALESCE(AVG(score), 0) AS mean_score,
			COALESCE(STDDEV_POP(score), 0) AS score_stddev
		FROM ratings
		WHERE user_id = ?
	`

	profile := &models.UserProfileResponse{UserID: userID}
	err := s.conn.QueryRowContext(ctx, query, userID).Scan(
		&profile.RatingCount,
		&profile.MeanScore,
		&profile.ScoreStddev,
	)
	if err != nil {
		metrics.RecordStoreQuery("user_profile", time.Since(start), err)
		return nil, fmt.Errorf("query user profile: %w", err)
	}

	// Scores of exactly 100 land in the top tier rather than a sixth bucket.
	tierQuery := `
		SELECT LEAST(CAST(FLOOR(score / 20) AS INTEGER), 4) AS tier, COUNT(*)
		FROM ratings
		WHERE user_id = ?
		GROUP BY tier
	`

	rows, err := s.conn.QueryContext(ctx, tierQuery, userID)
	if err != nil {
		metrics.RecordStoreQuery("user_profile", time.Since(start), err)
		return nil, fmt.Errorf("query score tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tier, count int
		if err := rows.Scan(&tier, &count); err != nil {
			metrics.RecordStoreQuery("user_profile", time.Since(start), err)
			return nil, fmt.Errorf("scan score tier: %w", err)
		}
		if tier >= 0 && tier < len(profile.TierCounts) {
			profile.TierCounts[tier] = count
		}
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreQuery("user_profile", time.Since(start), err)
		return nil, fmt.Errorf("iterate score tiers: %w", err)
	}

	profile.ComputedAt = time.Now().UTC()
	metrics.RecordStoreQuery("user_profile", time.Since(start), nil)
	return profile, nil
}

// TopByPopularity returns the highest ranked items by damped mean score.
// The damping pulls sparsely rated items toward the corpus-wide mean so a
// single enthusiastic rating cannot top the list. Ordering is weighted
// score, then rating count, then item id, so repeated calls over the same
// corpus return the same list.
func (s *Store) TopByPopularity(ctx context.Context, limit int, priorWeight float64, minRatings int) ([]models.PopularItem, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		WITH corpus AS (
			SELECT COALESCE(AVG(score), 0) AS global_mean FROM ratings
		),
		item_stats AS (
			SELECT
				item_id,
				COUNT(*) AS rating_count,
				AVG(score) AS mean_score
			FROM ratings
			GROUP BY item_id
			HAVING COUNT(*) >= ?
		)
		SELECT
			i.item_id,
			i.rating_count,
			i.mean_score,
			(i.rating_count * i.mean_score + ? * c.global_mean) / (i.rating_count + ?) AS weighted_score
		FROM item_stats i
		CROSS JOIN corpus c
		ORDER BY weighted_score DESC, i.rating_count DESC, i.item_id ASC
		LIMIT ?
	`

	items, err := queryAndScan(ctx, s.conn, query,
		[]interface{}{minRatings, priorWeight, priorWeight, limit},
		func(rows *sql.Rows) (models.PopularItem, error) {
			var p models.PopularItem
			if err := rows.Scan(&p.ItemID, &p.RatingCount, &p.MeanScore, &p.WeightedScore); err != nil {
				return models.PopularItem{}, fmt.Errorf("scan popular item: %w", err)
			}
			return p, nil
		})
	metrics.RecordStoreQuery("top_by_popularity", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query popularity: %w", err)
	}
	return items, nil
}
