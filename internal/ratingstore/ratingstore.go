// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package ratingstore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/logging"
)

// schemaTimeout bounds schema creation on open. DuckDB DDL is fast, but
// a WAL replay on a large database file can take a while.
const schemaTimeout = 60 * time.Second

// Store wraps the DuckDB connection and provides rating data access.
type Store struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// Open creates a new rating store connection and initializes the schema.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network environments
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		conn: conn,
		cfg:  cfg,
	}

	s.configureConnectionPool()

	if err := s.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", numThreads).
		Str("max_memory", cfg.MaxMemory).
		Msg("Rating store opened")

	return s, nil
}

// configureConnectionPool sets connection pool parameters
func (s *Store) configureConnectionPool() {
	s.conn.SetMaxOpenConns(runtime.NumCPU())
	s.conn.SetMaxIdleConns(2)
	s.conn.SetConnMaxLifetime(time.Hour)
	s.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// schemaContext returns a context for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), schemaTimeout)
}

// createTables creates the rating schema if it does not exist.
func (s *Store) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id  BIGINT NOT NULL,
			item_id  BIGINT NOT NULL,
			score    DOUBLE NOT NULL,
			rated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, item_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_item ON ratings(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_rated_at ON ratings(rated_at)`,
	}

	for _, query := range queries {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Conn returns the underlying SQL database connection.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// closeQuietly closes a resource when the caller has no better way to
// report the error, such as during cleanup of a failed open.
func closeQuietly(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.Debug().Err(err).Msg("Error closing resource during cleanup")
	}
}
