// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package main is the entry point for the Criticus server.
//
// Criticus is a self-hosted movie recommendation service built on
// user-user collaborative filtering. It maintains a similarity graph
// over the rating corpus, serves per-user recommendation lists from a
// layered cache, and falls back to a damped-mean popularity ranking for
// users without enough signal.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, YAML file, and
//     environment variables (Koanf v2)
//  2. Rating store: DuckDB with the ratings schema migrated in place,
//     wrapped in a circuit breaker for the read paths
//  3. Similarity: snapshot store, holder, and refresher; the newest
//     persisted snapshot is adopted at boot when still fresh
//  4. Recommendation cache: BadgerDB-backed layered cache, warm-started
//     from disk
//  5. Events: in-process Watermill bus plus the subscriber that marks
//     users dirty for incremental similarity refreshes
//  6. Scheduler: interval-driven similarity refresh and cron-driven
//     cache cleanup
//  7. HTTP server: Chi router with the versioned REST API
//
// Every long-running piece (subscriber, scheduler, HTTP server) runs
// under a suture supervisor tree with per-layer failure isolation.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (SERVER_SHUTDOWN_TIMEOUT)
//   - Flushes the cache memory layer and closes DuckDB and BadgerDB
//
// # Example Usage
//
// Development with an in-memory rating store:
//
//	export DUCKDB_PATH=:memory:
//	export CACHE_DIR=
//	export LOG_FORMAT=console
//	./criticus
//
// Production:
//
//	export DUCKDB_PATH=/data/criticus/ratings.duckdb
//	export SIMILARITY_SNAPSHOT_DIR=/data/criticus/similarity
//	export CACHE_DIR=/data/criticus/cache
//	export CORS_ORIGINS=https://movies.example.com
//	./criticus
//
// Docker:
//
//	docker run -d \
//	  -v criticus-data:/data/criticus \
//	  -p 8080:8080 \
//	  ghcr.io/tomtom215/criticus
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/criticus/internal/api"
	"github.com/tomtom215/criticus/internal/cache"
	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/events"
	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/ratingstore"
	"github.com/tomtom215/criticus/internal/recommend"
	"github.com/tomtom215/criticus/internal/scheduler"
	"github.com/tomtom215/criticus/internal/similarity"
	"github.com/tomtom215/criticus/internal/supervisor"
	"github.com/tomtom215/criticus/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use the default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Msg("Starting Criticus with supervisor tree")

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("snapshot_dir", cfg.Similarity.SnapshotDir).
		Str("cache_dir", cfg.Cache.Dir).
		Dur("refresh_interval", cfg.Similarity.RefreshInterval).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("Configuration loaded")

	// Rating store: DuckDB with schema migration on open
	store, err := ratingstore.Open(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open rating store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing rating store")
		}
	}()
	logging.Info().Msg("Rating store opened")

	// Read paths go through the circuit breaker so a struggling DuckDB
	// degrades recommendation serving instead of stalling it. Writes use
	// the plain store; a failed submission must surface to the client.
	breaker := ratingstore.NewBreakerStore(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Similarity layer: persistent snapshot store, active-snapshot
	// holder, and the refresher that recomputes the graph
	simStore, err := similarity.NewStore(cfg.Similarity.SnapshotDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open similarity snapshot store")
	}
	holder := similarity.NewHolder()
	refresher := similarity.NewRefresher(cfg.Similarity, breaker, holder, simStore)

	if err := refresher.Bootstrap(ctx); err != nil {
		logging.Warn().Err(err).Msg("Similarity snapshot bootstrap failed, starting cold")
	}

	// Recommendation cache with warm start from the persistent layer
	cacheStore, err := cache.New(cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open recommendation cache")
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing recommendation cache")
		}
	}()
	if n, err := cacheStore.WarmStart(ctx); err != nil {
		logging.Warn().Err(err).Msg("Cache warm start failed, starting empty")
	} else if n > 0 {
		logging.Info().Int("records", n).Msg("Cache warm start complete")
	}

	// Read path: generator scores against the active snapshot, engine
	// adds caching, timeouts, and the stale fallback
	generator := recommend.NewGenerator(cfg.Recommend, breaker)
	engine := recommend.NewEngine(cfg.Recommend, cfg.Similarity.StalenessWindow, generator, holder, cacheStore)
	popularity := recommend.NewPopularity(cfg.Popularity, cfg.Recommend, breaker)

	// Event bus and the subscriber feeding the refresher's dirty set
	bus := events.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	subscriber := events.NewSubscriber(bus, refresher)

	// Background jobs
	sched := scheduler.New(scheduler.Config{})
	if err := registerJobs(sched, cfg, refresher, holder, cacheStore); err != nil {
		logging.Fatal().Err(err).Msg("Failed to register background jobs")
	}

	if cfg.Similarity.RefreshOnStartup && holder.Current() == nil {
		run, err := sched.Trigger(jobSimilarityRefresh)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to trigger startup similarity refresh")
		} else {
			logging.Info().Str("run_id", run.RunID).Msg("Startup similarity refresh triggered")
		}
	}

	// HTTP layer
	handler := api.NewHandler(cfg, api.Deps{
		Recommender: engine,
		Popularity:  popularity,
		Ratings:     breaker,
		Writer:      store,
		Pinger:      store,
		Cache:       cacheStore,
		Snapshots:   holder,
		Jobs:        sched,
		Bus:         bus,
	})
	router := api.NewRouter(handler, api.NewMiddlewareFromConfig(cfg.API))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervisor tree: sutureslog needs an slog.Logger, bridged from
	// zerolog by the logging package
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddEventService(subscriber)
	tree.AddJobService(sched)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	// Signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report services that failed to stop within the timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Criticus stopped gracefully")
}
