// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

/*
Package supervisor provides process supervision for Criticus using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of every long-running service in the application, with automatic
restart, failure isolation, and graceful shutdown.

# Overview

The tree organizes services into three layers:

	RootSupervisor ("criticus")
	├── EventsSupervisor ("events-layer")
	│   └── rating-event-subscriber
	├── JobsSupervisor ("jobs-layer")
	│   └── job-scheduler
	└── APISupervisor ("api-layer")
	    └── http-server

The layering isolates failures:
  - A crash in the event subscriber does not take down the HTTP server;
    the refresher's watermark re-covers missed dirty marks on the next
    similarity pass.
  - A scheduler panic does not interrupt request serving; cached
    recommendations keep flowing while the jobs layer restarts.
  - Each layer restarts independently with its own failure counter.

# Restart Policy

Crashed services restart automatically with exponential backoff. The
thresholds are configurable through TreeConfig; the defaults match
suture's own (threshold 5, decay 30s, backoff 15s).

# Shutdown

Canceling the context passed to Serve stops the whole tree. Services that
fail to stop within the configured timeout show up in
UnstoppedServiceReport, which the server entrypoint logs before exiting.

# Usage

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddEventService(subscriber)
	tree.AddJobService(sched)
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
