// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package scheduler runs the background maintenance jobs: the periodic
// similarity refresh and the daily cache cleanup. Jobs fire on a fixed
// interval or a 5-field cron expression, run at most once concurrently
// per name (an overlapping fire is recorded as skipped, never queued),
// and leave their run records in a fixed-size ring readable through the
// admin API.
package scheduler
