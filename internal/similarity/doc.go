// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package similarity computes and serves the user-user similarity graph
// that powers collaborative filtering.
//
// # Model
//
// For every pair of users with enough co-rated items, the computer derives
// a Pearson correlation over the common items and shrinks it toward zero
// by n/(n+shrinkage), where n is the number of common items. Pairs below
// the common-item floor, and pairs where either user rated every common
// item identically (zero variance), produce no edge at all. Negative
// coefficients are kept: a strongly anti-correlated neighbor is signal,
// not noise.
//
// # Candidate enumeration
//
// Pairs are discovered through an item-to-users inverted index, so two
// users who share no rated item are never compared. This keeps the run
// proportional to actual co-rating overlap instead of all user pairs.
//
// # Snapshots
//
// Each run produces an immutable Snapshot holding the full edge set and a
// per-user adjacency sorted by coefficient magnitude. Readers obtain the
// current snapshot through a Holder that swaps an atomic pointer, so a
// running refresh never blocks or tears a read. Snapshots persist to disk
// in a checksummed, compressed format and are reloaded on startup when
// still inside the staleness window.
//
// # Incremental refresh
//
// A refresh that knows which users changed since the last run recomputes
// only the pairs touching those users and carries every other edge
// forward unchanged. The result is identical to what a full run over the
// same corpus would produce for the touched pairs.
package similarity
