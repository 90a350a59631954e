// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package cache stores generated recommendation batches keyed by user and
// generation parameters.
//
// The store is layered. A thread-safe in-memory map serves all request-path
// reads; an optional BadgerDB layer mirrors every write so records survive
// restarts. On boot the memory layer is warm-started from the unexpired
// portion of the persisted set.
//
// Lifecycle rules:
//
//   - TTL expiry is passive. An expired record reads as a miss but is kept
//     in place, because the engine serves it as a stale fallback when fresh
//     generation cannot complete in time.
//   - A rating change invalidates only that user's records (memory prefix
//     sweep plus Badger user-index keys).
//   - Adoption of a new similarity snapshot invalidates everything.
//   - The daily cleanup job physically deletes records generated before the
//     configured age cutoff from both layers.
//
// Keys have the form "rec:<user>:<topN>:<excludeRated>" so differing requests
// for the same user never collide.
package cache
