// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package recommend turns the active similarity snapshot into per-user
// recommendation lists and fronts them with the layered cache.
//
// The Generator is a pure function over one snapshot and the rating store:
// it selects the target's top neighbors, scores every item those neighbors
// rated via the similarity-weighted mean, and ranks the result. Negative
// coefficients subtract, so items loved by opposite-taste users sink.
// Given the same snapshot, ratings, and parameters it produces identical
// output, ties and all.
//
// The Engine owns the request path: cache hit, else synchronous generation
// bounded by a timeout, deduplicated per cache key via singleflight and
// capped by a weighted semaphore. When generation fails or times out it
// serves the expired record if one exists; only when there is nothing at
// all to serve does it return ErrUnavailable.
//
// Cold start is not an error: a user with no ratings or no usable
// neighbors gets an empty list with the ColdStart marker set, and the API
// layer points the client at the popularity fallback.
package recommend
