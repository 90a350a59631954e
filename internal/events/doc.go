// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

// Package events carries rating-change notifications between the write
// path and the similarity refresher over an in-process Watermill bus.
//
// The API handler invalidates the affected user's cache entries
// synchronously before publishing, so the bus only has to deliver the
// cheap bookkeeping side: marking the user dirty for the next
// incremental similarity refresh. Losing a message on shutdown costs
// nothing durable because the refresher's rating watermark re-covers the
// change on its next run.
package events
