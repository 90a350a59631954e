// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package similarity

import (
	"sync/atomic"
	"time"

	"github.com/tomtom215/criticus/internal/metrics"
)

// Holder publishes the current similarity snapshot to readers. Swapping
// is a single atomic pointer store, so readers never observe a partially
// built graph and refreshes never block a read.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates an empty holder. Current returns nil until the first
// swap.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the latest snapshot, or nil when none has been
// published yet.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// CurrentFresh returns the latest snapshot only when it exists and is
// inside the staleness window. Readers that must not act on stale
// similarity data use this instead of Current.
func (h *Holder) CurrentFresh(window time.Duration, now time.Time) *Snapshot {
	snap := h.current.Load()
	if snap == nil || snap.Stale(window, now) {
		return nil
	}
	return snap
}

// Swap publishes a new snapshot and updates the graph gauges.
func (h *Holder) Swap(snap *Snapshot) {
	h.current.Store(snap)

	metrics.SimilarityEdges.Set(float64(snap.EdgeCount()))
	metrics.SimilarityUsers.Set(float64(snap.UserCount()))
	metrics.SimilaritySnapshotVersion.Set(float64(snap.Version))
}
