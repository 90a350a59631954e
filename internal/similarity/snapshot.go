// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package similarity

import (
	"math"
	"sort"
	"time"
)

// Edge is one undirected similarity edge. UserA is always the smaller
// user id, so every pair has exactly one canonical representation.
type Edge struct {
	UserA   int64
	UserB   int64
	Coef    float64
	Support int
}

// Neighbor is one entry in a user's adjacency list.
type Neighbor struct {
	UserID  int64
	Coef    float64
	Support int
}

// Snapshot is an immutable view of the similarity graph produced by one
// refresh run. Readers share snapshots freely; nothing mutates one after
// construction.
type Snapshot struct {
	// Version increases by one per refresh and survives restarts.
	Version int

	// ComputedAt is when the producing run started. Staleness is judged
	// against this, not against save or load time.
	ComputedAt time.Time

	edges     []Edge
	adjacency map[int64][]Neighbor
}

// NewSnapshot builds a snapshot from an edge set. Edges are canonicalized
// into a deterministic order and mirrored into per-user adjacency lists
// sorted by coefficient magnitude, then support, then user id.
func NewSnapshot(version int, computedAt time.Time, edges []Edge) *Snapshot {
	sorted := make([]Edge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].UserA != sorted[j].UserA {
			return sorted[i].UserA < sorted[j].UserA
		}
		return sorted[i].UserB < sorted[j].UserB
	})

	adjacency := make(map[int64][]Neighbor)
	for _, e := range sorted {
		adjacency[e.UserA] = append(adjacency[e.UserA], Neighbor{UserID: e.UserB, Coef: e.Coef, Support: e.Support})
		adjacency[e.UserB] = append(adjacency[e.UserB], Neighbor{UserID: e.UserA, Coef: e.Coef, Support: e.Support})
	}

	for uid := range adjacency {
		sortNeighbors(adjacency[uid])
	}

	return &Snapshot{
		Version:    version,
		ComputedAt: computedAt,
		edges:      sorted,
		adjacency:  adjacency,
	}
}

// sortNeighbors orders by |coef| descending, then support descending,
// then user id ascending. The full tiebreak makes neighbor selection
// deterministic across runs.
func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		ai, aj := math.Abs(ns[i].Coef), math.Abs(ns[j].Coef)
		if ai != aj {
			return ai > aj
		}
		if ns[i].Support != ns[j].Support {
			return ns[i].Support > ns[j].Support
		}
		return ns[i].UserID < ns[j].UserID
	})
}

// Neighbors returns the user's adjacency list in rank order. The returned
// slice is shared with the snapshot and must not be modified.
func (s *Snapshot) Neighbors(userID int64) []Neighbor {
	return s.adjacency[userID]
}

// Edges returns the canonical edge set. The returned slice is shared with
// the snapshot and must not be modified.
func (s *Snapshot) Edges() []Edge {
	return s.edges
}

// EdgeCount returns the number of edges in the graph.
func (s *Snapshot) EdgeCount() int {
	return len(s.edges)
}

// UserCount returns the number of users with at least one edge.
func (s *Snapshot) UserCount() int {
	return len(s.adjacency)
}

// Stale reports whether the snapshot is older than the window at the
// given instant. A non-positive window disables staleness checks.
func (s *Snapshot) Stale(window time.Duration, now time.Time) bool {
	if window <= 0 {
		return false
	}
	return now.Sub(s.ComputedAt) > window
}
