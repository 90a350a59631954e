// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package similarity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/models"
)

// fakeLister serves an in-memory corpus, filtering by RatedAt the way
// the DuckDB store does. err, when set, fails every call.
type fakeLister struct {
	ratings []models.Rating
	err     error
}

func (f *fakeLister) ListRatings(_ context.Context, since time.Time) ([]models.Rating, error) {
	if f.err != nil {
		return nil, f.err
	}
	if since.IsZero() {
		return append([]models.Rating(nil), f.ratings...), nil
	}
	out := make([]models.Rating, 0)
	for _, r := range f.ratings {
		if r.RatedAt.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

// replaceScore mutates a rating in place without touching RatedAt, so
// the change is invisible to timestamp-based change detection.
func (f *fakeLister) replaceScore(user, item int64, score float64) {
	for i := range f.ratings {
		if f.ratings[i].UserID == user && f.ratings[i].ItemID == item {
			f.ratings[i].Score = score
			return
		}
	}
}

func refresherCorpus() []models.Rating {
	return []models.Rating{
		rating(1, 1, 80), rating(1, 2, 60),
		rating(2, 1, 90), rating(2, 2, 50),
		rating(3, 1, 20), rating(3, 2, 90),
	}
}

func newTestRefresher(lister RatingLister, store *Store) (*Refresher, *Holder) {
	holder := NewHolder()
	cfg := config.SimilarityConfig{
		MinCommonItems:  2,
		Shrinkage:       0,
		Workers:         2,
		StalenessWindow: 24 * time.Hour,
	}
	return NewRefresher(cfg, lister, holder, store), holder
}

func neighborCoef(t *testing.T, snap *Snapshot, user, neighbor int64) float64 {
	t.Helper()
	for _, n := range snap.Neighbors(user) {
		if n.UserID == neighbor {
			return n.Coef
		}
	}
	t.Fatalf("no neighbor %d for user %d", neighbor, user)
	return 0
}

// --- Test: full refresh ---

func TestRefreshFullPublishesSnapshot(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ratings: refresherCorpus()}
	r, holder := newTestRefresher(lister, nil)

	detail, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if want := "mode=full version=1 edges=3 users=3"; detail != want {
		t.Errorf("detail = %q, want %q", detail, want)
	}

	snap := holder.Current()
	if snap == nil {
		t.Fatal("holder has no snapshot after refresh")
	}
	if snap.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Version)
	}
	if got := neighborCoef(t, snap, 1, 2); !almostEqual(got, 1.0) {
		t.Errorf("coef(1,2) = %v, want 1.0", got)
	}
	if got := neighborCoef(t, snap, 1, 3); !almostEqual(got, -1.0) {
		t.Errorf("coef(1,3) = %v, want -1.0", got)
	}
}

func TestRefreshEmptyCorpus(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{}
	r, holder := newTestRefresher(lister, nil)

	if _, err := r.Refresh(context.Background()); !errors.Is(err, ErrNoRatings) {
		t.Fatalf("Refresh() error = %v, want ErrNoRatings", err)
	}
	if holder.Current() != nil {
		t.Error("holder gained a snapshot from a failed refresh")
	}
}

// --- Test: incremental refresh ---

func TestRefreshNoChangesSkipsRecompute(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ratings: refresherCorpus()}
	r, holder := newTestRefresher(lister, nil)

	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}
	first := holder.Current()

	detail, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
	if want := "no changes since last run"; detail != want {
		t.Errorf("detail = %q, want %q", detail, want)
	}
	if holder.Current() != first {
		t.Error("snapshot was replaced although nothing changed")
	}
}

func TestRefreshIncrementalAfterNewRatings(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ratings: refresherCorpus()}
	r, holder := newTestRefresher(lister, nil)

	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}

	// A new user arrives after the first run; RatedAt is now, which is
	// past the recorded lastRun watermark.
	lister.ratings = append(lister.ratings, rating(5, 1, 70), rating(5, 2, 40))

	detail, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
	if want := "mode=incremental version=2 edges=6 users=4"; detail != want {
		t.Errorf("detail = %q, want %q", detail, want)
	}

	snap := holder.Current()
	if len(snap.Neighbors(5)) != 3 {
		t.Errorf("Neighbors(5) = %d entries, want 3", len(snap.Neighbors(5)))
	}
}

func TestRefreshMarkDirtyRecomputes(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ratings: refresherCorpus()}
	r, holder := newTestRefresher(lister, nil)

	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}

	// The score flips without a RatedAt change, so only the dirty mark
	// makes the refresher look at user 2 again.
	lister.replaceScore(2, 1, 10)
	r.MarkDirty(2)

	detail, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
	if want := "mode=incremental version=2 edges=3 users=3"; detail != want {
		t.Errorf("detail = %q, want %q", detail, want)
	}
	if got := neighborCoef(t, holder.Current(), 1, 2); !almostEqual(got, -1.0) {
		t.Errorf("coef(1,2) after re-rate = %v, want -1.0", got)
	}
}

func TestRefreshFailureRestoresDirtySet(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ratings: refresherCorpus()}
	r, holder := newTestRefresher(lister, nil)

	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}

	lister.replaceScore(2, 1, 10)
	r.MarkDirty(2)
	lister.err = errors.New("store offline")

	if _, err := r.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() succeeded with a failing lister")
	}
	if holder.Current().Version != 1 {
		t.Errorf("Version after failed refresh = %d, want 1", holder.Current().Version)
	}

	// The captured dirty set went back, so the retry still recomputes
	// user 2 even though no RatedAt moved.
	lister.err = nil
	detail, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("retry Refresh() error = %v", err)
	}
	if want := "mode=incremental version=2 edges=3 users=3"; detail != want {
		t.Errorf("detail = %q, want %q", detail, want)
	}
	if got := neighborCoef(t, holder.Current(), 1, 2); !almostEqual(got, -1.0) {
		t.Errorf("coef(1,2) after retry = %v, want -1.0", got)
	}
}

// --- Test: bootstrap from persisted snapshots ---

func TestBootstrapLoadsFreshSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	lister := &fakeLister{ratings: refresherCorpus()}
	first, _ := newTestRefresher(lister, store)
	if _, err := first.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	// A second process starts against the same snapshot directory.
	second, holder := newTestRefresher(lister, store)
	if err := second.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	snap := holder.Current()
	if snap == nil {
		t.Fatal("holder empty after bootstrap")
	}
	if snap.Version != 1 {
		t.Errorf("Version = %d, want 1", snap.Version)
	}

	// Bootstrap adopted the snapshot's watermark, so a refresh with an
	// unchanged corpus is a no-op.
	detail, err := second.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() after bootstrap error = %v", err)
	}
	if want := "no changes since last run"; detail != want {
		t.Errorf("detail = %q, want %q", detail, want)
	}
}

func TestBootstrapSkipsStaleSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	old := NewSnapshot(2, time.Now().Add(-48*time.Hour), []Edge{
		{UserA: 1, UserB: 2, Coef: 1, Support: 2},
	})
	if err := store.Save(context.Background(), old); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	lister := &fakeLister{ratings: refresherCorpus()}
	r, holder := newTestRefresher(lister, store)
	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if holder.Current() != nil {
		t.Error("stale snapshot was published to the holder")
	}

	// Version numbering continues past the stale snapshot on disk.
	detail, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if want := "mode=full version=3 edges=3 users=3"; detail != want {
		t.Errorf("detail = %q, want %q", detail, want)
	}
}

func TestBootstrapNoSnapshot(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	lister := &fakeLister{ratings: refresherCorpus()}
	r, holder := newTestRefresher(lister, store)
	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() with empty dir error = %v", err)
	}
	if holder.Current() != nil {
		t.Error("holder gained a snapshot from an empty directory")
	}
}

func TestBootstrapNilStore(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ratings: refresherCorpus()}
	r, _ := newTestRefresher(lister, nil)
	if err := r.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() with nil store error = %v", err)
	}
}
