// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// setupBadgerStore creates a BadgerDB in-memory instance for testing.
func setupBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}

	store := NewBadgerStore(db)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestBadgerPutGetRoundtrip(t *testing.T) {
	store := setupBadgerStore(t)

	rec := testRecord(1, 10, true)
	if err := store.Put(rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(rec.CacheKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.CacheKey != rec.CacheKey {
		t.Errorf("Expected key %q, got %q", rec.CacheKey, got.CacheKey)
	}
	if got.UserID != rec.UserID {
		t.Errorf("Expected user %d, got %d", rec.UserID, got.UserID)
	}
	if got.BatchID != rec.BatchID {
		t.Errorf("Expected batch %q, got %q", rec.BatchID, got.BatchID)
	}
	if len(got.Items) != 1 || got.Items[0].ItemID != 100 {
		t.Errorf("Expected item 100, got %+v", got.Items)
	}
	if !got.GeneratedAt.Equal(rec.GeneratedAt) {
		t.Errorf("Expected generated_at %v, got %v", rec.GeneratedAt, got.GeneratedAt)
	}
	if !got.ExpiresAt.Equal(rec.ExpiresAt) {
		t.Errorf("Expected expires_at %v, got %v", rec.ExpiresAt, got.ExpiresAt)
	}
}

func TestBadgerGetMissing(t *testing.T) {
	store := setupBadgerStore(t)

	_, err := store.Get("rec:99:10:true")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestBadgerDeleteByUser(t *testing.T) {
	store := setupBadgerStore(t)

	if err := store.Put(testRecord(1, 10, true)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(testRecord(1, 25, true)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(testRecord(2, 10, true)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	count, err := store.DeleteByUser(1)
	if err != nil {
		t.Fatalf("DeleteByUser() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 records deleted, got %d", count)
	}

	if _, err := store.Get(Key(1, 10, true)); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected user 1 record gone, got err = %v", err)
	}
	if _, err := store.Get(Key(2, 10, true)); err != nil {
		t.Errorf("Expected user 2 record to survive, got err = %v", err)
	}

	// Index entries went with the records
	count, err = store.DeleteByUser(1)
	if err != nil {
		t.Fatalf("second DeleteByUser() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 records on second delete, got %d", count)
	}
}

func TestBadgerDeleteAll(t *testing.T) {
	store := setupBadgerStore(t)

	for user := int64(1); user <= 3; user++ {
		if err := store.Put(testRecord(user, 10, true)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	if err := store.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	records, err := store.LoadUnexpired(time.Now())
	if err != nil {
		t.Fatalf("LoadUnexpired() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected 0 records after DeleteAll, got %d", len(records))
	}
}

func TestBadgerLoadUnexpired(t *testing.T) {
	store := setupBadgerStore(t)

	fresh := testRecord(1, 10, true)
	if err := store.Put(fresh); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	expired := testRecord(2, 10, true)
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	if err := store.Put(expired); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	records, err := store.LoadUnexpired(time.Now())
	if err != nil {
		t.Fatalf("LoadUnexpired() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 unexpired record, got %d", len(records))
	}
	if records[0].UserID != 1 {
		t.Errorf("Expected user 1's record, got user %d", records[0].UserID)
	}

	// The expired record is still physically present
	if _, err := store.Get(expired.CacheKey); err != nil {
		t.Errorf("Expected expired record to remain readable, got err = %v", err)
	}
}

func TestBadgerPurgeAged(t *testing.T) {
	store := setupBadgerStore(t)

	aged := testRecord(1, 10, true)
	aged.GeneratedAt = time.Now().Add(-40 * 24 * time.Hour)
	aged.ExpiresAt = aged.GeneratedAt.Add(6 * time.Hour)
	if err := store.Put(aged); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	young := testRecord(2, 10, true)
	if err := store.Put(young); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	count, err := store.PurgeAged(time.Now().Add(-30 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("PurgeAged() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record purged, got %d", count)
	}

	if _, err := store.Get(aged.CacheKey); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected aged record gone, got err = %v", err)
	}
	if _, err := store.Get(young.CacheKey); err != nil {
		t.Errorf("Expected young record to survive, got err = %v", err)
	}

	// The aged record's index entry is gone as well
	deleted, err := store.DeleteByUser(1)
	if err != nil {
		t.Fatalf("DeleteByUser() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected no leftover index entries, got %d", deleted)
	}
}
