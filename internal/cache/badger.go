// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrRecordNotFound is returned when a key has no persisted record.
var ErrRecordNotFound = errors.New("cache record not found")

// Key prefixes for BadgerDB storage. Records are stored under their cache
// key; a second key per record maps user to cache key so one user's
// records can be found without a full scan.
const (
	recordKeyPrefix = "record:"
	userKeyPrefix   = "user:"
)

// BadgerStore is the persistent cache layer. It mirrors the memory layer's
// writes so cached batches survive restarts.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an already opened BadgerDB handle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens (or creates) a BadgerDB at dir and wraps it.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

func recordKey(cacheKey string) []byte {
	return []byte(recordKeyPrefix + cacheKey)
}

func userIndexKey(userID int64, cacheKey string) []byte {
	return []byte(fmt.Sprintf("%s%d:%s", userKeyPrefix, userID, cacheKey))
}

func userIndexPrefix(userID int64) []byte {
	return []byte(fmt.Sprintf("%s%d:", userKeyPrefix, userID))
}

// Put stores a record and its user index entry in one transaction.
func (s *BadgerStore) Put(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(rec.CacheKey), data); err != nil {
			return fmt.Errorf("set record: %w", err)
		}

		if err := txn.Set(userIndexKey(rec.UserID, rec.CacheKey), []byte(rec.CacheKey)); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}

		return nil
	})
}

// Get retrieves a record by cache key, expired or not.
func (s *BadgerStore) Get(cacheKey string) (Record, error) {
	var rec Record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(cacheKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return Record{}, err
	}

	return rec, nil
}

// DeleteByUser removes all of one user's records and index entries. It
// returns the number of records removed.
func (s *BadgerStore) DeleteByUser(userID int64) (int, error) {
	var cacheKeys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := userIndexPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				cacheKeys = append(cacheKeys, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("list user records: %w", err)
	}

	if len(cacheKeys) == 0 {
		return 0, nil
	}

	// One user holds at most a handful of records (one per parameter
	// shape), so a single transaction covers them all.
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range cacheKeys {
			if err := txn.Delete(recordKey(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete record: %w", err)
			}
			if err := txn.Delete(userIndexKey(userID, key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete user index: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(cacheKeys), nil
}

// DeleteAll drops every record and index entry.
func (s *BadgerStore) DeleteAll() error {
	if err := s.db.DropPrefix([]byte(recordKeyPrefix), []byte(userKeyPrefix)); err != nil {
		return fmt.Errorf("drop cache prefixes: %w", err)
	}
	return nil
}

// LoadUnexpired returns every record whose TTL has not passed. Used to
// warm-start the memory layer on boot. Records that fail to decode are
// skipped.
func (s *BadgerStore) LoadUnexpired(now time.Time) ([]Record, error) {
	var records []Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				continue
			}

			if !rec.Expired(now) {
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	return records, nil
}

// PurgeAged removes records generated before cutoff, with their index
// entries, and returns the number removed. Each record is deleted in its
// own transaction; a failed delete is skipped, not fatal.
func (s *BadgerStore) PurgeAged(cutoff time.Time) (int, error) {
	var aged []Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				continue
			}

			if rec.GeneratedAt.Before(cutoff) {
				aged = append(aged, rec)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan records: %w", err)
	}

	count := 0
	for _, rec := range aged {
		err := s.db.Update(func(txn *badger.Txn) error {
			if err := txn.Delete(recordKey(rec.CacheKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Delete(userIndexKey(rec.UserID, rec.CacheKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return nil
		})
		if err != nil {
			continue
		}
		count++
	}

	return count, nil
}

// RunGC runs one value log garbage collection pass. A pass that found
// nothing to rewrite is not an error.
func (s *BadgerStore) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("value log gc: %w", err)
	}
	return nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
