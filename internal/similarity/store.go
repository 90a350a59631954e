// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package similarity

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ErrNoSnapshot is returned by LoadLatest when the store directory holds
// no readable snapshot.
var ErrNoSnapshot = errors.New("no similarity snapshot stored")

// snapshotPrefix names snapshot files: similarity_v{version}.gob.gz.
const snapshotPrefix = "similarity_v"

// keepVersions is how many snapshot files survive pruning after a save.
const keepVersions = 3

// Metadata describes a stored snapshot.
type Metadata struct {
	// Version is the snapshot version (monotonically increasing).
	Version int

	// ComputedAt is when the producing run started.
	ComputedAt time.Time

	// SavedAt is when the snapshot was written.
	SavedAt time.Time

	// EdgeCount is the number of edges in the graph.
	EdgeCount int

	// UserCount is the number of users with at least one edge.
	UserCount int

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string

	// SizeBytes is the compressed payload size.
	SizeBytes int64
}

// snapshotState is the gob payload: everything needed to rebuild a
// Snapshot.
type snapshotState struct {
	Version    int
	ComputedAt time.Time
	Edges      []Edge
}

// storedFile is the on-disk format for snapshot files.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store persists similarity snapshots to disk so a restart can serve the
// graph without waiting for the first refresh. Writes go through a
// temporary file and rename, so a crash mid-save never leaves a partial
// file under a live name.
type Store struct {
	baseDir string
	mu      sync.Mutex
	latest  int
}

// NewStore creates a snapshot store at the given directory, scanning for
// existing snapshot files.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for snapshot storage
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	s := &Store{baseDir: baseDir}

	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing snapshots: %w", err)
	}

	return s, nil
}

// scan finds the highest stored version.
func (s *Store) scan() error {
	versions, err := s.listVersions()
	if err != nil {
		return err
	}
	if len(versions) > 0 {
		s.latest = versions[0]
	}
	return nil
}

// listVersions returns stored versions in descending order.
func (s *Store) listVersions() ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		v, ok := parseSnapshotFilename(entry.Name())
		if !ok {
			continue
		}
		versions = append(versions, v)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

// parseSnapshotFilename extracts the version from a filename like
// "similarity_v12.gob.gz".
func parseSnapshotFilename(name string) (int, bool) {
	const suffix = ".gob.gz"
	if len(name) <= len(snapshotPrefix)+len(suffix) {
		return 0, false
	}
	if name[:len(snapshotPrefix)] != snapshotPrefix || name[len(name)-len(suffix):] != suffix {
		return 0, false
	}

	var version int
	if _, err := fmt.Sscanf(name[len(snapshotPrefix):len(name)-len(suffix)], "%d", &version); err != nil {
		return 0, false
	}
	return version, true
}

// Save writes a snapshot and prunes old versions.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	state := snapshotState{
		Version:    snap.Version,
		ComputedAt: snap.ComputedAt,
		Edges:      snap.Edges(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	sf := storedFile{
		Metadata: Metadata{
			Version:    snap.Version,
			ComputedAt: snap.ComputedAt,
			SavedAt:    time.Now().UTC(),
			EdgeCount:  snap.EdgeCount(),
			UserCount:  snap.UserCount(),
			Checksum:   hex.EncodeToString(hash[:]),
			SizeBytes:  int64(compressed.Len()),
		},
		CompressedData: compressed.Bytes(),
	}

	final := s.snapshotPath(snap.Version)
	tmp := final + ".tmp"

	f, err := os.Create(tmp) //nolint:gosec // path is constructed from the configured base directory
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		_ = f.Close()           //nolint:errcheck // write error is already being returned
		_ = os.Remove(tmp)      //nolint:errcheck // best-effort cleanup of partial file
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup of partial file
		return fmt.Errorf("close snapshot file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup of partial file
		return fmt.Errorf("publish snapshot file: %w", err)
	}

	if snap.Version > s.latest {
		s.latest = snap.Version
	}

	s.pruneLocked()
	return nil
}

// LoadLatest reads the newest readable snapshot. Corrupt files are
// skipped in favor of older versions; ErrNoSnapshot means nothing was
// readable.
func (s *Store) LoadLatest(ctx context.Context) (*Snapshot, *Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	versions, err := s.listVersions()
	if err != nil {
		return nil, nil, fmt.Errorf("list snapshots: %w", err)
	}

	var lastErr error
	for _, version := range versions {
		snap, meta, err := s.loadVersion(version)
		if err != nil {
			lastErr = err
			continue
		}
		return snap, meta, nil
	}

	if lastErr != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoSnapshot, lastErr)
	}
	return nil, nil, ErrNoSnapshot
}

func (s *Store) loadVersion(version int) (*Snapshot, *Metadata, error) {
	f, err := os.Open(s.snapshotPath(version)) //nolint:gosec // path is constructed from the configured base directory
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, nil, fmt.Errorf("read snapshot file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	var state snapshotState
	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(&state); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}

	meta := sf.Metadata
	return NewSnapshot(state.Version, state.ComputedAt, state.Edges), &meta, nil
}

// LatestVersion returns the highest stored version, or 0 when empty.
func (s *Store) LatestVersion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// pruneLocked removes all but the newest keepVersions snapshot files.
// Callers hold s.mu.
func (s *Store) pruneLocked() {
	versions, err := s.listVersions()
	if err != nil {
		return
	}
	for i := keepVersions; i < len(versions); i++ {
		_ = os.Remove(s.snapshotPath(versions[i])) //nolint:errcheck // best-effort cleanup of old versions
	}
}

func (s *Store) snapshotPath(version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s%d.gob.gz", snapshotPrefix, version))
}
