// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/criticus/internal/similarity"
)

func freshHolder(version int) *similarity.Holder {
	holder := similarity.NewHolder()
	holder.Swap(similarity.NewSnapshot(version, time.Now().UTC(), nil))
	return holder
}

func TestHealth_Healthy(t *testing.T) {
	srv := newTestServer(t, Deps{
		Pinger:    &mockPinger{},
		Snapshots: freshHolder(3),
	})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", data["status"])
	}
	if data["database_connected"] != true {
		t.Error("database_connected = false, want true")
	}
	if data["snapshot_version"].(float64) != 3 {
		t.Errorf("snapshot_version = %v, want 3", data["snapshot_version"])
	}
	if data["snapshot_stale"] != false {
		t.Error("snapshot_stale = true, want false for a fresh snapshot")
	}
}

func TestHealth_DegradedWithoutSnapshot(t *testing.T) {
	srv := newTestServer(t, Deps{
		Pinger:    &mockPinger{},
		Snapshots: similarity.NewHolder(),
	})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")

	// Degraded is reported in the payload, not the status code; the
	// process still serves fallback recommendations.
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", data["status"])
	}
	if data["snapshot_stale"] != true {
		t.Error("snapshot_stale = false, want true with no snapshot")
	}
}

func TestHealth_DegradedWhenStoreDown(t *testing.T) {
	srv := newTestServer(t, Deps{
		Pinger:    &mockPinger{err: errors.New("connection refused")},
		Snapshots: freshHolder(1),
	})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")

	data := dataMap(t, decodeEnvelope(t, w))
	if data["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", data["status"])
	}
	if data["database_connected"] != false {
		t.Error("database_connected = true, want false")
	}
}

func TestHealth_DegradedWhenSnapshotStale(t *testing.T) {
	holder := similarity.NewHolder()
	holder.Swap(similarity.NewSnapshot(2, time.Now().UTC().Add(-48*time.Hour), nil))

	srv := newTestServer(t, Deps{Pinger: &mockPinger{}, Snapshots: holder})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")

	data := dataMap(t, decodeEnvelope(t, w))
	if data["status"] != "degraded" {
		t.Errorf("status = %v, want degraded for a 48h old snapshot", data["status"])
	}
	if data["snapshot_stale"] != true {
		t.Error("snapshot_stale = false, want true")
	}
}

func TestHealthLive_AlwaysOK(t *testing.T) {
	srv := newTestServer(t, Deps{
		Pinger: &mockPinger{err: errors.New("everything is down")},
	})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/health/live", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Liveness status = %d, want 200 regardless of dependencies", w.Code)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["alive"] != true {
		t.Error("alive = false, want true")
	}
}

func TestHealthReady_Ready(t *testing.T) {
	srv := newTestServer(t, Deps{Pinger: &mockPinger{}})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/health/ready", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["ready"] != true {
		t.Error("ready = false, want true")
	}
}

func TestHealthReady_NotReadyWhenStoreDown(t *testing.T) {
	srv := newTestServer(t, Deps{
		Pinger: &mockPinger{err: errors.New("connection refused")},
	})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/health/ready", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Status = %d, want 503", w.Code)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["status"] != "not_ready" {
		t.Errorf("status = %v, want not_ready", data["status"])
	}
}
