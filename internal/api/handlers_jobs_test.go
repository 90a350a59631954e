// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/criticus/internal/models"
	"github.com/tomtom215/criticus/internal/scheduler"
)

func registeredJobs() []scheduler.JobStatus {
	next := time.Now().UTC().Add(time.Hour)
	return []scheduler.JobStatus{
		{Name: "similarity-refresh", Schedule: "every 4h0m0s", NextRun: next},
		{Name: "cache-cleanup", Schedule: "0 4 * * *", NextRun: next},
	}
}

func TestJobs_List(t *testing.T) {
	jobs := &mockJobs{jobs: registeredJobs()}

	srv := newTestServer(t, Deps{Jobs: jobs})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/jobs", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", data["count"])
	}
}

func TestJobRuns_Success(t *testing.T) {
	jobs := &mockJobs{
		jobs: registeredJobs(),
		runs: []models.JobRun{
			{RunID: "run-2", JobName: "similarity-refresh", Status: "succeeded", FinishedAt: time.Now().UTC()},
			{RunID: "run-1", JobName: "similarity-refresh", Status: "failed", Error: "source offline"},
		},
	}

	srv := newTestServer(t, Deps{Jobs: jobs})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/jobs/similarity-refresh/runs?limit=5", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if jobs.runsName != "similarity-refresh" {
		t.Errorf("Runs queried for %q, want similarity-refresh", jobs.runsName)
	}
	if jobs.runsLimit != 5 {
		t.Errorf("Runs limit = %d, want 5", jobs.runsLimit)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", data["count"])
	}
}

func TestJobRuns_DefaultLimit(t *testing.T) {
	jobs := &mockJobs{jobs: registeredJobs()}

	srv := newTestServer(t, Deps{Jobs: jobs})
	doRequest(t, srv, http.MethodGet, "/api/v1/jobs/cache-cleanup/runs", "")

	if jobs.runsLimit != 20 {
		t.Errorf("Default runs limit = %d, want 20", jobs.runsLimit)
	}
}

func TestJobRuns_UnknownJob(t *testing.T) {
	jobs := &mockJobs{jobs: registeredJobs()}

	srv := newTestServer(t, Deps{Jobs: jobs})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/jobs/no-such-job/runs", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != "UNKNOWN_JOB" {
		t.Errorf("Error = %+v, want UNKNOWN_JOB", resp.Error)
	}
}

func TestTriggerJob_Accepted(t *testing.T) {
	started := time.Now().UTC()
	jobs := &mockJobs{
		jobs: registeredJobs(),
		run:  models.JobRun{RunID: "run-7", JobName: "similarity-refresh", Status: "running", StartedAt: started},
	}

	srv := newTestServer(t, Deps{Jobs: jobs})
	w := doRequest(t, srv, http.MethodPost, "/api/v1/jobs/similarity-refresh/trigger", "")

	if w.Code != http.StatusAccepted {
		t.Fatalf("Status = %d, want 202 (body: %s)", w.Code, w.Body.String())
	}
	if jobs.triggerIn != "similarity-refresh" {
		t.Errorf("Triggered %q, want similarity-refresh", jobs.triggerIn)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["status"] != "running" {
		t.Errorf("Run status = %v, want running", data["status"])
	}
}

func TestTriggerJob_SkippedWhileRunning(t *testing.T) {
	jobs := &mockJobs{
		jobs: registeredJobs(),
		run: models.JobRun{
			RunID:   "run-8",
			JobName: "similarity-refresh",
			Status:  "skipped",
			Detail:  "previous run still in progress",
		},
	}

	srv := newTestServer(t, Deps{Jobs: jobs})
	w := doRequest(t, srv, http.MethodPost, "/api/v1/jobs/similarity-refresh/trigger", "")

	// A skipped trigger is still accepted: the record says what happened.
	if w.Code != http.StatusAccepted {
		t.Fatalf("Status = %d, want 202", w.Code)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["status"] != "skipped" {
		t.Errorf("Run status = %v, want skipped", data["status"])
	}
}

func TestTriggerJob_UnknownJob(t *testing.T) {
	jobs := &mockJobs{err: scheduler.ErrUnknownJob}

	srv := newTestServer(t, Deps{Jobs: jobs})
	w := doRequest(t, srv, http.MethodPost, "/api/v1/jobs/bogus/trigger", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != "UNKNOWN_JOB" {
		t.Errorf("Error = %+v, want UNKNOWN_JOB", resp.Error)
	}
}
