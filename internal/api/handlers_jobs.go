// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/criticus/internal/models"
	"github.com/tomtom215/criticus/internal/scheduler"
)

// jobName extracts the job name URL parameter bound by the router.
func jobName(r *http.Request) string {
	return chi.URLParam(r, "name")
}

// Jobs lists the registered background jobs with their schedules, next
// fire times, and most recent run records.
//
// Method: GET
// Path: /api/v1/jobs
//
// Response:
//   - 200: job list retrieved
func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.deps.Jobs.Jobs()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"jobs":  jobs,
			"count": len(jobs),
		},
		Metadata: metadata(r),
	})
}

// JobRuns returns the run history for one job, newest first.
//
// Method: GET
// Path: /api/v1/jobs/{name}/runs
//
// Query parameters:
//   - limit: maximum records returned (default 20)
//
// Response:
//   - 200: history retrieved (may be empty for a job that never fired)
//   - 404: no job registered under that name
func (h *Handler) JobRuns(w http.ResponseWriter, r *http.Request) {
	name := jobName(r)
	if !h.knownJob(name) {
		respondError(w, r, http.StatusNotFound, "UNKNOWN_JOB", "No job registered under that name", nil)
		return
	}

	runs := h.deps.Jobs.Runs(name, getIntParam(r, "limit", 20))

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"job":   name,
			"runs":  runs,
			"count": len(runs),
		},
		Metadata: metadata(r),
	})
}

// TriggerJob starts a job outside its schedule. The run executes in the
// background: the response carries the run record in its initial state,
// and the run history shows the outcome once the job finishes. When the
// job is already running the trigger is recorded as skipped, never
// queued.
//
// Method: POST
// Path: /api/v1/jobs/{name}/trigger
//
// Response:
//   - 202: run started (status "running") or rejected (status "skipped")
//   - 404: no job registered under that name
func (h *Handler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	name := jobName(r)

	run, err := h.deps.Jobs.Trigger(name)
	if err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			respondError(w, r, http.StatusNotFound, "UNKNOWN_JOB", "No job registered under that name", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to trigger job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status:   "success",
		Data:     run,
		Metadata: metadata(r),
	})
}

// knownJob reports whether a job name is registered with the scheduler.
func (h *Handler) knownJob(name string) bool {
	for _, job := range h.deps.Jobs.Jobs() {
		if job.Name == name {
			return true
		}
	}
	return false
}
