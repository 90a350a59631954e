// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package scheduler

import (
	"sync"

	"github.com/tomtom215/criticus/internal/models"
)

// history is a fixed-size ring of run records. Old runs fall off as new
// ones arrive; listing returns most recent first.
type history struct {
	mu   sync.RWMutex
	buf  []models.JobRun
	next int
	size int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]models.JobRun, capacity)}
}

func (h *history) add(run models.JobRun) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf[h.next] = run
	h.next = (h.next + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// update mutates the record with the given run id, if it is still in the
// ring. A record that aged out while its run was in flight is dropped.
func (h *history) update(runID string, mutate func(*models.JobRun)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := 0; i < h.size; i++ {
		idx := (h.next - 1 - i + len(h.buf)) % len(h.buf)
		if h.buf[idx].RunID == runID {
			mutate(&h.buf[idx])
			return
		}
	}
}

// list returns up to limit records, newest first. An empty jobName
// matches every job; limit <= 0 means no limit.
func (h *history) list(jobName string, limit int) []models.JobRun {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.JobRun, 0, h.size)
	for i := 0; i < h.size; i++ {
		idx := (h.next - 1 - i + len(h.buf)) % len(h.buf)
		if jobName != "" && h.buf[idx].JobName != jobName {
			continue
		}
		out = append(out, h.buf[idx])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
