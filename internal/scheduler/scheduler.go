// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/metrics"
	"github.com/tomtom215/criticus/internal/models"
)

// Run status values recorded per job run.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// ErrUnknownJob is returned by Trigger for an unregistered job name.
var ErrUnknownJob = errors.New("unknown job")

// JobFunc does the work of one run. The returned detail string lands in
// the run record on success.
type JobFunc func(ctx context.Context) (string, error)

// Job declares one schedulable unit. Exactly one of Interval or Cron
// must be set.
type Job struct {
	Name     string
	Interval time.Duration
	Cron     string
	Timeout  time.Duration
	Run      JobFunc
}

type job struct {
	def      Job
	schedule *Schedule

	running atomic.Bool

	// nextRun is guarded by Scheduler.mu.
	nextRun time.Time
}

func (j *job) nextAfter(now time.Time) time.Time {
	if j.schedule != nil {
		return j.schedule.Next(now)
	}
	return now.Add(j.def.Interval)
}

func (j *job) describeSchedule() string {
	if j.def.Cron != "" {
		return j.def.Cron
	}
	return fmt.Sprintf("every %s", j.def.Interval)
}

// Config holds scheduler settings.
type Config struct {
	// CheckInterval is how often due jobs are looked for (default: 15s).
	CheckInterval time.Duration

	// HistorySize is the run-record ring capacity (default: 50).
	HistorySize int
}

// Scheduler owns the registered jobs and their run history. It runs as
// one supervised service.
type Scheduler struct {
	cfg Config

	mu    sync.Mutex
	jobs  map[string]*job
	order []string

	history *history
}

// New creates a scheduler with no jobs registered.
func New(cfg Config) *Scheduler {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 15 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	return &Scheduler{
		cfg:     cfg,
		jobs:    make(map[string]*job),
		history: newHistory(cfg.HistorySize),
	}
}

// Register adds a job. Interval jobs first fire one interval after
// registration; cron jobs fire at the next matching instant.
func (s *Scheduler) Register(def Job) error {
	if def.Name == "" {
		return fmt.Errorf("job needs a name")
	}
	if def.Run == nil {
		return fmt.Errorf("job %s needs a run function", def.Name)
	}
	if (def.Interval > 0) == (def.Cron != "") {
		return fmt.Errorf("job %s needs exactly one of interval or cron", def.Name)
	}

	j := &job{def: def}
	if def.Cron != "" {
		sched, err := ParseSchedule(def.Cron)
		if err != nil {
			return fmt.Errorf("job %s: %w", def.Name, err)
		}
		j.schedule = sched
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[def.Name]; ok {
		return fmt.Errorf("job %s already registered", def.Name)
	}
	j.nextRun = j.nextAfter(time.Now())
	s.jobs[def.Name] = j
	s.order = append(s.order, def.Name)

	logging.Info().
		Str("job", def.Name).
		Str("schedule", j.describeSchedule()).
		Time("next_run", j.nextRun).
		Msg("Job registered")
	return nil
}

// Serve fires due jobs until ctx is canceled. Implements suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.mu.Lock()
	count := len(s.jobs)
	s.mu.Unlock()

	logging.Info().
		Dur("check_interval", s.cfg.CheckInterval).
		Int("jobs", count).
		Msg("Scheduler started")

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.runDue(ctx, now)
		}
	}
}

// String identifies the scheduler in supervisor logs.
func (s *Scheduler) String() string {
	return "job-scheduler"
}

// runDue starts every job whose fire time has passed. The next fire time
// advances immediately, so a job that outruns its own schedule skips
// fires instead of queueing them.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []*job
	for _, name := range s.order {
		j := s.jobs[name]
		if !j.nextRun.After(now) {
			j.nextRun = j.nextAfter(now)
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		go func(j *job) {
			run, ok := s.begin(j, "schedule")
			if !ok {
				return
			}
			s.runClaimed(ctx, j, run)
		}(j)
	}
}

// Trigger starts the named job now and returns its run record without
// waiting for completion. A job already in flight yields a skipped
// record instead of a second run.
func (s *Scheduler) Trigger(name string) (models.JobRun, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return models.JobRun{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	run, started := s.begin(j, "manual")
	if !started {
		return run, nil
	}

	// Manual runs detach from the request: the job timeout is the only
	// bound, same as a scheduled fire.
	go s.runClaimed(context.Background(), j, run)
	return run, nil
}

// Runs returns run records, newest first. Empty jobName matches all
// jobs; limit <= 0 returns everything retained.
func (s *Scheduler) Runs(jobName string, limit int) []models.JobRun {
	return s.history.list(jobName, limit)
}

// JobStatus describes one registered job for the admin surface.
type JobStatus struct {
	Name     string         `json:"name"`
	Schedule string         `json:"schedule"`
	Running  bool           `json:"running"`
	NextRun  time.Time      `json:"next_run"`
	LastRun  *models.JobRun `json:"last_run,omitempty"`
}

// Jobs returns the registered jobs in registration order.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		j := s.jobs[name]
		st := JobStatus{
			Name:     name,
			Schedule: j.describeSchedule(),
			Running:  j.running.Load(),
			NextRun:  j.nextRun,
		}
		if runs := s.history.list(name, 1); len(runs) > 0 {
			st.LastRun = &runs[0]
		}
		out = append(out, st)
	}
	return out
}

// begin claims the job's single run slot. On success the returned record
// is already in the history with status running; on an occupied slot a
// skipped record is added and returned instead.
func (s *Scheduler) begin(j *job, trigger string) (models.JobRun, bool) {
	name := j.def.Name
	now := time.Now()

	if !j.running.CompareAndSwap(false, true) {
		run := models.JobRun{
			RunID:      uuid.New().String(),
			JobName:    name,
			Status:     StatusSkipped,
			StartedAt:  now,
			FinishedAt: now,
			Detail:     "previous run still in progress",
		}
		s.history.add(run)
		metrics.RecordJobRun(name, StatusSkipped, 0)
		logging.Warn().
			Str("job", name).
			Str("trigger", trigger).
			Msg("Job already running, fire skipped")
		return run, false
	}

	run := models.JobRun{
		RunID:     uuid.New().String(),
		JobName:   name,
		Status:    StatusRunning,
		StartedAt: now,
	}
	s.history.add(run)
	logging.Info().
		Str("job", name).
		Str("run_id", run.RunID).
		Str("trigger", trigger).
		Msg("Job started")
	return run, true
}

// runClaimed runs a claimed job to completion and releases the slot.
func (s *Scheduler) runClaimed(ctx context.Context, j *job, run models.JobRun) {
	rctx := ctx
	if j.def.Timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, j.def.Timeout)
		defer cancel()
	}

	detail, err := j.def.Run(rctx)
	s.finish(j, run, detail, err)
}

func (s *Scheduler) finish(j *job, run models.JobRun, detail string, err error) {
	j.running.Store(false)

	finished := time.Now()
	elapsed := finished.Sub(run.StartedAt)
	name := j.def.Name

	if err != nil {
		s.history.update(run.RunID, func(r *models.JobRun) {
			r.Status = StatusFailed
			r.FinishedAt = finished
			r.Error = err.Error()
		})
		metrics.RecordJobRun(name, StatusFailed, elapsed)
		logging.Error().
			Err(err).
			Str("job", name).
			Str("run_id", run.RunID).
			Dur("duration", elapsed).
			Msg("Job failed")
		return
	}

	s.history.update(run.RunID, func(r *models.JobRun) {
		r.Status = StatusSucceeded
		r.FinishedAt = finished
		r.Detail = detail
	})
	metrics.RecordJobRun(name, StatusSucceeded, elapsed)
	logging.Info().
		Str("job", name).
		Str("run_id", run.RunID).
		Dur("duration", elapsed).
		Str("detail", detail).
		Msg("Job finished")
}
