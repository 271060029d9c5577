// Package scheduler runs periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownJob = errors.New("unknown job")
	ErrNotRunning = errors.New("scheduler is not running")
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// JobStatus describes a registered job.
type JobStatus struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

type jobState struct {
	job     Job
	entryID cron.EntryID
	lastRun *time.Time
	lastErr error
}

// Scheduler manages a fixed set of jobs on one cron instance.
type Scheduler struct {
	cron *cron.Cron
	jobs []*jobState

	mu         sync.RWMutex
	isRunning  bool
	jobCtx     context.Context
	cancelFunc context.CancelFunc
	inflight   sync.WaitGroup
}

// New creates a scheduler for jobs. Every schedule is validated up front.
func New(jobs ...Job) (*Scheduler, error) {
	logger := cronLogger{log: log.With().Str("component", "cron").Logger()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		jobCtx: context.Background(),
	}

	seen := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		if seen[job.Name] {
			return nil, fmt.Errorf("duplicate job %q", job.Name)
		}
		seen[job.Name] = true
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return nil, fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
		s.jobs = append(s.jobs, &jobState{job: job})
	}
	return s, nil
}

// Start registers every job and begins the cron loop. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	for _, st := range s.jobs {
		if st.entryID != 0 {
			continue
		}
		st := st
		entryID, err := s.cron.AddFunc(st.job.Schedule, func() { s.run(st) })
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", st.job.Name, err)
		}
		st.entryID = entryID
	}

	// Jobs run to completion even after ctx is cancelled.
	s.jobCtx = context.WithoutCancel(ctx)
	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	for _, st := range s.jobs {
		next, _ := GetNextRunTime(st.job.Schedule, time.Now().UTC())
		log.Info().
			Str("job", st.job.Name).
			Str("schedule", st.job.Schedule).
			Str("description", GetCronDescription(st.job.Schedule)).
			Time("next_run", *next).
			Msg("Scheduled job")
	}

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron loop and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.inflight.Wait()
	if cancel != nil {
		cancel()
	}

	log.Info().Msg("Scheduler stopped")
}

// RunNow triggers the named job in the background. Stop waits for it.
func (s *Scheduler) RunNow(name string) error {
	st := s.find(name)
	if st == nil {
		return fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}

	// Stop flips isRunning under the write lock before it waits on inflight,
	// so an Add made while holding the read lock always happens before Wait.
	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		return ErrNotRunning
	}
	s.inflight.Add(1)
	s.mu.RUnlock()

	go func() {
		defer s.inflight.Done()
		s.run(st)
	}()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status lists every job with its next and last run.
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := make(map[cron.EntryID]time.Time)
	if s.isRunning {
		for _, entry := range s.cron.Entries() {
			next[entry.ID] = entry.Next
		}
	}

	out := make([]JobStatus, 0, len(s.jobs))
	for _, st := range s.jobs {
		status := JobStatus{
			Name:        st.job.Name,
			Schedule:    st.job.Schedule,
			Description: GetCronDescription(st.job.Schedule),
			LastRun:     st.lastRun,
		}
		if t, ok := next[st.entryID]; ok && !t.IsZero() {
			t := t
			status.NextRun = &t
		}
		if st.lastErr != nil {
			status.LastError = st.lastErr.Error()
		}
		out = append(out, status)
	}
	return out
}

func (s *Scheduler) find(name string) *jobState {
	for _, st := range s.jobs {
		if st.job.Name == name {
			return st
		}
	}
	return nil
}

// run performs one job execution and records its outcome.
func (s *Scheduler) run(st *jobState) {
	s.mu.RLock()
	ctx := s.jobCtx
	s.mu.RUnlock()

	start := time.Now()
	err := st.job.Run(ctx)
	if err != nil {
		log.Error().Err(err).Str("job", st.job.Name).Msg("Scheduled job failed")
	} else {
		log.Debug().Str("job", st.job.Name).Dur("duration", time.Since(start)).Msg("Scheduled job finished")
	}

	started := start.UTC()
	s.mu.Lock()
	st.lastRun = &started
	st.lastErr = err
	s.mu.Unlock()
}
