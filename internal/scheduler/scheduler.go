// Package scheduler drives the IST cron trigger table (marketclock.Schedule)
// against a registered set of Jobs. TopPicksJobs are each guarded by a
// KV-backed distributed lock so only one process instance executes a given
// (universe, mode) run at a time; the other jobs take no lock.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one schedulable unit of work.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler wraps a robfig/cron instance with structured logging and a
// RunNow escape hatch for manual/backfill triggers, grounded on the
// teacher's scheduler.Scheduler.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu       sync.RWMutex
	lastTick time.Time
}

// New builds a Scheduler parsing standard 5-field cron specs in IST, since
// marketclock.Schedule is expressed in 5-field form.
func New(log zerolog.Logger) *Scheduler {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// LastTickAge returns how long ago any registered job last completed a run,
// for /healthz's scheduler-liveness check (reliability.SchedulerHeartbeat).
// A zero duration before the first tick looks alive rather than stale.
func (s *Scheduler) LastTickAge() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastTick.IsZero() {
		return 0
	}
	return time.Since(s.lastTick)
}

// Start starts the underlying cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop blocks until all running jobs finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job against a 5-field cron spec.
func (s *Scheduler) AddJob(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.Debug().Str("job", job.Name()).Msg("running job")
		defer func() {
			s.mu.Lock()
			s.lastTick = time.Now()
			s.mu.Unlock()
		}()
		if err := job.Run(context.Background()); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
			return
		}
		s.log.Debug().Str("job", job.Name()).Msg("job completed")
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", spec).Str("job", job.Name()).Msg("job registered")
	return nil
}

// RunNow executes job immediately, bypassing its cron schedule. Used for
// manual/backfill triggers.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	return job.Run(ctx)
}
