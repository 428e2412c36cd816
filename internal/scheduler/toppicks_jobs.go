package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/toppicks"
)

// Universes is the fixed set of universes every preopen/hourly/scalping job
// fans a run out across (§4.1).
var Universes = []string{"NIFTY50", "BANKNIFTY"}

// Locker is the distributed-lock boundary a TopPicksJob acquires before
// running, so only one process instance runs a given (universe, mode) at
// once. Backed by internal/kv.Store in production.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) string
	ReleaseLock(ctx context.Context, key, token string)
}

// Runner is the narrow TopPicksEngine boundary a job depends on.
type Runner interface {
	Run(ctx context.Context, universe string, mode domain.Mode, trigger domain.RunTrigger) (domain.TopPicksRun, error)
}

const lockTTL = 15 * time.Minute

// TopPicksJob runs the engine for one (universe, mode) pair under a
// distributed lock, keyed by lockKeyFn.
type TopPicksJob struct {
	universe  string
	mode      domain.Mode
	trigger   domain.RunTrigger
	engine    Runner
	locker    Locker
	lockKeyFn func(universe string, mode domain.Mode) string
	log       zerolog.Logger
}

// NewTopPicksJob builds a job for (universe, mode) using trigger as the
// RunTrigger passed to the engine.
func NewTopPicksJob(universe string, mode domain.Mode, trigger domain.RunTrigger, engine Runner, locker Locker, lockKeyFn func(string, domain.Mode) string, log zerolog.Logger) *TopPicksJob {
	return &TopPicksJob{
		universe:  universe,
		mode:      mode,
		trigger:   trigger,
		engine:    engine,
		locker:    locker,
		lockKeyFn: lockKeyFn,
		log:       log.With().Str("component", "top_picks_job").Logger(),
	}
}

func (j *TopPicksJob) Name() string {
	return fmt.Sprintf("top_picks:%s:%s:%s", j.universe, j.mode, j.trigger)
}

// Run acquires the (universe, mode) lock, skipping the run entirely if
// another instance already holds it, then releases on completion.
func (j *TopPicksJob) Run(ctx context.Context) error {
	key := j.lockKeyFn(j.universe, j.mode)
	token := j.locker.AcquireLock(ctx, key, lockTTL)
	if token == "" {
		j.log.Debug().Str("universe", j.universe).Str("mode", string(j.mode)).Msg("lock already held, skipping run")
		return nil
	}
	defer j.locker.ReleaseLock(ctx, key, token)

	_, err := j.engine.Run(ctx, j.universe, j.mode, j.trigger)
	if errors.Is(err, toppicks.ErrHardCutoff) {
		// Expected daily skip past the 15:15 IST hard cutoff (§4.1), already
		// logged at info level inside engine.Run — not a job failure.
		return nil
	}
	return err
}

// RegisterTopPicksJobs wires marketclock.Schedule's preopen/hourly/scalping
// entries into sched, one job per (entry, mode, universe) fanned out across
// each entry's Modes and Universes (§4.1). Other schedule entries (EOD
// outcomes, dashboard refresh, monitors, nightly RL) are registered
// individually in cmd/server.
func RegisterTopPicksJobs(sched *Scheduler, entries []ScheduleEntrySource, engine Runner, locker Locker, lockKeyFn func(string, domain.Mode) string, log zerolog.Logger) error {
	for _, entry := range entries {
		trigger := triggerFor(entry.Job)
		if trigger == "" {
			continue
		}
		for _, mode := range entry.Modes {
			for _, universe := range Universes {
				job := NewTopPicksJob(universe, mode, trigger, engine, locker, lockKeyFn, log)
				if err := sched.AddJob(entry.Cron, job); err != nil {
					return fmt.Errorf("register %s: %w", job.Name(), err)
				}
			}
		}
	}
	return nil
}

// ScheduleEntrySource mirrors marketclock.ScheduleEntry's shape, decoupling
// this package from importing marketclock's full job-name vocabulary (only
// the three TopPicks-relevant job kinds matter here).
type ScheduleEntrySource struct {
	Job   string
	Cron  string
	Modes []domain.Mode
}

func triggerFor(job string) domain.RunTrigger {
	switch job {
	case "preopen_runs":
		return domain.TriggerPreopen
	case "scalping_cycle":
		return domain.TriggerScalpingCycle
	case "hourly_runs":
		return domain.TriggerHourly
	default:
		return ""
	}
}
