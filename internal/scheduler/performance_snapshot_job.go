package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/kv"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
)

const performanceSnapshotLookbackDays = 7

// ModePerformance is one mode's trailing-window aggregate within a
// PerformanceSnapshot.
type ModePerformance struct {
	Mode        domain.Mode `json:"mode"`
	PicksGraded int         `json:"picks_graded"`
	WinRate     float64     `json:"win_rate"`
	AvgRetPct   float64     `json:"avg_ret_pct"`
	HitStopRate float64     `json:"hit_stop_rate"`
}

// PerformanceSnapshot is the rolling 7-day performance overview cached at
// dashboard:overview:performance:7d (§4.11).
type PerformanceSnapshot struct {
	GeneratedAt time.Time         `json:"generated_at"`
	WindowDays  int               `json:"window_days"`
	Modes       []ModePerformance `json:"modes"`
}

// PerformanceSnapshotJob runs once daily at 20:00 IST
// (marketclock.JobDailyPerformanceSnapshot), aggregating the trailing
// 7-day win rate and average return per mode over graded picks.
type PerformanceSnapshotJob struct {
	picks GradedPickSource
	cache Cache
	clock marketclock.Clock
	log   zerolog.Logger
}

func NewPerformanceSnapshotJob(picks GradedPickSource, cache Cache, clock marketclock.Clock, log zerolog.Logger) *PerformanceSnapshotJob {
	return &PerformanceSnapshotJob{picks: picks, cache: cache, clock: clock, log: log.With().Str("component", "performance_snapshot_job").Logger()}
}

func (j *PerformanceSnapshotJob) Name() string { return string(marketclock.JobDailyPerformanceSnapshot) }

func (j *PerformanceSnapshotJob) Run(ctx context.Context) error {
	now := j.clock.NowIST()
	since := marketclock.TradeDateIST(now.AddDate(0, 0, -performanceSnapshotLookbackDays))

	graded, err := j.picks.GradedPicksSince(ctx, since)
	if err != nil {
		return err
	}

	byMode := map[domain.Mode][]float64{}
	wins := map[domain.Mode]int{}
	stops := map[domain.Mode]int{}
	for _, gp := range graded {
		byMode[gp.Pick.Mode] = append(byMode[gp.Pick.Mode], gp.Outcome.RetClosePct)
		if gp.Outcome.RetClosePct > 0 {
			wins[gp.Pick.Mode]++
		}
		if gp.Outcome.HitStop {
			stops[gp.Pick.Mode]++
		}
	}

	snapshot := PerformanceSnapshot{GeneratedAt: now, WindowDays: performanceSnapshotLookbackDays}
	for mode, rets := range byMode {
		n := len(rets)
		sum := 0.0
		for _, r := range rets {
			sum += r
		}
		snapshot.Modes = append(snapshot.Modes, ModePerformance{
			Mode:        mode,
			PicksGraded: n,
			WinRate:     float64(wins[mode]) / float64(n),
			AvgRetPct:   sum / float64(n),
			HitStopRate: float64(stops[mode]) / float64(n),
		})
	}

	j.cache.SetJSON(ctx, kv.DashboardOverviewPerformance7DKey(), snapshot, kv.TTLDashboardPerformance7D)
	return nil
}
