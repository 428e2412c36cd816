package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/kv"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
)

// RunLookup is the narrow TopPicksStore boundary the dashboard refresh job
// reads through.
type RunLookup interface {
	GetLatestRunFor(ctx context.Context, universe string, mode domain.Mode) (domain.TopPicksRun, bool)
}

// Cache is the narrow kv.Store boundary the dashboard refresh job writes
// through.
type Cache interface {
	SetJSON(ctx context.Context, key string, value any, ex time.Duration)
}

// DashboardBroadcaster is the narrow wshub.Hub boundary the dashboard
// refresh job pushes the "dashboard_update" event through.
type DashboardBroadcaster interface {
	Broadcast(messageType string, payload any)
}

// modes the dashboard overview aggregates across; Options/Futures share
// Intraday's cadence so they ride the same refresh.
var dashboardModes = []domain.Mode{domain.ModeScalping, domain.ModeIntraday, domain.ModeSwing, domain.ModeOptions, domain.ModeFutures}

// RunSummary is one (universe, mode)'s latest-run slice of the dashboard
// overview payload.
type RunSummary struct {
	Universe      string      `json:"universe"`
	Mode          domain.Mode `json:"mode"`
	RunID         string      `json:"run_id"`
	GeneratedAt   time.Time   `json:"generated_at"`
	PicksCount    int         `json:"picks_count"`
	TotalAnalyzed int         `json:"total_analyzed"`
}

// DashboardOverview is the lightweight intraday aggregation published to
// dashboard:overview:intraday and broadcast over the "dashboard_update"
// WebSocket event (§4.11 dashboard refresh).
type DashboardOverview struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Runs        []RunSummary `json:"runs"`
}

// DashboardRefreshJob runs every 15 minutes on weekdays
// (marketclock.JobDashboardRefresh; Run itself has no market-hours gate),
// re-aggregating the latest TopPicksRun
// per (universe, mode) into a lightweight overview cached in Redis and
// pushed to connected dashboards.
type DashboardRefreshJob struct {
	runs     RunLookup
	cache    Cache
	hub      DashboardBroadcaster
	universes []string
	clock    marketclock.Clock
	log      zerolog.Logger
}

func NewDashboardRefreshJob(runs RunLookup, cache Cache, hub DashboardBroadcaster, universes []string, clock marketclock.Clock, log zerolog.Logger) *DashboardRefreshJob {
	return &DashboardRefreshJob{
		runs: runs, cache: cache, hub: hub, universes: universes, clock: clock,
		log: log.With().Str("component", "dashboard_refresh_job").Logger(),
	}
}

func (j *DashboardRefreshJob) Name() string { return string(marketclock.JobDashboardRefresh) }

func (j *DashboardRefreshJob) Run(ctx context.Context) error {
	overview := DashboardOverview{GeneratedAt: j.clock.NowIST()}
	for _, universe := range j.universes {
		for _, mode := range dashboardModes {
			run, ok := j.runs.GetLatestRunFor(ctx, universe, mode)
			if !ok {
				continue
			}
			overview.Runs = append(overview.Runs, RunSummary{
				Universe:      universe,
				Mode:          mode,
				RunID:         run.RunID,
				GeneratedAt:   run.GeneratedAtUTC,
				PicksCount:    run.PicksCount,
				TotalAnalyzed: run.TotalAnalyzed,
			})
		}
	}

	j.cache.SetJSON(ctx, kv.DashboardOverviewIntradayKey(), overview, kv.TTLDashboardIntraday)
	if j.hub != nil {
		j.hub.Broadcast("dashboard_update", overview)
	}
	return nil
}
