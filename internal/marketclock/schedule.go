package marketclock

import "github.com/arise-platform/toppicks-engine/internal/domain"

// JobName identifies one of the scheduler's registered recurring jobs.
type JobName string

const (
	JobPreopenRuns            JobName = "preopen_runs"
	JobScalpingCycle          JobName = "scalping_cycle"
	JobHourlyRuns             JobName = "hourly_runs"
	JobEODOutcomes            JobName = "eod_outcomes"
	JobDashboardRefresh       JobName = "dashboard_refresh"
	JobDailyPerformanceSnapshot JobName = "daily_performance_snapshot"
	JobPortfolioMonitor       JobName = "portfolio_monitor"
	JobNonScalpingMonitor     JobName = "non_scalping_positions_monitor"
	JobScalpingMonitor        JobName = "scalping_positions_monitor"
	JobNightlyRL              JobName = "nightly_rl_training"
	JobOffsiteBackup          JobName = "offsite_backup"
)

// ScheduleEntry is one cron trigger for a named job, expressed as a 5-field
// cron spec in IST (the scheduler's cron.Cron instance must be constructed
// with an IST-location parser).
type ScheduleEntry struct {
	Job   JobName
	Cron  string
	Modes []domain.Mode // empty means "all modes" / not mode-scoped
}

// Schedule is the fixed IST cron trigger table from §4.1. Preopen and hourly
// runs fire once per (universe, mode); the scheduler fans each entry out
// across the configured universes.
var Schedule = []ScheduleEntry{
	// Preopen runs: 08:00 + 3*k, k=0..4, one slot per mode.
	{Job: JobPreopenRuns, Cron: "0 8 * * 1-5", Modes: []domain.Mode{domain.ModeScalping}},
	{Job: JobPreopenRuns, Cron: "3 8 * * 1-5", Modes: []domain.Mode{domain.ModeIntraday}},
	{Job: JobPreopenRuns, Cron: "6 8 * * 1-5", Modes: []domain.Mode{domain.ModeSwing}},
	{Job: JobPreopenRuns, Cron: "9 8 * * 1-5", Modes: []domain.Mode{domain.ModeOptions}},
	{Job: JobPreopenRuns, Cron: "12 8 * * 1-5", Modes: []domain.Mode{domain.ModeFutures}},

	// Scalping cycle: every 10 min, 09:00-15:59.
	{Job: JobScalpingCycle, Cron: "0/10 9-15 * * 1-5", Modes: []domain.Mode{domain.ModeScalping}},

	// Hourly runs: hour 09..15, minute = 33 + 3*k, one slot per non-scalping mode.
	{Job: JobHourlyRuns, Cron: "33 9-15 * * 1-5", Modes: []domain.Mode{domain.ModeIntraday}},
	{Job: JobHourlyRuns, Cron: "36 9-15 * * 1-5", Modes: []domain.Mode{domain.ModeSwing}},
	{Job: JobHourlyRuns, Cron: "39 9-15 * * 1-5", Modes: []domain.Mode{domain.ModeOptions}},
	{Job: JobHourlyRuns, Cron: "42 9-15 * * 1-5", Modes: []domain.Mode{domain.ModeFutures}},

	{Job: JobEODOutcomes, Cron: "0 16 * * 1-5"},
	{Job: JobDashboardRefresh, Cron: "*/15 * * * 1-5"},
	{Job: JobDailyPerformanceSnapshot, Cron: "0 20 * * 1-5"},
	{Job: JobPortfolioMonitor, Cron: "*/5 * * * 1-5"},
	{Job: JobNonScalpingMonitor, Cron: "*/5 * * * 1-5"},
	{Job: JobScalpingMonitor, Cron: "*/5 * * * 1-5"},
	{Job: JobNightlyRL, Cron: "0 23 * * 1-5"},
	{Job: JobOffsiteBackup, Cron: "0 2 * * *"},
}
