package domain

import "time"

// RunTrigger identifies what caused a TopPicksEngine run.
type RunTrigger string

const (
	TriggerPreopen      RunTrigger = "preopen"
	TriggerHourly       RunTrigger = "hourly"
	TriggerScalpingCycle RunTrigger = "scalping_cycle"
	TriggerManual       RunTrigger = "manual"
	TriggerBackfill     RunTrigger = "backfill"
	TriggerWarmup       RunTrigger = "warmup"
)

// DefaultRunRetention is the default TopPicksRun retention window (§3
// TopPicksRun).
const DefaultRunRetention = 90 * 24 * time.Hour

// TopPicksRun is an append-only record of one TopPicksEngine execution.
// Invariant: never updated in place once written.
type TopPicksRun struct {
	RunID          string
	Universe       string
	Mode           Mode
	GeneratedAtUTC time.Time
	Trigger        RunTrigger
	TotalAnalyzed  int
	FilteredCount  int
	PicksCount     int
	ElapsedSec     float64
	Payload        RunPayload
}

// RunPayload is the full engine output attached to a TopPicksRun, retained
// for replay/audit.
type RunPayload struct {
	Picks        []PickEvent          `json:"picks"`
	Contributions []AgentContribution `json:"contributions,omitempty"`
	Notes        map[string]any       `json:"notes,omitempty"`
}
