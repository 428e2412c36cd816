package toppicks

import "github.com/arise-platform/toppicks-engine/internal/domain"

// DefaultScalpingMaxHoldMins is the default scalping time-stop (§4.5 step 6).
const DefaultScalpingMaxHoldMins = 60

// TargetsLadder is the three-tier scalping profit-taking schedule.
type TargetsLadder struct {
	TP1Pct float64 `json:"tp1_pct"`
	TP2Pct float64 `json:"tp2_pct"`
	TP3Pct float64 `json:"tp3_pct"`
}

// ScalpingTrailing is the scalping-mode trailing-stop configuration.
type ScalpingTrailing struct {
	ActivationPct     float64 `json:"activation_pct"`
	TrailDistancePct  float64 `json:"trail_distance_pct"`
}

// ExitStrategy is the per-pick exit plan attached under a PickEvent's
// ExtraContext (§4.5 step 6). Scalping picks carry an ATR-derived ladder;
// every other mode references a PolicyStore-resolved ExitProfile by id.
type ExitStrategy struct {
	Mode domain.Mode `json:"mode"`

	// Scalping-only fields.
	TargetPct    float64          `json:"target_pct,omitempty"`
	StopPct      float64          `json:"stop_pct,omitempty"`
	MaxHoldMins  int              `json:"max_hold_mins,omitempty"`
	Trailing     ScalpingTrailing `json:"trailing,omitempty"`
	TargetsLadder TargetsLadder   `json:"targets_ladder,omitempty"`

	// Other-modes field: the chosen ExitProfile id, resolved from the
	// active Policy via the exit bandit.
	ExitProfileID string `json:"exit_profile_id,omitempty"`
}

// BuildScalpingExitStrategy derives the ATR%-based scalping exit ladder
// (§4.5 step 6 "Scalping"): target/stop distances scaled off the ATR
// percentage, a default 60-minute time stop, and a trailing-stop activating
// at half the target distance.
func BuildScalpingExitStrategy(atrPct float64) ExitStrategy {
	if atrPct <= 0 {
		atrPct = 1.0
	}
	targetPct := atrPct * 1.5
	stopPct := atrPct * 1.0

	return ExitStrategy{
		Mode:        domain.ModeScalping,
		TargetPct:   targetPct,
		StopPct:     stopPct,
		MaxHoldMins: DefaultScalpingMaxHoldMins,
		Trailing: ScalpingTrailing{
			ActivationPct:    targetPct * 0.5,
			TrailDistancePct: stopPct * 0.5,
		},
		TargetsLadder: TargetsLadder{
			TP1Pct: targetPct * 0.5,
			TP2Pct: targetPct * 0.8,
			TP3Pct: targetPct,
		},
	}
}

// BuildPolicyExitStrategy attaches the bandit-resolved ExitProfile id for
// non-scalping modes (§4.5 step 6 "Other modes").
func BuildPolicyExitStrategy(mode domain.Mode, exitProfileID string) ExitStrategy {
	return ExitStrategy{Mode: mode, ExitProfileID: exitProfileID}
}
