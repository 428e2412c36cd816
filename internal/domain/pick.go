// Package domain holds the core data model shared across the Top Picks
// Engine and its surrounding lifecycle: picks, agent contributions, realized
// outcomes, policies, exit profiles, support/resistance levels, run history,
// scalping exits, and strategy advisories. These are plain structs; no
// package in this module may mutate a PickEvent after it has been logged.
package domain

import (
	"strconv"
	"time"
)

// Direction is the trade direction a pick recommends.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Mode is a trading mode; it determines agent weights, exit profile,
// evaluation horizon, and filter thresholds.
type Mode string

const (
	ModeScalping Mode = "Scalping"
	ModeIntraday Mode = "Intraday"
	ModeSwing    Mode = "Swing"
	ModeOptions  Mode = "Options"
	ModeFutures  Mode = "Futures"
)

// Recommendation is the label derived from an agent ensemble's blend score.
type Recommendation string

const (
	RecommendationStrongBuy  Recommendation = "Strong Buy"
	RecommendationBuy        Recommendation = "Buy"
	RecommendationNeutral    Recommendation = "Neutral"
	RecommendationHold       Recommendation = "Hold"
	RecommendationSell       Recommendation = "Sell"
	RecommendationStrongSell Recommendation = "Strong Sell"
)

// IsActionable reports whether the recommendation carries a direction and
// should be emitted as a pick. Neutral and Hold are filtered out (§4.5 step 4).
func (r Recommendation) IsActionable() bool {
	return r != RecommendationNeutral && r != RecommendationHold && r != ""
}

// Direction maps a recommendation to a trade direction. Only meaningful when
// IsActionable() is true.
func (r Recommendation) Direction() Direction {
	switch r {
	case RecommendationStrongBuy, RecommendationBuy:
		return DirectionLong
	case RecommendationSell, RecommendationStrongSell:
		return DirectionShort
	default:
		return ""
	}
}

// ExtraContext is the opaque structured bag attached to a PickEvent. Only a
// handful of keys are well known; the rest is provider-specific metadata.
type ExtraContext struct {
	BanditCtx      string         `json:"bandit_ctx,omitempty"`
	ExitProfileID  string         `json:"exit_profile_id,omitempty"`
	EntryActionID  string         `json:"entry_action_id,omitempty"`
	SessionSegment string         `json:"session_segment,omitempty"`
	ValueBucket    string         `json:"value_bucket,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// PickEvent is an immutable append record: one row per actionable trade idea
// emitted by the Top Picks Engine for a given (universe, mode) run. Invariant:
// TradeDate is the IST calendar date of SignalTS; PickUUID is globally unique.
type PickEvent struct {
	PickUUID          string
	Symbol            string
	Direction         Direction
	Source            string
	Mode              Mode
	SignalTS          time.Time // UTC
	TradeDate         string    // IST calendar date, "2006-01-02"
	SignalPrice       float64
	RecommendedEntry  *float64
	RecommendedTarget *float64
	RecommendedStop   *float64
	TimeHorizon       string
	BlendScore        float64
	Recommendation    Recommendation
	Confidence        string
	RegimeBucket      string
	VolBucket         string
	UserRiskBucket    string
	Universe          string
	ExtraContext      ExtraContext
	RunID             string
}

// AgentContribution is one agent's scored input into a PickEvent's blend.
// Invariant: every contribution belongs to exactly one PickEvent.
type AgentContribution struct {
	PickUUID   string
	AgentName  string
	Score      *float64 // nil when the agent could not score the symbol
	Confidence string
	Metadata   map[string]any
}

// EvaluationHorizon classifies when a PickOutcome was measured.
type EvaluationHorizon string

const (
	HorizonEOD      EvaluationHorizon = "EOD"
	HorizonScalping EvaluationHorizon = "SCALPING"
)

// FixedDaysHorizon builds the evaluation horizon label for a fixed N-day
// window, e.g. FixedDaysHorizon(3) == "FIXED_DAYS_3".
func FixedDaysHorizon(days int) EvaluationHorizon {
	if days <= 0 {
		return HorizonEOD
	}
	return EvaluationHorizon("FIXED_DAYS_" + strconv.Itoa(days))
}

// OutcomeLabel classifies a realized trade outcome.
type OutcomeLabel string

const (
	OutcomeWin       OutcomeLabel = "WIN"
	OutcomeLoss      OutcomeLabel = "LOSS"
	OutcomeBreakeven OutcomeLabel = "BREAKEVEN"
)

// ClassifyOutcome applies spec.md §4.12 step 5 thresholds.
func ClassifyOutcome(retClosePct float64) OutcomeLabel {
	switch {
	case retClosePct > 0.5:
		return OutcomeWin
	case retClosePct < -0.5:
		return OutcomeLoss
	default:
		return OutcomeBreakeven
	}
}

// PickOutcome is the realized result of a PickEvent measured over a given
// horizon. Invariant: (PickUUID, EvaluationHorizon) is unique.
type PickOutcome struct {
	PickUUID           string
	EvaluationHorizon  EvaluationHorizon
	HorizonEndTS       time.Time
	PriceClose         float64
	PriceHigh          float64
	PriceLow           float64
	RetClosePct        float64
	MaxRunupPct        float64
	MaxDrawdownPct     float64
	BenchmarkSymbol    string
	BenchmarkRetPct    *float64
	HitTarget          bool
	HitStop            bool
	OutcomeLabel       OutcomeLabel
	Notes              OutcomeNotes
}

// OutcomeNotes is the structured JSON companion of a PickOutcome.
type OutcomeNotes struct {
	CaptureRatio float64        `json:"capture_ratio"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// ClipCaptureRatio computes capture_ratio = clip(ret/runup, 0, 1), per §4.12
// step 6; when runup <= 0 the ratio is undefined and reported as 0.
func ClipCaptureRatio(retPct, runupPct float64) float64 {
	if runupPct <= 0 {
		return 0
	}
	r := retPct / runupPct
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
