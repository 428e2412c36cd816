package domain

import "time"

// PolicyStatus is the lifecycle state of a reinforcement meta-strategy.
type PolicyStatus string

const (
	PolicyDraft   PolicyStatus = "DRAFT"
	PolicyActive  PolicyStatus = "ACTIVE"
	PolicyRetired PolicyStatus = "RETIRED"
)

// StopType, TargetType, TrailActivationType classify how an exit level is
// expressed.
type StopType string
type TargetType string
type TrailActivationType string

const (
	StopPercent     StopType = "percent"
	StopPrice       StopType = "price"
	StopATRMultiple StopType = "atr_multiple"

	TargetPercent   TargetType = "percent"
	TargetPrice     TargetType = "price"
	TargetRRMulti   TargetType = "rr_multiple"

	ActivationPercent  TrailActivationType = "percent"
	ActivationRRMulti  TrailActivationType = "rr_multiple"
)

// ExitCondition is one of the four condition kinds an ExitProfile can fire on.
type ExitCondition string

const (
	ExitStop   ExitCondition = "STOP"
	ExitTrail  ExitCondition = "TRAIL"
	ExitTarget ExitCondition = "TARGET"
	ExitTime   ExitCondition = "TIME"
)

// DefaultExitPriority is the priority order used when a profile does not
// configure its own (§3 ExitProfile, §4.10 ExitProfileEvaluator step 4).
var DefaultExitPriority = []ExitCondition{ExitStop, ExitTrail, ExitTarget, ExitTime}

// StopConfig, TargetConfig, TrailingConfig, TimeStopConfig, ExitPriority are
// the embedded parameter blocks of an ExitProfile (§3).
type StopConfig struct {
	Type  StopType `json:"type"`
	Value float64  `json:"value"`
}

type TargetConfig struct {
	Type  TargetType `json:"type"`
	Value float64    `json:"value"`
}

type TrailingConfig struct {
	Enabled         bool                 `json:"enabled"`
	ActivationType  TrailActivationType  `json:"activation_type"`
	ActivationValue float64              `json:"activation_value"`
	TrailType       string               `json:"trail_type"`
	TrailValue      float64              `json:"trail_value"`
}

type TimeStopConfig struct {
	Enabled        bool `json:"enabled"`
	MaxHoldMinutes int  `json:"max_hold_minutes"`
}

type ExitPriorityConfig struct {
	Order []ExitCondition `json:"order"`
}

// ResolvedOrder returns Order if set, otherwise DefaultExitPriority.
func (p ExitPriorityConfig) ResolvedOrder() []ExitCondition {
	if len(p.Order) == 0 {
		return DefaultExitPriority
	}
	return p.Order
}

// ExitProfile is a parameterized exit rule set used by both the online
// monitors and the offline ExitProfileEvaluator. Invariant: Priority
// determines tie-break when multiple conditions become eligible in the same
// bar (§3).
type ExitProfile struct {
	ID           string             `json:"id"`
	Stop         StopConfig         `json:"stop"`
	Target       TargetConfig       `json:"target"`
	Trailing     TrailingConfig     `json:"trailing"`
	TimeStop     TimeStopConfig     `json:"time_stop"`
	ExitPriority ExitPriorityConfig `json:"exit_priority"`
}

// ExitProfileMetrics is the aggregate performance of one exit profile within
// a mode, computed by the ExitProfileEvaluator (§4.10).
type ExitProfileMetrics struct {
	Trades           int     `json:"trades"`
	AvgRet           float64 `json:"avg_ret"`
	AvgDD            float64 `json:"avg_dd"`
	WinRate          float64 `json:"win_rate"`
	HitTargetRate    float64 `json:"hit_target_rate"`
	HitStopRate      float64 `json:"hit_stop_rate"`
	AvgCaptureRatio  float64 `json:"avg_capture_ratio"`
	Score            float64 `json:"score"`
}

// BanditActionStat is one action's running statistics within a bandit
// context (§4.10): n observations, running mean q, and the timestamp of the
// last update.
type BanditActionStat struct {
	N          int       `json:"n"`
	Q          float64   `json:"q"`
	LastUpdate time.Time `json:"last_update"`
}

// BanditContext holds per-action statistics for one context key.
type BanditContext struct {
	Actions map[string]*BanditActionStat `json:"actions"`
}

// ModeBandit is the per-mode bandit state: context key -> BanditContext.
type ModeBandit struct {
	Epsilon            float64                   `json:"epsilon"`
	MinTradesPerAction int                       `json:"min_trades_per_action"`
	DefaultAction      string                    `json:"default_action"`
	Contexts           map[string]*BanditContext `json:"contexts"`
}

// RegimeBias scales per-direction action caps.
type RegimeBias struct {
	LongMult  float64 `json:"long_mult"`
	ShortMult float64 `json:"short_mult"`
}

// ModeConfig is the per-mode section of a Policy's config: agent weights
// (consumed by internal/agents), the mode's candidate exit profiles, and its
// entry/exit bandit state.
type ModeConfig struct {
	Weights          map[string]float64    `json:"weights"`
	ExitProfiles     map[string]ExitProfile `json:"exit_profiles"`
	Bandit           ModeBandit            `json:"bandit"`
	EntryBandit      ModeBandit            `json:"entry_bandit"`
	RegimeBias       RegimeBias            `json:"regime_bias"`
	EvaluationWindow string                `json:"evaluation_window"`
}

// PolicyConfig is the nested config map of a Policy (§3): per-mode exit
// profiles, bandit actions, regime bias, evaluation windows, entry bandit
// actions.
type PolicyConfig struct {
	Modes map[Mode]*ModeConfig `json:"modes"`
}

// ModeMetrics is the per-mode metrics section of a Policy (§3): computed
// exit-profile performance plus bandit Q-state mirrored for both exit and
// entry bandits.
type ModeMetrics struct {
	ExitProfiles     map[string]ExitProfileMetrics `json:"exit_profiles"`
	BestExitProfile  string                        `json:"best_exit_profile,omitempty"`
	Bandit           ModeBandit                    `json:"bandit"`
	EntryBandit      ModeBandit                    `json:"entry_bandit"`
}

// PolicyMetrics is the top-level metrics map of a Policy, keyed by mode.
type PolicyMetrics struct {
	Modes map[Mode]*ModeMetrics `json:"modes"`
}

// Policy is the reinforcement meta-strategy registry row. Invariant: at most
// one policy has Status == PolicyActive at any time.
type Policy struct {
	PolicyID      string
	Name          string
	Description   string
	Status        PolicyStatus
	Config        PolicyConfig
	Metrics       PolicyMetrics
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
}
