package domain

import (
	"strconv"
	"time"
)

// AdvisorySeverity ranks how urgently an advisory should be surfaced.
type AdvisorySeverity string

const (
	SeverityInfo     AdvisorySeverity = "info"
	SeverityWarning  AdvisorySeverity = "warning"
	SeverityHigh     AdvisorySeverity = "high"
	SeverityCritical AdvisorySeverity = "critical"
)

// AdvisoryKind classifies the condition an advisory reports.
type AdvisoryKind string

const (
	AdvisoryPartialProfit      AdvisoryKind = "PARTIAL_PROFIT"
	AdvisoryContextInvalidated AdvisoryKind = "CONTEXT_INVALIDATED"
	AdvisoryTrendWeakening     AdvisoryKind = "TREND_WEAKENING"
	AdvisoryVolumeFade         AdvisoryKind = "VOLUME_FADE"
	AdvisoryPriceStretched     AdvisoryKind = "PRICE_STRETCHED"
)

// AdvisoryEnforcement is always ADVISORY_ONLY (§3): advisories never mutate
// positions, only recommend.
type AdvisoryEnforcement string

const EnforcementAdvisoryOnly AdvisoryEnforcement = "ADVISORY_ONLY"

// StrategyAdvisory is an exit-aid signal stored by the StrategyExitTracker.
// Invariant: Enforcement is always ADVISORY_ONLY; advisories are stored and
// never directly close a position.
type StrategyAdvisory struct {
	ID                  string
	StrategyID          string // S1_*, S2_*, S3_*, SR_EXIT, NEWS_EXIT; PositionsMonitor writes AUTO_MONITOR
	Kind                AdvisoryKind
	Severity            AdvisorySeverity
	Enforcement         AdvisoryEnforcement
	IsExit              bool
	Symbol              string
	Direction           Direction
	Price               float64
	EntryPrice          float64
	InitialSL           float64
	RRMultiple          float64
	Indicators          map[string]float64
	Message             string
	RecommendedActions  []string
	RecommendedExitPrice *float64
	Mode                Mode
	TradeDate           string // IST calendar date, "2006-01-02"
	GeneratedAt         time.Time
}

// NewStrategyAdvisory builds a StrategyAdvisory with Enforcement pinned to
// ADVISORY_ONLY, so callers cannot accidentally construct an enforcing one.
func NewStrategyAdvisory(id, strategyID string, kind AdvisoryKind, severity AdvisorySeverity) StrategyAdvisory {
	return StrategyAdvisory{
		ID:          id,
		StrategyID:  strategyID,
		Kind:        kind,
		Severity:    severity,
		Enforcement: EnforcementAdvisoryOnly,
	}
}

// DedupKey is the (symbol, strategy_id, kind, recommended_exit_price)
// identity used to suppress duplicate advisories for the same condition
// (§4.7 StrategyExitTracker).
func (a StrategyAdvisory) DedupKey() string {
	exitPrice := "nil"
	if a.RecommendedExitPrice != nil {
		exitPrice = formatFloat(*a.RecommendedExitPrice)
	}
	return a.Symbol + "|" + a.StrategyID + "|" + string(a.Kind) + "|" + exitPrice
}

// kindPriority ranks an advisory's Kind for get_exit_for's best-match
// ordering: CONTEXT_INVALIDATED first, PARTIAL_PROFIT second, everything
// else last (§4.7).
func (a StrategyAdvisory) kindPriority() int {
	switch a.Kind {
	case AdvisoryContextInvalidated:
		return 0
	case AdvisoryPartialProfit:
		return 1
	default:
		return 2
	}
}

// BestAdvisory picks the best-ranked advisory among candidates by
// (kind_priority, earliest generated_at), per §4.7's get_exit_for ordering.
func BestAdvisory(candidates []StrategyAdvisory) (StrategyAdvisory, bool) {
	if len(candidates) == 0 {
		return StrategyAdvisory{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.kindPriority() < best.kindPriority() {
			best = c
			continue
		}
		if c.kindPriority() == best.kindPriority() && c.GeneratedAt.Before(best.GeneratedAt) {
			best = c
		}
	}
	return best, true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
