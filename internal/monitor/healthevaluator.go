// Package monitor is the PositionMonitor plane (§4.6): ScalpingMonitor,
// the non-scalping Top-Picks-derived PositionsMonitor, and the
// Portfolio/Watchlist monitor, all built on the shared PositionHealthEvaluator
// that implements the spec's "AutoMonitoringAgent alert logic" (distinct from
// the zero-weight blend-time agents.AutoMonitoringAgent, which only flags
// SR-cache staleness for the TopPicksEngine's own ensemble).
package monitor

import (
	"math"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

const (
	stopProximityPct    = 0.03
	targetProximityPct  = 0.05
	stopProximityDeduct = 40
	mediumAlertDeduct   = 15
	newsHighRiskScore   = 75.0
)

// PositionHealthEvaluator applies §4.6's AutoMonitoringAgent alert logic to a
// MonitoredPosition: stop/target proximity, volatility, SR-band proximity,
// and strategy-advisory synthesis.
type PositionHealthEvaluator struct{}

func NewPositionHealthEvaluator() *PositionHealthEvaluator { return &PositionHealthEvaluator{} }

// Evaluate scores pos's health. advisory is the best StrategyExitTracker
// advisory for the symbol on the trade date, if any; srScore is the
// SupportResistanceService.ScoreForPrice band occupancy (0-100), if
// computed; newsRiskScore is the sentiment agent's news risk score, if any.
func (e *PositionHealthEvaluator) Evaluate(pos domain.MonitoredPosition, advisory *domain.StrategyAdvisory, srScore *float64, newsRiskScore *float64) domain.HealthAssessment {
	health := 100
	var alerts []domain.MonitorAlert
	urgency := domain.UrgencyLow

	if pos.StopPrice != nil && pos.CurrentPrice > 0 {
		proximity := math.Abs(pos.CurrentPrice-*pos.StopPrice) / pos.CurrentPrice
		if proximity <= stopProximityPct {
			health -= stopProximityDeduct
			alerts = append(alerts, domain.MonitorAlert{
				Kind: domain.AlertStopProximity, Severity: domain.SeverityCritical,
				Message: "price within 3% of stop",
			})
			urgency = domain.UrgencyCritical
		}
	}

	if pos.TargetPrice != nil && pos.CurrentPrice > 0 {
		proximity := math.Abs(*pos.TargetPrice-pos.CurrentPrice) / pos.CurrentPrice
		if proximity <= targetProximityPct {
			health -= mediumAlertDeduct
			alerts = append(alerts, domain.MonitorAlert{
				Kind: domain.AlertTargetProximity, Severity: domain.SeverityWarning,
				Message: "price within 5% of target",
			})
			urgency = escalate(urgency, domain.UrgencyMedium)
		}
	}

	if pos.VolBucket == "high" {
		health -= mediumAlertDeduct
		alerts = append(alerts, domain.MonitorAlert{
			Kind: domain.AlertVolatilityHigh, Severity: domain.SeverityWarning,
			Message: "volatility regime is high",
		})
		urgency = escalate(urgency, domain.UrgencyMedium)
	}

	if srScore != nil && (*srScore <= 20 || *srScore >= 80) {
		health -= mediumAlertDeduct
		alerts = append(alerts, domain.MonitorAlert{
			Kind: domain.AlertSRProximity, Severity: domain.SeverityWarning,
			Message: "price near a support/resistance band",
		})
		urgency = escalate(urgency, domain.UrgencyMedium)
	}

	if advisory != nil {
		switch advisory.Kind {
		case domain.AdvisoryContextInvalidated:
			alerts = append(alerts, domain.MonitorAlert{
				Kind: domain.AlertStrategyAdvisory, Severity: domain.SeverityCritical,
				Message: "strategy context invalidated: " + advisory.Message,
			})
			urgency = domain.UrgencyCritical
		case domain.AdvisoryPartialProfit:
			alerts = append(alerts, domain.MonitorAlert{
				Kind: domain.AlertStrategyAdvisory, Severity: domain.SeverityWarning,
				Message: "partial profit suggested: " + advisory.Message,
			})
			urgency = escalate(urgency, domain.UrgencyMedium)
		}
	}

	if newsRiskScore != nil {
		if *newsRiskScore >= newsHighRiskScore {
			alerts = append(alerts, domain.MonitorAlert{
				Kind: domain.AlertStrategyAdvisory, Severity: domain.SeverityCritical,
				Message: "news risk score indicates exit",
			})
			urgency = domain.UrgencyCritical
		} else if *newsRiskScore > 0 {
			alerts = append(alerts, domain.MonitorAlert{
				Kind: domain.AlertStrategyAdvisory, Severity: domain.SeverityWarning,
				Message: "news risk score suggests partial-profit caution",
			})
			urgency = escalate(urgency, domain.UrgencyMedium)
		}
	}

	if health < 0 {
		health = 0
	}

	return domain.HealthAssessment{Symbol: pos.Symbol, HealthScore: health, Urgency: urgency, Alerts: alerts}
}

func escalate(current, candidate domain.UrgencyLevel) domain.UrgencyLevel {
	rank := map[domain.UrgencyLevel]int{domain.UrgencyLow: 0, domain.UrgencyMedium: 1, domain.UrgencyCritical: 2}
	if rank[candidate] > rank[current] {
		return candidate
	}
	return current
}
