package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

func monitoredPosition(current float64) domain.MonitoredPosition {
	stop := 95.0
	target := 110.0
	return domain.MonitoredPosition{
		Symbol: "INFY", Direction: domain.DirectionLong, Mode: domain.ModeSwing,
		EntryPrice: 100, CurrentPrice: current, StopPrice: &stop, TargetPrice: &target,
	}
}

func TestPositionHealthEvaluatorStopProximityIsCritical(t *testing.T) {
	eval := NewPositionHealthEvaluator()
	assessment := eval.Evaluate(monitoredPosition(96.5), nil, nil, nil)

	assert.Equal(t, domain.UrgencyCritical, assessment.Urgency)
	assert.Equal(t, 60, assessment.HealthScore)
	require1Alert(t, assessment, domain.AlertStopProximity)
}

func TestPositionHealthEvaluatorHealthyPositionHasNoAlerts(t *testing.T) {
	eval := NewPositionHealthEvaluator()
	assessment := eval.Evaluate(monitoredPosition(103), nil, nil, nil)

	assert.Equal(t, domain.UrgencyLow, assessment.Urgency)
	assert.Equal(t, 100, assessment.HealthScore)
	assert.Empty(t, assessment.Alerts)
}

func TestPositionHealthEvaluatorContextInvalidatedAdvisoryIsCritical(t *testing.T) {
	eval := NewPositionHealthEvaluator()
	advisory := &domain.StrategyAdvisory{Kind: domain.AdvisoryContextInvalidated, Message: "trend broke down"}
	assessment := eval.Evaluate(monitoredPosition(103), advisory, nil, nil)

	assert.Equal(t, domain.UrgencyCritical, assessment.Urgency)
	require1Alert(t, assessment, domain.AlertStrategyAdvisory)
}

func TestPositionHealthEvaluatorNewsRiskEscalatesUrgency(t *testing.T) {
	eval := NewPositionHealthEvaluator()
	high := 80.0
	assessment := eval.Evaluate(monitoredPosition(103), nil, nil, &high)

	assert.Equal(t, domain.UrgencyCritical, assessment.Urgency)
}

func require1Alert(t *testing.T, assessment domain.HealthAssessment, kind domain.MonitorAlertKind) {
	t.Helper()
	for _, a := range assessment.Alerts {
		if a.Kind == kind {
			return
		}
	}
	t.Fatalf("expected an alert of kind %s, got %+v", kind, assessment.Alerts)
}
