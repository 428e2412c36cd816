package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendationIsActionable(t *testing.T) {
	cases := []struct {
		rec  Recommendation
		want bool
	}{
		{RecommendationStrongBuy, true},
		{RecommendationBuy, true},
		{RecommendationSell, true},
		{RecommendationStrongSell, true},
		{RecommendationNeutral, false},
		{RecommendationHold, false},
		{"", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.rec.IsActionable(), "recommendation=%s", c.rec)
	}
}

func TestRecommendationDirection(t *testing.T) {
	assert.Equal(t, DirectionLong, RecommendationStrongBuy.Direction())
	assert.Equal(t, DirectionLong, RecommendationBuy.Direction())
	assert.Equal(t, DirectionShort, RecommendationSell.Direction())
	assert.Equal(t, DirectionShort, RecommendationStrongSell.Direction())
	assert.Equal(t, Direction(""), RecommendationNeutral.Direction())
}

func TestFixedDaysHorizon(t *testing.T) {
	assert.Equal(t, HorizonEOD, FixedDaysHorizon(0))
	assert.Equal(t, HorizonEOD, FixedDaysHorizon(-3))
	assert.Equal(t, EvaluationHorizon("FIXED_DAYS_3"), FixedDaysHorizon(3))
}

func TestClassifyOutcome(t *testing.T) {
	assert.Equal(t, OutcomeWin, ClassifyOutcome(0.51))
	assert.Equal(t, OutcomeLoss, ClassifyOutcome(-0.51))
	assert.Equal(t, OutcomeBreakeven, ClassifyOutcome(0.5))
	assert.Equal(t, OutcomeBreakeven, ClassifyOutcome(-0.5))
	assert.Equal(t, OutcomeBreakeven, ClassifyOutcome(0))
}

func TestClipCaptureRatio(t *testing.T) {
	assert.Equal(t, 0.0, ClipCaptureRatio(1.0, 0))
	assert.Equal(t, 0.0, ClipCaptureRatio(1.0, -2))
	assert.Equal(t, 0.0, ClipCaptureRatio(-1.0, 2.0))
	assert.Equal(t, 1.0, ClipCaptureRatio(3.0, 2.0))
	assert.InDelta(t, 0.5, ClipCaptureRatio(1.0, 2.0), 1e-9)
}
