package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

func samplePick(uuid, tradeDate string) domain.PickEvent {
	entry := 100.0
	target := 110.0
	stop := 95.0
	return domain.PickEvent{
		PickUUID:          uuid,
		Symbol:            "RELIANCE",
		Direction:         domain.DirectionLong,
		Source:            "toppicks_engine",
		Mode:              domain.ModeSwing,
		SignalTS:          time.Date(2026, 7, 20, 4, 0, 0, 0, time.UTC),
		TradeDate:         tradeDate,
		SignalPrice:       100,
		RecommendedEntry:  &entry,
		RecommendedTarget: &target,
		RecommendedStop:   &stop,
		TimeHorizon:       "3-5 days",
		BlendScore:        0.72,
		Recommendation:    domain.RecommendationBuy,
		Confidence:        "High",
		RegimeBucket:      "trending",
		VolBucket:         "normal",
		UserRiskBucket:    "moderate",
		Universe:          "NIFTY50",
		RunID:             "run-1",
		ExtraContext:      domain.ExtraContext{ExitProfileID: "scalp-ladder-1"},
	}
}

func TestPickEventLogLogPickAndContributions(t *testing.T) {
	db := openTestDB(t)
	log := NewPickEventLog(db, zerolog.Nop())

	pick := samplePick("pick-1", "2026-07-20")
	contributions := []domain.AgentContribution{
		{PickUUID: "pick-1", AgentName: "technical", Score: floatPtr(0.8), Confidence: "High"},
		{PickUUID: "pick-1", AgentName: "sentiment", Score: nil, Confidence: "Low"},
	}

	log.LogPick(context.Background(), pick, contributions)

	// Duplicate insert must be swallowed, not error or duplicate rows.
	log.LogPick(context.Background(), pick, contributions)

	picks, err := log.PicksForDateWithoutOutcome(context.Background(), "2026-07-20", domain.HorizonEOD)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, "RELIANCE", picks[0].Symbol)
	assert.Equal(t, domain.DirectionLong, picks[0].Direction)
	require.NotNil(t, picks[0].RecommendedTarget)
	assert.Equal(t, 110.0, *picks[0].RecommendedTarget)
	assert.Equal(t, "scalp-ladder-1", picks[0].ExtraContext.ExitProfileID)
}

func TestPickEventLogPicksForDateWithoutOutcomeExcludesEvaluated(t *testing.T) {
	db := openTestDB(t)
	log := NewPickEventLog(db, zerolog.Nop())

	pick := samplePick("pick-2", "2026-07-20")
	log.LogPick(context.Background(), pick, nil)

	candles := fakeCandleSource{bySymbol: map[string][]quotes.Candle{"RELIANCE": {{Close: 105, High: 106, Low: 99}}}}
	evaluator := NewOutcomeEvaluator(db, log, candles, zerolog.Nop())
	require.NoError(t, evaluator.EvaluateTradeDate(context.Background(), "2026-07-20", domain.HorizonEOD))

	remaining, err := log.PicksForDateWithoutOutcome(context.Background(), "2026-07-20", domain.HorizonEOD)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func floatPtr(f float64) *float64 { return &f }
