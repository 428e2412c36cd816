package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

type fakeLatestRunSource struct {
	runs map[string]domain.TopPicksRun // key: universe|mode
}

func (f fakeLatestRunSource) GetLatestRunFor(ctx context.Context, universe string, mode domain.Mode) (domain.TopPicksRun, bool) {
	run, ok := f.runs[universe+"|"+string(mode)]
	return run, ok
}

type fakeAdvisorySource struct {
	recorded []domain.StrategyAdvisory
	existing map[string]domain.StrategyAdvisory
}

func (f *fakeAdvisorySource) GetExitFor(symbol, tradeDate, strategyID string, mode domain.Mode) (domain.StrategyAdvisory, bool) {
	a, ok := f.existing[symbol]
	return a, ok
}

func (f *fakeAdvisorySource) Record(advisory domain.StrategyAdvisory) error {
	f.recorded = append(f.recorded, advisory)
	return nil
}

func swingPick(symbol string, entry, target, stop float64) domain.PickEvent {
	return domain.PickEvent{
		PickUUID: "pick-" + symbol, Symbol: symbol, Direction: domain.DirectionLong,
		Mode: domain.ModeSwing, SignalTS: time.Date(2026, 7, 31, 4, 0, 0, 0, time.UTC),
		TradeDate: "2026-07-31", SignalPrice: entry,
		RecommendedTarget: &target, RecommendedStop: &stop,
		Recommendation: domain.RecommendationBuy,
	}
}

func TestPositionsMonitorPersistsStopProximityAdvisory(t *testing.T) {
	now := time.Date(2026, 7, 31, 4, 30, 0, 0, time.UTC) // 10:00 IST, cash market open
	pick := swingPick("HDFCBANK", 100, 120, 97)
	run := domain.TopPicksRun{Payload: domain.RunPayload{Picks: []domain.PickEvent{pick}}}

	runs := fakeLatestRunSource{runs: map[string]domain.TopPicksRun{"NIFTY50|Swing": run}}
	quoted := fakeQuoteSource{quotes: map[string]quotes.Quote{"HDFCBANK": {Symbol: "HDFCBANK", Price: 98.0}}}
	advisory := &fakeAdvisorySource{}
	clock := marketclock.Clock{Now: func() time.Time { return now }}

	mon := NewPositionsMonitor(runs, quoted, advisory, nil, nil, clock, []string{"NIFTY50"}, zerolog.Nop())
	require.NoError(t, mon.RunCycle(context.Background()))

	require.Len(t, advisory.recorded, 1)
	assert.Equal(t, domain.AdvisoryContextInvalidated, advisory.recorded[0].Kind)
	assert.Equal(t, domain.EnforcementAdvisoryOnly, advisory.recorded[0].Enforcement)
	require.NotNil(t, advisory.recorded[0].RecommendedExitPrice)
	assert.Equal(t, 98.0, *advisory.recorded[0].RecommendedExitPrice)
}

func TestPositionsMonitorSkipsWhenMarketClosed(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC) // Saturday
	clock := marketclock.Clock{Now: func() time.Time { return now }}
	advisory := &fakeAdvisorySource{}

	mon := NewPositionsMonitor(fakeLatestRunSource{}, fakeQuoteSource{}, advisory, nil, nil, clock, []string{"NIFTY50"}, zerolog.Nop())
	require.NoError(t, mon.RunCycle(context.Background()))
	assert.Empty(t, advisory.recorded)
}

func TestPositionsMonitorHealthyPositionRecordsNothing(t *testing.T) {
	now := time.Date(2026, 7, 31, 4, 30, 0, 0, time.UTC) // 10:00 IST, cash market open
	pick := swingPick("TCS", 100, 120, 90)
	run := domain.TopPicksRun{Payload: domain.RunPayload{Picks: []domain.PickEvent{pick}}}

	runs := fakeLatestRunSource{runs: map[string]domain.TopPicksRun{"NIFTY50|Swing": run}}
	quoted := fakeQuoteSource{quotes: map[string]quotes.Quote{"TCS": {Symbol: "TCS", Price: 103}}}
	advisory := &fakeAdvisorySource{}
	clock := marketclock.Clock{Now: func() time.Time { return now }}

	mon := NewPositionsMonitor(runs, quoted, advisory, nil, nil, clock, []string{"NIFTY50"}, zerolog.Nop())
	require.NoError(t, mon.RunCycle(context.Background()))
	assert.Empty(t, advisory.recorded)
}
