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
	"github.com/arise-platform/toppicks-engine/internal/store"
	"github.com/arise-platform/toppicks-engine/internal/toppicks"
)

type fakeRunSource struct {
	runs []domain.TopPicksRun
}

func (f fakeRunSource) QueryRuns(ctx context.Context, filters store.RunFilters) ([]domain.TopPicksRun, error) {
	return f.runs, nil
}

type fakeQuoteSource struct {
	quotes map[string]quotes.Quote
}

func (f fakeQuoteSource) Quotes(ctx context.Context, symbols []string, exchange quotes.Exchange) (map[string]quotes.Quote, error) {
	return f.quotes, nil
}

type fakeExitSink struct {
	logged []domain.ScalpingExit
	seen   map[string]bool
}

func (f *fakeExitSink) LogExit(exit domain.ScalpingExit) error {
	f.logged = append(f.logged, exit)
	return nil
}

func (f *fakeExitSink) GetExit(symbol string, entryDate time.Time, entryTime *time.Time) (domain.ScalpingExit, bool) {
	if f.seen != nil && f.seen[symbol] {
		return domain.ScalpingExit{}, true
	}
	return domain.ScalpingExit{}, false
}

type fakeAiSink struct {
	closed bool
}

func (f *fakeAiSink) CloseOnExit(ctx context.Context, pickUUID string, exitPrice, realizedPnlPct float64, exitTS time.Time) {
	f.closed = true
}

type fakeOutcomeSink struct {
	upserted bool
}

func (f *fakeOutcomeSink) UpsertScalpingExit(ctx context.Context, pickUUID string, exit domain.ScalpingExit) error {
	f.upserted = true
	return nil
}

func scalpingPick(symbol string, signalTS time.Time, entry, target, stop float64) domain.PickEvent {
	strategy := toppicks.ExitStrategy{
		Mode:        domain.ModeScalping,
		TargetPct:   2.0,
		StopPct:     1.0,
		MaxHoldMins: 60,
	}
	return domain.PickEvent{
		PickUUID:          "pick-" + symbol,
		Symbol:            symbol,
		Direction:         domain.DirectionLong,
		Mode:              domain.ModeScalping,
		SignalTS:          signalTS,
		TradeDate:         marketclock.TradeDateIST(signalTS),
		SignalPrice:       entry,
		RecommendedTarget: &target,
		RecommendedStop:   &stop,
		Recommendation:    domain.RecommendationBuy,
		ExtraContext:      domain.ExtraContext{Extra: map[string]any{"exit_strategy": strategy}},
	}
}

func TestScalpingMonitorLogsTargetHitExit(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	signalTS := now.Add(-10 * time.Minute)
	pick := scalpingPick("RELIANCE", signalTS, 100, 102, 99)

	run := domain.TopPicksRun{
		RunID: "run-1", Universe: "NIFTY50", Mode: domain.ModeScalping,
		GeneratedAtUTC: signalTS, Payload: domain.RunPayload{Picks: []domain.PickEvent{pick}},
	}
	runs := fakeRunSource{runs: []domain.TopPicksRun{run}}
	quoted := fakeQuoteSource{quotes: map[string]quotes.Quote{"RELIANCE": {Symbol: "RELIANCE", Price: 102.5}}}
	exits := &fakeExitSink{}
	aiStore := &fakeAiSink{}
	outcomes := &fakeOutcomeSink{}
	clock := marketclock.Clock{Now: func() time.Time { return now }}

	mon := NewScalpingMonitor(runs, quoted, exits, aiStore, outcomes, clock, []string{"NIFTY50"}, zerolog.Nop())
	require.NoError(t, mon.RunCycle(context.Background()))

	require.Len(t, exits.logged, 1)
	assert.Equal(t, domain.ExitReasonTargetHit, exits.logged[0].ExitReason)
	assert.Equal(t, 102.0, exits.logged[0].ExitPrice)
	assert.True(t, aiStore.closed)
	assert.True(t, outcomes.upserted)
}

func TestScalpingMonitorSkipsWhenGateClosed(t *testing.T) {
	now := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC) // 08:30 IST Saturday
	clock := marketclock.Clock{Now: func() time.Time { return now }}

	runs := fakeRunSource{}
	quoted := fakeQuoteSource{}
	mon := NewScalpingMonitor(runs, quoted, &fakeExitSink{}, &fakeAiSink{}, &fakeOutcomeSink{}, clock, []string{"NIFTY50"}, zerolog.Nop())
	require.NoError(t, mon.RunCycle(context.Background()))
}

func TestScalpingMonitorSkipsAlreadyClosedPosition(t *testing.T) {
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	signalTS := now.Add(-10 * time.Minute)
	pick := scalpingPick("TCS", signalTS, 100, 102, 99)

	run := domain.TopPicksRun{
		RunID: "run-2", Universe: "NIFTY50", Mode: domain.ModeScalping,
		GeneratedAtUTC: signalTS, Payload: domain.RunPayload{Picks: []domain.PickEvent{pick}},
	}
	runs := fakeRunSource{runs: []domain.TopPicksRun{run}}
	quoted := fakeQuoteSource{quotes: map[string]quotes.Quote{"TCS": {Symbol: "TCS", Price: 102.5}}}
	exits := &fakeExitSink{seen: map[string]bool{"TCS": true}}
	clock := marketclock.Clock{Now: func() time.Time { return now }}

	mon := NewScalpingMonitor(runs, quoted, exits, &fakeAiSink{}, &fakeOutcomeSink{}, clock, []string{"NIFTY50"}, zerolog.Nop())
	require.NoError(t, mon.RunCycle(context.Background()))
	assert.Empty(t, exits.logged)
}
