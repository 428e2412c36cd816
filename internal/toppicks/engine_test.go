package toppicks

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arise-platform/toppicks-engine/internal/agents"
	"github.com/arise-platform/toppicks-engine/internal/config"
	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

type fakeUniverse struct{ symbols []string }

func (f fakeUniverse) Resolve(string) []string { return f.symbols }

type fakeQuoteProvider struct {
	candles map[string][]quotes.Candle
	quotes  map[string]quotes.Quote
}

func (f fakeQuoteProvider) Historical(ctx context.Context, symbol string, from, to time.Time, interval quotes.Interval) ([]quotes.Candle, error) {
	return f.candles[symbol], nil
}

func (f fakeQuoteProvider) Quotes(ctx context.Context, symbols []string, exchange quotes.Exchange) (map[string]quotes.Quote, error) {
	out := make(map[string]quotes.Quote)
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

func (f fakeQuoteProvider) Name() string { return "fake" }

// clockAt builds a marketclock.Clock whose NowIST() reproduces ist exactly.
func clockAt(ist time.Time) marketclock.Clock {
	utc := ist.UTC()
	return marketclock.Clock{Now: func() time.Time { return utc }}
}

type fakeRunStore struct{ runs []domain.TopPicksRun }

func (f *fakeRunStore) StoreRun(ctx context.Context, run domain.TopPicksRun) error {
	f.runs = append(f.runs, run)
	return nil
}

type fakePickLog struct{ picks []domain.PickEvent }

func (f *fakePickLog) LogPick(ctx context.Context, pick domain.PickEvent, contributions []domain.AgentContribution) {
	f.picks = append(f.picks, pick)
}

type fakeBroadcaster struct {
	eventType string
	payload   any
}

func (f *fakeBroadcaster) Broadcast(eventType string, payload any) {
	f.eventType = eventType
	f.payload = payload
}

func risingCandles(n int, start time.Time) []quotes.Candle {
	out := make([]quotes.Candle, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += 1.0
		out[i] = quotes.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price - 0.5,
			High:      price + 0.5,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
		}
	}
	return out
}

func TestEngineRunFiltersAndRanksPicks(t *testing.T) {
	now := time.Date(2026, 7, 20, 10, 0, 0, 0, marketclock.ISTLocation) // Monday, within trading hours

	candles := risingCandles(30, now.AddDate(0, 0, -30))

	runStore := &fakeRunStore{}
	pickLog := &fakePickLog{}
	broadcaster := &fakeBroadcaster{}

	coordinator := agents.NewCoordinator(zerolog.Nop())
	coordinator.Register(agents.NewTechnicalAgent())

	dir := t.TempDir()
	policyFiles := config.NewPolicyFileStore(dir)

	engine := NewEngine(Deps{
		Universe:    fakeUniverse{symbols: []string{"RELIANCE", "TCS"}},
		Quotes:      fakeQuoteProvider{candles: map[string][]quotes.Candle{"RELIANCE": candles, "TCS": candles}},
		Coordinator: coordinator,
		PolicyFiles: policyFiles,
		Clock:       clockAt(now),
		RunStore:    runStore,
		PickLog:     pickLog,
		Broadcaster: broadcaster,
		Log:         zerolog.Nop(),
	})

	run, err := engine.Run(context.Background(), "NIFTY50", domain.ModeSwing, domain.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 2, run.TotalAnalyzed)
	assert.LessOrEqual(t, run.PicksCount, TopN)
	assert.Len(t, runStore.runs, 1)
	assert.Equal(t, "top_picks_update", broadcaster.eventType)
}

func TestEngineRunSkipsSymbolsWithNoHistory(t *testing.T) {
	now := time.Date(2026, 7, 20, 10, 0, 0, 0, marketclock.ISTLocation)

	coordinator := agents.NewCoordinator(zerolog.Nop())
	coordinator.Register(agents.NewTechnicalAgent())
	dir := t.TempDir()
	policyFiles := config.NewPolicyFileStore(dir)

	engine := NewEngine(Deps{
		Universe:    fakeUniverse{symbols: []string{"GHOST"}},
		Quotes:      fakeQuoteProvider{candles: map[string][]quotes.Candle{}},
		Coordinator: coordinator,
		PolicyFiles: policyFiles,
		Clock:       clockAt(now),
		Log:         zerolog.Nop(),
	})

	run, err := engine.Run(context.Background(), "NIFTY50", domain.ModeSwing, domain.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 0, run.TotalAnalyzed)
	assert.Equal(t, 0, run.PicksCount)
}

func TestEngineRunShortCircuitsPastHardCutoffForScalping(t *testing.T) {
	now := time.Date(2026, 7, 20, 15, 20, 0, 0, marketclock.ISTLocation) // past 15:15 hard cutoff

	coordinator := agents.NewCoordinator(zerolog.Nop())
	dir := t.TempDir()
	policyFiles := config.NewPolicyFileStore(dir)

	engine := NewEngine(Deps{
		Universe:    fakeUniverse{symbols: []string{"RELIANCE"}},
		Quotes:      fakeQuoteProvider{candles: map[string][]quotes.Candle{}},
		Coordinator: coordinator,
		PolicyFiles: policyFiles,
		Clock:       clockAt(now),
		Log:         zerolog.Nop(),
	})

	_, err := engine.Run(context.Background(), "NIFTY50", domain.ModeScalping, domain.TriggerHourly)
	assert.ErrorIs(t, err, ErrHardCutoff)
}

func TestEngineRunAllowsBackfillPastHardCutoff(t *testing.T) {
	now := time.Date(2026, 7, 20, 15, 20, 0, 0, marketclock.ISTLocation)

	coordinator := agents.NewCoordinator(zerolog.Nop())
	dir := t.TempDir()
	policyFiles := config.NewPolicyFileStore(dir)

	engine := NewEngine(Deps{
		Universe:    fakeUniverse{symbols: []string{}},
		Quotes:      fakeQuoteProvider{candles: map[string][]quotes.Candle{}},
		Coordinator: coordinator,
		PolicyFiles: policyFiles,
		Clock:       clockAt(now),
		Log:         zerolog.Nop(),
	})

	_, err := engine.Run(context.Background(), "NIFTY50", domain.ModeScalping, domain.TriggerBackfill)
	assert.NoError(t, err)
}
