package exittracker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/kv"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

func newTestKV(t *testing.T) *kv.Store {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return kv.NewFromClient(client, zerolog.Nop())
}

type fakeSRCandles struct {
	candles []quotes.Candle
}

func (f fakeSRCandles) Candles(ctx context.Context, symbol string, from, to time.Time) ([]quotes.Candle, error) {
	return f.candles, nil
}

func dailyCandles(n int, start time.Time) []quotes.Candle {
	out := make([]quotes.Candle, n)
	for i := 0; i < n; i++ {
		base := 100.0 + float64(i)
		out[i] = quotes.Candle{Timestamp: start.AddDate(0, 0, i), Open: base, High: base + 5, Low: base - 5, Close: base + 1}
	}
	return out
}

func TestSupportResistanceServiceComputesAndCachesLevels(t *testing.T) {
	store := newTestKV(t)
	candles := fakeSRCandles{candles: dailyCandles(10, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))}
	now := time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)
	clock := marketclock.Clock{Now: func() time.Time { return now }}

	svc := NewSupportResistanceService(store, candles, clock, zerolog.Nop())

	levels, err := svc.GetLevels(context.Background(), "RELIANCE", domain.ScopeDay)
	require.NoError(t, err)
	assert.Equal(t, "RELIANCE", levels.Symbol)
	assert.Greater(t, levels.R1, levels.P)
	assert.Less(t, levels.S1, levels.P)

	var cached domain.SRLevels
	ok := store.GetJSON(context.Background(), kv.SRLevelsKey("RELIANCE", domain.ScopeDay), &cached)
	require.True(t, ok)
	assert.Equal(t, levels.P, cached.P)
}

func TestSupportResistanceServiceServesFreshWithinStalenessWindow(t *testing.T) {
	store := newTestKV(t)
	candles := fakeSRCandles{candles: dailyCandles(5, time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC))}
	now := time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC)
	clock := marketclock.Clock{Now: func() time.Time { return now }}

	svc := NewSupportResistanceService(store, candles, clock, zerolog.Nop())

	first, err := svc.GetLevels(context.Background(), "TCS", domain.ScopeMonth)
	require.NoError(t, err)

	// Second call an hour later is still within the month scope's staleness
	// threshold, so the cached row must be reused unchanged.
	clock.Now = func() time.Time { return now.Add(time.Hour) }
	svc.clock = clock
	second, err := svc.GetLevels(context.Background(), "TCS", domain.ScopeMonth)
	require.NoError(t, err)
	assert.Equal(t, first.ComputedAtIST, second.ComputedAtIST)
}

func TestScoreForPriceBands(t *testing.T) {
	levels := domain.SRLevels{S3: 80, S2: 90, S1: 95, P: 100, R1: 105, R2: 110, R3: 120}
	assert.Equal(t, 10.0, ScoreForPrice(levels, 70))
	assert.Equal(t, 50.0, ScoreForPrice(levels, 100))
	assert.Equal(t, 95.0, ScoreForPrice(levels, 130))
}
