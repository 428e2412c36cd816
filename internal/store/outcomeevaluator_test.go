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

type fakeCandleSource struct {
	bySymbol map[string][]quotes.Candle
}

func (f fakeCandleSource) Candles(ctx context.Context, symbol string, from, to time.Time) ([]quotes.Candle, error) {
	return f.bySymbol[symbol], nil
}

func TestOutcomeEvaluatorComputesSignedOutcomeForLong(t *testing.T) {
	db := openTestDB(t)
	log := NewPickEventLog(db, zerolog.Nop())
	pick := samplePick("pick-long", "2026-07-20")
	log.LogPick(context.Background(), pick, nil)

	candles := fakeCandleSource{bySymbol: map[string][]quotes.Candle{
		"RELIANCE": {
			{Close: 100, High: 101, Low: 99},
			{Close: 112, High: 113, Low: 108},
		},
		"NIFTY50": {
			{Close: 20000, High: 20050, Low: 19950},
			{Close: 20100, High: 20150, Low: 20000},
		},
	}}

	evaluator := NewOutcomeEvaluator(db, log, candles, zerolog.Nop())
	require.NoError(t, evaluator.EvaluateTradeDate(context.Background(), "2026-07-20", domain.HorizonEOD))

	remaining, err := log.PicksForDateWithoutOutcome(context.Background(), "2026-07-20", domain.HorizonEOD)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	row := db.QueryRow(`SELECT ret_close_pct, hit_target, outcome_label, benchmark_ret_pct FROM pick_outcomes WHERE pick_uuid = ?`, "pick-long")
	var retClose, benchmarkRet float64
	var hitTarget int
	var label string
	require.NoError(t, row.Scan(&retClose, &hitTarget, &label, &benchmarkRet))
	assert.InDelta(t, 12.0, retClose, 0.001)
	assert.Equal(t, 1, hitTarget)
	assert.Equal(t, string(domain.OutcomeWin), label)
	assert.InDelta(t, 0.5, benchmarkRet, 0.001)
}

func TestOutcomeEvaluatorSkipsWhenNoCandles(t *testing.T) {
	db := openTestDB(t)
	log := NewPickEventLog(db, zerolog.Nop())
	pick := samplePick("pick-nodata", "2026-07-20")
	log.LogPick(context.Background(), pick, nil)

	evaluator := NewOutcomeEvaluator(db, log, fakeCandleSource{}, zerolog.Nop())
	require.NoError(t, evaluator.EvaluateTradeDate(context.Background(), "2026-07-20", domain.HorizonEOD))

	remaining, err := log.PicksForDateWithoutOutcome(context.Background(), "2026-07-20", domain.HorizonEOD)
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "pick without candle data should remain unevaluated")
}
