package bandit

import (
	"context"
	"testing"
	"time"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
	"github.com/stretchr/testify/assert"
)

type fakeCandleSource struct {
	bySymbol map[string][]quotes.Candle
}

func (f fakeCandleSource) Candles(ctx context.Context, symbol string, from, to time.Time) []quotes.Candle {
	return f.bySymbol[symbol]
}

func TestEvaluateProfileAggregatesAcrossPicks(t *testing.T) {
	entry := time.Date(2026, 1, 1, 9, 15, 0, 0, time.UTC)
	horizon := entry.Add(time.Hour)
	source := fakeCandleSource{bySymbol: map[string][]quotes.Candle{
		"A": {bar(entry, 100, 100, 100, 100), bar(entry.Add(10*time.Minute), 100, 106, 99, 105)},
		"B": {bar(entry, 200, 200, 200, 200), bar(entry.Add(10*time.Minute), 200, 201, 194, 195)},
	}}
	picks := []PickWithHorizon{
		{Pick: domain.PickEvent{Symbol: "A", PickUUID: "p1", Direction: domain.DirectionLong, SignalPrice: 100, SignalTS: entry}, HorizonEndTS: horizon},
		{Pick: domain.PickEvent{Symbol: "B", PickUUID: "p2", Direction: domain.DirectionLong, SignalPrice: 200, SignalTS: entry}, HorizonEndTS: horizon},
	}
	profile := domain.ExitProfile{
		Stop:   domain.StopConfig{Type: domain.StopPercent, Value: 2},
		Target: domain.TargetConfig{Type: domain.TargetPercent, Value: 5},
	}

	metrics := EvaluateProfile(context.Background(), source, profile, picks)
	assert.Equal(t, 2, metrics.Trades)
	assert.Equal(t, 0.5, metrics.WinRate)
	assert.Equal(t, 0.5, metrics.HitTargetRate)
	assert.Equal(t, 0.5, metrics.HitStopRate)
}

func TestEvaluateProfileNoPicksIsZeroValue(t *testing.T) {
	metrics := EvaluateProfile(context.Background(), fakeCandleSource{}, domain.ExitProfile{}, nil)
	assert.Equal(t, 0, metrics.Trades)
}

func TestBestProfilePicksHighestScore(t *testing.T) {
	metrics := map[string]domain.ExitProfileMetrics{
		"conservative": {Score: 1.2},
		"aggressive":   {Score: 2.5},
		"balanced":     {Score: 2.0},
	}
	assert.Equal(t, "aggressive", BestProfile(metrics))
}

func TestBestProfileEmptyIsEmptyString(t *testing.T) {
	assert.Equal(t, "", BestProfile(nil))
}
