package agents

import (
	"context"
	"testing"

	"github.com/arise-platform/toppicks-engine/internal/quotes"
	"github.com/stretchr/testify/assert"
)

func TestMarketRegimeAgentInsufficientHistory(t *testing.T) {
	a := NewMarketRegimeAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X", Candles: candlesWithCloses([]float64{100, 101, 102})})
	assert.Equal(t, 50.0, r.Score)
	assert.Equal(t, ConfidenceLow, r.Confidence)
}

func TestMarketRegimeAgentBullishMomentum(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	a := NewMarketRegimeAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X", Candles: candlesWithCloses(closes)})
	assert.Greater(t, r.Score, 50.0)
}

func TestGlobalMarketAgentNoBenchmarkIsLowConfidence(t *testing.T) {
	a := NewGlobalMarketAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X"})
	assert.Equal(t, ConfidenceLow, r.Confidence)
	assert.Equal(t, 50.0, r.Score)
}

func TestGlobalMarketAgentPositiveBenchmarkScoresAboveNeutral(t *testing.T) {
	a := NewGlobalMarketAgent()
	r := a.Analyze(context.Background(), Context{
		Symbol:    "X",
		Benchmark: quotes.Quote{Symbol: "NIFTY50", ChangePercent: 1.5},
	})
	assert.Greater(t, r.Score, 50.0)
	assert.Equal(t, ConfidenceMedium, r.Confidence)
}

func TestRegimeBucketsInsufficientHistoryDefaultsToMedium(t *testing.T) {
	regime, vol := RegimeBuckets(candlesWithCloses([]float64{100, 101}))
	assert.Equal(t, "ranging", regime)
	assert.Equal(t, "medium", vol)
}

func TestRegimeBucketsTrendingMomentum(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.8
	}
	regime, _ := RegimeBuckets(candlesWithCloses(closes))
	assert.Equal(t, "trending", regime)
}
