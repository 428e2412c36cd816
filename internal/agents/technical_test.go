package agents

import (
	"context"
	"testing"
	"time"

	"github.com/arise-platform/toppicks-engine/internal/quotes"
	"github.com/stretchr/testify/assert"
)

func candlesWithCloses(closes []float64) []quotes.Candle {
	candles := make([]quotes.Candle, len(closes))
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		candles[i] = quotes.Candle{
			Timestamp: ts.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return candles
}

func TestTechnicalAgentInsufficientHistory(t *testing.T) {
	a := NewTechnicalAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X", Candles: candlesWithCloses([]float64{100, 101})})
	assert.Equal(t, 50.0, r.Score)
	assert.Equal(t, ConfidenceLow, r.Confidence)
}

func TestTechnicalAgentUptrendScoreIsBounded(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	a := NewTechnicalAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X", Candles: candlesWithCloses(closes)})
	assert.GreaterOrEqual(t, r.Score, 0.0)
	assert.LessOrEqual(t, r.Score, 100.0)
}

func TestPatternRecognitionAgentInsufficientHistory(t *testing.T) {
	a := NewPatternRecognitionAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X", Candles: candlesWithCloses([]float64{100})})
	assert.Equal(t, 50.0, r.Score)
	assert.Equal(t, ConfidenceLow, r.Confidence)
}
