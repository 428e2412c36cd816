package agents

import (
	"context"

	"github.com/arise-platform/toppicks-engine/internal/quotes"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const minRegimeBars = 15

func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	rets := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		rets[i-1] = (closes[i] - closes[i-1]) / closes[i-1]
	}
	return rets
}

// RegimeBuckets classifies volatility and momentum from candles' daily
// closes using the same thresholds MarketRegimeAgent scores against. The
// TopPicksEngine calls this ahead of the agent fanout so Risk and
// TradeStrategy can read the bucket from Context rather than recomputing it.
func RegimeBuckets(candles []quotes.Candle) (regimeBucket, volBucket string) {
	_, _, _, close, _ := ohlc(candles)
	rets := dailyReturns(close)
	if len(rets) < minRegimeBars {
		return "ranging", "medium"
	}

	stdDev := stat.StdDev(rets, nil)
	momentum := floats.Sum(rets[len(rets)-5:])

	volBucket = "medium"
	switch {
	case stdDev < 0.01:
		volBucket = "low"
	case stdDev > 0.025:
		volBucket = "high"
	}

	regimeBucket = "ranging"
	if stdDev > 0 && momentum/(stdDev*2.236) > 1 {
		regimeBucket = "trending"
	}
	return regimeBucket, volBucket
}

// MarketRegimeAgent buckets volatility and momentum from recent daily
// returns and scores trend-following alignment with the bucket.
type MarketRegimeAgent struct{}

func NewMarketRegimeAgent() *MarketRegimeAgent { return &MarketRegimeAgent{} }

func (a *MarketRegimeAgent) Name() string { return "MarketRegime" }

func (a *MarketRegimeAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	_, _, _, close, _ := ohlc(agentCtx.Candles)
	rets := dailyReturns(close)
	if len(rets) < minRegimeBars {
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Reasoning:  "insufficient return history for regime classification",
		}
	}

	mean := stat.Mean(rets, nil)
	stdDev := stat.StdDev(rets, nil)
	momentum := floats.Sum(rets[len(rets)-5:]) // last-5-session cumulative return

	volBucket := "medium"
	switch {
	case stdDev < 0.01:
		volBucket = "low"
	case stdDev > 0.025:
		volBucket = "high"
	}

	// Trend-following: positive mean+momentum scores bullish, scaled by
	// how many standard deviations the recent momentum sits from zero.
	zScore := 0.0
	if stdDev > 0 {
		zScore = momentum / (stdDev * 2.236) // sqrt(5) normalization
	}
	score := clip(50+zScore*25, 0, 100)

	confidence := ConfidenceMedium
	if volBucket == "high" {
		confidence = ConfidenceLow
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      score,
		Confidence: confidence,
		Signals: []Signal{
			{Type: "VOL_BUCKET", Signal: volBucket},
			{Type: "MOMENTUM_5D", Value: momentum},
		},
		Reasoning: "return-distribution regime classification and momentum z-score",
		Metadata: map[string]any{
			"mean_return":  mean,
			"std_dev":      stdDev,
			"vol_bucket":   volBucket,
			"momentum_5d":  momentum,
		},
	}
}

// GlobalMarketAgent scores a symbol from the supplied benchmark's (e.g.
// NIFTY50) recent change, as a proxy for broad market correlation.
type GlobalMarketAgent struct{}

func NewGlobalMarketAgent() *GlobalMarketAgent { return &GlobalMarketAgent{} }

func (a *GlobalMarketAgent) Name() string { return "GlobalMarket" }

func (a *GlobalMarketAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	change := agentCtx.Benchmark.ChangePercent
	score := clip(50+change*5, 0, 100)

	confidence := ConfidenceMedium
	if agentCtx.Benchmark.Symbol == "" {
		confidence = ConfidenceLow
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      score,
		Confidence: confidence,
		Signals: []Signal{
			{Type: "BENCHMARK_CHANGE_PCT", Value: change, Signal: agentCtx.Benchmark.Symbol},
		},
		Reasoning: "benchmark index change as broad-market correlation proxy",
		Metadata: map[string]any{
			"benchmark_symbol": agentCtx.Benchmark.Symbol,
			"benchmark_change": change,
		},
	}
}
