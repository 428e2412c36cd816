package agents

import (
	"context"

	talib "github.com/markcheno/go-talib"
)

const minTechnicalBars = 20

// TechnicalAgent scores symbols from RSI mean-reversion and EMA trend
// alignment over the daily candle history.
type TechnicalAgent struct{}

func NewTechnicalAgent() *TechnicalAgent { return &TechnicalAgent{} }

func (a *TechnicalAgent) Name() string { return "Technical" }

func (a *TechnicalAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	if len(agentCtx.Candles) < minTechnicalBars {
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Reasoning:  "insufficient candle history for technical analysis",
		}
	}

	_, _, _, close, _ := ohlc(agentCtx.Candles)
	rsi := talib.Rsi(close, 14)
	ema20 := talib.Ema(close, 20)

	rsiLast := last(rsi)
	emaLast := last(ema20)
	closeLast := last(close)

	// RSI mean-reversion: oversold (low RSI) scores bullish, overbought
	// scores bearish.
	score := 100 - rsiLast

	trendSignal := "neutral"
	if closeLast > emaLast {
		score += 10
		trendSignal = "above_ema20"
	} else if closeLast < emaLast {
		score -= 10
		trendSignal = "below_ema20"
	}
	score = clip(score, 0, 100)

	confidence := ConfidenceMedium
	if rsiLast <= 25 || rsiLast >= 75 {
		confidence = ConfidenceHigh
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      score,
		Confidence: confidence,
		Signals: []Signal{
			{Type: "RSI_14", Value: rsiLast, Signal: trendSignal},
			{Type: "EMA_20", Value: emaLast, Signal: trendSignal},
		},
		Reasoning: "RSI mean-reversion blended with EMA-20 trend alignment",
		Metadata: map[string]any{
			"rsi_14":  rsiLast,
			"ema_20":  emaLast,
			"close":   closeLast,
			"trend":   trendSignal,
		},
	}
}

// PatternRecognitionAgent scores symbols from TA-Lib candlestick pattern
// recognition over the most recent bars.
type PatternRecognitionAgent struct{}

func NewPatternRecognitionAgent() *PatternRecognitionAgent { return &PatternRecognitionAgent{} }

func (a *PatternRecognitionAgent) Name() string { return "PatternRecognition" }

func (a *PatternRecognitionAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	if len(agentCtx.Candles) < minTechnicalBars {
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Reasoning:  "insufficient candle history for pattern recognition",
		}
	}

	open, high, low, close, _ := ohlc(agentCtx.Candles)
	engulfing := talib.CdlEngulfing(open, high, low, close)
	hammer := talib.CdlHammer(open, high, low, close)

	engulfingLast := last(engulfing)
	hammerLast := last(hammer)

	score := 50 + engulfingLast*0.3 + hammerLast*0.2
	score = clip(score, 0, 100)

	confidence := ConfidenceLow
	if engulfingLast != 0 || hammerLast != 0 {
		confidence = ConfidenceMedium
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      score,
		Confidence: confidence,
		Signals: []Signal{
			{Type: "CDL_ENGULFING", Value: engulfingLast},
			{Type: "CDL_HAMMER", Value: hammerLast},
		},
		Reasoning: "candlestick pattern recognition over recent bars",
		Metadata: map[string]any{
			"cdl_engulfing": engulfingLast,
			"cdl_hammer":    hammerLast,
		},
	}
}
