package agents

import (
	"context"

	"github.com/arise-platform/toppicks-engine/internal/sentiment"
)

// SentimentAgent wraps the news-sentiment provider boundary (§6) as an
// ensemble agent.
type SentimentAgent struct {
	provider sentiment.Provider
}

func NewSentimentAgent(provider sentiment.Provider) *SentimentAgent {
	return &SentimentAgent{provider: provider}
}

func (a *SentimentAgent) Name() string { return "Sentiment" }

func (a *SentimentAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	analysis, err := a.provider.AnalyzeNewsSentiment(ctx, agentCtx.Symbol)
	if err != nil {
		return DegradedResult(a.Name(), agentCtx.Symbol, err)
	}

	signals := make([]Signal, 0, len(analysis.Signals))
	for _, s := range analysis.Signals {
		signals = append(signals, Signal{Type: s.Type, Value: s.Value, Signal: s.Signal})
	}

	confidence := ConfidenceMedium
	if analysis.Metadata.NewsCount == 0 {
		confidence = ConfidenceLow
	} else if analysis.Metadata.NewsCount >= 10 {
		confidence = ConfidenceHigh
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      clip(analysis.Score, 0, 100),
		Confidence: confidence,
		Signals:    signals,
		Reasoning:  "recent news sentiment breakdown",
		Metadata: map[string]any{
			"news_count":     analysis.Metadata.NewsCount,
			"positive_count": analysis.Metadata.PositiveCount,
			"negative_count": analysis.Metadata.NegativeCount,
			"neutral_count":  analysis.Metadata.NeutralCount,
		},
	}
}
