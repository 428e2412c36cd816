package monitor

import (
	"context"

	"github.com/arise-platform/toppicks-engine/internal/sentiment"
)

// SentimentNewsRisk adapts a sentiment.Provider into a NewsRiskSource
// (§4.6 "News advisories use sentiment-derived news_risk_score"): risk
// runs inverse to sentiment, a very negative sentiment score (near 0)
// maps to a high news_risk_score (near 100).
type SentimentNewsRisk struct {
	provider sentiment.Provider
}

func NewSentimentNewsRisk(provider sentiment.Provider) *SentimentNewsRisk {
	return &SentimentNewsRisk{provider: provider}
}

// RiskScore returns 100-sentiment_score for symbol. The bool return is
// false only when the underlying provider call errors; a neutral-score
// degrade (no API key, upstream failure) still yields a usable risk score
// of 50 with ok true, matching the provider's own fail-soft contract.
func (r *SentimentNewsRisk) RiskScore(ctx context.Context, symbol string) (float64, bool) {
	analysis, err := r.provider.AnalyzeNewsSentiment(ctx, symbol)
	if err != nil {
		return 0, false
	}
	return 100 - analysis.Score, true
}
