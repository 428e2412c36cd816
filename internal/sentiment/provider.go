// Package sentiment implements the news-sentiment provider boundary (§6):
// AnalyzeNewsSentiment(symbol) -> {score, metadata, signals}.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Metadata is the per-symbol news breakdown backing a sentiment score.
type Metadata struct {
	NewsCount     int `json:"news_count"`
	PositiveCount int `json:"positive_count"`
	NegativeCount int `json:"negative_count"`
	NeutralCount  int `json:"neutral_count"`
}

// Signal is the single NEWS_SENTIMENT observation surfaced to the agent layer.
type Signal struct {
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Signal string  `json:"signal"`
}

// Analysis is the full result of AnalyzeNewsSentiment: score in [0,100].
type Analysis struct {
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
	Signals  []Signal `json:"signals"`
}

// Provider is the sentiment provider boundary consumed by the Sentiment
// agent. Implementations must be safe for concurrent use.
type Provider interface {
	AnalyzeNewsSentiment(ctx context.Context, symbol string) (Analysis, error)
}

// neutralAnalysis is returned when a provider cannot reach its upstream or
// has no API key configured; a neutral score keeps the agent ensemble
// functioning rather than failing the whole run.
func neutralAnalysis() Analysis {
	return Analysis{
		Score:    50,
		Metadata: Metadata{},
		Signals:  []Signal{{Type: "NEWS_SENTIMENT", Value: 50, Signal: "unavailable"}},
	}
}

// HTTPProvider calls a third-party news-sentiment API over HTTP.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewHTTPProvider builds a provider against baseURL. An empty apiKey makes
// every call degrade to a neutral analysis rather than attempting a request
// that would be rejected upstream.
func NewHTTPProvider(baseURL, apiKey string, log zerolog.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log.With().Str("component", "sentiment_provider").Logger(),
	}
}

type sentimentAPIResponse struct {
	Score         float64 `json:"score"`
	NewsCount     int     `json:"news_count"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
}

// AnalyzeNewsSentiment fetches and scores recent news for symbol. Any
// failure (missing key, network error, bad response) degrades to a neutral
// analysis and is logged rather than propagated, matching the agent
// ensemble's fail-soft contract (§4.4).
func (p *HTTPProvider) AnalyzeNewsSentiment(ctx context.Context, symbol string) (Analysis, error) {
	if p.apiKey == "" {
		return neutralAnalysis(), nil
	}

	url := fmt.Sprintf("%s/sentiment?symbol=%s", p.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("build sentiment request failed, degrading to neutral")
		return neutralAnalysis(), nil
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("sentiment request failed, degrading to neutral")
		return neutralAnalysis(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.Warn().Int("status", resp.StatusCode).Str("symbol", symbol).Msg("sentiment upstream non-200, degrading to neutral")
		return neutralAnalysis(), nil
	}

	var parsed sentimentAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("sentiment response decode failed, degrading to neutral")
		return neutralAnalysis(), nil
	}

	signal := "neutral"
	switch {
	case parsed.Score >= 60:
		signal = "positive"
	case parsed.Score <= 40:
		signal = "negative"
	}

	return Analysis{
		Score: parsed.Score,
		Metadata: Metadata{
			NewsCount:     parsed.NewsCount,
			PositiveCount: parsed.PositiveCount,
			NegativeCount: parsed.NegativeCount,
			NeutralCount:  parsed.NeutralCount,
		},
		Signals: []Signal{{Type: "NEWS_SENTIMENT", Value: parsed.Score, Signal: signal}},
	}, nil
}
