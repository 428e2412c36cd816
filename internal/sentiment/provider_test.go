package sentiment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeNewsSentimentNoAPIKeyIsNeutral(t *testing.T) {
	p := NewHTTPProvider("http://unused", "", zerolog.Nop())
	a, err := p.AnalyzeNewsSentiment(context.Background(), "RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, 50.0, a.Score)
	assert.Equal(t, "unavailable", a.Signals[0].Signal)
}

func TestAnalyzeNewsSentimentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"score":72,"news_count":10,"positive_count":7,"negative_count":1,"neutral_count":2}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "test-key", zerolog.Nop())
	a, err := p.AnalyzeNewsSentiment(context.Background(), "TCS")
	require.NoError(t, err)
	assert.Equal(t, 72.0, a.Score)
	assert.Equal(t, 10, a.Metadata.NewsCount)
	assert.Equal(t, "positive", a.Signals[0].Signal)
}

func TestAnalyzeNewsSentimentUpstreamErrorDegradesToNeutral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "test-key", zerolog.Nop())
	a, err := p.AnalyzeNewsSentiment(context.Background(), "INFY")
	require.NoError(t, err)
	assert.Equal(t, 50.0, a.Score)
}
