package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchlistIntelligenceAgentNoHistory(t *testing.T) {
	a := NewWatchlistIntelligenceAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X"})
	assert.Equal(t, 50.0, r.Score)
}

func TestWatchlistIntelligenceAgentHitsBonusIsCapped(t *testing.T) {
	a := NewWatchlistIntelligenceAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X", Extra: map[string]any{"watchlist_hits": 10}})
	assert.Equal(t, 65.0, r.Score)
}
