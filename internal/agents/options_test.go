package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsAgentNoDerivativesSegment(t *testing.T) {
	a := NewOptionsAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X"})
	assert.Equal(t, 50.0, r.Score)
	assert.Equal(t, ConfidenceLow, r.Confidence)
}

func TestOptionsAgentLowPCRIsBullish(t *testing.T) {
	a := NewOptionsAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X", Extra: map[string]any{"put_call_ratio": 0.5}})
	assert.Greater(t, r.Score, 50.0)
	assert.Equal(t, ConfidenceHigh, r.Confidence)
}

func TestOptionsAgentHighPCRIsBearish(t *testing.T) {
	a := NewOptionsAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X", Extra: map[string]any{"put_call_ratio": 1.5}})
	assert.Less(t, r.Score, 50.0)
}
