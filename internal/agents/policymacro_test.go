package agents

import (
	"context"
	"testing"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPolicyMacroAgentNoBiasIsNeutral(t *testing.T) {
	a := NewPolicyMacroAgent()
	r := a.Analyze(context.Background(), Context{Symbol: "X"})
	assert.Equal(t, 50.0, r.Score)
	assert.Equal(t, ConfidenceLow, r.Confidence)
}

func TestPolicyMacroAgentLongBiasScoresAboveNeutral(t *testing.T) {
	a := NewPolicyMacroAgent()
	r := a.Analyze(context.Background(), Context{
		Symbol: "X",
		Extra:  map[string]any{"regime_bias": domain.RegimeBias{LongMult: 1.3, ShortMult: 0.8}},
	})
	assert.Greater(t, r.Score, 50.0)
}
