package agents

import (
	"context"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

// PolicyMacroAgent folds the active mode's RegimeBias (§3 Policy.config) into
// a score: a long_mult above 1 favors bullish scores, a short_mult above 1
// favors bearish ones. Context.Extra["regime_bias"] carries the resolved
// domain.RegimeBias for the run's mode; its absence means no policy override
// is active and the agent reports a flat neutral.
type PolicyMacroAgent struct{}

func NewPolicyMacroAgent() *PolicyMacroAgent { return &PolicyMacroAgent{} }

func (a *PolicyMacroAgent) Name() string { return "PolicyMacro" }

func (a *PolicyMacroAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	biasRaw, ok := agentCtx.Extra["regime_bias"]
	if !ok {
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Reasoning:  "no active regime bias for mode",
		}
	}
	bias, ok := biasRaw.(domain.RegimeBias)
	if !ok {
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Reasoning:  "regime bias malformed",
		}
	}

	net := bias.LongMult - bias.ShortMult
	score := clip(50+net*25, 0, 100)

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      score,
		Confidence: ConfidenceMedium,
		Signals: []Signal{
			{Type: "REGIME_LONG_MULT", Value: bias.LongMult},
			{Type: "REGIME_SHORT_MULT", Value: bias.ShortMult},
		},
		Reasoning: "mode-level regime bias applied as a macro tilt",
		Metadata: map[string]any{
			"long_mult":  bias.LongMult,
			"short_mult": bias.ShortMult,
		},
	}
}
