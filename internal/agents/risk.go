package agents

import "context"

// RiskAgent penalizes high-volatility regimes: it scores above neutral at
// low realized volatility, neutral at medium, and below neutral at high, as
// read from VolBucket (populated by RegimeBuckets and threaded through
// Context).
// A low agent weight (§4.4) keeps this a tie-break rather than a veto.
type RiskAgent struct{}

func NewRiskAgent() *RiskAgent { return &RiskAgent{} }

func (a *RiskAgent) Name() string { return "Risk" }

func (a *RiskAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	switch agentCtx.VolBucket {
	case "high":
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      35,
			Confidence: ConfidenceMedium,
			Signals:    []Signal{{Type: "VOL_BUCKET", Signal: "high"}},
			Reasoning:  "elevated realized volatility penalized",
		}
	case "low":
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      65,
			Confidence: ConfidenceMedium,
			Signals:    []Signal{{Type: "VOL_BUCKET", Signal: "low"}},
			Reasoning:  "low realized volatility favored",
		}
	default:
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Signals:    []Signal{{Type: "VOL_BUCKET", Signal: "medium"}},
			Reasoning:  "moderate realized volatility, no adjustment",
		}
	}
}
