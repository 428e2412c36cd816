package agents

import "context"

// AutoMonitoringAgent carries zero blend weight (§4.4): it flags whether
// the symbol's support/resistance context is stale enough that a pick
// promoted this run should be prioritized for an immediate monitor refresh
// rather than waiting for the next scheduled cycle.
type AutoMonitoringAgent struct{}

func NewAutoMonitoringAgent() *AutoMonitoringAgent { return &AutoMonitoringAgent{} }

func (a *AutoMonitoringAgent) Name() string { return "AutoMonitoring" }

func (a *AutoMonitoringAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	stale := agentCtx.SRLevels == nil
	signal := "fresh"
	if stale {
		signal = "stale_or_missing"
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      50,
		Confidence: ConfidenceMedium,
		Signals: []Signal{
			{Type: "SR_FRESHNESS", Signal: signal},
		},
		Reasoning: "support/resistance freshness check for monitor prioritization",
		Metadata: map[string]any{
			"sr_stale": stale,
		},
	}
}
