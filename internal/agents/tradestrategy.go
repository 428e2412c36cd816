package agents

import "context"

// TradeStrategyAgent carries zero blend weight (§4.4): its role is not to
// move the blend score but to label which exit-profile family the pick
// reads as (breakout vs mean-reversion), read off the already-computed
// regime and trend signals so the bandit layer has a starting context key
// without recomputing indicators.
type TradeStrategyAgent struct{}

func NewTradeStrategyAgent() *TradeStrategyAgent { return &TradeStrategyAgent{} }

func (a *TradeStrategyAgent) Name() string { return "TradeStrategy" }

func (a *TradeStrategyAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	strategy := "mean_reversion"
	if agentCtx.RegimeBucket == "trending" {
		strategy = "breakout"
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      50,
		Confidence: ConfidenceMedium,
		Signals: []Signal{
			{Type: "STRATEGY_LABEL", Signal: strategy},
		},
		Reasoning: "exit-profile family label derived from regime bucket",
		Metadata: map[string]any{
			"strategy_label": strategy,
		},
	}
}
