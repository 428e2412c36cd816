package agents

import "context"

// OptionsAgent scores symbols from the put-call ratio surfaced via
// Context.Extra["put_call_ratio"] (populated by the F&O data fetch for
// symbols with listed derivatives). A PCR below 1 is read bullish, above 1
// bearish; symbols with no derivatives segment score neutral at low
// confidence.
type OptionsAgent struct{}

func NewOptionsAgent() *OptionsAgent { return &OptionsAgent{} }

func (a *OptionsAgent) Name() string { return "Options" }

func (a *OptionsAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	pcrRaw, ok := agentCtx.Extra["put_call_ratio"]
	if !ok {
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Reasoning:  "no derivatives segment for symbol",
		}
	}
	pcr, ok := pcrRaw.(float64)
	if !ok || pcr <= 0 {
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Reasoning:  "put-call ratio unavailable",
		}
	}

	// PCR of 1.0 is neutral; each 0.1 deviation shifts score by 5 points,
	// inverted since high PCR (more puts) is bearish.
	score := clip(50-(pcr-1.0)*50, 0, 100)

	confidence := ConfidenceMedium
	if pcr < 0.7 || pcr > 1.3 {
		confidence = ConfidenceHigh
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      score,
		Confidence: confidence,
		Signals: []Signal{
			{Type: "PUT_CALL_RATIO", Value: pcr},
		},
		Reasoning: "put-call ratio positioning",
		Metadata: map[string]any{
			"put_call_ratio": pcr,
		},
	}
}
