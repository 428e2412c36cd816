package agents

import "context"

// PersonalizationAgent carries zero blend weight (§4.4). No per-user
// preference profile is wired yet; it passes through an optional
// Context.Extra["personalization_tilt"] signal for future consumption by a
// user-scoped ranking layer without affecting the current blend.
type PersonalizationAgent struct{}

func NewPersonalizationAgent() *PersonalizationAgent { return &PersonalizationAgent{} }

func (a *PersonalizationAgent) Name() string { return "Personalization" }

func (a *PersonalizationAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	tilt, _ := agentCtx.Extra["personalization_tilt"].(string)
	if tilt == "" {
		tilt = "none"
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      50,
		Confidence: ConfidenceLow,
		Signals: []Signal{
			{Type: "PERSONALIZATION_TILT", Signal: tilt},
		},
		Reasoning: "placeholder pass-through, no user profile wired",
	}
}
