package agents

import "context"

const minMicrostructureBars = 5

// MicrostructureAgent scores symbols from recent intraday volume buildup:
// a rising last-bar volume against the trailing average read as conviction
// behind the move, falling volume read as fading interest.
type MicrostructureAgent struct{}

func NewMicrostructureAgent() *MicrostructureAgent { return &MicrostructureAgent{} }

func (a *MicrostructureAgent) Name() string { return "Microstructure" }

func (a *MicrostructureAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	if len(agentCtx.Intraday) < minMicrostructureBars {
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Reasoning:  "insufficient intraday history for microstructure read",
		}
	}

	_, _, _, close, volume := ohlc(agentCtx.Intraday)
	n := len(volume)
	lastVol := volume[n-1]

	var avgVol float64
	for _, v := range volume[:n-1] {
		avgVol += v
	}
	avgVol /= float64(n - 1)

	priceUp := close[n-1] >= close[n-2]
	volRatio := 1.0
	if avgVol > 0 {
		volRatio = lastVol / avgVol
	}

	delta := clip((volRatio-1)*20, -20, 20)
	if !priceUp {
		delta = -delta
	}
	score := clip(50+delta, 0, 100)

	confidence := ConfidenceMedium
	if volRatio > 1.5 {
		confidence = ConfidenceHigh
	}

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      score,
		Confidence: confidence,
		Signals: []Signal{
			{Type: "VOLUME_RATIO", Value: volRatio},
		},
		Reasoning: "intraday volume buildup relative to trailing average",
		Metadata: map[string]any{
			"volume_ratio": volRatio,
			"price_up":     priceUp,
		},
	}
}
