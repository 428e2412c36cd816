package agents

import "context"

// WatchlistIntelligenceAgent rewards symbols that have persisted on the
// watchlist across multiple runs without triggering an entry, read as
// confirmation rather than staleness: Context.Extra["watchlist_hits"] is the
// count of prior consecutive runs the symbol surfaced in but was not
// promoted to a pick.
type WatchlistIntelligenceAgent struct{}

func NewWatchlistIntelligenceAgent() *WatchlistIntelligenceAgent {
	return &WatchlistIntelligenceAgent{}
}

func (a *WatchlistIntelligenceAgent) Name() string { return "WatchlistIntelligence" }

func (a *WatchlistIntelligenceAgent) Analyze(ctx context.Context, agentCtx Context) Result {
	hitsRaw, ok := agentCtx.Extra["watchlist_hits"]
	hits, okInt := hitsRaw.(int)
	if !ok || !okInt || hits <= 0 {
		return Result{
			AgentType:  a.Name(),
			Symbol:     agentCtx.Symbol,
			Score:      50,
			Confidence: ConfidenceLow,
			Reasoning:  "no watchlist history for symbol",
		}
	}

	// Each consecutive watchlist hit adds 3 points, capped at +15.
	bonus := clip(float64(hits)*3, 0, 15)
	score := 50 + bonus

	return Result{
		AgentType:  a.Name(),
		Symbol:     agentCtx.Symbol,
		Score:      score,
		Confidence: ConfidenceMedium,
		Signals: []Signal{
			{Type: "WATCHLIST_HITS", Value: float64(hits)},
		},
		Reasoning: "persistent watchlist presence read as confirmation",
		Metadata: map[string]any{
			"watchlist_hits": hits,
		},
	}
}
