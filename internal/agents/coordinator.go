package agents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAnalyzeTimeout bounds a single agent's Analyze call so one slow
// agent cannot stall an entire TopPicksEngine run (§4.4).
const DefaultAnalyzeTimeout = 2 * time.Second

// DefaultWeights are the registered agents' base weights (§4.4), applied
// when a mode has no PolicyStore override.
var DefaultWeights = map[string]float64{
	"Technical":             0.20,
	"PatternRecognition":    0.18,
	"MarketRegime":          0.15,
	"GlobalMarket":          0.12,
	"Options":               0.12,
	"Sentiment":             0.10,
	"PolicyMacro":           0.08,
	"WatchlistIntelligence": 0.03,
	"Microstructure":        0.01,
	"Risk":                  0.01,
	"TradeStrategy":         0,
	"AutoMonitoring":        0,
	"Personalization":       0,
}

// declarationOrder lists the registered agents in §4.4 declaration order.
// Nothing reads it: Blend's weighted sum does not depend on result order,
// and Run returns results in registration order.
var declarationOrder = []string{
	"Technical", "PatternRecognition", "MarketRegime", "GlobalMarket",
	"Options", "Sentiment", "PolicyMacro", "WatchlistIntelligence",
	"Microstructure", "Risk", "TradeStrategy", "AutoMonitoring", "Personalization",
}

// Coordinator runs the registered agent set in parallel per symbol and
// blends their scores into a single value.
type Coordinator struct {
	mu      sync.RWMutex
	agents  map[string]Agent
	order   []string
	log     zerolog.Logger
	timeout time.Duration
}

// NewCoordinator builds an empty coordinator.
func NewCoordinator(log zerolog.Logger) *Coordinator {
	return &Coordinator{
		agents:  make(map[string]Agent),
		log:     log.With().Str("component", "agent_coordinator").Logger(),
		timeout: DefaultAnalyzeTimeout,
	}
}

// Register adds an agent to the ensemble, preserving registration order for
// blend tie-breaks.
func (c *Coordinator) Register(agent Agent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := agent.Name()
	if _, exists := c.agents[name]; !exists {
		c.order = append(c.order, name)
	}
	c.agents[name] = agent
}

// Run fans Analyze out to every registered agent concurrently, bounding
// each call by the coordinator's timeout, and returns one Result per agent
// in declaration order. A timeout or panic degrades that agent's result
// rather than failing the run.
func (c *Coordinator) Run(ctx context.Context, agentCtx Context) []Result {
	c.mu.RLock()
	order := append([]string(nil), c.order...)
	agentsByName := make(map[string]Agent, len(c.agents))
	for k, v := range c.agents {
		agentsByName[k] = v
	}
	timeout := c.timeout
	c.mu.RUnlock()

	results := make([]Result, len(order))
	var wg sync.WaitGroup
	wg.Add(len(order))
	for i, name := range order {
		i, name := i, name
		go func() {
			defer wg.Done()
			results[i] = c.runOne(ctx, agentsByName[name], name, agentCtx, timeout)
		}()
	}
	wg.Wait()
	return results
}

func (c *Coordinator) runOne(ctx context.Context, agent Agent, name string, agentCtx Context, timeout time.Duration) (result Result) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			c.log.Warn().Str("agent", name).Interface("panic", r).Msg("agent panicked")
			result = DegradedResult(name, agentCtx.Symbol, fmt.Errorf("panic: %v", r))
		}
	}()

	done := make(chan Result, 1)
	go func() {
		done <- agent.Analyze(runCtx, agentCtx)
	}()

	select {
	case result = <-done:
		return result
	case <-runCtx.Done():
		c.log.Warn().Str("agent", name).Str("symbol", agentCtx.Symbol).Msg("agent timed out")
		return DegradedResult(name, agentCtx.Symbol, runCtx.Err())
	}
}

// Blend computes blend_score = Σ(score_i * weight_i) / Σ weight_i using
// weights (falling back to DefaultWeights for any agent absent from
// weights), per §4.4. Zero total weight yields 0.
func Blend(results []Result, weights map[string]float64) float64 {
	var weightedSum, totalWeight float64
	for _, r := range results {
		w, ok := weights[r.AgentType]
		if !ok {
			w = DefaultWeights[r.AgentType]
		}
		if w <= 0 {
			continue
		}
		weightedSum += r.Score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}
