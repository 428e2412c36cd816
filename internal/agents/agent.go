// Package agents implements the independent scoring agents fanned out by
// the AgentCoordinator (§4.4) and the coordinator itself.
package agents

import (
	"context"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// Confidence is an agent's self-reported certainty in its score.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Signal is one named observation an agent surfaces alongside its score.
type Signal struct {
	Type   string
	Value  float64
	Signal string
}

// Result is an agent's output for one symbol (§4.4 AgentResult).
type Result struct {
	AgentType  string
	Symbol     string
	Score      float64 // 0..100
	Confidence Confidence
	Signals    []Signal
	Reasoning  string
	Metadata   map[string]any
}

// ToContribution converts a Result into the domain.AgentContribution
// attached to a PickEvent.
func (r Result) ToContribution(pickUUID string) domain.AgentContribution {
	score := r.Score
	return domain.AgentContribution{
		PickUUID:   pickUUID,
		AgentName:  r.AgentType,
		Score:      &score,
		Confidence: string(r.Confidence),
		Metadata:   r.Metadata,
	}
}

// DegradedResult is the fixed fallback used when an agent fails or times
// out (§4.4 Failure semantics): score=50, confidence=Low, error in Reasoning.
func DegradedResult(agentType, symbol string, err error) Result {
	return Result{
		AgentType:  agentType,
		Symbol:     symbol,
		Score:      50,
		Confidence: ConfidenceLow,
		Reasoning:  "agent failed: " + err.Error(),
	}
}

// Context is the read-only market/portfolio context passed to every agent.
// Agents must not mutate it; the coordinator fans it out to every agent
// concurrently.
type Context struct {
	Symbol     string
	Mode       domain.Mode
	Exchange   quotes.Exchange
	Quote      quotes.Quote
	Candles    []quotes.Candle // ascending by timestamp, daily interval unless otherwise noted
	Intraday   []quotes.Candle // ascending, intraday interval (used by scalping/microstructure agents)
	SRLevels   *domain.SRLevels
	RegimeBucket string
	VolBucket    string
	Benchmark  quotes.Quote
	Extra      map[string]any
}

// Agent is the contract every registered scoring agent implements (§4.4).
// Implementations must be safe for concurrent use: the coordinator may call
// Analyze for many symbols concurrently against the same Agent instance.
type Agent interface {
	// Name is the declared agent_type, used for weight lookup and logging.
	Name() string
	// Analyze scores symbol given ctx. Analyze should not block
	// indefinitely; the coordinator enforces a bounding timeout but a
	// well-behaved agent still respects ctx cancellation.
	Analyze(ctx context.Context, agentCtx Context) Result
}
