package bandit

import (
	"math/rand"
	"testing"
	"time"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestContextKeyFormat(t *testing.T) {
	assert.Equal(t, "Swing|trending|medium|moderate", ContextKey(domain.ModeSwing, "trending", "medium", "moderate"))
}

func TestExitContextKeyExtendsOnlyForIntraday(t *testing.T) {
	assert.Equal(t, "Intraday|trending|medium|moderate|morning|high", ExitContextKey(domain.ModeIntraday, "trending", "medium", "moderate", "morning", "high"))
	assert.Equal(t, "Swing|trending|medium|moderate", ExitContextKey(domain.ModeSwing, "trending", "medium", "moderate", "morning", "high"))
}

func TestUpdateActionIncrementalMean(t *testing.T) {
	mb := &domain.ModeBandit{}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	UpdateAction(mb, "ctx1", "profileA", 1.0, now)
	UpdateAction(mb, "ctx1", "profileA", 0.0, now)

	stat := mb.Contexts["ctx1"].Actions["profileA"]
	assert.Equal(t, 2, stat.N)
	assert.InDelta(t, 0.5, stat.Q, 0.0001)
}

func TestExitRewardClipping(t *testing.T) {
	// ret and capture saturate at their clips (0.5 + 0.3), drawdown and stop
	// penalties saturate at 0.1 each: 0.8 - 0.2 = 0.6.
	r := ExitReward(100, 1, -100, true)
	assert.InDelta(t, 0.6, r, 1e-9)

	r2 := ExitReward(-100, 0, -100, true)
	assert.True(t, r2 < 0)
}

func TestSelectActionBelowFloorExplores(t *testing.T) {
	mb := domain.ModeBandit{Epsilon: 0, MinTradesPerAction: 5}
	rng := rand.New(rand.NewSource(1))
	action := SelectAction(mb, "ctx1", []string{"a", "b"}, rng)
	assert.Contains(t, []string{"a", "b"}, action)
}

func TestSelectActionGreedyPicksHighestQ(t *testing.T) {
	mb := domain.ModeBandit{Epsilon: 0, MinTradesPerAction: 0, Contexts: map[string]*domain.BanditContext{
		"ctx1": {Actions: map[string]*domain.BanditActionStat{
			"a": {N: 10, Q: 0.2},
			"b": {N: 10, Q: 0.9},
		}},
	}}
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, "b", SelectAction(mb, "ctx1", []string{"a", "b"}, rng))
}

func TestSelectActionTieBreakByHighestNThenOrder(t *testing.T) {
	mb := domain.ModeBandit{Epsilon: 0, MinTradesPerAction: 0, Contexts: map[string]*domain.BanditContext{
		"ctx1": {Actions: map[string]*domain.BanditActionStat{
			"a": {N: 5, Q: 0.5},
			"b": {N: 8, Q: 0.5},
		}},
	}}
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, "b", SelectAction(mb, "ctx1", []string{"a", "b"}, rng))
}
