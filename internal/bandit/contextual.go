package bandit

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

// ContextKey builds the bandit context key "{mode}|{regime_bucket}|{vol_bucket}|{user_risk_bucket}"
// (§4.10). For the exit bandit, Intraday additionally extends with
// "|{session_segment}|{value_bucket}" via ExitContextKey.
func ContextKey(mode domain.Mode, regimeBucket, volBucket, userRiskBucket string) string {
	return fmt.Sprintf("%s|%s|%s|%s", mode, regimeBucket, volBucket, userRiskBucket)
}

// ExitContextKey extends ContextKey with session_segment/value_bucket for
// Intraday mode's exit bandit (§4.10).
func ExitContextKey(mode domain.Mode, regimeBucket, volBucket, userRiskBucket, sessionSegment, valueBucket string) string {
	base := ContextKey(mode, regimeBucket, volBucket, userRiskBucket)
	if mode != domain.ModeIntraday {
		return base
	}
	return fmt.Sprintf("%s|%s|%s", base, sessionSegment, valueBucket)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ExitReward computes the exit-bandit reward for one simulated/realized
// trade (§4.10 "Reward (exit bandit)").
func ExitReward(retClosePct, captureRatio, maxDrawdownPct float64, hitStop bool) float64 {
	ddPenalty := clip(max0(-maxDrawdownPct)/4, 0, 1)
	stopPenalty := 0.0
	if hitStop {
		stopPenalty = 1.0
	}
	reward := 0.5*clip(retClosePct/2, -1, 1) + 0.3*clip(captureRatio, 0, 1) - 0.1*ddPenalty - 0.1*stopPenalty
	return clip(reward, -1.5, 1.5)
}

// EntryReward computes the entry-bandit reward for one realized trade
// (§4.10 "Reward (entry bandit)").
func EntryReward(retClosePct, ddPenalty, stopPenalty float64) float64 {
	reward := 0.6*clip(retClosePct/2, -1, 1) - 0.2*ddPenalty - 0.2*stopPenalty
	return clip(reward, -1.5, 1.5)
}

func max0(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

// UpdateAction applies the incremental-mean Q-update (§4.10 "Update
// (incremental mean)") to bandit's context/action cell, creating both if
// absent. now is injected for deterministic tests.
func UpdateAction(mb *domain.ModeBandit, contextKey, actionID string, reward float64, now time.Time) {
	if mb.Contexts == nil {
		mb.Contexts = make(map[string]*domain.BanditContext)
	}
	ctx, ok := mb.Contexts[contextKey]
	if !ok {
		ctx = &domain.BanditContext{Actions: make(map[string]*domain.BanditActionStat)}
		mb.Contexts[contextKey] = ctx
	}
	if ctx.Actions == nil {
		ctx.Actions = make(map[string]*domain.BanditActionStat)
	}
	stat, ok := ctx.Actions[actionID]
	if !ok {
		stat = &domain.BanditActionStat{}
		ctx.Actions[actionID] = stat
	}
	stat.N++
	stat.Q += (reward - stat.Q) / float64(stat.N)
	stat.LastUpdate = now
}

// SelectAction runs ε-greedy selection over actionIDs (declared order) for
// the given bandit context (§4.10 "Selection policy"). Actions below
// MinTradesPerAction are exploration candidates regardless of ε. Ties are
// broken by highest N, then declared action order. rng must not be nil.
func SelectAction(mb domain.ModeBandit, contextKey string, actionIDs []string, rng *rand.Rand) string {
	if len(actionIDs) == 0 {
		return ""
	}

	ctx := mb.Contexts[contextKey]

	var underFloor []string
	for _, id := range actionIDs {
		n := 0
		if ctx != nil && ctx.Actions[id] != nil {
			n = ctx.Actions[id].N
		}
		if n < mb.MinTradesPerAction {
			underFloor = append(underFloor, id)
		}
	}
	if len(underFloor) > 0 {
		return underFloor[rng.Intn(len(underFloor))]
	}

	if rng.Float64() < mb.Epsilon {
		return actionIDs[rng.Intn(len(actionIDs))]
	}

	return bestAction(ctx, actionIDs)
}

// bestAction picks the highest-Q action, ties broken by highest N then by
// declared order in actionIDs.
func bestAction(ctx *domain.BanditContext, actionIDs []string) string {
	type scored struct {
		id    string
		q     float64
		n     int
		order int
	}
	candidates := make([]scored, 0, len(actionIDs))
	for i, id := range actionIDs {
		q, n := 0.0, 0
		if ctx != nil && ctx.Actions[id] != nil {
			q, n = ctx.Actions[id].Q, ctx.Actions[id].N
		}
		candidates = append(candidates, scored{id: id, q: q, n: n, order: i})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].q != candidates[j].q {
			return candidates[i].q > candidates[j].q
		}
		if candidates[i].n != candidates[j].n {
			return candidates[i].n > candidates[j].n
		}
		return candidates[i].order < candidates[j].order
	})
	return candidates[0].id
}
