package bandit

import (
	"context"
	"sort"
	"time"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// PickWithHorizon is the minimal per-pick input the evaluator needs: a
// PickEvent plus its resolved horizon end (from a matching PickOutcome, or
// the pick's own signal time when no outcome exists yet).
type PickWithHorizon struct {
	Pick         domain.PickEvent
	HorizonEndTS time.Time
}

// CandleSource supplies the price path for a symbol over [from, to], used
// by the evaluator to simulate exit profiles without depending on
// internal/quotes' provider directly (keeps this package test-friendly).
type CandleSource interface {
	Candles(ctx context.Context, symbol string, from, to time.Time) []quotes.Candle
}

// EvaluateProfile simulates profile over every pick in picks (§4.10 steps
// 1-5) and aggregates per-profile metrics (§4.10 "Aggregate per profile").
// Picks with no resolvable candle path are skipped.
func EvaluateProfile(ctx context.Context, source CandleSource, profile domain.ExitProfile, picks []PickWithHorizon) domain.ExitProfileMetrics {
	var (
		trades                                    int
		sumRet, sumDD, sumCapture                  float64
		wins, hitTargetCount, hitStopCount         int
	)

	for _, pwh := range picks {
		candles := source.Candles(ctx, pwh.Pick.Symbol, pwh.Pick.SignalTS, pwh.HorizonEndTS)
		sim, ok := SimulateExitForPick(
			pwh.Pick.Symbol, pwh.Pick.PickUUID, pwh.Pick.Direction,
			pwh.Pick.SignalPrice, pwh.Pick.SignalTS, pwh.HorizonEndTS,
			profile, candles,
		)
		if !ok {
			continue
		}
		trades++
		sumRet += sim.RetClosePct
		sumDD += sim.MaxDrawdownPct
		sumCapture += sim.CaptureRatio
		if sim.RetClosePct > 0 {
			wins++
		}
		if sim.HitTarget {
			hitTargetCount++
		}
		if sim.HitStop {
			hitStopCount++
		}
	}

	if trades == 0 {
		return domain.ExitProfileMetrics{}
	}

	avgRet := sumRet / float64(trades)
	avgDD := sumDD / float64(trades)
	winRate := float64(wins) / float64(trades)
	hitTargetRate := float64(hitTargetCount) / float64(trades)
	hitStopRate := float64(hitStopCount) / float64(trades)
	avgCapture := sumCapture / float64(trades)

	// Composite score per §4.10: rewards return and capture, penalizes
	// drawdown and stop-outs.
	score := avgRet + 0.5*avgCapture - 0.5*avgDD - 0.3*hitStopRate*100

	return domain.ExitProfileMetrics{
		Trades:          trades,
		AvgRet:          avgRet,
		AvgDD:           avgDD,
		WinRate:         winRate,
		HitTargetRate:   hitTargetRate,
		HitStopRate:     hitStopRate,
		AvgCaptureRatio: avgCapture,
		Score:           score,
	}
}

// BestProfile returns the id of the profile with the highest Score in
// metrics (argmax, §4.10 "Best profile per mode"). Returns "" for an empty
// map.
func BestProfile(metrics map[string]domain.ExitProfileMetrics) string {
	ids := make([]string, 0, len(metrics))
	for id := range metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best := ""
	bestScore := 0.0
	first := true
	for _, id := range ids {
		m := metrics[id]
		if first || m.Score > bestScore {
			best, bestScore, first = id, m.Score, false
		}
	}
	return best
}
