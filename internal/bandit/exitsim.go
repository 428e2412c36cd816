// Package bandit implements the offline ExitProfileEvaluator's per-pick
// exit simulation and the online contextual bandits over exit and entry
// actions (§4.10).
package bandit

import (
	"sort"
	"time"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// ExitSimulationResult is the outcome of walking one ExitProfile over one
// pick's candle path (§4.10 step 3-5).
type ExitSimulationResult struct {
	Symbol         string
	PickUUID       string
	ExitTS         time.Time
	ExitPrice      float64
	RetClosePct    float64
	MaxRunupPct    float64
	MaxDrawdownPct float64
	HitTarget      bool
	HitStop        bool
	HitTrailing    bool
	TimeExit       bool
	ExitReason     domain.ExitCondition
	BarsHeld       int
	CaptureRatio   float64
}

func directionSign(direction domain.Direction) float64 {
	if direction == domain.DirectionLong {
		return 1.0
	}
	return -1.0
}

// resolvedStopPrice converts the profile's stop config to an absolute price.
// ATR-based distances require an external ATR% fed through stop.Value until
// an ATR series is threaded in; until then atr_multiple is treated as percent,
// matching the original evaluator's documented limitation.
func resolvedStopPrice(stop domain.StopConfig, entryPrice, sign float64) (float64, bool) {
	switch stop.Type {
	case domain.StopPrice:
		if stop.Value > 0 {
			return stop.Value, true
		}
	case domain.StopPercent, domain.StopATRMultiple:
		if stop.Value > 0 {
			dist := entryPrice * (stop.Value / 100.0)
			if sign > 0 {
				return entryPrice - dist, true
			}
			return entryPrice + dist, true
		}
	}
	return 0, false
}

func resolvedTargetPrice(target domain.TargetConfig, entryPrice, sign float64, stopPrice float64, hasStop bool) (float64, bool) {
	if target.Value <= 0 {
		return 0, false
	}
	switch target.Type {
	case domain.TargetPrice:
		return target.Value, true
	case domain.TargetPercent:
		dist := entryPrice * (target.Value / 100.0)
		if sign > 0 {
			return entryPrice + dist, true
		}
		return entryPrice - dist, true
	case domain.TargetRRMulti:
		if !hasStop {
			return 0, false
		}
		stopDist := abs(entryPrice - stopPrice)
		dist := stopDist * target.Value
		if sign > 0 {
			return entryPrice + dist, true
		}
		return entryPrice - dist, true
	}
	return 0, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// SimulateExitForPick walks candles (already restricted to [entryTS,
// horizonEndTS], any order) in time order and evaluates exit conditions in
// the profile's priority order, the first match winning (§4.10 steps 2-4).
// Candles outside [entryTS, horizonEndTS] are ignored. Returns false when no
// candle falls in the window or entryPrice is non-positive.
func SimulateExitForPick(
	symbol, pickUUID string,
	direction domain.Direction,
	entryPrice float64,
	entryTS, horizonEndTS time.Time,
	profile domain.ExitProfile,
	candles []quotes.Candle,
) (ExitSimulationResult, bool) {
	if entryPrice <= 0 {
		return ExitSimulationResult{}, false
	}

	path := make([]quotes.Candle, 0, len(candles))
	for _, c := range candles {
		if !c.Timestamp.Before(entryTS) && !c.Timestamp.After(horizonEndTS) {
			path = append(path, c)
		}
	}
	if len(path) == 0 {
		return ExitSimulationResult{}, false
	}
	sortCandlesByTime(path)

	sign := directionSign(direction)
	stopPrice, hasStop := resolvedStopPrice(profile.Stop, entryPrice, sign)
	targetPrice, hasTarget := resolvedTargetPrice(profile.Target, entryPrice, sign, stopPrice, hasStop)
	trailing := profile.Trailing
	timeStop := profile.TimeStop
	priorityOrder := profile.ExitPriority.ResolvedOrder()

	bestPrice := entryPrice
	worstPrice := entryPrice
	var exitTS time.Time
	var exitPrice float64
	var hitTarget, hitStop, hitTrailing, timeExit bool
	exitReason := domain.ExitCondition("NONE")
	exited := false

	trailingActive := false
	var trailingStopPrice float64
	barsHeld := 0

	for _, c := range path {
		barsHeld++
		high, low, close := c.High, c.Low, c.Close

		if sign > 0 {
			bestPrice = max(bestPrice, high)
			worstPrice = min(worstPrice, low)
		} else {
			bestPrice = min(bestPrice, low)
			worstPrice = max(worstPrice, high)
		}

		if trailing.Enabled && !trailingActive {
			var unrealizedPct float64
			if sign > 0 {
				unrealizedPct = (high - entryPrice) / entryPrice * 100.0
			} else {
				unrealizedPct = (entryPrice - low) / entryPrice * 100.0
			}

			if trailing.ActivationValue > 0 {
				switch trailing.ActivationType {
				case domain.ActivationPercent:
					if unrealizedPct >= trailing.ActivationValue {
						trailingActive = true
					}
				case domain.ActivationRRMulti:
					if hasStop {
						stopDistPct := abs(entryPrice-stopPrice) / entryPrice * 100.0
						if stopDistPct > 0 && unrealizedPct/stopDistPct >= trailing.ActivationValue {
							trailingActive = true
						}
					}
				}
			}

			if trailingActive && trailing.TrailType == "percent" && trailing.TrailValue > 0 {
				if sign > 0 {
					trailingStopPrice = high * (1.0 - trailing.TrailValue/100.0)
				} else {
					trailingStopPrice = low * (1.0 + trailing.TrailValue/100.0)
				}
			}
		}

		if trailingActive && trailing.TrailValue > 0 && trailing.TrailType == "percent" {
			if sign > 0 && high > bestPrice {
				trailingStopPrice = high * (1.0 - trailing.TrailValue/100.0)
			} else if sign < 0 && low < bestPrice {
				trailingStopPrice = low * (1.0 + trailing.TrailValue/100.0)
			}
		}

		for _, ev := range priorityOrder {
			switch ev {
			case domain.ExitStop:
				if hasStop && ((sign > 0 && low <= stopPrice) || (sign < 0 && high >= stopPrice)) {
					exitTS, exitPrice, hitStop, exitReason = c.Timestamp, stopPrice, true, domain.ExitStop
				}
			case domain.ExitTrail:
				if trailingActive && ((sign > 0 && low <= trailingStopPrice) || (sign < 0 && high >= trailingStopPrice)) {
					exitTS, exitPrice, hitTrailing, exitReason = c.Timestamp, trailingStopPrice, true, domain.ExitTrail
				}
			case domain.ExitTarget:
				if hasTarget && ((sign > 0 && high >= targetPrice) || (sign < 0 && low <= targetPrice)) {
					exitTS, exitPrice, hitTarget, exitReason = c.Timestamp, targetPrice, true, domain.ExitTarget
				}
			case domain.ExitTime:
				if timeStop.Enabled && timeStop.MaxHoldMinutes > 0 {
					minutesHeld := c.Timestamp.Sub(entryTS).Minutes()
					if minutesHeld >= float64(timeStop.MaxHoldMinutes) {
						exitTS, exitPrice, timeExit, exitReason = c.Timestamp, close, true, domain.ExitTime
					}
				}
			}
			if !exitTS.IsZero() {
				exited = true
				break
			}
		}
		if exited {
			break
		}
	}

	if exitTS.IsZero() {
		last := path[len(path)-1]
		exitTS = last.Timestamp
		exitPrice = last.Close
	}

	var maxRunupPct, maxDrawdownPct float64
	if sign > 0 {
		maxRunupPct = (bestPrice - entryPrice) / entryPrice * 100.0
		maxDrawdownPct = (worstPrice - entryPrice) / entryPrice * 100.0
	} else {
		maxRunupPct = (entryPrice - bestPrice) / entryPrice * 100.0
		maxDrawdownPct = (entryPrice - worstPrice) / entryPrice * 100.0
	}

	retClosePct := (exitPrice - entryPrice) / entryPrice * 100.0 * sign

	return ExitSimulationResult{
		Symbol:         symbol,
		PickUUID:       pickUUID,
		ExitTS:         exitTS,
		ExitPrice:      exitPrice,
		RetClosePct:    retClosePct,
		MaxRunupPct:    maxRunupPct,
		MaxDrawdownPct: maxDrawdownPct,
		HitTarget:      hitTarget,
		HitStop:        hitStop,
		HitTrailing:    hitTrailing,
		TimeExit:       timeExit,
		ExitReason:     exitReason,
		BarsHeld:       barsHeld,
		CaptureRatio:   domain.ClipCaptureRatio(retClosePct, maxRunupPct),
	}, true
}

func sortCandlesByTime(candles []quotes.Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
