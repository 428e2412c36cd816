package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// CandleSource fetches candles for a symbol over [from, to), the same
// narrow boundary internal/bandit.EvaluateProfile depends on.
type CandleSource interface {
	Candles(ctx context.Context, symbol string, from, to time.Time) ([]quotes.Candle, error)
}

// PickSource is the subset of PickEventLog the OutcomeEvaluator sweeps.
type PickSource interface {
	PicksForDateWithoutOutcome(ctx context.Context, tradeDate string, horizon domain.EvaluationHorizon) ([]domain.PickEvent, error)
}

// OutcomeEvaluator backfills PickOutcomes for PickEvents once their
// evaluation horizon has elapsed (§4.12).
type OutcomeEvaluator struct {
	db        *sql.DB
	picks     PickSource
	candles   CandleSource
	benchmark string
	log       zerolog.Logger
}

func NewOutcomeEvaluator(db *sql.DB, picks PickSource, candles CandleSource, log zerolog.Logger) *OutcomeEvaluator {
	return &OutcomeEvaluator{
		db:        db,
		picks:     picks,
		candles:   candles,
		benchmark: "NIFTY50",
		log:       log.With().Str("component", "outcome_evaluator").Logger(),
	}
}

// EvaluateTradeDate runs the §4.12 OutcomeEvaluator steps for every
// PickEvent on tradeDate missing a PickOutcome at horizon.
func (e *OutcomeEvaluator) EvaluateTradeDate(ctx context.Context, tradeDate string, horizon domain.EvaluationHorizon) error {
	picks, err := e.picks.PicksForDateWithoutOutcome(ctx, tradeDate, horizon)
	if err != nil {
		return fmt.Errorf("list pending picks: %w", err)
	}
	if len(picks) == 0 {
		return nil
	}

	dayStart, dayEnd, err := istDayBounds(tradeDate)
	if err != nil {
		return err
	}

	benchmarkCandles, err := e.candles.Candles(ctx, e.benchmark, dayStart, dayEnd)
	if err != nil {
		e.log.Warn().Err(err).Str("trade_date", tradeDate).Msg("benchmark candle fetch failed, outcomes will omit benchmark_ret_pct")
	}
	var benchmarkRet *float64
	if len(benchmarkCandles) > 0 {
		first, last := benchmarkCandles[0].Close, benchmarkCandles[len(benchmarkCandles)-1].Close
		if first != 0 {
			r := (last - first) / first * 100
			benchmarkRet = &r
		}
	}

	for _, pick := range picks {
		candles, err := e.candles.Candles(ctx, pick.Symbol, dayStart, dayEnd)
		if err != nil || len(candles) == 0 {
			e.log.Debug().Str("symbol", pick.Symbol).Str("pick_uuid", pick.PickUUID).Msg("no candles for trade date, skipping outcome")
			continue
		}

		outcome := computeOutcome(pick, candles, horizon, dayEnd, e.benchmark, benchmarkRet)
		if err := e.upsert(ctx, outcome); err != nil {
			e.log.Warn().Err(err).Str("pick_uuid", pick.PickUUID).Msg("upsert pick_outcome failed")
		}
	}
	return nil
}

func istDayBounds(tradeDate string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", tradeDate, marketclock.ISTLocation)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse trade_date: %w", err)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// computeOutcome applies §4.12 steps 3-6: signed ret/runup/drawdown,
// target/stop hits, outcome label, capture ratio.
func computeOutcome(pick domain.PickEvent, candles []quotes.Candle, horizon domain.EvaluationHorizon, horizonEnd time.Time, benchmarkSymbol string, benchmarkRet *float64) domain.PickOutcome {
	first, last := candles[0], candles[len(candles)-1]
	sign := 1.0
	if pick.Direction == domain.DirectionShort {
		sign = -1.0
	}

	retClosePct := sign * (last.Close - pick.SignalPrice) / pick.SignalPrice * 100

	maxRunup, maxDrawdown := 0.0, 0.0
	for _, c := range candles {
		upMove := sign * (c.High - pick.SignalPrice) / pick.SignalPrice * 100
		downMove := sign * (c.Low - pick.SignalPrice) / pick.SignalPrice * 100
		if pick.Direction == domain.DirectionShort {
			upMove, downMove = downMove, upMove
		}
		if upMove > maxRunup {
			maxRunup = upMove
		}
		if downMove < maxDrawdown {
			maxDrawdown = downMove
		}
	}

	hitTarget, hitStop := false, false
	if pick.RecommendedTarget != nil {
		for _, c := range candles {
			if (pick.Direction == domain.DirectionLong && c.High >= *pick.RecommendedTarget) ||
				(pick.Direction == domain.DirectionShort && c.Low <= *pick.RecommendedTarget) {
				hitTarget = true
				break
			}
		}
	}
	if pick.RecommendedStop != nil {
		for _, c := range candles {
			if (pick.Direction == domain.DirectionLong && c.Low <= *pick.RecommendedStop) ||
				(pick.Direction == domain.DirectionShort && c.High >= *pick.RecommendedStop) {
				hitStop = true
				break
			}
		}
	}

	captureRatio := domain.ClipCaptureRatio(retClosePct, maxRunup)

	return domain.PickOutcome{
		PickUUID:          pick.PickUUID,
		EvaluationHorizon: horizon,
		HorizonEndTS:      horizonEnd,
		PriceClose:        last.Close,
		PriceHigh:         maxHigh(candles),
		PriceLow:          minLow(candles),
		RetClosePct:       retClosePct,
		MaxRunupPct:       maxRunup,
		MaxDrawdownPct:    maxDrawdown,
		BenchmarkSymbol:   benchmarkSymbol,
		BenchmarkRetPct:   benchmarkRet,
		HitTarget:         hitTarget,
		HitStop:           hitStop,
		OutcomeLabel:      domain.ClassifyOutcome(retClosePct),
		Notes:             domain.OutcomeNotes{CaptureRatio: captureRatio},
	}
}

func maxHigh(candles []quotes.Candle) float64 {
	m := candles[0].High
	for _, c := range candles {
		if c.High > m {
			m = c.High
		}
	}
	return m
}

func minLow(candles []quotes.Candle) float64 {
	m := candles[0].Low
	for _, c := range candles {
		if c.Low < m {
			m = c.Low
		}
	}
	return m
}

// UpsertScalpingExit records a SCALPING-horizon PickOutcome the moment a
// monitor closes a position, rather than waiting for the nightly EOD sweep
// (§4.9 "hook into ... PickOutcome"). Because the PositionMonitor plane
// threads the originating PickUUID through from the TopPicksRun it derived
// the position from, no symbol/time fuzzy-matching is needed here.
func (e *OutcomeEvaluator) UpsertScalpingExit(ctx context.Context, pickUUID string, exit domain.ScalpingExit) error {
	runup := math.Max(exit.ReturnPct, 0)
	outcome := domain.PickOutcome{
		PickUUID:          pickUUID,
		EvaluationHorizon: domain.HorizonScalping,
		HorizonEndTS:      exit.ExitTime,
		PriceClose:        exit.ExitPrice,
		PriceHigh:         math.Max(exit.EntryPrice, exit.ExitPrice),
		PriceLow:          math.Min(exit.EntryPrice, exit.ExitPrice),
		RetClosePct:       exit.ReturnPct,
		MaxRunupPct:       runup,
		MaxDrawdownPct:    math.Min(exit.ReturnPct, 0),
		HitTarget:         exit.ExitReason == domain.ExitReasonTargetHit,
		HitStop:           exit.ExitReason == domain.ExitReasonStopLoss,
		OutcomeLabel:      domain.ClassifyOutcome(exit.ReturnPct),
		Notes:             domain.OutcomeNotes{CaptureRatio: domain.ClipCaptureRatio(exit.ReturnPct, runup)},
	}
	return e.upsert(ctx, outcome)
}

func (e *OutcomeEvaluator) upsert(ctx context.Context, o domain.PickOutcome) error {
	notes, err := json.Marshal(o.Notes)
	if err != nil {
		return fmt.Errorf("marshal outcome notes: %w", err)
	}
	_, err = e.db.ExecContext(ctx, `
		INSERT INTO pick_outcomes
		(pick_uuid, evaluation_horizon, horizon_end_ts, price_close, price_high, price_low,
		 ret_close_pct, max_runup_pct, max_drawdown_pct, benchmark_symbol, benchmark_ret_pct,
		 hit_target, hit_stop, outcome_label, notes_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pick_uuid, evaluation_horizon) DO UPDATE SET
			horizon_end_ts=excluded.horizon_end_ts, price_close=excluded.price_close,
			price_high=excluded.price_high, price_low=excluded.price_low,
			ret_close_pct=excluded.ret_close_pct, max_runup_pct=excluded.max_runup_pct,
			max_drawdown_pct=excluded.max_drawdown_pct, benchmark_symbol=excluded.benchmark_symbol,
			benchmark_ret_pct=excluded.benchmark_ret_pct, hit_target=excluded.hit_target,
			hit_stop=excluded.hit_stop, outcome_label=excluded.outcome_label, notes_json=excluded.notes_json`,
		o.PickUUID, string(o.EvaluationHorizon), o.HorizonEndTS.Format(time.RFC3339Nano),
		o.PriceClose, o.PriceHigh, o.PriceLow, o.RetClosePct, o.MaxRunupPct, o.MaxDrawdownPct,
		o.BenchmarkSymbol, nullableFloat(o.BenchmarkRetPct), o.HitTarget, o.HitStop, string(o.OutcomeLabel), notes,
	)
	return err
}
