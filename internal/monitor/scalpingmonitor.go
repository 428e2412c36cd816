package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
	"github.com/arise-platform/toppicks-engine/internal/store"
	"github.com/arise-platform/toppicks-engine/internal/toppicks"
)

const defaultScalpingLookback = 2 * time.Hour

// RunSource is the subset of TopPicksStore ScalpingMonitor sources active
// positions from, in place of the original's 2-hour file-glob (§4.6a).
type RunSource interface {
	QueryRuns(ctx context.Context, filters store.RunFilters) ([]domain.TopPicksRun, error)
}

// QuoteSource is the live-price boundary ScalpingMonitor evaluates exits
// against.
type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string, exchange quotes.Exchange) (map[string]quotes.Quote, error)
}

// ExitSink is the dedup-write boundary for closed scalping positions.
type ExitSink interface {
	LogExit(exit domain.ScalpingExit) error
	GetExit(symbol string, entryDate time.Time, entryTime *time.Time) (domain.ScalpingExit, bool)
}

// AiRecommendationSink is the best-effort analytics hook closed on exit.
type AiRecommendationSink interface {
	CloseOnExit(ctx context.Context, pickUUID string, exitPrice, realizedPnlPct float64, exitTS time.Time)
}

// ScalpingOutcomeSink is the best-effort PickOutcome hook closed on exit.
type ScalpingOutcomeSink interface {
	UpsertScalpingExit(ctx context.Context, pickUUID string, exit domain.ScalpingExit) error
}

// ScalpingMonitor implements §4.6a: for each active scalping position
// derived from the most recent scalping TopPicksRuns within a lookback
// window, evaluate TARGET_HIT -> STOP_LOSS -> TIME_EXIT -> TRAILING_STOP ->
// EOD_AUTO_EXIT in order and dedup-write the first exit that fires.
type ScalpingMonitor struct {
	runs      RunSource
	quotes    QuoteSource
	exits     ExitSink
	aiStore   AiRecommendationSink
	outcomes  ScalpingOutcomeSink
	clock     marketclock.Clock
	universes []string
	lookback  time.Duration
	log       zerolog.Logger

	mu       sync.Mutex
	bestMove map[string]float64 // trailingKey -> best favorable move seen, percent
}

func NewScalpingMonitor(runs RunSource, quoteSource QuoteSource, exits ExitSink, aiStore AiRecommendationSink, outcomes ScalpingOutcomeSink, clock marketclock.Clock, universes []string, log zerolog.Logger) *ScalpingMonitor {
	return &ScalpingMonitor{
		runs:      runs,
		quotes:    quoteSource,
		exits:     exits,
		aiStore:   aiStore,
		outcomes:  outcomes,
		clock:     clock,
		universes: universes,
		lookback:  defaultScalpingLookback,
		log:       log.With().Str("component", "scalping_monitor").Logger(),
		bestMove:  make(map[string]float64),
	}
}

// RunCycle evaluates every active scalping position once. Gated to the cash
// market session plus the short post-close EOD window (§4.1, §4.6a).
func (m *ScalpingMonitor) RunCycle(ctx context.Context) error {
	now := m.clock.NowIST()
	if !marketclock.IsCashMarketOpen(now) && !marketclock.IsEODWindow(now) {
		return nil
	}
	eodWindow := marketclock.IsEODWindow(now)
	lookbackStart := now.Add(-m.lookback)

	for _, universe := range m.universes {
		runs, err := m.runs.QueryRuns(ctx, store.RunFilters{Universe: universe, Mode: domain.ModeScalping, Limit: 20})
		if err != nil {
			m.log.Warn().Err(err).Str("universe", universe).Msg("query scalping runs failed")
			continue
		}

		candidates := make(map[string]domain.PickEvent)
		for _, run := range runs {
			if run.GeneratedAtUTC.Before(lookbackStart) {
				continue
			}
			for _, pick := range run.Payload.Picks {
				if pick.RecommendedTarget == nil || pick.RecommendedStop == nil {
					continue
				}
				candidates[pick.PickUUID] = pick
			}
		}
		if len(candidates) == 0 {
			continue
		}

		symbols := make([]string, 0, len(candidates))
		for _, pick := range candidates {
			symbols = append(symbols, pick.Symbol)
		}
		quoted, err := m.quotes.Quotes(ctx, symbols, quotes.ExchangeNSE)
		if err != nil {
			m.log.Warn().Err(err).Str("universe", universe).Msg("fetch quotes failed")
			continue
		}

		for _, pick := range candidates {
			quote, ok := quoted[pick.Symbol]
			if !ok || quote.Price <= 0 {
				continue
			}
			m.evaluatePosition(ctx, pick, quote.Price, eodWindow, now)
		}
	}
	return nil
}

func (m *ScalpingMonitor) evaluatePosition(ctx context.Context, pick domain.PickEvent, currentPrice float64, eodWindow bool, now time.Time) {
	strategy, ok := decodeExitStrategy(pick.ExtraContext.Extra)
	if !ok {
		return
	}
	entryTime := pick.SignalTS
	if _, found := m.exits.GetExit(pick.Symbol, entryTime, &entryTime); found {
		return
	}

	sign := 1.0
	if pick.Direction == domain.DirectionShort {
		sign = -1.0
	}

	reason, triggerLevel, fired := m.evaluateExitCondition(pick, strategy, currentPrice, sign, now, eodWindow)
	if !fired {
		return
	}

	exitPrice := domain.ClampExitPrice(reason, currentPrice, triggerLevel)
	exitReturnPct := sign * (exitPrice - pick.SignalPrice) / pick.SignalPrice * 100

	exit := domain.ScalpingExit{
		Symbol:          pick.Symbol,
		EntryTime:       entryTime,
		EntryPrice:      pick.SignalPrice,
		ExitTime:        now,
		ExitPrice:       exitPrice,
		ExitReason:      reason,
		ReturnPct:       exitReturnPct,
		HoldDurationMin: now.Sub(entryTime).Minutes(),
		Mode:            pick.Mode,
		Recommendation:  pick.Recommendation,
	}

	if err := m.exits.LogExit(exit); err != nil {
		m.log.Warn().Err(err).Str("symbol", pick.Symbol).Msg("log scalping exit failed")
		return
	}
	m.clearTrailing(pick)

	m.aiStore.CloseOnExit(ctx, pick.PickUUID, exitPrice, exitReturnPct, now)
	if err := m.outcomes.UpsertScalpingExit(ctx, pick.PickUUID, exit); err != nil {
		m.log.Warn().Err(err).Str("pick_uuid", pick.PickUUID).Msg("upsert scalping outcome failed")
	}
}

// evaluateExitCondition applies the fixed exit-reason priority order of
// §4.6a. The first condition that fires wins; its trigger level feeds
// domain.ClampExitPrice.
func (m *ScalpingMonitor) evaluateExitCondition(pick domain.PickEvent, strategy toppicks.ExitStrategy, price, sign float64, now time.Time, eodWindow bool) (domain.ExitReason, float64, bool) {
	target := *pick.RecommendedTarget
	stop := *pick.RecommendedStop

	if (pick.Direction == domain.DirectionLong && price >= target) || (pick.Direction == domain.DirectionShort && price <= target) {
		return domain.ExitReasonTargetHit, target, true
	}
	if (pick.Direction == domain.DirectionLong && price <= stop) || (pick.Direction == domain.DirectionShort && price >= stop) {
		return domain.ExitReasonStopLoss, stop, true
	}
	if strategy.MaxHoldMins > 0 && now.Sub(pick.SignalTS).Minutes() >= float64(strategy.MaxHoldMins) {
		return domain.ExitReasonTimeExit, price, true
	}
	if m.trailingStopHit(pick, strategy, price, sign) {
		return domain.ExitReasonTrailingStop, price, true
	}
	if eodWindow {
		return domain.ExitReasonEODAutoExit, price, true
	}
	return "", 0, false
}

func trailingKey(pick domain.PickEvent) string {
	return pick.Symbol + "|" + pick.SignalTS.UTC().Format(time.RFC3339)
}

// trailingStopHit tracks the best favorable move seen since the position was
// first observed and fires once the move has retraced trail_distance_pct
// from that peak, provided the trail had first activated at activation_pct
// (§4.5 step 6 ScalpingTrailing).
func (m *ScalpingMonitor) trailingStopHit(pick domain.PickEvent, strategy toppicks.ExitStrategy, price, sign float64) bool {
	if strategy.Trailing.ActivationPct <= 0 || strategy.Trailing.TrailDistancePct <= 0 {
		return false
	}
	favorableMove := sign * (price - pick.SignalPrice) / pick.SignalPrice * 100

	key := trailingKey(pick)
	m.mu.Lock()
	defer m.mu.Unlock()
	best, tracked := m.bestMove[key]
	if !tracked || favorableMove > best {
		best = favorableMove
		m.bestMove[key] = best
	}
	if best < strategy.Trailing.ActivationPct {
		return false
	}
	return best-favorableMove >= strategy.Trailing.TrailDistancePct
}

func (m *ScalpingMonitor) clearTrailing(pick domain.PickEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bestMove, trailingKey(pick))
}

// decodeExitStrategy recovers the ExitStrategy a PickEvent carried under
// ExtraContext.Extra, tolerating both the in-process struct value and the
// map[string]any shape it decodes to after a JSON round trip through
// TopPicksStore.
func decodeExitStrategy(extra map[string]any) (toppicks.ExitStrategy, bool) {
	if extra == nil {
		return toppicks.ExitStrategy{}, false
	}
	raw, ok := extra["exit_strategy"]
	if !ok {
		return toppicks.ExitStrategy{}, false
	}
	if strategy, ok := raw.(toppicks.ExitStrategy); ok {
		return strategy, true
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return toppicks.ExitStrategy{}, false
	}
	var strategy toppicks.ExitStrategy
	if err := json.Unmarshal(data, &strategy); err != nil {
		return toppicks.ExitStrategy{}, false
	}
	return strategy, true
}
