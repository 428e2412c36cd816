package monitor

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/exittracker"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// LatestRunSource is the single-latest-run boundary PositionsMonitor derives
// non-scalping logical positions from (§4.6b).
type LatestRunSource interface {
	GetLatestRunFor(ctx context.Context, universe string, mode domain.Mode) (domain.TopPicksRun, bool)
}

// StrategyAdvisorySource is the StrategyExitTracker boundary used both to
// look up an existing best advisory for a symbol and to persist new
// ADVISORY_ONLY alerts synthesized from a health assessment.
type StrategyAdvisorySource interface {
	GetExitFor(symbol, tradeDate, strategyID string, mode domain.Mode) (domain.StrategyAdvisory, bool)
	Record(advisory domain.StrategyAdvisory) error
}

// SRSource resolves support/resistance levels for proximity scoring.
type SRSource interface {
	GetLevels(ctx context.Context, symbol string, scope domain.TimeframeScope) (domain.SRLevels, error)
}

// NewsRiskSource is the optional sentiment-derived news risk boundary
// (§4.6 "News advisories use sentiment-derived news_risk_score").
type NewsRiskSource interface {
	RiskScore(ctx context.Context, symbol string) (float64, bool)
}

// PositionsMonitor implements §4.6b: derives logical positions from the
// latest Intraday/Swing TopPicksRuns, scores each with
// PositionHealthEvaluator, and persists any resulting ADVISORY_ONLY alert
// that carries a recommended exit price.
type PositionsMonitor struct {
	runs      LatestRunSource
	quotes    QuoteSource
	advisory  StrategyAdvisorySource
	sr        SRSource
	news      NewsRiskSource
	evaluator *PositionHealthEvaluator
	clock     marketclock.Clock
	universes []string
	modes     []domain.Mode
	log       zerolog.Logger
}

func NewPositionsMonitor(runs LatestRunSource, quoteSource QuoteSource, advisory StrategyAdvisorySource, sr SRSource, news NewsRiskSource, clock marketclock.Clock, universes []string, log zerolog.Logger) *PositionsMonitor {
	return &PositionsMonitor{
		runs:      runs,
		quotes:    quoteSource,
		advisory:  advisory,
		sr:        sr,
		news:      news,
		evaluator: NewPositionHealthEvaluator(),
		clock:     clock,
		universes: universes,
		modes:     []domain.Mode{domain.ModeIntraday, domain.ModeSwing},
		log:       log.With().Str("component", "positions_monitor").Logger(),
	}
}

// RunCycle evaluates every Intraday/Swing position derived from the latest
// TopPicksRun per (universe, mode), market-open gated (§4.6b).
func (m *PositionsMonitor) RunCycle(ctx context.Context) error {
	now := m.clock.NowIST()
	if !marketclock.IsCashMarketOpen(now) {
		return nil
	}
	tradeDate := marketclock.TradeDateIST(now)

	for _, universe := range m.universes {
		for _, mode := range m.modes {
			run, ok := m.runs.GetLatestRunFor(ctx, universe, mode)
			if !ok || len(run.Payload.Picks) == 0 {
				continue
			}

			symbols := make([]string, 0, len(run.Payload.Picks))
			for _, pick := range run.Payload.Picks {
				symbols = append(symbols, pick.Symbol)
			}
			quoted, err := m.quotes.Quotes(ctx, symbols, quotes.ExchangeNSE)
			if err != nil {
				m.log.Warn().Err(err).Str("universe", universe).Str("mode", string(mode)).Msg("fetch quotes failed")
				continue
			}

			for _, pick := range run.Payload.Picks {
				quote, ok := quoted[pick.Symbol]
				if !ok || quote.Price <= 0 {
					continue
				}
				pos := domain.MonitoredPosition{
					Symbol: pick.Symbol, Direction: pick.Direction, Mode: pick.Mode,
					EntryPrice: pick.SignalPrice, CurrentPrice: quote.Price,
					StopPrice: pick.RecommendedStop, TargetPrice: pick.RecommendedTarget,
					EntryTime: pick.SignalTS, Source: domain.SourceTopPicks,
					VolBucket: pick.VolBucket, RegimeBucket: pick.RegimeBucket,
				}
				m.evaluateAndRecord(ctx, pos, tradeDate)
			}
		}
	}
	return nil
}

func (m *PositionsMonitor) evaluateAndRecord(ctx context.Context, pos domain.MonitoredPosition, tradeDate string) {
	var advisoryPtr *domain.StrategyAdvisory
	if m.advisory != nil {
		if existing, ok := m.advisory.GetExitFor(pos.Symbol, tradeDate, "", pos.Mode); ok {
			advisoryPtr = &existing
		}
	}

	var srScore *float64
	if m.sr != nil {
		if levels, err := m.sr.GetLevels(ctx, pos.Symbol, domain.ScopeDay); err == nil {
			score := exittracker.ScoreForPrice(levels, pos.CurrentPrice)
			srScore = &score
		}
	}

	var newsScore *float64
	if m.news != nil {
		if score, ok := m.news.RiskScore(ctx, pos.Symbol); ok {
			newsScore = &score
		}
	}

	assessment := m.evaluator.Evaluate(pos, advisoryPtr, srScore, newsScore)
	m.persistAlerts(pos, assessment, tradeDate)
}

// persistAlerts records each self-generated health alert (excluding alerts
// that merely surface an advisory the StrategyExitTracker already holds) as
// an ADVISORY_ONLY StrategyAdvisory with a recommended exit price (§4.6b).
func (m *PositionsMonitor) persistAlerts(pos domain.MonitoredPosition, assessment domain.HealthAssessment, tradeDate string) {
	if m.advisory == nil {
		return
	}
	for _, alert := range assessment.Alerts {
		if alert.Kind == domain.AlertStrategyAdvisory {
			continue
		}
		kind, ok := alertToAdvisoryKind(alert.Kind)
		if !ok {
			continue
		}
		exitPrice := pos.CurrentPrice
		record := domain.StrategyAdvisory{
			ID:                   uuid.NewString(),
			StrategyID:           "AUTO_MONITOR",
			Kind:                 kind,
			Severity:             alert.Severity,
			Enforcement:          domain.EnforcementAdvisoryOnly,
			IsExit:               alert.Severity == domain.SeverityCritical,
			Symbol:               pos.Symbol,
			Direction:            pos.Direction,
			Price:                pos.CurrentPrice,
			EntryPrice:           pos.EntryPrice,
			Message:              alert.Message,
			RecommendedExitPrice: &exitPrice,
			Mode:                 pos.Mode,
			TradeDate:            tradeDate,
			GeneratedAt:          m.clock.NowIST(),
		}
		if err := m.advisory.Record(record); err != nil {
			m.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("record strategy advisory failed")
		}
	}
}

// alertToAdvisoryKind maps an AutoMonitoringAgent alert to the nearest
// StrategyAdvisory kind so stop/target/volatility/SR alerts are persisted
// through the StrategyExitTracker as ADVISORY_ONLY records.
func alertToAdvisoryKind(kind domain.MonitorAlertKind) (domain.AdvisoryKind, bool) {
	switch kind {
	case domain.AlertStopProximity:
		return domain.AdvisoryContextInvalidated, true
	case domain.AlertTargetProximity:
		return domain.AdvisoryPartialProfit, true
	case domain.AlertVolatilityHigh:
		return domain.AdvisoryTrendWeakening, true
	case domain.AlertSRProximity:
		return domain.AdvisoryPriceStretched, true
	default:
		return "", false
	}
}
