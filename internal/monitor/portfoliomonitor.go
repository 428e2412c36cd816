package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/exittracker"
	"github.com/arise-platform/toppicks-engine/internal/kv"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// BrokerPositionSource is the broker net-position/holding boundary (§4.6c).
type BrokerPositionSource interface {
	Positions(ctx context.Context) ([]domain.BrokerPosition, error)
	Holdings(ctx context.Context) ([]domain.BrokerHolding, error)
}

// WatchlistSource lists the symbols a user is tracking without a live
// position (§4.6c).
type WatchlistSource interface {
	Entries(ctx context.Context) ([]domain.WatchlistEntry, error)
}

// TickCache is the WS hub's live-price cache, consulted before falling back
// to a chart/quote-provider lookup (§4.6c "live tick from WS cache, then
// chart fallback").
type TickCache interface {
	LastTick(symbol string) (quotes.Tick, bool)
}

// SummaryPublisher is the narrow KV+pub/sub boundary PortfolioMonitor
// publishes summaries through.
type SummaryPublisher interface {
	SetJSON(ctx context.Context, key string, value any, ex time.Duration)
	Publish(ctx context.Context, channel string, payload any) error
}

const (
	portfolioMonitorChannel = "portfolio_monitor_update"
	watchlistMonitorChannel = "watchlist_monitor_update"
)

// PortfolioMonitor implements §4.6c: normalizes broker net positions and
// holdings plus watchlist entries into MonitoredPositions, scores each with
// PositionHealthEvaluator, and publishes both summaries to KV and over WS.
type PortfolioMonitor struct {
	broker    BrokerPositionSource
	watchlist WatchlistSource
	ticks     TickCache
	chart     QuoteSource
	advisory  StrategyAdvisorySource
	sr        SRSource
	news      NewsRiskSource
	evaluator *PositionHealthEvaluator
	publisher SummaryPublisher
	clock     marketclock.Clock
	log       zerolog.Logger
}

func NewPortfolioMonitor(broker BrokerPositionSource, watchlist WatchlistSource, ticks TickCache, chart QuoteSource, advisory StrategyAdvisorySource, sr SRSource, news NewsRiskSource, publisher SummaryPublisher, clock marketclock.Clock, log zerolog.Logger) *PortfolioMonitor {
	return &PortfolioMonitor{
		broker: broker, watchlist: watchlist, ticks: ticks, chart: chart,
		advisory: advisory, sr: sr, news: news,
		evaluator: NewPositionHealthEvaluator(), publisher: publisher, clock: clock,
		log: log.With().Str("component", "portfolio_monitor").Logger(),
	}
}

// RunCycle evaluates every broker position/holding and watchlist entry,
// market-open gated (§4.6c).
func (m *PortfolioMonitor) RunCycle(ctx context.Context) error {
	now := m.clock.NowIST()
	if !marketclock.IsCashMarketOpen(now) {
		return nil
	}
	tradeDate := marketclock.TradeDateIST(now)

	if err := m.runPositions(ctx, now, tradeDate); err != nil {
		m.log.Warn().Err(err).Msg("portfolio positions cycle failed")
	}
	if err := m.runWatchlist(ctx, now, tradeDate); err != nil {
		m.log.Warn().Err(err).Msg("watchlist cycle failed")
	}
	return nil
}

func (m *PortfolioMonitor) runPositions(ctx context.Context, now time.Time, tradeDate string) error {
	positions, err := m.broker.Positions(ctx)
	if err != nil {
		return err
	}
	holdings, err := m.broker.Holdings(ctx)
	if err != nil {
		return err
	}

	symbols := make([]string, 0, len(positions)+len(holdings))
	for _, p := range positions {
		if p.Quantity == 0 {
			continue
		}
		symbols = append(symbols, p.Symbol)
	}
	for _, h := range holdings {
		if h.Quantity == 0 {
			continue
		}
		symbols = append(symbols, h.Symbol)
	}
	if len(symbols) == 0 {
		m.publisher.SetJSON(ctx, kv.PortfolioMonitorPositionsKey(), domain.PortfolioMonitorSummary{GeneratedAt: now}, kv.TTLPortfolioMonitor)
		return nil
	}

	prices := m.resolvePrices(ctx, symbols)
	var summaries []domain.PositionSummary

	for _, p := range positions {
		if p.Quantity == 0 {
			continue
		}
		price, ok := prices[p.Symbol]
		if !ok {
			continue
		}
		mode := domain.ModeForProduct(p.Product, p.IsDerivative)
		pos := domain.MonitoredPosition{
			Symbol: p.Symbol, Direction: p.Direction(), Mode: mode,
			EntryPrice: p.AveragePrice, CurrentPrice: price,
			Source: domain.SourcePortfolio,
		}
		summaries = append(summaries, m.evaluateSummary(ctx, pos, tradeDate, p.Quantity))
	}
	for _, h := range holdings {
		if h.Quantity == 0 {
			continue
		}
		price, ok := prices[h.Symbol]
		if !ok {
			continue
		}
		pos := domain.MonitoredPosition{
			Symbol: h.Symbol, Direction: domain.DirectionLong, Mode: domain.ModeSwing,
			EntryPrice: h.AveragePrice, CurrentPrice: price,
			Source: domain.SourcePortfolio,
		}
		summaries = append(summaries, m.evaluateSummary(ctx, pos, tradeDate, h.Quantity))
	}

	summary := domain.PortfolioMonitorSummary{GeneratedAt: now, Positions: summaries}
	m.publisher.SetJSON(ctx, kv.PortfolioMonitorPositionsKey(), summary, kv.TTLPortfolioMonitor)
	if err := m.publisher.Publish(ctx, portfolioMonitorChannel, summary); err != nil {
		m.log.Warn().Err(err).Msg("publish portfolio summary failed")
	}
	return nil
}

func (m *PortfolioMonitor) runWatchlist(ctx context.Context, now time.Time, tradeDate string) error {
	entries, err := m.watchlist.Entries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		m.publisher.SetJSON(ctx, kv.PortfolioMonitorWatchlistKey(), domain.WatchlistMonitorSummary{GeneratedAt: now}, kv.TTLWatchlistMonitor)
		return nil
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}
	prices := m.resolvePrices(ctx, symbols)

	var summaries []domain.PositionSummary
	for _, e := range entries {
		price, ok := prices[e.Symbol]
		if !ok {
			continue
		}
		pos := domain.MonitoredPosition{
			Symbol: e.Symbol, Mode: e.Mode, CurrentPrice: price, EntryPrice: price,
			Source: domain.SourceWatchlist,
		}
		summaries = append(summaries, m.evaluateSummary(ctx, pos, tradeDate, 0))
	}

	summary := domain.WatchlistMonitorSummary{GeneratedAt: now, Entries: summaries}
	m.publisher.SetJSON(ctx, kv.PortfolioMonitorWatchlistKey(), summary, kv.TTLWatchlistMonitor)
	if err := m.publisher.Publish(ctx, watchlistMonitorChannel, summary); err != nil {
		m.log.Warn().Err(err).Msg("publish watchlist summary failed")
	}
	return nil
}

func (m *PortfolioMonitor) evaluateSummary(ctx context.Context, pos domain.MonitoredPosition, tradeDate string, quantity int) domain.PositionSummary {
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
	return domain.PositionSummary{
		Symbol: pos.Symbol, Mode: pos.Mode, Direction: pos.Direction, Quantity: quantity,
		EntryPrice: pos.EntryPrice, CurrentPrice: pos.CurrentPrice,
		HealthScore: assessment.HealthScore, Urgency: assessment.Urgency, Alerts: assessment.Alerts,
	}
}

// resolvePrices prefers the live WS tick cache per symbol, falling back to a
// single batched chart/quote-provider call for every symbol it misses
// (§4.6c "live tick from WS cache, then chart fallback").
func (m *PortfolioMonitor) resolvePrices(ctx context.Context, symbols []string) map[string]float64 {
	prices := make(map[string]float64, len(symbols))
	var missing []string

	for _, symbol := range symbols {
		if m.ticks != nil {
			if tick, ok := m.ticks.LastTick(symbol); ok && tick.LastPrice > 0 {
				prices[symbol] = tick.LastPrice
				continue
			}
		}
		missing = append(missing, symbol)
	}

	if len(missing) > 0 && m.chart != nil {
		quoted, err := m.chart.Quotes(ctx, missing, quotes.ExchangeNSE)
		if err != nil {
			m.log.Warn().Err(err).Msg("chart fallback quote fetch failed")
		}
		for symbol, q := range quoted {
			if q.Price > 0 {
				prices[symbol] = q.Price
			}
		}
	}
	return prices
}
