package exittracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/kv"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// scopeWindowDays maps a TimeframeScope to its pivot lookback window, in
// trading days (§4.7 SupportResistanceService).
var scopeWindowDays = map[domain.TimeframeScope]int{
	domain.ScopeYear:  252,
	domain.ScopeMonth: 22,
	domain.ScopeWeek:  5,
	domain.ScopeDay:   1,
}

// CandleSource fetches daily candles for a symbol.
type CandleSource interface {
	Candles(ctx context.Context, symbol string, from, to time.Time) ([]quotes.Candle, error)
}

// SupportResistanceService computes and caches floor-pivot S/R levels
// per (symbol, scope) via KV, recomputing when the cached row is stale for
// its scope (§4.7).
type SupportResistanceService struct {
	kv      *kv.Store
	candles CandleSource
	clock   marketclock.Clock
	log     zerolog.Logger
}

func NewSupportResistanceService(store *kv.Store, candles CandleSource, clock marketclock.Clock, log zerolog.Logger) *SupportResistanceService {
	return &SupportResistanceService{kv: store, candles: candles, clock: clock, log: log.With().Str("component", "support_resistance_service").Logger()}
}

// GetLevels returns (and computes/caches if stale or absent) S/R levels for
// symbol at scope.
func (s *SupportResistanceService) GetLevels(ctx context.Context, symbol string, scope domain.TimeframeScope) (domain.SRLevels, error) {
	now := s.clock.NowIST()
	key := kv.SRLevelsKey(symbol, scope)

	var cached domain.SRLevels
	if s.kv.GetJSON(ctx, key, &cached) && !cached.IsStale(now) {
		return cached, nil
	}

	fresh, err := s.compute(ctx, symbol, scope, now)
	if err != nil {
		if cached.Symbol != "" {
			s.log.Warn().Err(err).Str("symbol", symbol).Str("scope", string(scope)).Msg("recompute failed, serving stale cache")
			return cached, nil
		}
		return domain.SRLevels{}, err
	}

	s.kv.SetJSON(ctx, key, fresh, kv.SRLevelsTTL(scope))
	return fresh, nil
}

func (s *SupportResistanceService) compute(ctx context.Context, symbol string, scope domain.TimeframeScope, now time.Time) (domain.SRLevels, error) {
	windowDays, ok := scopeWindowDays[scope]
	if !ok {
		return domain.SRLevels{}, fmt.Errorf("unknown timeframe scope %q", scope)
	}

	// Fetch a generous lookback so windowDays trading bars are available even
	// across weekends/holidays, then take the most recent windowDays bars.
	lookback := time.Duration(windowDays*2+30) * 24 * time.Hour
	candles, err := s.candles.Candles(ctx, symbol, now.Add(-lookback), now)
	if err != nil {
		return domain.SRLevels{}, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return domain.SRLevels{}, fmt.Errorf("no candles available for %s", symbol)
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	if len(candles) > windowDays {
		candles = candles[len(candles)-windowDays:]
	}

	high, low := candles[0].High, candles[0].Low
	for _, c := range candles {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	close := candles[len(candles)-1].Close

	levels := domain.ComputeFloorPivots(high, low, close)
	levels.Symbol = symbol
	levels.TimeframeScope = scope
	levels.ComputedAtIST = now
	return levels, nil
}

// ScoreForPrice maps currentPrice to a score in [10, 95] by which band of
// levels it occupies: above R3 scores highest, below S3 scores lowest
// (§4.6/§4.7 scoring helper).
func ScoreForPrice(levels domain.SRLevels, currentPrice float64) float64 {
	bands := []struct {
		upper float64
		score float64
	}{
		{levels.S3, 10},
		{levels.S2, 20},
		{levels.S1, 35},
		{levels.P, 50},
		{levels.R1, 65},
		{levels.R2, 80},
		{levels.R3, 90},
	}
	for _, b := range bands {
		if currentPrice <= b.upper {
			return b.score
		}
	}
	return 95
}
