package store

import (
	"context"
	"time"

	"github.com/arise-platform/toppicks-engine/internal/candlecache"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// ProviderCandleSource adapts a quotes.Provider to the CandleSource port the
// OutcomeEvaluator depends on, always requesting daily bars: outcome
// evaluation measures a pick against its trade-date close, high, and low.
type ProviderCandleSource struct {
	Provider quotes.Provider
}

func (a ProviderCandleSource) Candles(ctx context.Context, symbol string, from, to time.Time) ([]quotes.Candle, error) {
	return a.Provider.Historical(ctx, symbol, from, to, quotes.Interval1d)
}

// CachedCandleSource fronts a ProviderCandleSource with candlecache.Cache's
// file-backed OHLCV cache (§4.3), so SupportResistanceService's repeated
// daily-bar pivot computations don't re-fetch the provider on every call
// within the cache's TTL window.
type CachedCandleSource struct {
	Cache    *candlecache.Cache
	Provider quotes.Provider
}

func (a CachedCandleSource) Candles(ctx context.Context, symbol string, from, to time.Time) ([]quotes.Candle, error) {
	if rows, ok := a.Cache.Get(symbol, from, to, quotes.Interval1d, a.Provider.Name()); ok {
		return rows, nil
	}
	rows, err := a.Provider.Historical(ctx, symbol, from, to, quotes.Interval1d)
	if err != nil {
		return nil, err
	}
	if err := a.Cache.Set(symbol, from, to, quotes.Interval1d, a.Provider.Name(), rows); err != nil {
		return rows, nil
	}
	return rows, nil
}
