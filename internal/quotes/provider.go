package quotes

import (
	"context"
	"time"
)

// Provider is the upstream quote/historical boundary a concrete broker or
// data-vendor adapter implements.
type Provider interface {
	// Historical returns OHLCV rows for symbol between from and to at the
	// given canonical interval.
	Historical(ctx context.Context, symbol string, from, to time.Time, interval Interval) ([]Candle, error)
	// Quotes returns a per-symbol snapshot for the given exchange. Symbols
	// the provider could not resolve are simply absent from the result
	// (§7 invalid input: skip silently with debug log).
	Quotes(ctx context.Context, symbols []string, exchange Exchange) (map[string]Quote, error)
	// Name identifies the provider for logging and degraded-state reporting.
	Name() string
}

// TickStream is the push-based tick boundary a broker adapter implements.
type TickStream interface {
	// Subscribe requests tick updates for symbols, returning the channel
	// ticks arrive on. Closing ctx unsubscribes and closes the channel.
	Subscribe(ctx context.Context, symbols []string) (<-chan Tick, error)
	// Unsubscribe drops symbols from the upstream subscription.
	Unsubscribe(ctx context.Context, symbols []string) error
}
