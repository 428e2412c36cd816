package quotes

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// UnifiedProvider pairs a primary and fallback Provider with auto re-auth
// downgrade/upgrade (§7 Auth expiry): on a primary failure the session
// downgrades to the fallback; it upgrades back to the primary on the next
// call that succeeds against it.
type UnifiedProvider struct {
	primary  Provider
	fallback Provider
	log      zerolog.Logger

	// degraded is true while the session is pinned to the fallback provider.
	degraded atomic.Bool
}

// NewUnifiedProvider builds a provider that prefers primary and falls back
// to fallback on failure.
func NewUnifiedProvider(primary, fallback Provider, log zerolog.Logger) *UnifiedProvider {
	return &UnifiedProvider{
		primary:  primary,
		fallback: fallback,
		log:      log.With().Str("component", "quotes.unified").Logger(),
	}
}

// Name reports whichever provider is currently active.
func (u *UnifiedProvider) Name() string {
	if u.degraded.Load() {
		return u.fallback.Name()
	}
	return u.primary.Name()
}

// IsDegraded reports whether the session is currently pinned to the
// fallback provider.
func (u *UnifiedProvider) IsDegraded() bool {
	return u.degraded.Load()
}

// Historical tries the primary first; a primary success clears the
// degraded flag. On a primary failure it sets the flag and tries the
// fallback. If both fail, it returns an empty result (§7: consumers treat
// empty as skip-this-symbol), not an error.
func (u *UnifiedProvider) Historical(ctx context.Context, symbol string, from, to time.Time, interval Interval) []Candle {
	try := func(p Provider) ([]Candle, bool) {
		rows, err := p.Historical(ctx, symbol, from, to, interval)
		if err != nil {
			u.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("historical fetch failed")
			return nil, false
		}
		return rows, true
	}

	if rows, ok := try(u.primary); ok {
		u.degraded.Store(false)
		return rows
	}
	u.degraded.Store(true)
	if rows, ok := try(u.fallback); ok {
		return rows
	}
	return nil
}

// Quotes mirrors Historical's failover/degrade policy for live snapshots.
func (u *UnifiedProvider) Quotes(ctx context.Context, symbols []string, exchange Exchange) map[string]Quote {
	try := func(p Provider) (map[string]Quote, bool) {
		result, err := p.Quotes(ctx, symbols, exchange)
		if err != nil {
			u.log.Warn().Err(err).Str("provider", p.Name()).Msg("quotes fetch failed")
			return nil, false
		}
		return result, true
	}

	if result, ok := try(u.primary); ok {
		u.degraded.Store(false)
		return result
	}
	u.degraded.Store(true)
	if result, ok := try(u.fallback); ok {
		return result
	}
	return map[string]Quote{}
}
