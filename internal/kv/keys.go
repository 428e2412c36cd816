package kv

import (
	"fmt"
	"time"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

// Recognized key builders and their TTLs (§6 KV store boundary).

const (
	TTLTopPicksRun            = time.Hour
	TTLPortfolioMonitor       = 10 * time.Minute
	TTLWatchlistMonitor       = 10 * time.Minute
	TTLScalpingMonitor        = 10 * time.Minute
	TTLDashboardIntraday      = 15 * time.Minute
	TTLDashboardPerformance7D = 24 * time.Hour
	TTLLockTopPicks           = 15 * time.Minute
)

// SRLevelsTTL returns the cache TTL for sr:levels:{symbol}:{scope}, derived
// from the scope's own staleness threshold.
func SRLevelsTTL(scope domain.TimeframeScope) time.Duration {
	return scope.StalenessThreshold()
}

func TopPicksKey(universe string, mode domain.Mode) string {
	return fmt.Sprintf("top_picks:%s:%s", universe, mode)
}

func PortfolioMonitorPositionsKey() string {
	return "portfolio:monitor:positions:last"
}

func PortfolioMonitorWatchlistKey() string {
	return "portfolio:monitor:watchlist:last"
}

func ScalpingMonitorKey() string {
	return "scalping:monitor:last"
}

func DashboardOverviewIntradayKey() string {
	return "dashboard:overview:intraday"
}

func DashboardOverviewPerformance7DKey() string {
	return "dashboard:overview:performance:7d"
}

func SRLevelsKey(symbol string, scope domain.TimeframeScope) string {
	return fmt.Sprintf("sr:levels:%s:%s", symbol, scope)
}

func TopPicksLockKey(universe string, mode domain.Mode) string {
	return fmt.Sprintf("lock:top_picks:%s:%s", universe, mode)
}

// TickChannel is the pub/sub channel name ticks for symbol are published on.
func TickChannel(symbol string) string {
	return fmt.Sprintf("ticks:%s", symbol)
}
