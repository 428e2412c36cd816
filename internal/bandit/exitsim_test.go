package bandit

import (
	"testing"
	"time"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(t time.Time, o, h, l, c float64) quotes.Candle {
	return quotes.Candle{Timestamp: t, Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

func TestSimulateExitForPickHitsTarget(t *testing.T) {
	entry := time.Date(2026, 1, 1, 9, 15, 0, 0, time.UTC)
	horizon := entry.Add(time.Hour)
	candles := []quotes.Candle{
		bar(entry, 100, 100, 100, 100),
		bar(entry.Add(10*time.Minute), 100, 106, 99, 105),
		bar(entry.Add(20*time.Minute), 105, 108, 104, 107),
	}
	profile := domain.ExitProfile{
		Stop:   domain.StopConfig{Type: domain.StopPercent, Value: 2},
		Target: domain.TargetConfig{Type: domain.TargetPercent, Value: 5},
	}

	sim, ok := SimulateExitForPick("X", "p1", domain.DirectionLong, 100, entry, horizon, profile, candles)
	require.True(t, ok)
	assert.True(t, sim.HitTarget)
	assert.Equal(t, domain.ExitTarget, sim.ExitReason)
	assert.InDelta(t, 105.0, sim.ExitPrice, 0.001)
}

func TestSimulateExitForPickHitsStop(t *testing.T) {
	entry := time.Date(2026, 1, 1, 9, 15, 0, 0, time.UTC)
	horizon := entry.Add(time.Hour)
	candles := []quotes.Candle{
		bar(entry, 100, 100, 100, 100),
		bar(entry.Add(10*time.Minute), 100, 101, 97, 98),
	}
	profile := domain.ExitProfile{
		Stop:   domain.StopConfig{Type: domain.StopPercent, Value: 2},
		Target: domain.TargetConfig{Type: domain.TargetPercent, Value: 5},
	}

	sim, ok := SimulateExitForPick("X", "p1", domain.DirectionLong, 100, entry, horizon, profile, candles)
	require.True(t, ok)
	assert.True(t, sim.HitStop)
	assert.Equal(t, domain.ExitStop, sim.ExitReason)
	assert.InDelta(t, 98.0, sim.ExitPrice, 0.001)
}

func TestSimulateExitForPickTimeExit(t *testing.T) {
	entry := time.Date(2026, 1, 1, 9, 15, 0, 0, time.UTC)
	horizon := entry.Add(2 * time.Hour)
	candles := []quotes.Candle{
		bar(entry, 100, 100, 100, 100),
		bar(entry.Add(70*time.Minute), 100, 101, 99, 100.5),
	}
	profile := domain.ExitProfile{
		TimeStop: domain.TimeStopConfig{Enabled: true, MaxHoldMinutes: 60},
	}

	sim, ok := SimulateExitForPick("X", "p1", domain.DirectionLong, 100, entry, horizon, profile, candles)
	require.True(t, ok)
	assert.True(t, sim.TimeExit)
	assert.Equal(t, domain.ExitTime, sim.ExitReason)
}

func TestSimulateExitForPickNoCandlesInWindow(t *testing.T) {
	entry := time.Date(2026, 1, 1, 9, 15, 0, 0, time.UTC)
	_, ok := SimulateExitForPick("X", "p1", domain.DirectionLong, 100, entry, entry.Add(time.Hour), domain.ExitProfile{}, nil)
	assert.False(t, ok)
}

func TestSimulateExitForPickShortDirection(t *testing.T) {
	entry := time.Date(2026, 1, 1, 9, 15, 0, 0, time.UTC)
	horizon := entry.Add(time.Hour)
	candles := []quotes.Candle{
		bar(entry, 100, 100, 100, 100),
		bar(entry.Add(10*time.Minute), 100, 101, 94, 95),
	}
	profile := domain.ExitProfile{
		Target: domain.TargetConfig{Type: domain.TargetPercent, Value: 5},
	}

	sim, ok := SimulateExitForPick("X", "p1", domain.DirectionShort, 100, entry, horizon, profile, candles)
	require.True(t, ok)
	assert.True(t, sim.HitTarget)
	assert.InDelta(t, 95.0, sim.ExitPrice, 0.001)
}
