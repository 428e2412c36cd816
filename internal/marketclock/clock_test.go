package marketclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func istTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04", s, ISTLocation)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return parsed
}

func TestIsTradingWeekday(t *testing.T) {
	assert.True(t, IsTradingWeekday(istTime(t, "2026-08-03 10:00")))  // Monday
	assert.False(t, IsTradingWeekday(istTime(t, "2026-08-01 10:00"))) // Saturday
	assert.False(t, IsTradingWeekday(istTime(t, "2026-08-02 10:00"))) // Sunday
}

func TestIsCashMarketOpen(t *testing.T) {
	assert.False(t, IsCashMarketOpen(istTime(t, "2026-08-03 09:14")))
	assert.True(t, IsCashMarketOpen(istTime(t, "2026-08-03 09:15")))
	assert.True(t, IsCashMarketOpen(istTime(t, "2026-08-03 15:29")))
	assert.False(t, IsCashMarketOpen(istTime(t, "2026-08-03 15:30")))
	assert.False(t, IsCashMarketOpen(istTime(t, "2026-08-01 10:00"))) // weekend
}

func TestIsScalpingWindow(t *testing.T) {
	assert.False(t, IsScalpingWindow(istTime(t, "2026-08-03 09:19")))
	assert.True(t, IsScalpingWindow(istTime(t, "2026-08-03 09:20")))
	assert.True(t, IsScalpingWindow(istTime(t, "2026-08-03 15:30")))
	assert.False(t, IsScalpingWindow(istTime(t, "2026-08-03 15:31")))
}

func TestIsEODWindow(t *testing.T) {
	assert.False(t, IsEODWindow(istTime(t, "2026-08-03 15:29")))
	assert.True(t, IsEODWindow(istTime(t, "2026-08-03 15:30")))
	assert.True(t, IsEODWindow(istTime(t, "2026-08-03 15:45")))
	assert.False(t, IsEODWindow(istTime(t, "2026-08-03 15:46")))
}

func TestIsPastHardCutoff(t *testing.T) {
	assert.False(t, IsPastHardCutoff(istTime(t, "2026-08-03 15:14")))
	assert.True(t, IsPastHardCutoff(istTime(t, "2026-08-03 15:15")))
}

func TestTradeDateIST(t *testing.T) {
	utc := time.Date(2026, 8, 3, 19, 0, 0, 0, time.UTC) // 00:30 IST next day
	assert.Equal(t, "2026-08-04", TradeDateIST(utc))
}

func TestClockNowISTUsesInjectedNow(t *testing.T) {
	fixed := time.Date(2026, 8, 3, 4, 0, 0, 0, time.UTC) // 09:30 IST
	clock := Clock{Now: func() time.Time { return fixed }}
	ist := clock.NowIST()
	assert.Equal(t, 9, ist.Hour())
	assert.Equal(t, 30, ist.Minute())
}
