// Package marketclock classifies wall-clock instants into NSE/BSE session
// windows and exposes the IST-localized job schedule used by the scheduler.
package marketclock

import "time"

// ISTLocation is the fixed IST offset (UTC+5:30). India does not observe
// daylight saving, so a fixed offset is safe to hardcode rather than
// depending on the system tzdata having "Asia/Kolkata" loaded.
var ISTLocation = time.FixedZone("IST", 5*60*60+30*60)

// Clock produces IST wall-clock time and classifies it into session
// windows. The zero value is ready to use; Now is overridable for tests.
type Clock struct {
	// Now returns the current UTC time. Defaults to time.Now when nil.
	Now func() time.Time
}

func (c Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// NowIST returns the current instant rendered in IST.
func (c Clock) NowIST() time.Time {
	return c.now().In(ISTLocation)
}

// IsTradingWeekday reports whether t (any location) falls on Mon-Fri in IST.
func IsTradingWeekday(t time.Time) bool {
	day := t.In(ISTLocation).Weekday()
	return day >= time.Monday && day <= time.Friday
}

func minutesOfDay(t time.Time) int {
	ist := t.In(ISTLocation)
	return ist.Hour()*60 + ist.Minute()
}

const (
	cashOpenMin  = 9*60 + 15
	cashCloseMin = 15*60 + 30

	scalpingOpenMin  = 9*60 + 20
	scalpingCloseMin = 15*60 + 30

	eodOpenMin  = 15*60 + 30
	eodCloseMin = 15*60 + 45

	hardCutoffMin = 15*60 + 15
)

// IsCashMarketOpen reports whether the cash market is open at t: 09:15 <= t
// < 15:30 IST, Mon-Fri (§4.1).
func IsCashMarketOpen(t time.Time) bool {
	if !IsTradingWeekday(t) {
		return false
	}
	m := minutesOfDay(t)
	return m >= cashOpenMin && m < cashCloseMin
}

// IsScalpingWindow reports whether t falls in the scalping cycle window:
// 09:20 <= t <= 15:30 IST, Mon-Fri (§4.1).
func IsScalpingWindow(t time.Time) bool {
	if !IsTradingWeekday(t) {
		return false
	}
	m := minutesOfDay(t)
	return m >= scalpingOpenMin && m <= scalpingCloseMin
}

// IsEODWindow reports whether t falls in the short post-close EOD window:
// 15:30 <= t <= 15:45 IST, Mon-Fri (§4.1). Permits EOD_AUTO_EXIT processing.
func IsEODWindow(t time.Time) bool {
	if !IsTradingWeekday(t) {
		return false
	}
	m := minutesOfDay(t)
	return m >= eodOpenMin && m <= eodCloseMin
}

// IsPastHardCutoff reports whether t is at or past the 15:15 IST hard
// cutoff, after which Scalping/Intraday/Options/Futures refreshes are
// skipped unless the trigger is backfill (§4.1).
func IsPastHardCutoff(t time.Time) bool {
	return minutesOfDay(t) >= hardCutoffMin
}

// TradeDateIST returns the IST calendar date of t, as used by PickEvent's
// trade_date and the scalping/strategy exit file layouts ("2006-01-02").
func TradeDateIST(t time.Time) string {
	return t.In(ISTLocation).Format("2006-01-02")
}
