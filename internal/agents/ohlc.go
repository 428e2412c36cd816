package agents

import "github.com/arise-platform/toppicks-engine/internal/quotes"

// ohlc unpacks a candle slice into parallel open/high/low/close/volume
// slices, the shape talib's functions expect.
func ohlc(candles []quotes.Candle) (open, high, low, close, volume []float64) {
	n := len(candles)
	open = make([]float64, n)
	high = make([]float64, n)
	low = make([]float64, n)
	close = make([]float64, n)
	volume = make([]float64, n)
	for i, c := range candles {
		open[i] = c.Open
		high[i] = c.High
		low[i] = c.Low
		close[i] = c.Close
		volume[i] = c.Volume
	}
	return
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
