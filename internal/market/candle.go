package market

import "time"

// Candle represents a single OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// LastClose returns the close of the most recent candle, or 0 for an
// empty series.
func LastClose(candles []Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	return candles[len(candles)-1].Close
}

// Tail returns the last n candles without copying. The full slice is
// returned when it is shorter than n.
func Tail(candles []Candle, n int) []Candle {
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}

// AverageVolume returns the mean volume over the last n candles.
func AverageVolume(candles []Candle, n int) float64 {
	tail := Tail(candles, n)
	if len(tail) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range tail {
		sum += c.Volume
	}
	return sum / float64(len(tail))
}
