package indicator

import (
	"math"

	"nse-trading-engine/internal/market"
)

// Series calculators return one value per input candle. Positions that
// fall inside an indicator's warmup window hold NaN so that percentile
// ranks and crossover checks only ever see settled values.

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// EMASeries computes an exponential moving average seeded with the
// first value, alpha = 2/(span+1).
func EMASeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		ema = values[i]*alpha + ema*(1-alpha)
		out[i] = ema
	}
	return out
}

// SMASeries computes a rolling mean with NaN for the warmup window.
func SMASeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	valid := 0
	for i, v := range values {
		if !math.IsNaN(v) {
			sum += v
			valid++
		}
		if i >= period {
			old := values[i-period]
			if !math.IsNaN(old) {
				sum -= old
				valid--
			}
		}
		if i >= period-1 && valid == period {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// VWAPSeries computes volume weighted average price from typical
// prices. With dailyReset the cumulative sums restart at each calendar
// day boundary; otherwise the VWAP runs over the whole series.
func VWAPSeries(candles []market.Candle, dailyReset bool) []float64 {
	out := make([]float64, len(candles))
	cumTPV := 0.0
	cumVol := 0.0
	var lastDay int

	for i, c := range candles {
		if dailyReset {
			day := c.Timestamp.Year()*1000 + c.Timestamp.YearDay()
			if i == 0 || day != lastDay {
				cumTPV = 0
				cumVol = 0
				lastDay = day
			}
		}
		typical := (c.High + c.Low + c.Close) / 3
		cumTPV += typical * c.Volume
		cumVol += c.Volume
		if cumVol > 0 {
			out[i] = cumTPV / cumVol
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// ============================================================================
// OSCILLATORS
// ============================================================================

// RSISeries computes the relative strength index over rolling mean
// gains and losses.
func RSISeries(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) < period+1 {
		return out
	}

	gains := nanSlice(len(closes))
	losses := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -delta
		}
	}

	avgGain := SMASeries(gains, period)
	avgLoss := SMASeries(losses, period)

	for i := range closes {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}
		if avgLoss[i] == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACDSeries computes the MACD line, signal line and histogram.
func MACDSeries(closes []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)

	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}

	signalLine = EMASeries(line, signal)

	histogram = make([]float64, len(closes))
	for i := range closes {
		histogram[i] = line[i] - signalLine[i]
	}
	return line, signalLine, histogram
}

// StochasticSeries computes %K from the rolling high/low envelope and
// %D as its rolling mean.
func StochasticSeries(candles []market.Candle, kPeriod, dPeriod int) (k, d []float64) {
	k = nanSlice(len(candles))

	for i := kPeriod - 1; i < len(candles); i++ {
		lowMin := math.Inf(1)
		highMax := math.Inf(-1)
		for j := i - kPeriod + 1; j <= i; j++ {
			lowMin = math.Min(lowMin, candles[j].Low)
			highMax = math.Max(highMax, candles[j].High)
		}
		if highMax == lowMin {
			continue
		}
		k[i] = 100 * (candles[i].Close - lowMin) / (highMax - lowMin)
	}

	d = SMASeries(k, dPeriod)
	return k, d
}

// ============================================================================
// VOLATILITY
// ============================================================================

// TrueRangeSeries computes max(high-low, |high-prevClose|, |low-prevClose|).
// The first candle has no previous close and uses high-low alone.
func TrueRangeSeries(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		tr := c.High - c.Low
		if i > 0 {
			prevClose := candles[i-1].Close
			tr = math.Max(tr, math.Abs(c.High-prevClose))
			tr = math.Max(tr, math.Abs(c.Low-prevClose))
		}
		out[i] = tr
	}
	return out
}

// ATRSeries computes the rolling mean of the true range.
func ATRSeries(candles []market.Candle, period int) []float64 {
	return SMASeries(TrueRangeSeries(candles), period)
}

// BollingerSeries computes the middle/upper/lower bands and the
// bandwidth ratio. The standard deviation is the sample deviation.
func BollingerSeries(closes []float64, period int, stdDev float64) (middle, upper, lower, bandwidth []float64) {
	middle = SMASeries(closes, period)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	bandwidth = nanSlice(len(closes))

	for i := period - 1; i < len(closes); i++ {
		mean := middle[i]
		if math.IsNaN(mean) {
			continue
		}
		sumSq := 0.0
		for j := i - period + 1; j <= i; j++ {
			diff := closes[j] - mean
			sumSq += diff * diff
		}
		sd := math.Sqrt(sumSq / float64(period-1))
		upper[i] = mean + sd*stdDev
		lower[i] = mean - sd*stdDev
		if mean != 0 {
			bandwidth[i] = (upper[i] - lower[i]) / mean
		}
	}
	return middle, upper, lower, bandwidth
}

// ============================================================================
// DIRECTIONAL MOVEMENT
// ============================================================================

// ADXSeries computes the average directional index with +DI and -DI
// using rolling-mean smoothing.
func ADXSeries(candles []market.Candle, period int) (adx, plusDI, minusDI []float64) {
	n := len(candles)
	adx = nanSlice(n)
	plusDI = nanSlice(n)
	minusDI = nanSlice(n)
	if n < 2 {
		return adx, plusDI, minusDI
	}

	plusDM := nanSlice(n)
	minusDM := nanSlice(n)
	for i := 1; i < n; i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		if up < 0 {
			up = 0
		}
		if down < 0 {
			down = 0
		}
		// Only the dominant directional move counts
		if up < down {
			up = 0
		}
		if down < up {
			down = 0
		}
		plusDM[i] = up
		minusDM[i] = down
	}

	atr := SMASeries(TrueRangeSeries(candles), period)
	smoothPlus := SMASeries(plusDM, period)
	smoothMinus := SMASeries(minusDM, period)

	dx := nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) || math.IsNaN(smoothPlus[i]) || math.IsNaN(smoothMinus[i]) || atr[i] == 0 {
			continue
		}
		plusDI[i] = 100 * smoothPlus[i] / atr[i]
		minusDI[i] = 100 * smoothMinus[i] / atr[i]
		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			continue
		}
		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
	}

	adx = SMASeries(dx, period)
	return adx, plusDI, minusDI
}

// ============================================================================
// HELPERS
// ============================================================================

// PercentRank returns the percentage of settled values strictly below
// the current value.
func PercentRank(series []float64, current float64) float64 {
	below := 0
	total := 0
	for _, v := range series {
		if math.IsNaN(v) {
			continue
		}
		total++
		if v < current {
			below++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(below) / float64(total) * 100
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func lastValid(series []float64) (float64, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i], true
		}
	}
	return 0, false
}
