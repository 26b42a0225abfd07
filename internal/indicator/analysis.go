package indicator

import "math"

// Momentum thresholds.
const (
	rsiOverbought   = 70.0
	rsiOversold     = 30.0
	stochOverbought = 80.0
	stochOversold   = 20.0
)

// AnalyzeTrend classifies the trend layer from the EMA stack, VWAP
// side and 50/200 crossovers. Needs 200 candles to be meaningful.
func AnalyzeTrend(cols *ColumnSet) TrendAnalysis {
	if cols == nil || len(cols.Candles) < 200 {
		return TrendAnalysis{Trend: DirectionUnknown, PriceVsVWAP: "NEUTRAL"}
	}

	last := len(cols.Candles) - 1
	ema9 := cols.EMA[9][last]
	ema21 := cols.EMA[21][last]
	ema50 := cols.EMA[50][last]
	ema200 := cols.EMA[200][last]

	bullishStack := ema9 > ema21 && ema21 > ema50 && ema50 > ema200
	bearishStack := ema9 < ema21 && ema21 < ema50 && ema50 < ema200

	var trend Direction
	var strength float64
	switch {
	case bullishStack:
		trend = DirectionBullish
		strength = 80
	case bearishStack:
		trend = DirectionBearish
		strength = 80
	case ema9 > ema21:
		trend = DirectionBullish
		strength = 50
	case ema9 < ema21:
		trend = DirectionBearish
		strength = 50
	default:
		trend = DirectionNeutral
		strength = 30
	}

	close := cols.Candles[last].Close
	vwap := cols.VWAP[last]
	priceVsVWAP := "NEUTRAL"
	if !math.IsNaN(vwap) {
		if close > vwap*1.01 {
			priceVsVWAP = "ABOVE"
		} else if close < vwap*0.99 {
			priceVsVWAP = "BELOW"
		}
	}

	goldenCross := false
	deathCross := false
	if last >= 1 {
		prev50 := cols.EMA[50][last-1]
		prev200 := cols.EMA[200][last-1]
		if prev50 <= prev200 && ema50 > ema200 {
			goldenCross = true
		} else if prev50 >= prev200 && ema50 < ema200 {
			deathCross = true
		}
	}

	return TrendAnalysis{
		Trend:        trend,
		Strength:     strength,
		EMAAlignment: bullishStack,
		PriceVsVWAP:  priceVsVWAP,
		GoldenCross:  goldenCross,
		DeathCross:   deathCross,
	}
}

// AnalyzeMomentum classifies RSI, MACD and stochastic state and folds
// them into one score in [-100, 100].
func AnalyzeMomentum(cols *ColumnSet) MomentumAnalysis {
	if cols == nil || len(cols.Candles) < 26 {
		return MomentumAnalysis{RSISignal: "NEUTRAL", MACDSignal: "NEUTRAL", StochSignal: "NEUTRAL"}
	}

	last := len(cols.Candles) - 1
	prev := last
	if last >= 1 {
		prev = last - 1
	}

	// RSI
	rsi := cols.RSI[last]
	rsiSignal := "NEUTRAL"
	switch {
	case math.IsNaN(rsi):
	case rsi > rsiOverbought:
		rsiSignal = "OVERBOUGHT"
	case rsi < rsiOversold:
		rsiSignal = "OVERSOLD"
	case rsi >= 40 && rsi <= 60:
		rsiSignal = "NEUTRAL"
	case rsi > 50:
		rsiSignal = "BULLISH"
	default:
		rsiSignal = "BEARISH"
	}

	// MACD
	macdLine := cols.MACDLine[last]
	signalLine := cols.MACDSignal[last]
	histogram := cols.MACDHist[last]
	macdSignal := "NEUTRAL"
	macdCrossover := false
	switch {
	case cols.MACDLine[prev] <= cols.MACDSignal[prev] && macdLine > signalLine:
		macdCrossover = true
		macdSignal = "BULLISH_CROSS"
	case cols.MACDLine[prev] >= cols.MACDSignal[prev] && macdLine < signalLine:
		macdCrossover = true
		macdSignal = "BEARISH_CROSS"
	case macdLine > signalLine && histogram > 0:
		macdSignal = "BULLISH"
	case macdLine < signalLine && histogram < 0:
		macdSignal = "BEARISH"
	}

	// Stochastic
	kValue := cols.StochK[last]
	dValue := cols.StochD[last]
	stochSignal := "NEUTRAL"
	stochCrossover := false
	switch {
	case math.IsNaN(kValue) || math.IsNaN(dValue):
	case kValue > stochOverbought && dValue > stochOverbought:
		stochSignal = "OVERBOUGHT"
	case kValue < stochOversold && dValue < stochOversold:
		stochSignal = "OVERSOLD"
	case cols.StochK[prev] <= cols.StochD[prev] && kValue > dValue:
		stochCrossover = true
		stochSignal = "BULLISH_CROSS"
	case cols.StochK[prev] >= cols.StochD[prev] && kValue < dValue:
		stochCrossover = true
		stochSignal = "BEARISH_CROSS"
	case kValue > dValue:
		stochSignal = "BULLISH"
	default:
		stochSignal = "BEARISH"
	}

	score := 0.0
	switch rsiSignal {
	case "BULLISH":
		score += 25
	case "BEARISH":
		score -= 25
	case "OVERSOLD":
		score += 40
	case "OVERBOUGHT":
		score -= 40
	}
	switch macdSignal {
	case "BULLISH_CROSS":
		score += 40
	case "BEARISH_CROSS":
		score -= 40
	case "BULLISH":
		score += 20
	case "BEARISH":
		score -= 20
	}
	switch stochSignal {
	case "BULLISH_CROSS":
		score += 35
	case "BEARISH_CROSS":
		score -= 35
	case "OVERSOLD":
		score += 30
	case "OVERBOUGHT":
		score -= 30
	case "BULLISH":
		score += 15
	case "BEARISH":
		score -= 15
	}

	rsiValue := rsi
	if math.IsNaN(rsiValue) {
		rsiValue = 0
	}

	return MomentumAnalysis{
		RSISignal:      rsiSignal,
		RSIValue:       rsiValue,
		MACDSignal:     macdSignal,
		MACDCrossover:  macdCrossover,
		StochSignal:    stochSignal,
		StochCrossover: stochCrossover,
		Score:          clamp(score, -100, 100),
	}
}

// AnalyzeVolatility ranks the current ATR and bandwidth against their
// own history and reads the Bollinger band position.
func AnalyzeVolatility(cols *ColumnSet) VolatilityAnalysis {
	if cols == nil || len(cols.Candles) < 20 {
		return VolatilityAnalysis{Regime: "UNKNOWN", BBPosition: "NEUTRAL"}
	}

	last := len(cols.Candles) - 1

	atrPercentile := 0.0
	atrValue := cols.ATR[last]
	if !math.IsNaN(atrValue) {
		atrPercentile = PercentRank(cols.ATR, atrValue)
	} else {
		atrValue = 0
	}

	regime := "LOW_VOLATILITY"
	if atrPercentile > 80 {
		regime = "HIGH_VOLATILITY"
	} else if atrPercentile > 50 {
		regime = "MODERATE_VOLATILITY"
	}

	price := cols.Candles[last].Close
	upper := cols.BBUpper[last]
	lower := cols.BBLower[last]
	middle := cols.BBMiddle[last]
	bbPosition := "NEUTRAL"
	if !math.IsNaN(upper) && !math.IsNaN(lower) && !math.IsNaN(middle) {
		switch {
		case price > upper:
			bbPosition = "ABOVE_UPPER"
		case price < lower:
			bbPosition = "BELOW_LOWER"
		case price > middle:
			bbPosition = "UPPER_HALF"
		default:
			bbPosition = "LOWER_HALF"
		}
	}

	bbSqueeze := false
	bandwidth := cols.BBBandwidth[last]
	if !math.IsNaN(bandwidth) {
		bbSqueeze = PercentRank(cols.BBBandwidth, bandwidth) < 20
	} else {
		bandwidth = 0
	}

	return VolatilityAnalysis{
		Regime:        regime,
		ATRValue:      atrValue,
		ATRPercentile: atrPercentile,
		BBPosition:    bbPosition,
		BBSqueeze:     bbSqueeze,
		BBBandwidth:   bandwidth,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
