package indicator

import (
	"math"
	"sort"

	"nse-trading-engine/internal/market"
)

// Structure parameters.
const (
	srLookback           = 50
	srProximityPct       = 0.5
	breakoutVolumeFactor = 1.5
	volumeProfileBins    = 20
)

// FindSupportResistance detects swing highs and lows with a
// 2-candle-each-side extremum test and clusters nearby levels.
// Returns the top 3 support levels (descending) and resistance levels
// (ascending).
func FindSupportResistance(candles []market.Candle) (support, resistance []float64) {
	if len(candles) < srLookback {
		return nil, nil
	}

	window := market.Tail(candles, srLookback)

	var swingHighs, swingLows []float64
	for i := 2; i < len(window)-2; i++ {
		h := window[i].High
		if h > window[i-1].High && h > window[i-2].High &&
			h > window[i+1].High && h > window[i+2].High {
			swingHighs = append(swingHighs, h)
		}
		l := window[i].Low
		if l < window[i-1].Low && l < window[i-2].Low &&
			l < window[i+1].Low && l < window[i+2].Low {
			swingLows = append(swingLows, l)
		}
	}

	support = clusterLevels(swingLows, srProximityPct)
	resistance = clusterLevels(swingHighs, srProximityPct)

	sort.Sort(sort.Reverse(sort.Float64Slice(support)))
	sort.Float64s(resistance)

	if len(support) > 3 {
		support = support[:3]
	}
	if len(resistance) > 3 {
		resistance = resistance[:3]
	}
	return support, resistance
}

// clusterLevels merges levels within proximity percent of each other
// into their average.
func clusterLevels(levels []float64, proximityPct float64) []float64 {
	if len(levels) == 0 {
		return nil
	}

	sorted := make([]float64, len(levels))
	copy(sorted, levels)
	sort.Float64s(sorted)

	var clusters []float64
	current := []float64{sorted[0]}

	for _, level := range sorted[1:] {
		if level <= current[len(current)-1]*(1+proximityPct/100) {
			current = append(current, level)
		} else {
			clusters = append(clusters, mean(current))
			current = []float64{level}
		}
	}
	clusters = append(clusters, mean(current))
	return clusters
}

// DetectBreakout checks whether the latest close crossed a clustered
// level that the previous close was on the other side of. Volume
// confirmation requires current volume above 1.5x the 20-bar average.
func DetectBreakout(candles []market.Candle, support, resistance []float64) BreakoutInfo {
	if len(candles) < 20 {
		return BreakoutInfo{}
	}

	latest := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	avgVolume := market.AverageVolume(candles, 20)
	volumeConfirmed := latest.Volume > avgVolume*breakoutVolumeFactor

	strength := func() string {
		if volumeConfirmed {
			return "STRONG"
		}
		return "WEAK"
	}

	for _, level := range resistance {
		if prev.Close < level && latest.Close > level {
			return BreakoutInfo{
				Breakout:        true,
				Direction:       DirectionBullish,
				Level:           level,
				VolumeConfirmed: volumeConfirmed,
				Strength:        strength(),
			}
		}
	}

	for _, level := range support {
		if prev.Close > level && latest.Close < level {
			return BreakoutInfo{
				Breakout:        true,
				Direction:       DirectionBearish,
				Level:           level,
				VolumeConfirmed: volumeConfirmed,
				Strength:        strength(),
			}
		}
	}

	return BreakoutInfo{}
}

// CalculateVolumeProfile bins traded volume across the price range and
// finds the point of control plus the 70% value area.
func CalculateVolumeProfile(candles []market.Candle) VolumeProfile {
	if len(candles) < 20 {
		return VolumeProfile{}
	}

	priceMin := math.Inf(1)
	priceMax := math.Inf(-1)
	for _, c := range candles {
		priceMin = math.Min(priceMin, c.Low)
		priceMax = math.Max(priceMax, c.High)
	}
	if priceMax <= priceMin {
		return VolumeProfile{}
	}

	binWidth := (priceMax - priceMin) / volumeProfileBins
	binVolumes := make([]float64, volumeProfileBins)

	binIndex := func(price float64) int {
		idx := int((price - priceMin) / binWidth)
		if idx < 0 {
			idx = 0
		}
		if idx >= volumeProfileBins {
			idx = volumeProfileBins - 1
		}
		return idx
	}

	for _, c := range candles {
		lowBin := binIndex(c.Low)
		highBin := binIndex(c.High)
		span := highBin - lowBin + 1
		for b := lowBin; b <= highBin; b++ {
			binVolumes[b] += c.Volume / float64(span)
		}
	}

	pocBin := 0
	for b, v := range binVolumes {
		if v > binVolumes[pocBin] {
			pocBin = b
		}
	}
	binEdge := func(b int) float64 { return priceMin + float64(b)*binWidth }
	poc := (binEdge(pocBin) + binEdge(pocBin+1)) / 2

	totalVolume := 0.0
	for _, v := range binVolumes {
		totalVolume += v
	}
	targetVolume := totalVolume * 0.70

	loBin, hiBin := pocBin, pocBin
	accumulated := binVolumes[pocBin]
	for accumulated < targetVolume && hiBin-loBin+1 < volumeProfileBins {
		aboveVol := 0.0
		if hiBin+1 < volumeProfileBins {
			aboveVol = binVolumes[hiBin+1]
		}
		belowVol := 0.0
		if loBin-1 >= 0 {
			belowVol = binVolumes[loBin-1]
		}

		if aboveVol > belowVol && hiBin+1 < volumeProfileBins {
			hiBin++
			accumulated += aboveVol
		} else if loBin-1 >= 0 {
			loBin--
			accumulated += belowVol
		} else {
			break
		}
	}

	return VolumeProfile{
		Valid:         true,
		POC:           poc,
		ValueAreaHigh: binEdge(hiBin + 1),
		ValueAreaLow:  binEdge(loBin),
	}
}

// AnalyzeStructure runs the full structure layer: clustered S/R,
// breakout detection, volume profile and a 3-candle trend pattern.
func AnalyzeStructure(candles []market.Candle) StructureAnalysis {
	support, resistance := FindSupportResistance(candles)
	breakout := DetectBreakout(candles, support, resistance)
	profile := CalculateVolumeProfile(candles)

	pattern := "UNKNOWN"
	if len(candles) >= 3 {
		latest := candles[len(candles)-1]
		prev1 := candles[len(candles)-2]
		prev2 := candles[len(candles)-3]

		higherHighs := latest.High > prev1.High && prev1.High > prev2.High
		lowerLows := latest.Low < prev1.Low && prev1.Low < prev2.Low

		switch {
		case higherHighs && latest.Close > prev1.Close:
			pattern = "BULLISH_TREND"
		case lowerLows && latest.Close < prev1.Close:
			pattern = "BEARISH_TREND"
		default:
			pattern = "CONSOLIDATION"
		}
	}

	return StructureAnalysis{
		SupportLevels:    support,
		ResistanceLevels: resistance,
		Breakout:         breakout,
		VolumeProfile:    profile,
		Pattern:          pattern,
	}
}

// SwingTargets returns swing levels beyond the entry usable as target
// anchors: swing highs above entry for longs (ascending), swing lows
// below entry for shorts (descending). At most 3 levels.
func SwingTargets(candles []market.Candle, entryPrice float64, long bool) []float64 {
	if len(candles) < 20 {
		return nil
	}

	window := market.Tail(candles, 50)
	var levels []float64
	for i := 2; i < len(window)-2; i++ {
		if long {
			h := window[i].High
			if h > window[i-1].High && h > window[i-2].High &&
				h > window[i+1].High && h > window[i+2].High && h > entryPrice {
				levels = append(levels, h)
			}
		} else {
			l := window[i].Low
			if l < window[i-1].Low && l < window[i-2].Low &&
				l < window[i+1].Low && l < window[i+2].Low && l < entryPrice {
				levels = append(levels, l)
			}
		}
	}

	if long {
		sort.Float64s(levels)
	} else {
		sort.Sort(sort.Reverse(sort.Float64Slice(levels)))
	}
	if len(levels) > 3 {
		levels = levels[:3]
	}
	return levels
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
