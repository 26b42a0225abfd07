package execution

import (
	"github.com/rs/zerolog"

	"nse-trading-engine/internal/analysis"
	"nse-trading-engine/internal/indicator"
	"nse-trading-engine/internal/market"
)

// Stop distance clamps as a percent of entry price.
const (
	minStopDistancePct = 0.5
	maxStopDistancePct = 5.0

	atrStopMultiplier      = 1.5
	trailingStopMultiplier = 2.0
	swingStopLookback      = 20
	fallbackStopPct        = 2.0
)

// StopPlan is the chosen protective stop and the method that produced
// it. Methods gain an _ADJUSTED_MIN or _ADJUSTED_MAX suffix when the
// raw distance fell outside the allowed band.
type StopPlan struct {
	Price       float64 `json:"price"`
	Method      string  `json:"method"`
	DistancePct float64 `json:"distance_pct"`
}

// HybridStopLoss picks the tightest stop among ATR, swing structure
// and VWAP candidates, then clamps the distance into a sane band.
type HybridStopLoss struct {
	logger zerolog.Logger
}

func NewHybridStopLoss(logger zerolog.Logger) *HybridStopLoss {
	return &HybridStopLoss{
		logger: logger.With().Str("component", "stop_loss").Logger(),
	}
}

// Calculate derives the protective stop for an entry. With fewer than
// 20 candles only a flat 2% fallback is available.
func (h *HybridStopLoss) Calculate(signalType analysis.SignalType, entryPrice float64,
	candles []market.Candle, cols *indicator.ColumnSet) StopPlan {

	long := signalType != analysis.SignalSell

	if len(candles) < swingStopLookback {
		return h.clamp(entryPrice, fallbackStop(entryPrice, long), "FALLBACK", long)
	}

	atr := indicator.Last(cols.ATR)
	vwap := indicator.Last(cols.VWAP)

	type candidate struct {
		price  float64
		method string
	}
	var candidates []candidate

	if atr > 0 {
		if long {
			candidates = append(candidates, candidate{entryPrice - atr*atrStopMultiplier, "ATR"})
		} else {
			candidates = append(candidates, candidate{entryPrice + atr*atrStopMultiplier, "ATR"})
		}
	}

	window := market.Tail(candles, swingStopLookback)
	if long {
		low := window[0].Low
		for _, c := range window[1:] {
			if c.Low < low {
				low = c.Low
			}
		}
		candidates = append(candidates, candidate{low * 0.998, "SWING"})
	} else {
		high := window[0].High
		for _, c := range window[1:] {
			if c.High > high {
				high = c.High
			}
		}
		candidates = append(candidates, candidate{high * 1.002, "SWING"})
	}

	if vwap > 0 {
		if long && vwap < entryPrice {
			candidates = append(candidates, candidate{vwap * 0.995, "VWAP"})
		} else if !long && vwap > entryPrice {
			candidates = append(candidates, candidate{vwap * 1.005, "VWAP"})
		}
	}

	// Tightest valid candidate: highest below entry for longs, lowest
	// above entry for shorts.
	best := candidate{}
	for _, c := range candidates {
		if long {
			if c.price >= entryPrice {
				continue
			}
			if best.method == "" || c.price > best.price {
				best = c
			}
		} else {
			if c.price <= entryPrice {
				continue
			}
			if best.method == "" || c.price < best.price {
				best = c
			}
		}
	}
	if best.method == "" {
		best = candidate{fallbackStop(entryPrice, long), "FALLBACK"}
	}

	return h.clamp(entryPrice, best.price, best.method, long)
}

func fallbackStop(entryPrice float64, long bool) float64 {
	if long {
		return entryPrice * (1 - fallbackStopPct/100)
	}
	return entryPrice * (1 + fallbackStopPct/100)
}

// clamp enforces the stop distance band and relabels the method when
// adjusted.
func (h *HybridStopLoss) clamp(entryPrice, stopPrice float64, method string, long bool) StopPlan {
	distancePct := (entryPrice - stopPrice) / entryPrice * 100
	if !long {
		distancePct = (stopPrice - entryPrice) / entryPrice * 100
	}

	switch {
	case distancePct < minStopDistancePct:
		distancePct = minStopDistancePct
		method += "_ADJUSTED_MIN"
	case distancePct > maxStopDistancePct:
		distancePct = maxStopDistancePct
		method += "_ADJUSTED_MAX"
	}

	if long {
		stopPrice = entryPrice * (1 - distancePct/100)
	} else {
		stopPrice = entryPrice * (1 + distancePct/100)
	}

	return StopPlan{
		Price:       stopPrice,
		Method:      method,
		DistancePct: distancePct,
	}
}

// CalculateTrailingStop returns an ATR trail off the current price.
// For longs it never drops below entry once invoked, so a trailed
// position cannot give back into a loss.
func CalculateTrailingStop(signalType analysis.SignalType, entryPrice, currentPrice, atr float64) float64 {
	if signalType == analysis.SignalSell {
		stop := currentPrice + atr*trailingStopMultiplier
		if stop > entryPrice {
			stop = entryPrice
		}
		return stop
	}
	stop := currentPrice - atr*trailingStopMultiplier
	if stop < entryPrice {
		stop = entryPrice
	}
	return stop
}
