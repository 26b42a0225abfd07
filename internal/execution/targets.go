package execution

import (
	"github.com/rs/zerolog"

	"nse-trading-engine/internal/analysis"
	"nse-trading-engine/internal/indicator"
	"nse-trading-engine/internal/market"
)

// Booking percentages across the three-tier ladder.
var targetBookPcts = [3]float64{50, 30, 20}

// Final tier risk multiple.
const finalTargetMultiple = 3.0

// TargetTier is one rung of the profit-taking ladder.
type TargetTier struct {
	Price      float64 `json:"price"`
	RiskReward float64 `json:"risk_reward"`
	BookPct    float64 `json:"book_pct"`
	Action     string  `json:"action"`
	Basis      string  `json:"basis"` // MEASURED or STRUCTURE
}

// TargetCalculator builds the tiered target ladder: first tier at 1R
// or a nearby swing level, second at the minimum risk-reward multiple,
// third at 3R with a trailing stop taking over.
type TargetCalculator struct {
	minRiskReward float64
	logger        zerolog.Logger
}

func NewTargetCalculator(minRiskReward float64, logger zerolog.Logger) *TargetCalculator {
	return &TargetCalculator{
		minRiskReward: minRiskReward,
		logger:        logger.With().Str("component", "target_calculator").Logger(),
	}
}

// Calculate returns the three-tier ladder. The first tier snaps to the
// nearest swing level when one sits between entry and 2R, otherwise it
// stays at the measured 1R move.
func (t *TargetCalculator) Calculate(signalType analysis.SignalType, entryPrice, stopPrice float64,
	candles []market.Candle) []TargetTier {

	risk := entryPrice - stopPrice
	if signalType == analysis.SignalSell {
		risk = stopPrice - entryPrice
	}
	if risk <= 0 {
		return nil
	}

	long := signalType != analysis.SignalSell
	sign := 1.0
	if !long {
		sign = -1.0
	}

	t1Price := entryPrice + sign*risk
	t1Basis := "MEASURED"
	outerBound := entryPrice + sign*risk*2

	for _, level := range indicator.SwingTargets(candles, entryPrice, long) {
		if long && level > entryPrice && level <= outerBound {
			t1Price = level
			t1Basis = "STRUCTURE"
			break
		}
		if !long && level < entryPrice && level >= outerBound {
			t1Price = level
			t1Basis = "STRUCTURE"
			break
		}
	}

	tiers := []TargetTier{
		{
			Price:      t1Price,
			RiskReward: sign * (t1Price - entryPrice) / risk,
			BookPct:    targetBookPcts[0],
			Action:     "PARTIAL_EXIT",
			Basis:      t1Basis,
		},
		{
			Price:      entryPrice + sign*risk*t.minRiskReward,
			RiskReward: t.minRiskReward,
			BookPct:    targetBookPcts[1],
			Action:     "PARTIAL_EXIT",
			Basis:      "MEASURED",
		},
		{
			Price:      entryPrice + sign*risk*finalTargetMultiple,
			RiskReward: finalTargetMultiple,
			BookPct:    targetBookPcts[2],
			Action:     "TRAIL_STOP",
			Basis:      "MEASURED",
		},
	}
	return tiers
}

// ShouldTrailStop reports whether the position has enough open profit
// (1%) to start trailing the stop.
func ShouldTrailStop(signalType analysis.SignalType, entryPrice, currentPrice float64) bool {
	if entryPrice <= 0 {
		return false
	}
	profitPct := (currentPrice - entryPrice) / entryPrice * 100
	if signalType == analysis.SignalSell {
		profitPct = (entryPrice - currentPrice) / entryPrice * 100
	}
	return profitPct >= 1.0
}
