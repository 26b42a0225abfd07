package execution

import (
	"github.com/rs/zerolog"
)

// Sizing parameters.
const (
	maxNotionalPct    = 10.0
	riskTolerancePct  = 1.2
	minConfidenceMult = 0.5
)

// SizingResult is the computed position size for one trade.
type SizingResult struct {
	Quantity       int     `json:"quantity"`
	PositionValue  float64 `json:"position_value"`
	RiskAmount     float64 `json:"risk_amount"`
	RiskPercent    float64 `json:"risk_percent"`
	ConfidenceMult float64 `json:"confidence_mult"`
	Valid          bool    `json:"valid"`
	Reason         string  `json:"reason,omitempty"`
}

// QuantityCalculator sizes trades from a fixed fractional risk budget,
// scaled down by signal confidence and capped at a notional limit.
type QuantityCalculator struct {
	riskPerTradePct float64
	logger          zerolog.Logger
}

func NewQuantityCalculator(riskPerTradePct float64, logger zerolog.Logger) *QuantityCalculator {
	return &QuantityCalculator{
		riskPerTradePct: riskPerTradePct,
		logger:          logger.With().Str("component", "quantity_calculator").Logger(),
	}
}

// Calculate sizes the trade. The confidence multiplier maps confidence
// 0-100 onto 0.5-1.0 of the risk budget. Quantity truncates to whole
// shares, the notional cap resizes when breached, and the realized
// risk must stay within 1.2x of the budget.
func (q *QuantityCalculator) Calculate(capital, entryPrice, stopPrice, confidence float64) SizingResult {
	riskPerShare := entryPrice - stopPrice
	if riskPerShare < 0 {
		riskPerShare = -riskPerShare
	}
	if riskPerShare <= 0 || entryPrice <= 0 || capital <= 0 {
		return SizingResult{Valid: false, Reason: "Invalid price inputs"}
	}

	baseRisk := capital * q.riskPerTradePct / 100

	confMult := confidence / 100
	if confMult < minConfidenceMult {
		confMult = minConfidenceMult
	}
	if confMult > 1.0 {
		confMult = 1.0
	}
	adjustedRisk := baseRisk * confMult

	quantity := int(adjustedRisk / riskPerShare)

	maxNotional := capital * maxNotionalPct / 100
	if float64(quantity)*entryPrice > maxNotional {
		quantity = int(maxNotional / entryPrice)
	}

	if quantity <= 0 {
		return SizingResult{Valid: false, Reason: "Insufficient capital for minimum position"}
	}

	actualRisk := float64(quantity) * riskPerShare
	actualRiskPct := actualRisk / capital * 100
	if actualRiskPct > q.riskPerTradePct*riskTolerancePct {
		return SizingResult{Valid: false, Reason: "Position risk exceeds tolerance"}
	}

	return SizingResult{
		Quantity:       quantity,
		PositionValue:  float64(quantity) * entryPrice,
		RiskAmount:     actualRisk,
		RiskPercent:    actualRiskPct,
		ConfidenceMult: confMult,
		Valid:          true,
	}
}
