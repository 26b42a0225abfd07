package portfolio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RiskLimits configures the portfolio-level risk gates.
type RiskLimits struct {
	MaxRiskPerTradePct  float64 `json:"max_risk_per_trade_pct"`
	MaxDailyLossPct     float64 `json:"max_daily_loss_pct"`
	MaxOpenPositions    int     `json:"max_open_positions"`
	MaxTradesPerSymbol  int     `json:"max_trades_per_symbol"`
	MaxPositionValuePct float64 `json:"max_position_value_pct"`
}

// DefaultRiskLimits returns the stock defaults.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxRiskPerTradePct:  1.0,
		MaxDailyLossPct:     3.0,
		MaxOpenPositions:    8,
		MaxTradesPerSymbol:  3,
		MaxPositionValuePct: 10.0,
	}
}

// SizeCheck is the risk manager's independent sizing opinion.
type SizeCheck struct {
	Quantity      int     `json:"quantity"`
	PositionValue float64 `json:"position_value"`
	RiskAmount    float64 `json:"risk_amount"`
	Valid         bool    `json:"valid"`
	Reason        string  `json:"reason,omitempty"`
}

// RiskManager enforces daily loss limits, position count limits and
// per-symbol trade frequency. The daily-loss halt is sticky for the
// rest of the trading day even if the portfolio recovers.
type RiskManager struct {
	mu sync.Mutex

	limits RiskLimits

	dayStartCapital float64
	currentDay      string
	tradingHalted   bool
	tradesBySymbol  map[string]int

	now    func() time.Time
	logger zerolog.Logger
}

// NewRiskManager creates a risk manager. dayStartCapital seeds the
// daily loss baseline.
func NewRiskManager(limits RiskLimits, dayStartCapital float64, logger zerolog.Logger) *RiskManager {
	rm := &RiskManager{
		limits:          limits,
		dayStartCapital: dayStartCapital,
		tradesBySymbol:  make(map[string]int),
		now:             time.Now,
		logger:          logger.With().Str("component", "risk_manager").Logger(),
	}
	rm.currentDay = rm.now().Format("2006-01-02")
	return rm
}

// resetDailyCountersLocked rolls the daily baseline forward when the
// calendar date changes. Caller must hold the mutex.
func (rm *RiskManager) resetDailyCountersLocked(currentCapital float64) {
	today := rm.now().Format("2006-01-02")
	if today == rm.currentDay {
		return
	}
	rm.currentDay = today
	rm.dayStartCapital = currentCapital
	rm.tradingHalted = false
	rm.tradesBySymbol = make(map[string]int)
	rm.logger.Info().Str("date", today).Float64("day_start_capital", currentCapital).Msg("Daily risk counters reset")
}

// CheckDailyLossLimit reports whether trading may continue. Once the
// daily loss breaches the limit, the halt persists until the next day.
func (rm *RiskManager) CheckDailyLossLimit(currentCapital float64) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.resetDailyCountersLocked(currentCapital)

	if rm.tradingHalted {
		return false
	}

	if rm.dayStartCapital <= 0 {
		return true
	}

	lossPct := (rm.dayStartCapital - currentCapital) / rm.dayStartCapital * 100
	if lossPct >= rm.limits.MaxDailyLossPct {
		rm.tradingHalted = true
		rm.logger.Warn().
			Float64("loss_pct", lossPct).
			Float64("limit_pct", rm.limits.MaxDailyLossPct).
			Msg("Daily loss limit breached, trading halted")
		return false
	}
	return true
}

// CheckMaxPositions reports whether another position may be opened.
func (rm *RiskManager) CheckMaxPositions(openPositions int) bool {
	return openPositions < rm.limits.MaxOpenPositions
}

// CheckSymbolFrequency reports whether the symbol is still under its
// daily trade count limit.
func (rm *RiskManager) CheckSymbolFrequency(symbol string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.tradesBySymbol[symbol] < rm.limits.MaxTradesPerSymbol
}

// RecordTrade counts an executed trade against the symbol's daily
// frequency limit.
func (rm *RiskManager) RecordTrade(symbol string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.tradesBySymbol[symbol]++
}

// CalculatePositionSize produces the risk manager's own position size
// from entry, stop and confidence. The execution path sizes trades
// separately; this is the independent check used by ValidateTrade.
func (rm *RiskManager) CalculatePositionSize(totalCapital, availableCapital, entryPrice, stopLoss, confidence float64) SizeCheck {
	riskPerShare := entryPrice - stopLoss
	if riskPerShare < 0 {
		riskPerShare = -riskPerShare
	}
	if riskPerShare <= 0 || entryPrice <= 0 {
		return SizeCheck{Valid: false, Reason: "Invalid entry or stop price"}
	}

	baseRisk := totalCapital * rm.limits.MaxRiskPerTradePct / 100
	confMult := 0.5 + (confidence/100)*0.5
	adjustedRisk := baseRisk * confMult

	quantity := int(adjustedRisk / riskPerShare)
	if quantity <= 0 {
		return SizeCheck{Valid: false, Reason: "Risk budget too small for one share"}
	}

	maxValue := totalCapital * rm.limits.MaxPositionValuePct / 100
	if float64(quantity)*entryPrice > maxValue {
		quantity = int(maxValue / entryPrice)
	}
	if float64(quantity)*entryPrice > availableCapital {
		quantity = int(availableCapital / entryPrice)
	}
	if quantity <= 0 {
		return SizeCheck{Valid: false, Reason: "Insufficient available capital"}
	}

	return SizeCheck{
		Quantity:      quantity,
		PositionValue: float64(quantity) * entryPrice,
		RiskAmount:    float64(quantity) * riskPerShare,
		Valid:         true,
	}
}

// ValidateTrade runs every pre-trade gate in order: daily loss halt,
// symbol exposure, open position count, per-symbol frequency, then
// sizing sanity. hasPosition reports whether the portfolio already
// holds the symbol; one position per symbol is the rule.
func (rm *RiskManager) ValidateTrade(symbol string, totalCapital, availableCapital float64,
	openPositions int, hasPosition bool, entryPrice, stopLoss, confidence float64) (bool, string) {

	if !rm.CheckDailyLossLimit(totalCapital) {
		return false, "Daily loss limit reached, trading halted"
	}
	if hasPosition {
		return false, fmt.Sprintf("Position already open for %s", symbol)
	}
	if !rm.CheckMaxPositions(openPositions) {
		return false, fmt.Sprintf("Maximum open positions reached (%d)", rm.limits.MaxOpenPositions)
	}
	if !rm.CheckSymbolFrequency(symbol) {
		return false, fmt.Sprintf("Maximum daily trades for %s reached (%d)", symbol, rm.limits.MaxTradesPerSymbol)
	}

	check := rm.CalculatePositionSize(totalCapital, availableCapital, entryPrice, stopLoss, confidence)
	if !check.Valid {
		return false, check.Reason
	}
	return true, ""
}

// TradingHalted reports whether the sticky daily halt is active.
func (rm *RiskManager) TradingHalted() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.tradingHalted
}
