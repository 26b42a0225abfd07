package analysis

import (
	"time"

	"nse-trading-engine/internal/confluence"
	"nse-trading-engine/internal/indicator"
	"nse-trading-engine/internal/regime"
)

// SignalType is the directional outcome of signal generation.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// IndicatorSummary is the condensed indicator state captured on a
// signal for reasoning and persistence.
type IndicatorSummary struct {
	Trend      indicator.TrendAnalysis      `json:"trend"`
	Momentum   indicator.MomentumAnalysis   `json:"momentum"`
	Volatility indicator.VolatilityAnalysis `json:"volatility"`
	Structure  indicator.StructureAnalysis  `json:"structure"`
	Confluence confluence.Result            `json:"confluence"`
}

// Signal is a candidate trade signal. It is never mutated after
// creation.
type Signal struct {
	Symbol     string            `json:"symbol"`
	Timeframe  string            `json:"timeframe"`
	Timestamp  time.Time         `json:"timestamp"`
	Type       SignalType        `json:"signal_type"`
	Confidence float64           `json:"confidence"`
	Regime     regime.Regime     `json:"regime"`
	EntryPrice float64           `json:"entry_price"`
	StopLoss   float64           `json:"stop_loss"`
	Targets    []float64         `json:"targets"`
	RiskReward float64           `json:"risk_reward"`
	Reasoning  string            `json:"reasoning"`
	Indicators IndicatorSummary  `json:"indicators"`
	Scores     confluence.Scores `json:"layer_scores"`
}

// Validity is the outcome of re-checking a live signal against fresh
// data.
type Validity struct {
	Valid  bool    `json:"valid"`
	Reason string  `json:"reason"`
	Score  float64 `json:"current_confluence,omitempty"`
}
