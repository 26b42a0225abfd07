package execution

import (
	"time"

	"nse-trading-engine/internal/analysis"
	"nse-trading-engine/internal/regime"
)

// Action discriminates the engine's decision outcomes.
type Action string

const (
	ActionExecute Action = "EXECUTE"
	ActionHold    Action = "HOLD"
)

// Decision is the outcome of one engine evaluation: either a
// TradeOrder or a HoldDecision.
type Decision interface {
	DecisionAction() Action
}

// HoldDecision carries the reason no trade was produced.
type HoldDecision struct {
	Action    Action    `json:"action"`
	Symbol    string    `json:"symbol"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func (HoldDecision) DecisionAction() Action { return ActionHold }

// NewHold builds a hold decision with the current timestamp.
func NewHold(symbol, reason string) HoldDecision {
	return HoldDecision{
		Action:    ActionHold,
		Symbol:    symbol,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// TradeOrder is a fully specified, risk-approved trade ready for
// execution.
type TradeOrder struct {
	Action     Action              `json:"action"`
	TradeID    string              `json:"trade_id"`
	Symbol     string              `json:"symbol"`
	Signal     analysis.SignalType `json:"signal_type"`
	Confidence float64             `json:"confidence"`
	Regime     regime.Regime       `json:"regime"`

	Entry    EntrySetup   `json:"entry"`
	Stop     StopPlan     `json:"stop"`
	Targets  []TargetTier `json:"targets"`
	Quantity int          `json:"quantity"`

	PositionValue float64 `json:"position_value"`
	RiskAmount    float64 `json:"risk_amount"`
	RiskPercent   float64 `json:"risk_percent"`
	RiskReward    float64 `json:"risk_reward"`

	Reasoning string    `json:"reasoning"`
	Timestamp time.Time `json:"timestamp"`
}

func (TradeOrder) DecisionAction() Action { return ActionExecute }
