package execution

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nse-trading-engine/internal/analysis"
)

// Stage is a trade's position in its lifecycle.
type Stage string

const (
	StageSignalGenerated Stage = "SIGNAL_GENERATED"
	StageValidated       Stage = "VALIDATED"
	StageEntryPending    Stage = "ENTRY_PENDING"
	StageEntered         Stage = "ENTERED"
	StageMonitoring      Stage = "MONITORING"
	StagePartialExit1    Stage = "PARTIAL_EXIT_1"
	StagePartialExit2    Stage = "PARTIAL_EXIT_2"
	StageTrailing        Stage = "TRAILING"
	StageExited          Stage = "EXITED"
	StageRejected        Stage = "REJECTED"
)

var (
	ErrTradeNotFound    = errors.New("trade not found")
	ErrInvalidStage     = errors.New("invalid stage transition")
	ErrUnknownExitLevel = errors.New("unknown partial exit level")
)

// StageChange is one entry in a trade's stage history.
type StageChange struct {
	Stage     Stage     `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// Trade is a managed trade moving through the lifecycle. Mutations go
// through the manager, which serializes access.
type Trade struct {
	ID            string              `json:"trade_id"`
	Symbol        string              `json:"symbol"`
	Signal        analysis.SignalType `json:"signal_type"`
	Stage         Stage               `json:"stage"`
	Quantity      int                 `json:"quantity"`
	RemainingQty  int                 `json:"remaining_qty"`
	EntryPrice    float64             `json:"entry_price"`
	CurrentPrice  float64             `json:"current_price"`
	StopLoss      float64             `json:"stop_loss"`
	Targets       []TargetTier        `json:"targets"`
	HighestPrice  float64             `json:"highest_price"`
	LowestPrice   float64             `json:"lowest_price"`
	UnrealizedPnL float64             `json:"unrealized_pnl"`
	ExitPrice     float64             `json:"exit_price,omitempty"`
	RealizedPnL   float64             `json:"realized_pnl"`
	CreatedAt     time.Time           `json:"created_at"`
	EnteredAt     time.Time           `json:"entered_at,omitempty"`
	ExitedAt      time.Time           `json:"exited_at,omitempty"`
	StageHistory  []StageChange       `json:"stage_history"`
}

func (t *Trade) setStage(stage Stage, note string) {
	t.Stage = stage
	t.StageHistory = append(t.StageHistory, StageChange{
		Stage:     stage,
		Timestamp: time.Now(),
		Note:      note,
	})
}

// inMonitoring reports whether the trade is in a stage where live
// price updates apply.
func (t *Trade) inMonitoring() bool {
	switch t.Stage {
	case StageMonitoring, StagePartialExit1, StagePartialExit2, StageTrailing:
		return true
	}
	return false
}

// LifecycleManager tracks every trade from signal to exit and assigns
// monotonic trade ids.
type LifecycleManager struct {
	mu sync.Mutex

	active  map[string]*Trade
	closed  []*Trade
	counter int

	logger zerolog.Logger
}

func NewLifecycleManager(logger zerolog.Logger) *LifecycleManager {
	return &LifecycleManager{
		active: make(map[string]*Trade),
		logger: logger.With().Str("component", "trade_lifecycle").Logger(),
	}
}

// CreateTrade registers a new trade at SIGNAL_GENERATED and returns
// its id.
func (m *LifecycleManager) CreateTrade(symbol string, signalType analysis.SignalType,
	quantity int, entryPrice, stopLoss float64, targets []TargetTier) string {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	id := fmt.Sprintf("T%05d", m.counter)

	trade := &Trade{
		ID:           id,
		Symbol:       symbol,
		Signal:       signalType,
		Quantity:     quantity,
		RemainingQty: quantity,
		EntryPrice:   entryPrice,
		CurrentPrice: entryPrice,
		StopLoss:     stopLoss,
		Targets:      targets,
		CreatedAt:    time.Now(),
	}
	trade.setStage(StageSignalGenerated, "Signal generated")
	m.active[id] = trade

	m.logger.Info().Str("trade_id", id).Str("symbol", symbol).Msg("Trade created")
	return id
}

// Validate moves a freshly created trade to VALIDATED.
func (m *LifecycleManager) Validate(tradeID string) error {
	return m.transition(tradeID, StageSignalGenerated, StageValidated, "Risk checks passed")
}

// MarkEntryPending moves a validated trade to ENTRY_PENDING.
func (m *LifecycleManager) MarkEntryPending(tradeID string) error {
	return m.transition(tradeID, StageValidated, StageEntryPending, "Awaiting fill")
}

// EnterTrade records the fill and moves the trade through ENTERED into
// MONITORING. Any pre-entry stage may enter directly; the validation
// and pending stages are optional refinements.
func (m *LifecycleManager) EnterTrade(tradeID string, fillPrice float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trade, ok := m.active[tradeID]
	if !ok {
		return ErrTradeNotFound
	}
	switch trade.Stage {
	case StageSignalGenerated, StageValidated, StageEntryPending:
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStage, trade.Stage, StageEntered)
	}

	trade.EntryPrice = fillPrice
	trade.CurrentPrice = fillPrice
	trade.HighestPrice = fillPrice
	trade.LowestPrice = fillPrice
	trade.EnteredAt = time.Now()
	trade.setStage(StageEntered, fmt.Sprintf("Filled at %.2f", fillPrice))
	trade.setStage(StageMonitoring, "Position under management")

	m.logger.Info().Str("trade_id", tradeID).Float64("fill_price", fillPrice).Msg("Trade entered")
	return nil
}

// UpdateCurrentPrice applies a live price to a trade, maintaining the
// running price extremes and the unrealized P&L on the remaining
// quantity. Ignored outside the monitoring stages.
func (m *LifecycleManager) UpdateCurrentPrice(tradeID string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	trade, ok := m.active[tradeID]
	if !ok || !trade.inMonitoring() {
		return
	}
	trade.CurrentPrice = price
	if price > trade.HighestPrice {
		trade.HighestPrice = price
	}
	if trade.LowestPrice == 0 || price < trade.LowestPrice {
		trade.LowestPrice = price
	}
	trade.markUnrealizedLocked(price)
}

// markUnrealizedLocked recomputes unrealized P&L on the remaining
// quantity. Caller must hold the mutex.
func (t *Trade) markUnrealizedLocked(price float64) {
	if t.Signal == analysis.SignalSell {
		t.UnrealizedPnL = (t.EntryPrice - price) * float64(t.RemainingQty)
	} else {
		t.UnrealizedPnL = (price - t.EntryPrice) * float64(t.RemainingQty)
	}
}

// UpdateStopLoss tightens the trade's stop. Ignored outside the
// monitoring stages.
func (m *LifecycleManager) UpdateStopLoss(tradeID string, stop float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	trade, ok := m.active[tradeID]
	if !ok || !trade.inMonitoring() {
		return
	}
	trade.StopLoss = stop
}

// PartialExit books profit at the given target level (1-based) and
// advances the stage accordingly.
func (m *LifecycleManager) PartialExit(tradeID string, level int, exitPrice float64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trade, ok := m.active[tradeID]
	if !ok {
		return ErrTradeNotFound
	}
	if !trade.inMonitoring() {
		return fmt.Errorf("%w: partial exit from %s", ErrInvalidStage, trade.Stage)
	}

	var next Stage
	switch level {
	case 1:
		next = StagePartialExit1
	case 2:
		next = StagePartialExit2
	case 3:
		next = StageTrailing
	default:
		return ErrUnknownExitLevel
	}

	if quantity > trade.RemainingQty {
		quantity = trade.RemainingQty
	}
	trade.RemainingQty -= quantity

	var pnl float64
	if trade.Signal == analysis.SignalSell {
		pnl = (trade.EntryPrice - exitPrice) * float64(quantity)
	} else {
		pnl = (exitPrice - trade.EntryPrice) * float64(quantity)
	}
	trade.RealizedPnL += pnl
	trade.CurrentPrice = exitPrice
	trade.markUnrealizedLocked(exitPrice)
	trade.setStage(next, fmt.Sprintf("Booked %d at %.2f", quantity, exitPrice))

	m.logger.Info().
		Str("trade_id", tradeID).
		Int("level", level).
		Int("quantity", quantity).
		Float64("pnl", pnl).
		Msg("Partial exit")
	return nil
}

// FinalExit closes out the remaining quantity and retires the trade to
// the closed list.
func (m *LifecycleManager) FinalExit(tradeID string, exitPrice float64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trade, ok := m.active[tradeID]
	if !ok {
		return ErrTradeNotFound
	}
	if !trade.inMonitoring() && trade.Stage != StageEntered {
		return fmt.Errorf("%w: final exit from %s", ErrInvalidStage, trade.Stage)
	}

	if trade.RemainingQty > 0 {
		var pnl float64
		if trade.Signal == analysis.SignalSell {
			pnl = (trade.EntryPrice - exitPrice) * float64(trade.RemainingQty)
		} else {
			pnl = (exitPrice - trade.EntryPrice) * float64(trade.RemainingQty)
		}
		trade.RealizedPnL += pnl
		trade.RemainingQty = 0
	}

	trade.ExitPrice = exitPrice
	trade.ExitedAt = time.Now()
	trade.CurrentPrice = exitPrice
	trade.UnrealizedPnL = 0
	trade.setStage(StageExited, reason)

	delete(m.active, tradeID)
	m.closed = append(m.closed, trade)

	m.logger.Info().
		Str("trade_id", tradeID).
		Float64("exit_price", exitPrice).
		Float64("realized_pnl", trade.RealizedPnL).
		Str("reason", reason).
		Msg("Trade exited")
	return nil
}

// Reject terminates a trade before entry.
func (m *LifecycleManager) Reject(tradeID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trade, ok := m.active[tradeID]
	if !ok {
		return ErrTradeNotFound
	}
	if trade.Stage == StageExited || trade.Stage == StageRejected {
		return fmt.Errorf("%w: reject from %s", ErrInvalidStage, trade.Stage)
	}

	trade.setStage(StageRejected, reason)
	delete(m.active, tradeID)
	m.closed = append(m.closed, trade)

	m.logger.Info().Str("trade_id", tradeID).Str("reason", reason).Msg("Trade rejected")
	return nil
}

func (m *LifecycleManager) transition(tradeID string, from, to Stage, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trade, ok := m.active[tradeID]
	if !ok {
		return ErrTradeNotFound
	}
	if trade.Stage != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStage, trade.Stage, to)
	}
	trade.setStage(to, note)
	return nil
}

// GetTrade returns a copy of the trade, searching active then closed.
func (m *LifecycleManager) GetTrade(tradeID string) (Trade, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if trade, ok := m.active[tradeID]; ok {
		return cloneTrade(trade), true
	}
	for _, trade := range m.closed {
		if trade.ID == tradeID {
			return cloneTrade(trade), true
		}
	}
	return Trade{}, false
}

// ActiveTrades returns copies of every active trade.
func (m *LifecycleManager) ActiveTrades() []Trade {
	m.mu.Lock()
	defer m.mu.Unlock()

	trades := make([]Trade, 0, len(m.active))
	for _, trade := range m.active {
		trades = append(trades, cloneTrade(trade))
	}
	return trades
}

// LifecycleSummary aggregates outcomes across exited trades.
type LifecycleSummary struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
	TotalPnL      float64 `json:"total_pnl"`
}

// PerformanceSummary computes win/loss statistics over exited trades.
// Rejected trades are excluded.
func (m *LifecycleManager) PerformanceSummary() LifecycleSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	var summary LifecycleSummary
	var winSum, lossSum float64

	for _, trade := range m.closed {
		if trade.Stage != StageExited {
			continue
		}
		summary.TotalTrades++
		summary.TotalPnL += trade.RealizedPnL

		if trade.RealizedPnL > 0 {
			summary.WinningTrades++
			winSum += trade.RealizedPnL
		} else {
			summary.LosingTrades++
			lossSum += trade.RealizedPnL
		}
		if summary.TotalTrades == 1 || trade.RealizedPnL > summary.BestTrade {
			summary.BestTrade = trade.RealizedPnL
		}
		if summary.TotalTrades == 1 || trade.RealizedPnL < summary.WorstTrade {
			summary.WorstTrade = trade.RealizedPnL
		}
	}

	if summary.TotalTrades > 0 {
		summary.WinRate = float64(summary.WinningTrades) / float64(summary.TotalTrades) * 100
	}
	if summary.WinningTrades > 0 {
		summary.AverageWin = winSum / float64(summary.WinningTrades)
	}
	if summary.LosingTrades > 0 {
		summary.AverageLoss = lossSum / float64(summary.LosingTrades)
	}
	return summary
}

func cloneTrade(t *Trade) Trade {
	clone := *t
	clone.StageHistory = append([]StageChange(nil), t.StageHistory...)
	clone.Targets = append([]TargetTier(nil), t.Targets...)
	return clone
}
