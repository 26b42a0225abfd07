package portfolio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PositionType is the direction of an open position.
type PositionType string

const (
	PositionLong  PositionType = "LONG"
	PositionShort PositionType = "SHORT"
)

// Trade status values used for persistence.
const (
	TradeStatusOpen   = "OPEN"
	TradeStatusClosed = "CLOSED"
)

var ErrPositionNotFound = errors.New("position not found")

// Position is one open position. At most one position exists per
// symbol.
type Position struct {
	TradeID       int64        `json:"trade_id"`
	Symbol        string       `json:"symbol"`
	Type          PositionType `json:"position_type"`
	Quantity      int          `json:"quantity"`
	EntryPrice    float64      `json:"entry_price"`
	CurrentPrice  float64      `json:"current_price"`
	StopLoss      float64      `json:"stop_loss"`
	Target        float64      `json:"target"`
	Investment    float64      `json:"investment"`
	UnrealizedPnL float64      `json:"unrealized_pnl"`
	EntryTime     time.Time    `json:"entry_time"`
}

// TradeRecord mirrors a persisted trade row.
type TradeRecord struct {
	ID             int64
	SignalID       int64
	Symbol         string
	PositionType   PositionType
	Quantity       int
	EntryPrice     float64
	ExitPrice      float64
	StopLoss       float64
	Target         float64
	Status         string
	PnL            float64
	PnLPercent     float64
	EntryTimestamp time.Time
	ExitTimestamp  time.Time
}

// Snapshot is one persisted point-in-time portfolio state.
type Snapshot struct {
	Timestamp        time.Time
	TotalCapital     float64
	InvestedCapital  float64
	AvailableCapital float64
	UnrealizedPnL    float64
	RealizedPnL      float64
	TotalPnL         float64
	Drawdown         float64
	OpenPositions    int
}

// Store persists trades and portfolio snapshots. A nil Store leaves
// the portfolio purely in-memory.
type Store interface {
	InsertTrade(ctx context.Context, trade TradeRecord) (int64, error)
	UpdateTradeExit(ctx context.Context, tradeID int64, exitPrice, pnl, pnlPercent float64, status string) error
	GetOpenTrades(ctx context.Context, symbol string) ([]TradeRecord, error)
	InsertSnapshot(ctx context.Context, snapshot Snapshot) error
}

// TradeResult is returned when a position closes.
type TradeResult struct {
	Symbol        string        `json:"symbol"`
	Type          PositionType  `json:"position_type"`
	Quantity      int           `json:"quantity"`
	EntryPrice    float64       `json:"entry_price"`
	ExitPrice     float64       `json:"exit_price"`
	PnL           float64       `json:"pnl"`
	PnLPercent    float64       `json:"pnl_percent"`
	HoldingPeriod time.Duration `json:"holding_period"`
	Reason        string        `json:"reason"`
}

// Summary is the externally visible portfolio snapshot.
type Summary struct {
	TotalCapital     float64    `json:"total_capital"`
	InitialCapital   float64    `json:"initial_capital"`
	AvailableCapital float64    `json:"available_capital"`
	InvestedCapital  float64    `json:"invested_capital"`
	UnrealizedPnL    float64    `json:"unrealized_pnl"`
	RealizedPnL      float64    `json:"realized_pnl"`
	TotalPnL         float64    `json:"total_pnl"`
	TotalReturnPct   float64    `json:"total_return_pct"`
	CurrentDrawdown  float64    `json:"current_drawdown"`
	MaxDrawdown      float64    `json:"max_drawdown"`
	OpenPositions    int        `json:"open_positions"`
	Positions        []Position `json:"positions"`
}

// State is the capital ledger and open-position registry. Every
// mutation holds the mutex so the invariant
// available + invested + unrealized == total survives concurrent
// scan and execution paths.
type State struct {
	mu sync.RWMutex

	initialCapital   float64
	totalCapital     float64
	investedCapital  float64
	availableCapital float64
	unrealizedPnL    float64
	realizedPnL      float64

	positions map[string]*Position

	peakCapital     float64
	currentDrawdown float64
	maxDrawdown     float64

	store  Store
	logger zerolog.Logger
}

// NewState creates a portfolio with the given starting capital. When a
// store is supplied, open trades are reloaded into the position
// registry.
func NewState(initialCapital float64, store Store, logger zerolog.Logger) *State {
	s := &State{
		initialCapital:   initialCapital,
		totalCapital:     initialCapital,
		availableCapital: initialCapital,
		positions:        make(map[string]*Position),
		peakCapital:      initialCapital,
		store:            store,
		logger:           logger.With().Str("component", "portfolio").Logger(),
	}
	s.loadFromStore()
	return s
}

func (s *State) loadFromStore() {
	if s.store == nil {
		return
	}

	trades, err := s.store.GetOpenTrades(context.Background(), "")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load open positions from store")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range trades {
		investment := t.EntryPrice * float64(t.Quantity)
		s.positions[t.Symbol] = &Position{
			TradeID:      t.ID,
			Symbol:       t.Symbol,
			Type:         t.PositionType,
			Quantity:     t.Quantity,
			EntryPrice:   t.EntryPrice,
			CurrentPrice: t.EntryPrice,
			StopLoss:     t.StopLoss,
			Target:       t.Target,
			Investment:   investment,
			EntryTime:    t.EntryTimestamp,
		}
		s.investedCapital += investment
		s.availableCapital -= investment
	}
}

// AddPosition opens a position and moves capital from available to
// invested. Returns false on a duplicate symbol, capital shortfall or
// persistence failure; the ledger is untouched in every failure case.
func (s *State) AddPosition(ctx context.Context, symbol string, posType PositionType,
	quantity int, entryPrice, stopLoss, target float64) bool {

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.positions[symbol]; exists {
		s.logger.Warn().Str("symbol", symbol).Msg("Position already exists")
		return false
	}

	investment := float64(quantity) * entryPrice
	if investment > s.availableCapital {
		s.logger.Error().Str("symbol", symbol).Msg("Insufficient capital for position")
		return false
	}

	var tradeID int64
	if s.store != nil {
		var err error
		tradeID, err = s.store.InsertTrade(ctx, TradeRecord{
			Symbol:         symbol,
			PositionType:   posType,
			Quantity:       quantity,
			EntryPrice:     entryPrice,
			StopLoss:       stopLoss,
			Target:         target,
			Status:         TradeStatusOpen,
			EntryTimestamp: time.Now(),
		})
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist trade")
			return false
		}
	}

	s.positions[symbol] = &Position{
		TradeID:      tradeID,
		Symbol:       symbol,
		Type:         posType,
		Quantity:     quantity,
		EntryPrice:   entryPrice,
		CurrentPrice: entryPrice,
		StopLoss:     stopLoss,
		Target:       target,
		Investment:   investment,
		EntryTime:    time.Now(),
	}

	s.availableCapital -= investment
	s.investedCapital += investment

	s.logger.Info().
		Str("symbol", symbol).
		Str("type", string(posType)).
		Int("quantity", quantity).
		Float64("entry_price", entryPrice).
		Msg("Position added")

	return true
}

// UpdatePositionPrice refreshes a position's mark price and unrealized
// P&L, and manages the protective stop: break-even once the first
// target trades, then a dynamic trail once the move exceeds 2%. The
// stop only ever tightens.
func (s *State) UpdatePositionPrice(symbol string, currentPrice float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, ok := s.positions[symbol]
	if !ok {
		return
	}

	position.CurrentPrice = currentPrice
	if position.Type == PositionLong {
		position.UnrealizedPnL = (currentPrice - position.EntryPrice) * float64(position.Quantity)
	} else {
		position.UnrealizedPnL = (position.EntryPrice - currentPrice) * float64(position.Quantity)
	}

	if position.StopLoss == 0 {
		return
	}

	if position.Type == PositionLong {
		if position.Target > 0 && currentPrice >= position.Target && position.StopLoss < position.EntryPrice {
			position.StopLoss = position.EntryPrice
			s.logger.Info().Str("symbol", symbol).Float64("stop", position.StopLoss).Msg("Stop moved to break-even")
		}
		gainPct := (currentPrice - position.EntryPrice) / position.EntryPrice * 100
		if gainPct > 2.0 {
			newStop := currentPrice * 0.985
			if newStop > position.StopLoss {
				position.StopLoss = newStop
			}
		}
	} else {
		if position.Target > 0 && currentPrice <= position.Target && position.StopLoss > position.EntryPrice {
			position.StopLoss = position.EntryPrice
			s.logger.Info().Str("symbol", symbol).Float64("stop", position.StopLoss).Msg("Stop moved to break-even")
		}
		gainPct := (position.EntryPrice - currentPrice) / position.EntryPrice * 100
		if gainPct > 2.0 {
			newStop := currentPrice * 1.015
			if newStop < position.StopLoss {
				position.StopLoss = newStop
			}
		}
	}
}

// UpdateAllPositions applies price updates for every symbol present in
// the map.
func (s *State) UpdateAllPositions(prices map[string]float64) {
	s.mu.RLock()
	symbols := make([]string, 0, len(s.positions))
	for symbol := range s.positions {
		symbols = append(symbols, symbol)
	}
	s.mu.RUnlock()

	for _, symbol := range symbols {
		if price, ok := prices[symbol]; ok {
			s.UpdatePositionPrice(symbol, price)
		}
	}
}

// ClosePosition realizes the position's P&L, returns capital to the
// ledger and removes the position.
func (s *State) ClosePosition(ctx context.Context, symbol string, exitPrice float64, reason string) (*TradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, ok := s.positions[symbol]
	if !ok {
		return nil, ErrPositionNotFound
	}

	var pnl float64
	if position.Type == PositionLong {
		pnl = (exitPrice - position.EntryPrice) * float64(position.Quantity)
	} else {
		pnl = (position.EntryPrice - exitPrice) * float64(position.Quantity)
	}
	pnlPercent := pnl / position.Investment * 100

	if s.store != nil && position.TradeID != 0 {
		if err := s.store.UpdateTradeExit(ctx, position.TradeID, exitPrice, pnl, pnlPercent, TradeStatusClosed); err != nil {
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist trade exit")
		}
	}

	proceeds := position.Investment + pnl
	s.availableCapital += proceeds
	s.investedCapital -= position.Investment
	s.realizedPnL += pnl

	result := &TradeResult{
		Symbol:        symbol,
		Type:          position.Type,
		Quantity:      position.Quantity,
		EntryPrice:    position.EntryPrice,
		ExitPrice:     exitPrice,
		PnL:           pnl,
		PnLPercent:    pnlPercent,
		HoldingPeriod: time.Since(position.EntryTime),
		Reason:        reason,
	}

	delete(s.positions, symbol)

	s.logger.Info().
		Str("symbol", symbol).
		Float64("pnl", pnl).
		Float64("pnl_percent", pnlPercent).
		Str("reason", reason).
		Msg("Position closed")

	return result, nil
}

// calculateTotalsLocked recomputes unrealized P&L, total capital and
// drawdown. Caller must hold the write lock.
func (s *State) calculateTotalsLocked() {
	s.unrealizedPnL = 0
	for _, position := range s.positions {
		s.unrealizedPnL += position.UnrealizedPnL
	}

	s.totalCapital = s.availableCapital + s.investedCapital + s.unrealizedPnL

	if s.totalCapital > s.peakCapital {
		s.peakCapital = s.totalCapital
	}
	if s.peakCapital > 0 {
		s.currentDrawdown = (s.peakCapital - s.totalCapital) / s.peakCapital * 100
		if s.currentDrawdown > s.maxDrawdown {
			s.maxDrawdown = s.currentDrawdown
		}
	}
}

// TotalCapital returns the marked total portfolio value.
func (s *State) TotalCapital() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateTotalsLocked()
	return s.totalCapital
}

// AvailableCapital returns the uncommitted capital.
func (s *State) AvailableCapital() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availableCapital
}

// OpenPositionCount returns the number of open positions.
func (s *State) OpenPositionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

// HasPosition reports whether a position exists for the symbol.
func (s *State) HasPosition(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.positions[symbol]
	return ok
}

// GetPosition returns a copy of the position for the symbol.
func (s *State) GetPosition(symbol string) (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	position, ok := s.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *position, true
}

// GetSummary recomputes totals and returns the portfolio summary.
func (s *State) GetSummary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calculateTotalsLocked()

	positions := make([]Position, 0, len(s.positions))
	for _, position := range s.positions {
		positions = append(positions, *position)
	}

	totalPnL := s.realizedPnL + s.unrealizedPnL
	return Summary{
		TotalCapital:     s.totalCapital,
		InitialCapital:   s.initialCapital,
		AvailableCapital: s.availableCapital,
		InvestedCapital:  s.investedCapital,
		UnrealizedPnL:    s.unrealizedPnL,
		RealizedPnL:      s.realizedPnL,
		TotalPnL:         totalPnL,
		TotalReturnPct:   totalPnL / s.initialCapital * 100,
		CurrentDrawdown:  s.currentDrawdown,
		MaxDrawdown:      s.maxDrawdown,
		OpenPositions:    len(positions),
		Positions:        positions,
	}
}

// SaveSnapshot persists the current portfolio state.
func (s *State) SaveSnapshot(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	s.mu.Lock()
	s.calculateTotalsLocked()
	snapshot := Snapshot{
		Timestamp:        time.Now(),
		TotalCapital:     s.totalCapital,
		InvestedCapital:  s.investedCapital,
		AvailableCapital: s.availableCapital,
		UnrealizedPnL:    s.unrealizedPnL,
		RealizedPnL:      s.realizedPnL,
		TotalPnL:         s.realizedPnL + s.unrealizedPnL,
		Drawdown:         s.currentDrawdown,
		OpenPositions:    len(s.positions),
	}
	s.mu.Unlock()

	return s.store.InsertSnapshot(ctx, snapshot)
}
