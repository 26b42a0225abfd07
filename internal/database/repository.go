package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nse-trading-engine/internal/analysis"
	"nse-trading-engine/internal/market"
	"nse-trading-engine/internal/portfolio"
)

// Repository provides persistence for candles, signals, trades and
// portfolio snapshots over the shared pool.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// Interface conformance for the packages this repository serves.
var (
	_ market.CandleStore = (*Repository)(nil)
	_ portfolio.Store    = (*Repository)(nil)
)

// ============================================================================
// CANDLES
// ============================================================================

// UpsertCandles stores a candle batch, replacing rows on the
// (symbol, timeframe, timestamp) key.
func (r *Repository) UpsertCandles(ctx context.Context, symbol, timeframe string, candles []market.Candle) error {
	for _, c := range candles {
		_, err := r.db.Pool.Exec(ctx, `
			INSERT INTO candles (symbol, timeframe, timestamp, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (symbol, timeframe, timestamp)
			DO UPDATE SET open = $4, high = $5, low = $6, close = $7, volume = $8`,
			symbol, timeframe, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert candle: %w", err)
		}
	}
	return nil
}

// GetCandles loads stored candles for a symbol and timeframe in
// ascending timestamp order.
func (r *Repository) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT timestamp, open, high, low, close, volume
		FROM (
			SELECT timestamp, open, high, low, close, volume
			FROM candles
			WHERE symbol = $1 AND timeframe = $2
			ORDER BY timestamp DESC
			LIMIT $3
		) recent
		ORDER BY timestamp ASC`,
		symbol, timeframe, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []market.Candle
	for rows.Next() {
		var c market.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// ============================================================================
// SIGNALS
// ============================================================================

// InsertSignal persists a generated signal and returns its id.
func (r *Repository) InsertSignal(ctx context.Context, signal *analysis.Signal) (int64, error) {
	targets, err := json.Marshal(signal.Targets)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal targets: %w", err)
	}
	indicators, err := json.Marshal(signal.Indicators)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal indicators: %w", err)
	}

	var id int64
	err = r.db.Pool.QueryRow(ctx, `
		INSERT INTO signals (symbol, timeframe, timestamp, signal_type, confidence,
			regime, entry_price, stop_loss, targets, risk_reward, reasoning, indicators)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		signal.Symbol, signal.Timeframe, signal.Timestamp, string(signal.Type),
		signal.Confidence, string(signal.Regime), signal.EntryPrice, signal.StopLoss,
		targets, signal.RiskReward, signal.Reasoning, indicators,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert signal: %w", err)
	}
	return id, nil
}

// SignalRow is a persisted signal summary returned to API consumers.
type SignalRow struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Timestamp  time.Time `json:"timestamp"`
	SignalType string    `json:"signal_type"`
	Confidence float64   `json:"confidence"`
	Regime     string    `json:"regime"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss"`
	RiskReward float64   `json:"risk_reward"`
	Reasoning  string    `json:"reasoning"`
}

// GetRecentSignals returns the latest signals, newest first.
func (r *Repository) GetRecentSignals(ctx context.Context, limit int) ([]SignalRow, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, symbol, timeframe, timestamp, signal_type, confidence, regime,
			entry_price, COALESCE(stop_loss, 0), COALESCE(risk_reward, 0), COALESCE(reasoning, '')
		FROM signals
		ORDER BY timestamp DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []SignalRow
	for rows.Next() {
		var s SignalRow
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Timeframe, &s.Timestamp, &s.SignalType,
			&s.Confidence, &s.Regime, &s.EntryPrice, &s.StopLoss, &s.RiskReward, &s.Reasoning); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// ============================================================================
// TRADES
// ============================================================================

// InsertTrade persists a new open trade and returns its id.
func (r *Repository) InsertTrade(ctx context.Context, trade portfolio.TradeRecord) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO trades (signal_id, symbol, position_type, quantity, entry_price,
			stop_loss, target, status, entry_timestamp)
		VALUES (NULLIF($1, 0), $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		trade.SignalID, trade.Symbol, string(trade.PositionType), trade.Quantity,
		trade.EntryPrice, trade.StopLoss, trade.Target, trade.Status, trade.EntryTimestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade: %w", err)
	}
	return id, nil
}

// UpdateTradeExit records a trade's exit fill and final P&L.
func (r *Repository) UpdateTradeExit(ctx context.Context, tradeID int64, exitPrice, pnl, pnlPercent float64, status string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE trades
		SET exit_price = $1, pnl = $2, pnl_percent = $3, status = $4,
			exit_timestamp = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6`,
		exitPrice, pnl, pnlPercent, status, time.Now(), tradeID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade exit: %w", err)
	}
	return nil
}

// GetOpenTrades returns open trades, optionally filtered by symbol.
// An empty symbol matches all.
func (r *Repository) GetOpenTrades(ctx context.Context, symbol string) ([]portfolio.TradeRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, COALESCE(signal_id, 0), symbol, position_type, quantity,
			entry_price, COALESCE(stop_loss, 0), COALESCE(target, 0), status, entry_timestamp
		FROM trades
		WHERE status = 'OPEN' AND ($1 = '' OR symbol = $1)
		ORDER BY entry_timestamp ASC`,
		symbol,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query open trades: %w", err)
	}
	defer rows.Close()

	var trades []portfolio.TradeRecord
	for rows.Next() {
		var t portfolio.TradeRecord
		var posType string
		if err := rows.Scan(&t.ID, &t.SignalID, &t.Symbol, &posType, &t.Quantity,
			&t.EntryPrice, &t.StopLoss, &t.Target, &t.Status, &t.EntryTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.PositionType = portfolio.PositionType(posType)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetClosedTrades returns closed trades, newest exit first.
func (r *Repository) GetClosedTrades(ctx context.Context, limit int) ([]portfolio.TradeRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, COALESCE(signal_id, 0), symbol, position_type, quantity,
			entry_price, COALESCE(exit_price, 0), COALESCE(stop_loss, 0), COALESCE(target, 0),
			status, COALESCE(pnl, 0), COALESCE(pnl_percent, 0), entry_timestamp,
			COALESCE(exit_timestamp, entry_timestamp)
		FROM trades
		WHERE status = 'CLOSED'
		ORDER BY exit_timestamp DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades: %w", err)
	}
	defer rows.Close()

	var trades []portfolio.TradeRecord
	for rows.Next() {
		var t portfolio.TradeRecord
		var posType string
		if err := rows.Scan(&t.ID, &t.SignalID, &t.Symbol, &posType, &t.Quantity,
			&t.EntryPrice, &t.ExitPrice, &t.StopLoss, &t.Target, &t.Status,
			&t.PnL, &t.PnLPercent, &t.EntryTimestamp, &t.ExitTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.PositionType = portfolio.PositionType(posType)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// ============================================================================
// PORTFOLIO SNAPSHOTS
// ============================================================================

// InsertSnapshot persists a portfolio snapshot.
func (r *Repository) InsertSnapshot(ctx context.Context, snapshot portfolio.Snapshot) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO portfolio_snapshots (timestamp, total_capital, invested_capital,
			available_capital, unrealized_pnl, realized_pnl, total_pnl, drawdown, open_positions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		snapshot.Timestamp, snapshot.TotalCapital, snapshot.InvestedCapital,
		snapshot.AvailableCapital, snapshot.UnrealizedPnL, snapshot.RealizedPnL,
		snapshot.TotalPnL, snapshot.Drawdown, snapshot.OpenPositions,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// GetSnapshots returns the most recent snapshots in ascending time
// order.
func (r *Repository) GetSnapshots(ctx context.Context, limit int) ([]portfolio.Snapshot, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT timestamp, total_capital, invested_capital, available_capital,
			unrealized_pnl, realized_pnl, total_pnl, drawdown, open_positions
		FROM (
			SELECT * FROM portfolio_snapshots ORDER BY timestamp DESC LIMIT $1
		) recent
		ORDER BY timestamp ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []portfolio.Snapshot
	for rows.Next() {
		var s portfolio.Snapshot
		if err := rows.Scan(&s.Timestamp, &s.TotalCapital, &s.InvestedCapital,
			&s.AvailableCapital, &s.UnrealizedPnL, &s.RealizedPnL, &s.TotalPnL,
			&s.Drawdown, &s.OpenPositions); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
