package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Config holds database configuration
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// NewDB creates a new database connection
func NewDB(cfg Config, logger zerolog.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log := logger.With().Str("component", "database").Logger()
	log.Info().Str("database", cfg.Database).Msg("Connected to PostgreSQL")

	return &DB{Pool: pool, logger: log}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info().Msg("Database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	db.logger.Info().Msg("Running database migrations")

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			id SERIAL PRIMARY KEY,
			symbol VARCHAR(30) NOT NULL,
			timeframe VARCHAR(10) NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			open DECIMAL(20, 4) NOT NULL,
			high DECIMAL(20, 4) NOT NULL,
			low DECIMAL(20, 4) NOT NULL,
			close DECIMAL(20, 4) NOT NULL,
			volume DECIMAL(24, 2) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(symbol, timeframe, timestamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candles_symbol_tf ON candles(symbol, timeframe)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id SERIAL PRIMARY KEY,
			symbol VARCHAR(30) NOT NULL,
			timeframe VARCHAR(10) NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			signal_type VARCHAR(10) NOT NULL,
			confidence DECIMAL(6, 2) NOT NULL,
			regime VARCHAR(20) NOT NULL,
			entry_price DECIMAL(20, 4) NOT NULL,
			stop_loss DECIMAL(20, 4),
			targets JSONB,
			risk_reward DECIMAL(10, 4),
			reasoning TEXT,
			indicators JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_timestamp ON signals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id SERIAL PRIMARY KEY,
			signal_id INTEGER REFERENCES signals(id) ON DELETE SET NULL,
			symbol VARCHAR(30) NOT NULL,
			position_type VARCHAR(5) NOT NULL,
			quantity INTEGER NOT NULL,
			entry_price DECIMAL(20, 4) NOT NULL,
			exit_price DECIMAL(20, 4),
			stop_loss DECIMAL(20, 4),
			target DECIMAL(20, 4),
			status VARCHAR(10) NOT NULL DEFAULT 'OPEN',
			pnl DECIMAL(20, 4),
			pnl_percent DECIMAL(10, 4),
			entry_timestamp TIMESTAMP NOT NULL,
			exit_timestamp TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status)`,

		`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
			id SERIAL PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			total_capital DECIMAL(20, 4) NOT NULL,
			invested_capital DECIMAL(20, 4) NOT NULL,
			available_capital DECIMAL(20, 4) NOT NULL,
			unrealized_pnl DECIMAL(20, 4) NOT NULL,
			realized_pnl DECIMAL(20, 4) NOT NULL,
			total_pnl DECIMAL(20, 4) NOT NULL,
			drawdown DECIMAL(10, 4) NOT NULL,
			open_positions INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON portfolio_snapshots(timestamp)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	db.logger.Info().Msg("Database migrations completed")
	return nil
}
