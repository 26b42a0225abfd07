package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	EngineConfig    EngineConfig    `json:"engine"`
	RiskConfig      RiskConfig      `json:"risk"`
	DataConfig      DataConfig      `json:"data"`
	PortfolioConfig PortfolioConfig `json:"portfolio"`
	ScannerConfig   ScannerConfig   `json:"scanner"`
	ServerConfig    ServerConfig    `json:"server"`
	DatabaseConfig  DatabaseConfig  `json:"database"`
	RedisConfig     RedisConfig     `json:"redis"`
	LoggingConfig   LoggingConfig   `json:"logging"`
}

// EngineConfig holds the decision engine gates and weight profile
// source.
type EngineConfig struct {
	MinConfidence   float64 `json:"min_confidence"`    // Minimum signal confidence (0-100)
	MinRiskReward   float64 `json:"min_risk_reward"`   // Minimum risk-reward multiple
	SignalCooldown  int     `json:"signal_cooldown"`   // Seconds between signals per symbol/timeframe
	HigherTimeframe string  `json:"higher_timeframe"`  // e.g., "1h"
	LowerTimeframe  string  `json:"lower_timeframe"`   // e.g., "15m"
	WeightsFile     string  `json:"weights_file"`      // YAML regime weight profiles, empty = defaults
}

// RiskConfig holds the portfolio risk limits.
type RiskConfig struct {
	MaxRiskPerTradePct  float64 `json:"max_risk_per_trade_pct"`  // Percentage of capital risked per trade
	MaxDailyLossPct     float64 `json:"max_daily_loss_pct"`      // Daily loss percentage that halts trading
	MaxOpenPositions    int     `json:"max_open_positions"`      // Maximum concurrent positions
	MaxTradesPerSymbol  int     `json:"max_trades_per_symbol"`   // Per-symbol daily trade limit
	MaxPositionValuePct float64 `json:"max_position_value_pct"`  // Notional cap per position
}

// DataConfig holds market data source settings.
type DataConfig struct {
	MockMode bool `json:"mock_mode"` // Use simulated data when the market API is unavailable
}

// PortfolioConfig holds the capital ledger settings.
type PortfolioConfig struct {
	InitialCapital   float64 `json:"initial_capital"`
	SnapshotInterval int     `json:"snapshot_interval"` // Seconds between persisted snapshots
}

type ScannerConfig struct {
	Enabled      bool `json:"enabled"`       // Enable/disable scanner
	ScanInterval int  `json:"scan_interval"` // Seconds between scans
	WorkerCount  int  `json:"worker_count"`  // Concurrent worker count
}

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	ProductionMode bool   `json:"production_mode"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig holds Redis configuration for candle caching
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	JSONFormat bool   `json:"json_format"` // JSON output vs console writer
}

func Load() (*Config, error) {
	// First try to load base config from file
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// If no config file, start with empty config
		cfg = &Config{}
	}

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	// Engine config
	cfg.EngineConfig.MinConfidence = getEnvFloatOrDefault("ENGINE_MIN_CONFIDENCE", defaultFloat(cfg.EngineConfig.MinConfidence, 60))
	cfg.EngineConfig.MinRiskReward = getEnvFloatOrDefault("ENGINE_MIN_RISK_REWARD", defaultFloat(cfg.EngineConfig.MinRiskReward, 2.0))
	cfg.EngineConfig.SignalCooldown = getEnvIntOrDefault("ENGINE_SIGNAL_COOLDOWN", defaultInt(cfg.EngineConfig.SignalCooldown, 300))
	cfg.EngineConfig.HigherTimeframe = getEnvOrDefault("ENGINE_HIGHER_TIMEFRAME", defaultString(cfg.EngineConfig.HigherTimeframe, "1h"))
	cfg.EngineConfig.LowerTimeframe = getEnvOrDefault("ENGINE_LOWER_TIMEFRAME", defaultString(cfg.EngineConfig.LowerTimeframe, "15m"))
	cfg.EngineConfig.WeightsFile = getEnvOrDefault("ENGINE_WEIGHTS_FILE", cfg.EngineConfig.WeightsFile)

	// Risk config
	cfg.RiskConfig.MaxRiskPerTradePct = getEnvFloatOrDefault("RISK_MAX_PER_TRADE_PCT", defaultFloat(cfg.RiskConfig.MaxRiskPerTradePct, 1.0))
	cfg.RiskConfig.MaxDailyLossPct = getEnvFloatOrDefault("RISK_MAX_DAILY_LOSS_PCT", defaultFloat(cfg.RiskConfig.MaxDailyLossPct, 3.0))
	cfg.RiskConfig.MaxOpenPositions = getEnvIntOrDefault("RISK_MAX_OPEN_POSITIONS", defaultInt(cfg.RiskConfig.MaxOpenPositions, 8))
	cfg.RiskConfig.MaxTradesPerSymbol = getEnvIntOrDefault("RISK_MAX_TRADES_PER_SYMBOL", defaultInt(cfg.RiskConfig.MaxTradesPerSymbol, 3))
	cfg.RiskConfig.MaxPositionValuePct = getEnvFloatOrDefault("RISK_MAX_POSITION_VALUE_PCT", defaultFloat(cfg.RiskConfig.MaxPositionValuePct, 10.0))

	// Data config
	cfg.DataConfig.MockMode = getEnvOrDefault("MOCK_MODE", "false") == "true"

	// Portfolio config
	cfg.PortfolioConfig.InitialCapital = getEnvFloatOrDefault("PORTFOLIO_INITIAL_CAPITAL", defaultFloat(cfg.PortfolioConfig.InitialCapital, 1000000))
	cfg.PortfolioConfig.SnapshotInterval = getEnvIntOrDefault("PORTFOLIO_SNAPSHOT_INTERVAL", defaultInt(cfg.PortfolioConfig.SnapshotInterval, 300))

	// Scanner config
	cfg.ScannerConfig.Enabled = getEnvOrDefault("SCANNER_ENABLED", "true") == "true"
	cfg.ScannerConfig.ScanInterval = getEnvIntOrDefault("SCANNER_SCAN_INTERVAL", defaultInt(cfg.ScannerConfig.ScanInterval, 300))
	cfg.ScannerConfig.WorkerCount = getEnvIntOrDefault("SCANNER_WORKER_COUNT", defaultInt(cfg.ScannerConfig.WorkerCount, 8))

	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", defaultInt(cfg.ServerConfig.Port, 8080))
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", defaultString(cfg.ServerConfig.Host, "0.0.0.0"))
	cfg.ServerConfig.ProductionMode = getEnvOrDefault("SERVER_PRODUCTION_MODE", "false") == "true"

	// Database config
	if os.Getenv("DB_ENABLED") != "" {
		cfg.DatabaseConfig.Enabled = os.Getenv("DB_ENABLED") == "true"
	}
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", defaultString(cfg.DatabaseConfig.Host, "localhost"))
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", defaultInt(cfg.DatabaseConfig.Port, 5432))
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", defaultString(cfg.DatabaseConfig.User, "postgres"))
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", defaultString(cfg.DatabaseConfig.Database, "nse_trading"))
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSLMODE", defaultString(cfg.DatabaseConfig.SSLMode, "disable"))

	// Redis config
	if os.Getenv("REDIS_ENABLED") != "" {
		cfg.RedisConfig.Enabled = os.Getenv("REDIS_ENABLED") == "true"
	}
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDR", defaultString(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", defaultInt(cfg.RedisConfig.PoolSize, 10))

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", defaultString(cfg.LoggingConfig.Level, "info"))
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", "true") == "true"
}

// SignalCooldownDuration returns the cooldown as a time.Duration.
func (c *EngineConfig) SignalCooldownDuration() time.Duration {
	return time.Duration(c.SignalCooldown) * time.Second
}

// ScanIntervalDuration returns the scan interval as a time.Duration.
func (c *ScannerConfig) ScanIntervalDuration() time.Duration {
	return time.Duration(c.ScanInterval) * time.Second
}

func loadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func defaultFloat(value, fallback float64) float64 {
	if value == 0 {
		return fallback
	}
	return value
}

// GenerateSampleConfig creates a sample configuration file
func GenerateSampleConfig(filename string) error {
	config := Config{
		EngineConfig: EngineConfig{
			MinConfidence:   60,
			MinRiskReward:   2.0,
			SignalCooldown:  300,
			HigherTimeframe: "1h",
			LowerTimeframe:  "15m",
			WeightsFile:     "weights.yaml",
		},
		RiskConfig: RiskConfig{
			MaxRiskPerTradePct:  1.0,
			MaxDailyLossPct:     3.0,
			MaxOpenPositions:    8,
			MaxTradesPerSymbol:  3,
			MaxPositionValuePct: 10.0,
		},
		DataConfig: DataConfig{
			MockMode: false,
		},
		PortfolioConfig: PortfolioConfig{
			InitialCapital:   1000000,
			SnapshotInterval: 300,
		},
		ScannerConfig: ScannerConfig{
			Enabled:      true,
			ScanInterval: 300,
			WorkerCount:  8,
		},
		ServerConfig: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ProductionMode: false,
		},
		DatabaseConfig: DatabaseConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "",
			Database: "nse_trading",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Enabled:  false,
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
		},
		LoggingConfig: LoggingConfig{
			Level:      "info",
			JSONFormat: true,
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
