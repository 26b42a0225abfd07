package scanner

import (
	"time"

	"nse-trading-engine/internal/execution"
)

// Config controls the scan loop.
type Config struct {
	Enabled      bool          `json:"enabled"`
	ScanInterval time.Duration `json:"scan_interval"`
	WorkerCount  int           `json:"worker_count"`
	HigherTF     string        `json:"higher_timeframe"`
	LowerTF      string        `json:"lower_timeframe"`
}

// SymbolResult is one symbol's outcome within a scan.
type SymbolResult struct {
	Symbol     string                `json:"symbol"`
	Action     execution.Action      `json:"action"`
	Confidence float64               `json:"confidence,omitempty"`
	HoldReason string                `json:"hold_reason,omitempty"`
	Order      *execution.TradeOrder `json:"order,omitempty"`
	Duration   time.Duration         `json:"duration"`
}

// ScanResult is the aggregate outcome of one full scan cycle.
type ScanResult struct {
	ScanID       string         `json:"scan_id"`
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"duration"`
	SymbolCount  int            `json:"symbol_count"`
	SignalsFound int            `json:"signals_found"`
	Results      []SymbolResult `json:"results"`
}
