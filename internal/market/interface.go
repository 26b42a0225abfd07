package market

import "context"

// DataProvider supplies historical candles and live prices for a symbol.
type DataProvider interface {
	FetchHistorical(ctx context.Context, symbol, period, interval string) ([]Candle, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// SymbolProvider supplies the tradable symbol universe for scan-all flows.
type SymbolProvider interface {
	GetAllSymbols(ctx context.Context) ([]string, error)
}

// Cache stores candle series keyed by symbol and interval with an
// interval-dependent TTL.
type Cache interface {
	Get(ctx context.Context, symbol, interval string) ([]Candle, bool)
	Set(ctx context.Context, symbol, interval string, candles []Candle)
}

// CandleStore persists fetched candles for later analysis.
type CandleStore interface {
	UpsertCandles(ctx context.Context, symbol, timeframe string, candles []Candle) error
}

// Ensure implementations satisfy the contracts
var _ DataProvider = (*YahooClient)(nil)
var _ DataProvider = (*MockClient)(nil)
var _ SymbolProvider = (*StaticSymbolProvider)(nil)
var _ SymbolProvider = (*MockClient)(nil)
