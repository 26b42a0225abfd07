package market

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"
)

// MockClient generates deterministic synthetic candles for development
// and tests. The same symbol always yields the same series.
type MockClient struct {
	symbols []string
}

// NewMockClient creates a mock data provider.
func NewMockClient() *MockClient {
	return &MockClient{symbols: nifty50}
}

func symbolSeed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return int64(h.Sum64())
}

// FetchHistorical generates a synthetic trending random-walk series.
func (m *MockClient) FetchHistorical(_ context.Context, symbol, period, interval string) ([]Candle, error) {
	n := candleCountFor(period, interval)
	rng := rand.New(rand.NewSource(symbolSeed(symbol)))

	base := 100.0 + rng.Float64()*900.0
	drift := (rng.Float64() - 0.45) * 0.002
	step := intervalDuration(interval)
	start := time.Date(2025, 1, 1, 9, 15, 0, 0, time.UTC)

	candles := make([]Candle, 0, n)
	price := base
	for i := 0; i < n; i++ {
		change := price * (drift + (rng.Float64()-0.5)*0.01)
		open := price
		close := price + change
		high := maxFloat(open, close) * (1 + rng.Float64()*0.003)
		low := minFloat(open, close) * (1 - rng.Float64()*0.003)
		volume := 50000 + rng.Float64()*200000

		candles = append(candles, Candle{
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})
		price = close
	}

	return candles, nil
}

// GetCurrentPrice returns the last synthetic close for the symbol.
func (m *MockClient) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	candles, err := m.FetchHistorical(ctx, symbol, "1d", "5m")
	if err != nil {
		return 0, err
	}
	return candles[len(candles)-1].Close, nil
}

// GetAllSymbols returns the mock symbol universe.
func (m *MockClient) GetAllSymbols(_ context.Context) ([]string, error) {
	out := make([]string, len(m.symbols))
	copy(out, m.symbols)
	return out, nil
}

func candleCountFor(period, interval string) int {
	// Enough candles for the 200-bar minimum regardless of inputs
	switch period {
	case "1d":
		return 250
	case "5d":
		return 300
	default:
		return 400
	}
}

func intervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return 5 * time.Minute
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
