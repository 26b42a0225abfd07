package market

import "context"

// nifty50 is the default scan universe when no symbol file is configured.
var nifty50 = []string{
	"RELIANCE", "TCS", "HDFCBANK", "ICICIBANK", "INFY",
	"HINDUNILVR", "ITC", "SBIN", "BHARTIARTL", "KOTAKBANK",
	"LT", "AXISBANK", "ASIANPAINT", "MARUTI", "TITAN",
	"BAJFINANCE", "SUNPHARMA", "NESTLEIND", "ULTRACEMCO", "WIPRO",
	"ONGC", "NTPC", "POWERGRID", "M&M", "TATAMOTORS",
	"TATASTEEL", "JSWSTEEL", "ADANIENT", "ADANIPORTS", "COALINDIA",
	"HCLTECH", "TECHM", "BAJAJFINSV", "DRREDDY", "CIPLA",
	"DIVISLAB", "GRASIM", "BRITANNIA", "EICHERMOT", "HEROMOTOCO",
	"BAJAJ-AUTO", "APOLLOHOSP", "HINDALCO", "INDUSINDBK", "SBILIFE",
	"HDFCLIFE", "TATACONSUM", "UPL", "BPCL", "LTIM",
}

// StaticSymbolProvider serves a fixed symbol universe.
type StaticSymbolProvider struct {
	symbols []string
}

// NewStaticSymbolProvider returns a provider over the given symbols,
// defaulting to the NIFTY 50 universe when none are supplied.
func NewStaticSymbolProvider(symbols []string) *StaticSymbolProvider {
	if len(symbols) == 0 {
		symbols = nifty50
	}
	return &StaticSymbolProvider{symbols: symbols}
}

// GetAllSymbols returns the configured universe in a stable order.
func (p *StaticSymbolProvider) GetAllSymbols(_ context.Context) ([]string, error) {
	out := make([]string, len(p.symbols))
	copy(out, p.symbols)
	return out, nil
}
