package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooClient fetches NSE candles from the Yahoo Finance chart API.
// NSE symbols are suffixed with ".NS" before querying.
type YahooClient struct {
	baseURL    string
	nseSuffix  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewYahooClient creates a data provider backed by the Yahoo chart API.
func NewYahooClient(logger zerolog.Logger) *YahooClient {
	return &YahooClient{
		baseURL:   defaultChartBaseURL,
		nseSuffix: ".NS",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With().Str("component", "yahoo_client").Logger(),
	}
}

// chartResponse mirrors the subset of the Yahoo chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) addSuffix(symbol string) string {
	if strings.HasSuffix(symbol, c.nseSuffix) {
		return symbol
	}
	return symbol + c.nseSuffix
}

// FetchHistorical fetches OHLCV candles for the given period and interval.
// Returns nil candles without error when the provider has no data.
func (c *YahooClient) FetchHistorical(ctx context.Context, symbol, period, interval string) ([]Candle, error) {
	ticker := c.addSuffix(symbol)

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(ticker), url.Values{
		"range":    {period},
		"interval": {interval},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building chart request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching chart for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s: status %d", ticker, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding chart response for %s: %w", ticker, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", ticker, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		c.logger.Warn().Str("symbol", ticker).Msg("No chart data returned")
		return nil, nil
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		// Drop incomplete and zero-volume rows, matching upstream cleaning
		if quote.Open[i] == 0 || quote.Close[i] == 0 || quote.Volume[i] == 0 {
			continue
		}
		candles = append(candles, Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      quote.Open[i],
			High:      quote.High[i],
			Low:       quote.Low[i],
			Close:     quote.Close[i],
			Volume:    quote.Volume[i],
		})
	}

	if len(candles) == 0 {
		return nil, nil
	}

	c.logger.Debug().
		Str("symbol", ticker).
		Str("interval", interval).
		Int("candles", len(candles)).
		Msg("Fetched historical candles")

	return candles, nil
}

// GetCurrentPrice returns the latest market price for a symbol.
func (c *YahooClient) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	candles, err := c.FetchHistorical(ctx, symbol, "1d", "1m")
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, fmt.Errorf("no price data for %s", symbol)
	}
	return candles[len(candles)-1].Close, nil
}
