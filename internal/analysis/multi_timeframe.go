package analysis

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"nse-trading-engine/internal/indicator"
	"nse-trading-engine/internal/market"
)

// MTFResult is the outcome of a higher/lower timeframe alignment check.
// HTF and LTF candle series are carried so downstream steps reuse the
// same data.
type MTFResult struct {
	Aligned          bool                `json:"aligned"`
	Direction        indicator.Direction `json:"direction"`
	Reason           string              `json:"reason"`
	HTFTrend         indicator.Direction `json:"htf_trend"`
	HTFStrength      float64             `json:"htf_strength"`
	LTFMomentumScore float64             `json:"ltf_momentum_score"`
	PriceAboveEMA50  bool                `json:"price_above_ema50"`
	PriceAboveEMA200 bool                `json:"price_above_ema200"`
	PriceAboveVWAP   bool                `json:"price_above_vwap"`

	HTFCandles []market.Candle `json:"-"`
	LTFCandles []market.Candle `json:"-"`
}

// MultiTimeframeAnalyzer cross-checks a higher timeframe trend against
// lower timeframe momentum.
type MultiTimeframeAnalyzer struct {
	provider  market.DataProvider
	engine    *indicator.Engine
	htfPeriod string
	ltfPeriod string
	logger    zerolog.Logger
}

// NewMultiTimeframeAnalyzer creates an analyzer over the given data
// provider. htfPeriod and ltfPeriod are the fetch lookback windows for
// the two timeframes.
func NewMultiTimeframeAnalyzer(provider market.DataProvider, htfPeriod, ltfPeriod string, logger zerolog.Logger) *MultiTimeframeAnalyzer {
	if htfPeriod == "" {
		htfPeriod = "5d"
	}
	if ltfPeriod == "" {
		ltfPeriod = "1d"
	}
	return &MultiTimeframeAnalyzer{
		provider:  provider,
		engine:    indicator.NewEngine(),
		htfPeriod: htfPeriod,
		ltfPeriod: ltfPeriod,
		logger:    logger.With().Str("component", "mtf_analyzer").Logger(),
	}
}

// Analyze fetches both timeframes and checks directional alignment:
// the higher timeframe trend must agree with lower timeframe momentum
// beyond +/-30, and price must sit on the matching side of the HTF
// EMA-50 and VWAP.
func (a *MultiTimeframeAnalyzer) Analyze(ctx context.Context, symbol, higherTF, lowerTF string) MTFResult {
	htfCandles, err := a.provider.FetchHistorical(ctx, symbol, a.htfPeriod, higherTF)
	if err != nil {
		a.logger.Error().Err(err).Str("symbol", symbol).Msg("HTF fetch failed")
	}
	ltfCandles, lerr := a.provider.FetchHistorical(ctx, symbol, a.ltfPeriod, lowerTF)
	if lerr != nil {
		a.logger.Error().Err(lerr).Str("symbol", symbol).Msg("LTF fetch failed")
	}

	if len(htfCandles) == 0 || len(ltfCandles) == 0 {
		return MTFResult{
			Aligned:   false,
			Direction: indicator.DirectionNeutral,
			Reason:    "Insufficient data",
			HTFTrend:  indicator.DirectionUnknown,
		}
	}

	htfCols := a.engine.Compute(htfCandles)
	htfTrend := indicator.AnalyzeTrend(htfCols)

	ltfCols := a.engine.Compute(ltfCandles)
	ltfMomentum := indicator.AnalyzeMomentum(ltfCols)

	htfLast := len(htfCandles) - 1
	htfClose := htfCandles[htfLast].Close
	priceAboveEMA50 := htfClose > htfCols.EMA[50][htfLast]
	priceAboveEMA200 := htfClose > htfCols.EMA[200][htfLast]
	priceAboveVWAP := htfClose > htfCols.VWAP[htfLast]

	aligned := false
	direction := indicator.DirectionNeutral
	var reasons []string

	switch {
	case htfTrend.Trend == indicator.DirectionBullish && ltfMomentum.Score > 30:
		if priceAboveEMA50 && priceAboveVWAP {
			aligned = true
			direction = indicator.DirectionBullish
			reasons = append(reasons, "HTF bullish trend + LTF bullish momentum")
			if priceAboveEMA200 {
				reasons = append(reasons, "Price above EMA-200")
			}
		} else {
			reasons = append(reasons, "Timeframe misalignment")
		}

	case htfTrend.Trend == indicator.DirectionBearish && ltfMomentum.Score < -30:
		if !priceAboveEMA50 && !priceAboveVWAP {
			aligned = true
			direction = indicator.DirectionBearish
			reasons = append(reasons, "HTF bearish trend + LTF bearish momentum")
		} else {
			reasons = append(reasons, "Timeframe misalignment")
		}

	default:
		reasons = append(reasons, "Timeframe misalignment")
	}

	reason := strings.Join(reasons, " | ")
	if reason == "" {
		reason = "No clear alignment"
	}

	return MTFResult{
		Aligned:          aligned,
		Direction:        direction,
		Reason:           reason,
		HTFTrend:         htfTrend.Trend,
		HTFStrength:      htfTrend.Strength,
		LTFMomentumScore: ltfMomentum.Score,
		PriceAboveEMA50:  priceAboveEMA50,
		PriceAboveEMA200: priceAboveEMA200,
		PriceAboveVWAP:   priceAboveVWAP,
		HTFCandles:       htfCandles,
		LTFCandles:       ltfCandles,
	}
}
