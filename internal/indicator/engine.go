package indicator

import (
	"nse-trading-engine/internal/market"
)

// Default periods used across the pipeline.
const (
	RSIPeriod        = 14
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignalPeriod = 9
	StochKPeriod     = 14
	StochDPeriod     = 3
	ATRPeriod        = 14
	BollingerPeriod  = 20
	BollingerStdDev  = 2.0
	ADXPeriod        = 14
)

// EMAPeriods are the default EMA spans computed by the engine.
var EMAPeriods = []int{9, 21, 50, 200}

// ColumnSet holds every derived indicator series for one candle
// series. Slices are index-aligned with the source candles.
type ColumnSet struct {
	Candles []market.Candle

	EMA  map[int][]float64
	VWAP []float64

	RSI        []float64
	MACDLine   []float64
	MACDSignal []float64
	MACDHist   []float64
	StochK     []float64
	StochD     []float64

	ATR         []float64
	BBMiddle    []float64
	BBUpper     []float64
	BBLower     []float64
	BBBandwidth []float64

	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// Engine computes the full indicator column set for a candle series.
// It is stateless; one instance can be shared freely.
type Engine struct {
	emaPeriods []int
}

// NewEngine creates an indicator engine with the default EMA spans.
func NewEngine() *Engine {
	return &Engine{emaPeriods: EMAPeriods}
}

// Compute derives every indicator column from the candle series.
func (e *Engine) Compute(candles []market.Candle) *ColumnSet {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	cols := &ColumnSet{
		Candles: candles,
		EMA:     make(map[int][]float64, len(e.emaPeriods)),
	}

	for _, period := range e.emaPeriods {
		cols.EMA[period] = EMASeries(closes, period)
	}
	cols.VWAP = VWAPSeries(candles, true)

	cols.RSI = RSISeries(closes, RSIPeriod)
	cols.MACDLine, cols.MACDSignal, cols.MACDHist = MACDSeries(closes, MACDFast, MACDSlow, MACDSignalPeriod)
	cols.StochK, cols.StochD = StochasticSeries(candles, StochKPeriod, StochDPeriod)

	cols.ATR = ATRSeries(candles, ATRPeriod)
	cols.BBMiddle, cols.BBUpper, cols.BBLower, cols.BBBandwidth = BollingerSeries(closes, BollingerPeriod, BollingerStdDev)

	cols.ADX, cols.PlusDI, cols.MinusDI = ADXSeries(candles, ADXPeriod)

	return cols
}

// Last returns the final value of a column, or 0 when the series is
// empty or still warming up.
func Last(series []float64) float64 {
	if v, ok := lastValid(series); ok {
		return v
	}
	return 0
}

// At returns series[i], or 0 when out of range.
func At(series []float64, i int) float64 {
	if i < 0 || i >= len(series) {
		return 0
	}
	return series[i]
}
