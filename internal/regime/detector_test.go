package regime

import (
	"testing"

	"github.com/rs/zerolog"

	"nse-trading-engine/internal/indicator"
	"nse-trading-engine/internal/market"
)

func testColumns(candleCount int, adx float64) *indicator.ColumnSet {
	adxSeries := make([]float64, candleCount)
	for i := range adxSeries {
		adxSeries[i] = adx
	}
	return &indicator.ColumnSet{
		Candles: make([]market.Candle, candleCount),
		ADX:     adxSeries,
	}
}

func TestDetectInsufficientData(t *testing.T) {
	d := NewDetector(nil, zerolog.Nop())

	cls := d.Detect(testColumns(30, 35), indicator.TrendAnalysis{}, indicator.VolatilityAnalysis{})
	if cls.Regime != RegimeUnknown {
		t.Errorf("expected UNKNOWN with 30 candles, got %s", cls.Regime)
	}
	if cls.Confidence != 0 {
		t.Errorf("expected zero confidence, got %f", cls.Confidence)
	}
	// Safe default is the trend profile.
	if len(cls.Weights) != 4 {
		t.Errorf("expected fallback weight profile, got %v", cls.Weights)
	}

	cls = d.Detect(nil, indicator.TrendAnalysis{}, indicator.VolatilityAnalysis{})
	if cls.Regime != RegimeUnknown {
		t.Errorf("nil columns should classify UNKNOWN, got %s", cls.Regime)
	}
}

func TestDetectStrongTrend(t *testing.T) {
	d := NewDetector(nil, zerolog.Nop())

	cls := d.Detect(testColumns(100, 45), indicator.TrendAnalysis{}, indicator.VolatilityAnalysis{ATRPercentile: 50})
	if cls.Regime != RegimeTrend {
		t.Errorf("ADX 45 should classify TREND, got %s", cls.Regime)
	}
	if cls.Confidence != 90 {
		t.Errorf("expected confidence 90, got %f", cls.Confidence)
	}
}

func TestDetectModerateTrendWithAlignment(t *testing.T) {
	d := NewDetector(nil, zerolog.Nop())
	cols := testColumns(100, 30)

	cls := d.Detect(cols, indicator.TrendAnalysis{EMAAlignment: true}, indicator.VolatilityAnalysis{ATRPercentile: 50})
	if cls.Regime != RegimeTrend || cls.Confidence != 75 {
		t.Errorf("aligned moderate trend should be TREND/75, got %s/%f", cls.Regime, cls.Confidence)
	}

	cls = d.Detect(cols, indicator.TrendAnalysis{EMAAlignment: false}, indicator.VolatilityAnalysis{ATRPercentile: 50})
	if cls.Regime != RegimeTrend || cls.Confidence != 60 {
		t.Errorf("unaligned moderate trend should be TREND/60, got %s/%f", cls.Regime, cls.Confidence)
	}
}

func TestDetectHighVolatilityTakesPriority(t *testing.T) {
	d := NewDetector(nil, zerolog.Nop())

	// Extreme ATR percentile wins even with a strong ADX trend.
	cls := d.Detect(testColumns(100, 45), indicator.TrendAnalysis{}, indicator.VolatilityAnalysis{ATRPercentile: 85})
	if cls.Regime != RegimeHighVolatility {
		t.Errorf("ATR percentile 85 should classify HIGH_VOLATILITY, got %s", cls.Regime)
	}
	if cls.Confidence != 75 {
		t.Errorf("expected confidence 75, got %f", cls.Confidence)
	}
}

func TestDetectRange(t *testing.T) {
	d := NewDetector(nil, zerolog.Nop())

	cls := d.Detect(testColumns(100, 15), indicator.TrendAnalysis{}, indicator.VolatilityAnalysis{ATRPercentile: 50})
	if cls.Regime != RegimeRange || cls.Confidence != 70 {
		t.Errorf("ADX 15 should classify RANGE/70, got %s/%f", cls.Regime, cls.Confidence)
	}

	// Squeeze forces RANGE even with ADX in the dead zone.
	cls = d.Detect(testColumns(100, 22), indicator.TrendAnalysis{}, indicator.VolatilityAnalysis{ATRPercentile: 50, BBSqueeze: true})
	if cls.Regime != RegimeRange {
		t.Errorf("squeeze should classify RANGE, got %s", cls.Regime)
	}
}

func TestDetectWeakTrendFallback(t *testing.T) {
	d := NewDetector(nil, zerolog.Nop())

	cls := d.Detect(testColumns(100, 22), indicator.TrendAnalysis{}, indicator.VolatilityAnalysis{ATRPercentile: 50})
	if cls.Regime != RegimeTrend || cls.Confidence != 40 {
		t.Errorf("ADX 22 without squeeze should fall back to TREND/40, got %s/%f", cls.Regime, cls.Confidence)
	}
}

func TestDetectCarriesVolatilityContext(t *testing.T) {
	d := NewDetector(nil, zerolog.Nop())

	cls := d.Detect(testColumns(100, 45),
		indicator.TrendAnalysis{Strength: 82},
		indicator.VolatilityAnalysis{ATRPercentile: 60, BBSqueeze: false})
	if cls.ADX != 45 {
		t.Errorf("expected ADX 45 carried through, got %f", cls.ADX)
	}
	if cls.ATRPercentile != 60 {
		t.Errorf("expected ATR percentile 60, got %f", cls.ATRPercentile)
	}
	if cls.TrendStrength != 82 {
		t.Errorf("expected trend strength 82, got %f", cls.TrendStrength)
	}
}
