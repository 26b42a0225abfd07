package regime

import (
	"github.com/rs/zerolog"

	"nse-trading-engine/internal/confluence"
	"nse-trading-engine/internal/indicator"
)

// Regime classifies the broad market condition.
type Regime string

const (
	RegimeTrend          Regime = "TREND"
	RegimeRange          Regime = "RANGE"
	RegimeHighVolatility Regime = "HIGH_VOLATILITY"
	RegimeUnknown        Regime = "UNKNOWN"
)

// ADX thresholds for regime classification.
const (
	trendThreshold       = 25.0
	strongTrendThreshold = 40.0
	rangeThreshold       = 20.0
)

// Classification is the detector output: regime, confidence and the
// weight profile handed to the confluence calculator.
type Classification struct {
	Regime        Regime             `json:"regime"`
	Confidence    float64            `json:"confidence"`
	ADX           float64            `json:"adx"`
	Weights       confluence.Weights `json:"weights"`
	ATRPercentile float64            `json:"atr_percentile"`
	BBSqueeze     bool               `json:"bb_squeeze"`
	TrendStrength float64            `json:"trend_strength"`
}

// Detector classifies the market regime from ADX and the trend and
// volatility layer analyses.
type Detector struct {
	profiles WeightProfiles
	logger   zerolog.Logger
}

// NewDetector creates a regime detector with the given weight profiles.
func NewDetector(profiles WeightProfiles, logger zerolog.Logger) *Detector {
	if profiles == nil {
		profiles = DefaultWeightProfiles()
	}
	return &Detector{
		profiles: profiles,
		logger:   logger.With().Str("component", "regime_detector").Logger(),
	}
}

// Detect classifies the current regime. Priority order, first match
// wins: extreme ATR percentile, strong ADX trend, moderate ADX trend
// (confidence raised by EMA alignment), low ADX or squeeze range, then
// a low-confidence trend fallback. Fewer than 50 candles yields
// UNKNOWN with zero confidence and the trend weights as a safe default.
func (d *Detector) Detect(cols *indicator.ColumnSet, trend indicator.TrendAnalysis, volatility indicator.VolatilityAnalysis) Classification {
	if cols == nil || len(cols.Candles) < 50 {
		return Classification{
			Regime:     RegimeUnknown,
			Confidence: 0,
			Weights:    d.profiles[RegimeTrend],
		}
	}

	adx := indicator.Last(cols.ADX)

	var regime Regime
	var confidence float64

	switch {
	case volatility.ATRPercentile > 80:
		regime = RegimeHighVolatility
		confidence = 75

	case adx > strongTrendThreshold:
		regime = RegimeTrend
		confidence = 90

	case adx > trendThreshold:
		regime = RegimeTrend
		confidence = 60
		if trend.EMAAlignment {
			confidence = 75
		}

	case adx < rangeThreshold || volatility.BBSqueeze:
		regime = RegimeRange
		confidence = 70

	default:
		regime = RegimeTrend
		confidence = 40
	}

	weights, ok := d.profiles[regime]
	if !ok {
		weights = d.profiles[RegimeTrend]
	}

	d.logger.Debug().
		Str("regime", string(regime)).
		Float64("confidence", confidence).
		Float64("adx", adx).
		Msg("Regime classified")

	return Classification{
		Regime:        regime,
		Confidence:    confidence,
		ADX:           adx,
		Weights:       weights,
		ATRPercentile: volatility.ATRPercentile,
		BBSqueeze:     volatility.BBSqueeze,
		TrendStrength: trend.Strength,
	}
}
