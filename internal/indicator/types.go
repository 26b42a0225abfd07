package indicator

// Direction labels the directional read of an analysis layer.
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"
	DirectionUnknown Direction = "UNKNOWN"
)

// TrendAnalysis summarizes the trend layer: EMA stack, VWAP side and
// 50/200 crossover events.
type TrendAnalysis struct {
	Trend        Direction `json:"trend"`
	Strength     float64   `json:"strength"`
	EMAAlignment bool      `json:"ema_alignment"`
	PriceVsVWAP  string    `json:"price_vs_vwap"` // ABOVE, BELOW, NEUTRAL
	GoldenCross  bool      `json:"golden_cross"`
	DeathCross   bool      `json:"death_cross"`
}

// MomentumAnalysis summarizes RSI, MACD and stochastic readings plus a
// composite momentum score in [-100, 100].
type MomentumAnalysis struct {
	RSISignal      string  `json:"rsi_signal"`
	RSIValue       float64 `json:"rsi_value"`
	MACDSignal     string  `json:"macd_signal"`
	MACDCrossover  bool    `json:"macd_crossover"`
	StochSignal    string  `json:"stoch_signal"`
	StochCrossover bool    `json:"stoch_crossover"`
	Score          float64 `json:"momentum_score"`
}

// VolatilityAnalysis summarizes ATR percentile rank and Bollinger band
// position and squeeze state.
type VolatilityAnalysis struct {
	Regime        string  `json:"regime"` // HIGH_VOLATILITY, MODERATE_VOLATILITY, LOW_VOLATILITY, UNKNOWN
	ATRValue      float64 `json:"atr_value"`
	ATRPercentile float64 `json:"atr_percentile"`
	BBPosition    string  `json:"bb_position"` // ABOVE_UPPER, UPPER_HALF, LOWER_HALF, BELOW_LOWER, NEUTRAL
	BBSqueeze     bool    `json:"bb_squeeze"`
	BBBandwidth   float64 `json:"bb_bandwidth"`
}

// BreakoutInfo describes a close through a clustered support or
// resistance level.
type BreakoutInfo struct {
	Breakout        bool      `json:"breakout"`
	Direction       Direction `json:"direction"`
	Level           float64   `json:"level"`
	VolumeConfirmed bool      `json:"volume_confirmed"`
	Strength        string    `json:"strength"` // STRONG or WEAK
}

// VolumeProfile holds the point of control and 70% value area from a
// binned volume histogram.
type VolumeProfile struct {
	Valid         bool    `json:"valid"`
	POC           float64 `json:"poc"`
	ValueAreaHigh float64 `json:"value_area_high"`
	ValueAreaLow  float64 `json:"value_area_low"`
}

// StructureAnalysis summarizes the structure layer: clustered S/R
// levels, breakout state, volume profile and short price pattern.
type StructureAnalysis struct {
	SupportLevels    []float64     `json:"support_levels"`
	ResistanceLevels []float64     `json:"resistance_levels"`
	Breakout         BreakoutInfo  `json:"breakout"`
	VolumeProfile    VolumeProfile `json:"volume_profile"`
	Pattern          string        `json:"pattern"` // BULLISH_TREND, BEARISH_TREND, CONSOLIDATION, UNKNOWN
}
