package execution

import (
	"fmt"

	"github.com/rs/zerolog"

	"nse-trading-engine/internal/analysis"
	"nse-trading-engine/internal/indicator"
	"nse-trading-engine/internal/market"
)

// EntryType labels the setup that produced the entry price.
type EntryType string

const (
	EntryPullback             EntryType = "PULLBACK"
	EntryBreakoutRetest       EntryType = "BREAKOUT_RETEST"
	EntryMomentumContinuation EntryType = "MOMENTUM_CONTINUATION"
)

// EntrySetup is the chosen entry price and order style for a signal.
type EntrySetup struct {
	Valid         bool      `json:"valid"`
	Type          EntryType `json:"entry_type,omitempty"`
	EntryPrice    float64   `json:"entry_price"`
	UseLimitOrder bool      `json:"use_limit_order"`
	LimitPrice    float64   `json:"limit_price,omitempty"`
	Reason        string    `json:"reason"`
}

// EntryLogic finds a concrete entry setup for a directional signal.
// Setups are tried in priority order: a volume-confirmed breakout
// retest, a pullback to a moving average or VWAP, then momentum
// continuation.
type EntryLogic struct {
	logger zerolog.Logger
}

func NewEntryLogic(logger zerolog.Logger) *EntryLogic {
	return &EntryLogic{
		logger: logger.With().Str("component", "entry_logic").Logger(),
	}
}

// FindEntry evaluates the setups in priority order and returns the
// first valid one. An invalid setup carries the reason none matched.
func (e *EntryLogic) FindEntry(signalType analysis.SignalType, candles []market.Candle,
	cols *indicator.ColumnSet, trend indicator.TrendAnalysis,
	structure indicator.StructureAnalysis) EntrySetup {

	if signalType != analysis.SignalBuy && signalType != analysis.SignalSell {
		return EntrySetup{Valid: false, Reason: "No directional signal"}
	}
	if len(candles) == 0 || cols == nil {
		return EntrySetup{Valid: false, Reason: "No data available"}
	}

	currentPrice := market.LastClose(candles)
	long := signalType == analysis.SignalBuy

	if setup := e.breakoutRetestEntry(long, currentPrice, structure); setup.Valid {
		return setup
	}
	if setup := e.pullbackEntry(long, currentPrice, cols); setup.Valid {
		return setup
	}
	if setup := e.momentumEntry(long, currentPrice, candles, trend); setup.Valid {
		return setup
	}

	return EntrySetup{Valid: false, Reason: "No valid entry setup"}
}

// breakoutRetestEntry triggers when a volume-confirmed breakout has
// pulled back into the retest zone just past the broken level. Entry
// is placed a tick beyond the level.
func (e *EntryLogic) breakoutRetestEntry(long bool, currentPrice float64, structure indicator.StructureAnalysis) EntrySetup {
	breakout := structure.Breakout
	if !breakout.Breakout || !breakout.VolumeConfirmed {
		return EntrySetup{}
	}

	level := breakout.Level
	if long && breakout.Direction == indicator.DirectionBullish {
		if currentPrice > level && currentPrice <= level*1.02 {
			return EntrySetup{
				Valid:         true,
				Type:          EntryBreakoutRetest,
				EntryPrice:    level * 1.002,
				UseLimitOrder: true,
				LimitPrice:    level * 1.002,
				Reason:        fmt.Sprintf("Retest of broken resistance at %.2f", level),
			}
		}
	}
	if !long && breakout.Direction == indicator.DirectionBearish {
		if currentPrice < level && currentPrice >= level*0.98 {
			return EntrySetup{
				Valid:         true,
				Type:          EntryBreakoutRetest,
				EntryPrice:    level * 0.998,
				UseLimitOrder: true,
				LimitPrice:    level * 0.998,
				Reason:        fmt.Sprintf("Retest of broken support at %.2f", level),
			}
		}
	}
	return EntrySetup{}
}

// pullbackEntry triggers when price sits within 1% of the EMA-21 or
// VWAP while holding the right side of the EMA-50.
func (e *EntryLogic) pullbackEntry(long bool, currentPrice float64, cols *indicator.ColumnSet) EntrySetup {
	last := len(cols.Candles) - 1
	ema21 := indicator.At(cols.EMA[21], last)
	ema50 := indicator.At(cols.EMA[50], last)
	vwap := indicator.At(cols.VWAP, last)
	if ema21 == 0 || ema50 == 0 || vwap == 0 {
		return EntrySetup{}
	}

	nearEMA21 := absPct(currentPrice, ema21) <= 1.0
	nearVWAP := absPct(currentPrice, vwap) <= 1.0
	if !nearEMA21 && !nearVWAP {
		return EntrySetup{}
	}

	if long && currentPrice > ema50 {
		entry := ema21
		if vwap > entry {
			entry = vwap
		}
		return EntrySetup{
			Valid:         true,
			Type:          EntryPullback,
			EntryPrice:    entry,
			UseLimitOrder: true,
			LimitPrice:    entry * 1.001,
			Reason:        "Pullback to dynamic support in uptrend",
		}
	}
	if !long && currentPrice < ema50 {
		entry := ema21
		if vwap < entry {
			entry = vwap
		}
		return EntrySetup{
			Valid:         true,
			Type:          EntryPullback,
			EntryPrice:    entry,
			UseLimitOrder: true,
			LimitPrice:    entry * 0.999,
			Reason:        "Pullback to dynamic resistance in downtrend",
		}
	}
	return EntrySetup{}
}

// momentumEntry triggers on a strong trend with expanding volume
// making a fresh 5-bar extreme. Entered at market.
func (e *EntryLogic) momentumEntry(long bool, currentPrice float64, candles []market.Candle,
	trend indicator.TrendAnalysis) EntrySetup {

	if len(candles) < 6 {
		return EntrySetup{}
	}
	if trend.Strength < 70 {
		return EntrySetup{}
	}

	latest := candles[len(candles)-1]
	avgVolume := market.AverageVolume(candles, 20)
	if avgVolume <= 0 || latest.Volume < avgVolume*1.2 {
		return EntrySetup{}
	}

	window := candles[len(candles)-6 : len(candles)-1]
	if long {
		for _, c := range window {
			if latest.High <= c.High {
				return EntrySetup{}
			}
		}
		return EntrySetup{
			Valid:      true,
			Type:       EntryMomentumContinuation,
			EntryPrice: currentPrice,
			Reason:     "Momentum continuation on new 5-bar high",
		}
	}
	for _, c := range window {
		if latest.Low >= c.Low {
			return EntrySetup{}
		}
	}
	return EntrySetup{
		Valid:      true,
		Type:       EntryMomentumContinuation,
		EntryPrice: currentPrice,
		Reason:     "Momentum continuation on new 5-bar low",
	}
}

func absPct(price, reference float64) float64 {
	if reference == 0 {
		return 100
	}
	diff := (price - reference) / reference * 100
	if diff < 0 {
		return -diff
	}
	return diff
}
