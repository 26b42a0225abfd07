package analysis

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nse-trading-engine/internal/confluence"
	"nse-trading-engine/internal/indicator"
	"nse-trading-engine/internal/market"
	"nse-trading-engine/internal/regime"
)

// minSeriesLength is the minimum candle count before any signal is
// considered.
const minSeriesLength = 200

// ATR fallback multipliers used for the baseline stop and targets that
// feed the R:R gate.
const (
	fallbackStopMultiplier = 1.5
)

var fallbackTargetMultipliers = []float64{2.0, 3.0}

// SignalGenerator orchestrates indicators, regime detection and
// confluence into candidate signals, applying confidence, risk-reward
// and cooldown gates.
type SignalGenerator struct {
	engine     *indicator.Engine
	detector   *regime.Detector
	calculator *confluence.Calculator

	minConfidence float64
	minRiskReward float64
	cooldown      time.Duration

	mu             sync.Mutex
	lastSignalTime map[string]time.Time
	now            func() time.Time

	logger zerolog.Logger
}

// NewSignalGenerator creates a signal generator with the given gates.
func NewSignalGenerator(detector *regime.Detector, minConfidence, minRiskReward float64, cooldown time.Duration, logger zerolog.Logger) *SignalGenerator {
	return &SignalGenerator{
		engine:         indicator.NewEngine(),
		detector:       detector,
		calculator:     confluence.NewCalculator(),
		minConfidence:  minConfidence,
		minRiskReward:  minRiskReward,
		cooldown:       cooldown,
		lastSignalTime: make(map[string]time.Time),
		now:            time.Now,
		logger:         logger.With().Str("component", "signal_generator").Logger(),
	}
}

func cooldownKey(symbol, timeframe string) string {
	return symbol + "_" + timeframe
}

// inCooldown reports whether a signal for this symbol/timeframe was
// emitted within the cooldown window.
func (g *SignalGenerator) inCooldown(symbol, timeframe string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.lastSignalTime[cooldownKey(symbol, timeframe)]
	if !ok {
		return false
	}
	return g.now().Sub(last) < g.cooldown
}

func (g *SignalGenerator) markEmitted(symbol, timeframe string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSignalTime[cooldownKey(symbol, timeframe)] = g.now()
}

// Generate evaluates the candle series and returns a signal, or nil
// when any gate rejects. Gate failures are decisions, not errors.
func (g *SignalGenerator) Generate(symbol string, candles []market.Candle, timeframe string) *Signal {
	if len(candles) < minSeriesLength {
		g.logger.Warn().
			Str("symbol", symbol).
			Int("candles", len(candles)).
			Msg("Insufficient data for signal generation")
		return nil
	}

	if g.inCooldown(symbol, timeframe) {
		g.logger.Debug().Str("symbol", symbol).Str("timeframe", timeframe).Msg("Signal cooldown active")
		return nil
	}

	cols := g.engine.Compute(candles)

	trendAnalysis := indicator.AnalyzeTrend(cols)
	momentumAnalysis := indicator.AnalyzeMomentum(cols)
	volatilityAnalysis := indicator.AnalyzeVolatility(cols)
	structureAnalysis := indicator.AnalyzeStructure(candles)

	classification := g.detector.Detect(cols, trendAnalysis, volatilityAnalysis)

	currentPrice := market.LastClose(candles)
	scores := g.calculator.CalculateLayerScores(
		trendAnalysis, momentumAnalysis, volatilityAnalysis, structureAnalysis, currentPrice,
	)
	conf := g.calculator.CalculateConfluence(scores, classification.Weights)

	signalType := SignalHold
	switch conf.Direction {
	case indicator.DirectionBullish:
		signalType = SignalBuy
	case indicator.DirectionBearish:
		signalType = SignalSell
	}

	confidence := conf.Score*0.6 + classification.Confidence*0.3 + (conf.Agreement*0.2)*0.1
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	atrValue := indicator.Last(cols.ATR)
	if atrValue == 0 {
		atrValue = currentPrice * 0.02
	}
	stopLoss, targets, riskReward := baselineStopTargets(currentPrice, atrValue, signalType)

	if confidence < g.minConfidence {
		g.logger.Info().
			Str("symbol", symbol).
			Float64("confidence", confidence).
			Msg("Signal rejected: low confidence")
		return nil
	}
	if riskReward < g.minRiskReward {
		g.logger.Info().
			Str("symbol", symbol).
			Float64("risk_reward", riskReward).
			Msg("Signal rejected: poor risk-reward")
		return nil
	}
	if signalType == SignalHold {
		return nil
	}

	g.markEmitted(symbol, timeframe)

	return &Signal{
		Symbol:     symbol,
		Timeframe:  timeframe,
		Timestamp:  g.now(),
		Type:       signalType,
		Confidence: confidence,
		Regime:     classification.Regime,
		EntryPrice: currentPrice,
		StopLoss:   stopLoss,
		Targets:    targets,
		RiskReward: riskReward,
		Reasoning:  buildReasoning(classification, conf, trendAnalysis, momentumAnalysis, structureAnalysis),
		Indicators: IndicatorSummary{
			Trend:      trendAnalysis,
			Momentum:   momentumAnalysis,
			Volatility: volatilityAnalysis,
			Structure:  structureAnalysis,
			Confluence: conf,
		},
		Scores: scores,
	}
}

// baselineStopTargets derives the ATR-based stop and target ladder
// used for the preliminary risk-reward gate.
func baselineStopTargets(price, atr float64, signalType SignalType) (stop float64, targets []float64, bestRR float64) {
	var risk float64
	if signalType == SignalSell {
		stop = price + atr*fallbackStopMultiplier
		risk = stop - price
		for _, mult := range fallbackTargetMultipliers {
			targets = append(targets, price-atr*mult)
		}
	} else {
		stop = price - atr*fallbackStopMultiplier
		risk = price - stop
		for _, mult := range fallbackTargetMultipliers {
			targets = append(targets, price+atr*mult)
		}
	}

	for _, target := range targets {
		if risk <= 0 {
			continue
		}
		rr := absFloat(target-price) / risk
		if rr > bestRR {
			bestRR = rr
		}
	}
	return stop, targets, bestRR
}

func buildReasoning(cls regime.Classification, conf confluence.Result,
	trend indicator.TrendAnalysis, momentum indicator.MomentumAnalysis,
	structure indicator.StructureAnalysis) string {

	parts := []string{
		fmt.Sprintf("Regime: %s", cls.Regime),
		fmt.Sprintf("Confluence: %s (%s)", conf.Direction, conf.Strength),
	}
	if trend.Trend != indicator.DirectionUnknown {
		parts = append(parts, fmt.Sprintf("Trend: %s", trend.Trend))
	}
	if momentum.MACDCrossover {
		parts = append(parts, fmt.Sprintf("MACD: %s", momentum.MACDSignal))
	}
	if structure.Breakout.Breakout {
		parts = append(parts, fmt.Sprintf("Breakout: %s", structure.Breakout.Direction))
	}
	return strings.Join(parts, " | ")
}

// EvaluateValidity re-checks a live signal against fresh data. A
// signal invalidates when price has crossed its stop, crossed any
// target, or when recomputed confluence points the opposite way.
func (g *SignalGenerator) EvaluateValidity(signal *Signal, candles []market.Candle) Validity {
	if len(candles) == 0 {
		return Validity{Valid: false, Reason: "No data available"}
	}

	currentPrice := market.LastClose(candles)

	switch signal.Type {
	case SignalBuy:
		if currentPrice <= signal.StopLoss {
			return Validity{Valid: false, Reason: "Stop-loss triggered"}
		}
	case SignalSell:
		if currentPrice >= signal.StopLoss {
			return Validity{Valid: false, Reason: "Stop-loss triggered"}
		}
	}

	for i, target := range signal.Targets {
		if signal.Type == SignalBuy && currentPrice >= target {
			return Validity{Valid: false, Reason: fmt.Sprintf("Target %d achieved", i+1)}
		}
		if signal.Type == SignalSell && currentPrice <= target {
			return Validity{Valid: false, Reason: fmt.Sprintf("Target %d achieved", i+1)}
		}
	}

	cols := g.engine.Compute(candles)
	trendAnalysis := indicator.AnalyzeTrend(cols)
	momentumAnalysis := indicator.AnalyzeMomentum(cols)
	volatilityAnalysis := indicator.AnalyzeVolatility(cols)
	structureAnalysis := indicator.AnalyzeStructure(candles)

	classification := g.detector.Detect(cols, trendAnalysis, volatilityAnalysis)
	scores := g.calculator.CalculateLayerScores(
		trendAnalysis, momentumAnalysis, volatilityAnalysis, structureAnalysis, currentPrice,
	)
	conf := g.calculator.CalculateConfluence(scores, classification.Weights)

	if signal.Type == SignalBuy && conf.Direction == indicator.DirectionBearish {
		return Validity{Valid: false, Reason: "Confluence reversed to bearish"}
	}
	if signal.Type == SignalSell && conf.Direction == indicator.DirectionBullish {
		return Validity{Valid: false, Reason: "Confluence reversed to bullish"}
	}

	return Validity{Valid: true, Reason: "Signal intact", Score: conf.Score}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
