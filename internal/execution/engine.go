package execution

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"nse-trading-engine/internal/analysis"
	"nse-trading-engine/internal/events"
	"nse-trading-engine/internal/indicator"
	"nse-trading-engine/internal/market"
	"nse-trading-engine/internal/portfolio"
	"nse-trading-engine/internal/regime"
)

// Volatility cutoff above which no new trades are opened.
const abnormalVolatilityPercentile = 95.0

// SignalStore persists generated signals. A nil store disables
// persistence.
type SignalStore interface {
	InsertSignal(ctx context.Context, signal *analysis.Signal) (int64, error)
}

// Engine runs the full decision pipeline for one symbol: timeframe
// alignment, signal generation, entry selection, stop and target
// construction, sizing and risk validation. Every rejection path
// returns a HoldDecision carrying the reason.
type Engine struct {
	mtf       *analysis.MultiTimeframeAnalyzer
	generator *analysis.SignalGenerator
	entries   *EntryLogic
	stops     *HybridStopLoss
	targets   *TargetCalculator
	sizing    *QuantityCalculator
	lifecycle *LifecycleManager

	portfolio *portfolio.State
	risk      *portfolio.RiskManager
	indicator *indicator.Engine

	store SignalStore
	bus   *events.EventBus

	minRiskReward float64
	logger        zerolog.Logger
}

// EngineDeps bundles the engine's collaborators.
type EngineDeps struct {
	MTF       *analysis.MultiTimeframeAnalyzer
	Generator *analysis.SignalGenerator
	Lifecycle *LifecycleManager
	Portfolio *portfolio.State
	Risk      *portfolio.RiskManager
	Store     SignalStore
	Bus       *events.EventBus
}

// NewEngine wires the decision pipeline.
func NewEngine(deps EngineDeps, riskPerTradePct, minRiskReward float64, logger zerolog.Logger) *Engine {
	return &Engine{
		mtf:           deps.MTF,
		generator:     deps.Generator,
		entries:       NewEntryLogic(logger),
		stops:         NewHybridStopLoss(logger),
		targets:       NewTargetCalculator(minRiskReward, logger),
		sizing:        NewQuantityCalculator(riskPerTradePct, logger),
		lifecycle:     deps.Lifecycle,
		portfolio:     deps.Portfolio,
		risk:          deps.Risk,
		indicator:     indicator.NewEngine(),
		store:         deps.Store,
		bus:           deps.Bus,
		minRiskReward: minRiskReward,
		logger:        logger.With().Str("component", "execution_engine").Logger(),
	}
}

// Lifecycle exposes the trade lifecycle manager.
func (e *Engine) Lifecycle() *LifecycleManager { return e.lifecycle }

// Evaluate runs the pipeline for one symbol and returns either a
// TradeOrder or a HoldDecision. Gate rejections are decisions, not
// errors.
func (e *Engine) Evaluate(ctx context.Context, symbol, higherTF, lowerTF string) Decision {
	mtfResult := e.mtf.Analyze(ctx, symbol, higherTF, lowerTF)
	if !mtfResult.Aligned {
		return NewHold(symbol, mtfResult.Reason)
	}

	candles := mtfResult.LTFCandles
	signal := e.generator.Generate(symbol, candles, lowerTF)
	if signal == nil {
		return NewHold(symbol, "No signal generated")
	}

	if e.bus != nil {
		e.bus.PublishSignalGenerated(symbol, string(signal.Type), signal.Confidence, string(signal.Regime))
	}
	if e.store != nil {
		if _, err := e.store.InsertSignal(ctx, signal); err != nil {
			e.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist signal")
			return NewHold(symbol, "Signal persistence failed")
		}
	}

	if signal.Regime == regime.RegimeUnknown {
		return NewHold(symbol, "Unknown market regime")
	}
	if signal.Indicators.Volatility.ATRPercentile > abnormalVolatilityPercentile {
		return NewHold(symbol, "Abnormal volatility, standing aside")
	}

	cols := e.indicator.Compute(candles)
	entry := e.entries.FindEntry(signal.Type, candles, cols,
		signal.Indicators.Trend, signal.Indicators.Structure)
	if !entry.Valid {
		return NewHold(symbol, entry.Reason)
	}

	stop := e.stops.Calculate(signal.Type, entry.EntryPrice, candles, cols)
	tiers := e.targets.Calculate(signal.Type, entry.EntryPrice, stop.Price, candles)
	if len(tiers) == 0 {
		return NewHold(symbol, "Unable to construct target ladder")
	}
	if tiers[0].RiskReward < e.minRiskReward {
		return NewHold(symbol, fmt.Sprintf("Risk-reward %.2f below minimum", tiers[0].RiskReward))
	}

	capital := e.portfolio.TotalCapital()
	sized := e.sizing.Calculate(capital, entry.EntryPrice, stop.Price, signal.Confidence)
	if !sized.Valid {
		return NewHold(symbol, sized.Reason)
	}

	ok, reason := e.risk.ValidateTrade(symbol, capital, e.portfolio.AvailableCapital(),
		e.portfolio.OpenPositionCount(), e.portfolio.HasPosition(symbol),
		entry.EntryPrice, stop.Price, signal.Confidence)
	if !ok {
		if e.bus != nil {
			e.bus.PublishRiskBreach(symbol, reason)
		}
		return NewHold(symbol, reason)
	}

	tradeID := e.lifecycle.CreateTrade(symbol, signal.Type, sized.Quantity,
		entry.EntryPrice, stop.Price, tiers)
	if err := e.lifecycle.Validate(tradeID); err != nil {
		return NewHold(symbol, "Lifecycle validation failed")
	}

	order := TradeOrder{
		Action:        ActionExecute,
		TradeID:       tradeID,
		Symbol:        symbol,
		Signal:        signal.Type,
		Confidence:    signal.Confidence,
		Regime:        signal.Regime,
		Entry:         entry,
		Stop:          stop,
		Targets:       tiers,
		Quantity:      sized.Quantity,
		PositionValue: sized.PositionValue,
		RiskAmount:    sized.RiskAmount,
		RiskPercent:   sized.RiskPercent,
		RiskReward:    tiers[0].RiskReward,
		Reasoning:     signal.Reasoning,
		Timestamp:     signal.Timestamp,
	}

	e.logger.Info().
		Str("trade_id", tradeID).
		Str("symbol", symbol).
		Str("signal", string(signal.Type)).
		Float64("entry", entry.EntryPrice).
		Float64("stop", stop.Price).
		Int("quantity", sized.Quantity).
		Msg("Trade order prepared")

	return order
}

// Execute commits an approved order: the trade enters its lifecycle,
// the position is added to the portfolio ledger and the trade counts
// against the symbol's daily frequency. A portfolio failure rejects
// the trade.
func (e *Engine) Execute(ctx context.Context, order TradeOrder) bool {
	if err := e.lifecycle.MarkEntryPending(order.TradeID); err != nil {
		e.logger.Error().Err(err).Str("trade_id", order.TradeID).Msg("Cannot mark entry pending")
		return false
	}
	if err := e.lifecycle.EnterTrade(order.TradeID, order.Entry.EntryPrice); err != nil {
		e.logger.Error().Err(err).Str("trade_id", order.TradeID).Msg("Cannot enter trade")
		return false
	}

	posType := portfolio.PositionLong
	if order.Signal == analysis.SignalSell {
		posType = portfolio.PositionShort
	}
	target := order.Entry.EntryPrice
	if len(order.Targets) > 0 {
		target = order.Targets[0].Price
	}

	if !e.portfolio.AddPosition(ctx, order.Symbol, posType, order.Quantity,
		order.Entry.EntryPrice, order.Stop.Price, target) {
		if err := e.lifecycle.Reject(order.TradeID, "Portfolio rejected position"); err != nil {
			e.logger.Error().Err(err).Str("trade_id", order.TradeID).Msg("Failed to reject trade")
		}
		return false
	}

	e.risk.RecordTrade(order.Symbol)

	if e.bus != nil {
		e.bus.PublishTradeExecuted(order.TradeID, order.Symbol, string(order.Signal),
			order.Entry.EntryPrice, order.Quantity)
	}

	e.logger.Info().
		Str("trade_id", order.TradeID).
		Str("symbol", order.Symbol).
		Msg("Trade executed")
	return true
}

// ManagePosition applies a fresh price to an open trade: stop and
// target checks fire partial or final exits, and the trailing stop
// tightens once the position is in profit.
func (e *Engine) ManagePosition(ctx context.Context, tradeID string, candles []market.Candle) {
	trade, ok := e.lifecycle.GetTrade(tradeID)
	if !ok || len(candles) == 0 {
		return
	}

	currentPrice := market.LastClose(candles)
	e.lifecycle.UpdateCurrentPrice(tradeID, currentPrice)
	e.portfolio.UpdatePositionPrice(trade.Symbol, currentPrice)

	long := trade.Signal != analysis.SignalSell

	stopHit := (long && currentPrice <= trade.StopLoss) || (!long && currentPrice >= trade.StopLoss)
	if stopHit {
		e.closeOut(ctx, trade, currentPrice, "Stop-loss hit")
		return
	}

	level := exitLevelFor(trade.Stage)
	for level <= len(trade.Targets) {
		tier := trade.Targets[level-1]
		hit := (long && currentPrice >= tier.Price) || (!long && currentPrice <= tier.Price)
		if !hit {
			break
		}
		qty := int(float64(trade.Quantity) * tier.BookPct / 100)
		if level == len(trade.Targets) {
			qty = trade.RemainingQty
		}
		if err := e.lifecycle.PartialExit(tradeID, level, currentPrice, qty); err != nil {
			e.logger.Error().Err(err).Str("trade_id", tradeID).Msg("Partial exit failed")
			return
		}
		trade, _ = e.lifecycle.GetTrade(tradeID)
		level++
	}

	if trade.RemainingQty == 0 {
		e.closeOut(ctx, trade, currentPrice, "All targets achieved")
		return
	}

	if ShouldTrailStop(trade.Signal, trade.EntryPrice, currentPrice) {
		cols := e.indicator.Compute(candles)
		atr := indicator.Last(cols.ATR)
		if atr > 0 {
			newStop := CalculateTrailingStop(trade.Signal, trade.EntryPrice, currentPrice, atr)
			tightened := (long && newStop > trade.StopLoss) || (!long && newStop < trade.StopLoss)
			if tightened {
				e.lifecycle.UpdateStopLoss(tradeID, newStop)
			}
		}
	}
}

func (e *Engine) closeOut(ctx context.Context, trade Trade, price float64, reason string) {
	if err := e.lifecycle.FinalExit(trade.ID, price, reason); err != nil {
		e.logger.Error().Err(err).Str("trade_id", trade.ID).Msg("Final exit failed")
		return
	}
	result, err := e.portfolio.ClosePosition(ctx, trade.Symbol, price, reason)
	if err != nil {
		e.logger.Error().Err(err).Str("symbol", trade.Symbol).Msg("Portfolio close failed")
		return
	}
	if e.bus != nil {
		e.bus.PublishTradeClosed(trade.Symbol, price, result.PnL, reason)
	}
}

// exitLevelFor maps the current stage to the next target level to
// check.
func exitLevelFor(stage Stage) int {
	switch stage {
	case StagePartialExit1:
		return 2
	case StagePartialExit2, StageTrailing:
		return 3
	default:
		return 1
	}
}
