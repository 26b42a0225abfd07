package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nse-trading-engine/internal/events"
	"nse-trading-engine/internal/execution"
	"nse-trading-engine/internal/market"
)

// Scanner fans the decision pipeline out across the symbol universe
// with a fixed worker pool.
type Scanner struct {
	engine  *execution.Engine
	symbols market.SymbolProvider
	bus     *events.EventBus
	config  Config

	stopChan chan struct{}
	wg       sync.WaitGroup

	mu         sync.RWMutex
	lastResult *ScanResult

	logger zerolog.Logger
}

// NewScanner creates a scanner over the engine and symbol universe.
func NewScanner(engine *execution.Engine, symbols market.SymbolProvider,
	bus *events.EventBus, config Config, logger zerolog.Logger) *Scanner {

	if config.WorkerCount <= 0 {
		config.WorkerCount = 4
	}
	return &Scanner{
		engine:   engine,
		symbols:  symbols,
		bus:      bus,
		config:   config,
		stopChan: make(chan struct{}),
		logger:   logger.With().Str("component", "scanner").Logger(),
	}
}

// Start begins the background scan loop.
func (sc *Scanner) Start() {
	if !sc.config.Enabled {
		sc.logger.Info().Msg("Scanner is disabled")
		return
	}

	sc.wg.Add(1)
	go sc.runScanLoop()
	sc.logger.Info().Dur("interval", sc.config.ScanInterval).Msg("Scanner started")
}

// Stop terminates the scan loop and waits for it to drain.
func (sc *Scanner) Stop() {
	close(sc.stopChan)
	sc.wg.Wait()
}

func (sc *Scanner) runScanLoop() {
	defer sc.wg.Done()

	ticker := time.NewTicker(sc.config.ScanInterval)
	defer ticker.Stop()

	sc.scan()

	for {
		select {
		case <-ticker.C:
			sc.scan()
		case <-sc.stopChan:
			sc.logger.Info().Msg("Scanner stopped")
			return
		}
	}
}

// Scan executes a single scan cycle and returns the result. Public
// entry point for on-demand scans from the API.
func (sc *Scanner) Scan() *ScanResult {
	return sc.scan()
}

func (sc *Scanner) scan() *ScanResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	startTime := time.Now()
	scanID := uuid.New().String()

	symbols, err := sc.symbols.GetAllSymbols(ctx)
	if err != nil {
		sc.logger.Error().Err(err).Msg("Failed to fetch symbol universe")
		return nil
	}

	sc.logger.Info().Str("scan_id", scanID).Int("symbols", len(symbols)).Msg("Starting scan")

	symbolChan := make(chan string, len(symbols))
	resultChan := make(chan SymbolResult, len(symbols))
	var wg sync.WaitGroup

	for i := 0; i < sc.config.WorkerCount; i++ {
		wg.Add(1)
		go sc.worker(ctx, symbolChan, resultChan, &wg)
	}

	go func() {
		for _, symbol := range symbols {
			select {
			case symbolChan <- symbol:
			case <-ctx.Done():
			}
		}
		close(symbolChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []SymbolResult
	signalsFound := 0
	for result := range resultChan {
		if result.Action == execution.ActionExecute {
			signalsFound++
		}
		results = append(results, result)
	}

	// Actionable symbols first, then by confidence.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Action != results[j].Action {
			return results[i].Action == execution.ActionExecute
		}
		return results[i].Confidence > results[j].Confidence
	})

	scanResult := &ScanResult{
		ScanID:       scanID,
		StartedAt:    startTime,
		Duration:     time.Since(startTime),
		SymbolCount:  len(symbols),
		SignalsFound: signalsFound,
		Results:      results,
	}

	sc.mu.Lock()
	sc.lastResult = scanResult
	sc.mu.Unlock()

	if sc.bus != nil {
		sc.bus.PublishScanCompleted(scanID, len(symbols), signalsFound)
	}

	sc.logger.Info().
		Str("scan_id", scanID).
		Int("signals", signalsFound).
		Dur("duration", scanResult.Duration).
		Msg("Scan completed")

	return scanResult
}

func (sc *Scanner) worker(ctx context.Context, symbolChan <-chan string,
	resultChan chan<- SymbolResult, wg *sync.WaitGroup) {

	defer wg.Done()

	for symbol := range symbolChan {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		decision := sc.engine.Evaluate(ctx, symbol, sc.config.HigherTF, sc.config.LowerTF)

		result := SymbolResult{
			Symbol:   symbol,
			Action:   decision.DecisionAction(),
			Duration: time.Since(start),
		}
		switch d := decision.(type) {
		case execution.TradeOrder:
			result.Confidence = d.Confidence
			result.Order = &d
		case execution.HoldDecision:
			result.HoldReason = d.Reason
		}
		resultChan <- result
	}
}

// LastResult returns the most recent scan outcome.
func (sc *Scanner) LastResult() *ScanResult {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastResult
}
