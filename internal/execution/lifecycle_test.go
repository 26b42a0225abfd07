package execution

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"nse-trading-engine/internal/analysis"
)

func TestCreateTradeAssignsSequentialIDs(t *testing.T) {
	m := NewLifecycleManager(zerolog.Nop())

	first := m.CreateTrade("RELIANCE", analysis.SignalBuy, 10, 100, 98, nil)
	second := m.CreateTrade("TCS", analysis.SignalSell, 5, 200, 204, nil)

	if first != "T00001" {
		t.Errorf("expected first id T00001, got %s", first)
	}
	if second != "T00002" {
		t.Errorf("expected second id T00002, got %s", second)
	}

	trade, ok := m.GetTrade(first)
	if !ok {
		t.Fatal("expected trade lookup to succeed")
	}
	if trade.Stage != StageSignalGenerated {
		t.Errorf("new trade should start at SIGNAL_GENERATED, got %s", trade.Stage)
	}
	if trade.RemainingQty != 10 {
		t.Errorf("expected full quantity remaining, got %d", trade.RemainingQty)
	}
}

func TestFullLifecycleFlow(t *testing.T) {
	m := NewLifecycleManager(zerolog.Nop())
	id := m.CreateTrade("INFY", analysis.SignalBuy, 100, 1500, 1470, nil)

	if err := m.Validate(id); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := m.MarkEntryPending(id); err != nil {
		t.Fatalf("mark entry pending: %v", err)
	}
	if err := m.EnterTrade(id, 1502); err != nil {
		t.Fatalf("enter: %v", err)
	}

	trade, _ := m.GetTrade(id)
	if trade.Stage != StageMonitoring {
		t.Errorf("entered trade should be MONITORING, got %s", trade.Stage)
	}
	if trade.EntryPrice != 1502 {
		t.Errorf("fill price should replace entry, got %f", trade.EntryPrice)
	}

	// Book 50 at the first target, then close out the rest.
	if err := m.PartialExit(id, 1, 1532, 50); err != nil {
		t.Fatalf("partial exit: %v", err)
	}
	trade, _ = m.GetTrade(id)
	if trade.Stage != StagePartialExit1 {
		t.Errorf("expected PARTIAL_EXIT_1, got %s", trade.Stage)
	}
	if trade.RemainingQty != 50 {
		t.Errorf("expected 50 remaining, got %d", trade.RemainingQty)
	}
	if trade.RealizedPnL != 1500 {
		t.Errorf("expected 1500 booked, got %f", trade.RealizedPnL)
	}

	if err := m.FinalExit(id, 1542, "Trailing stop hit"); err != nil {
		t.Fatalf("final exit: %v", err)
	}
	trade, ok := m.GetTrade(id)
	if !ok {
		t.Fatal("closed trade should still be retrievable")
	}
	if trade.Stage != StageExited {
		t.Errorf("expected EXITED, got %s", trade.Stage)
	}
	if trade.RemainingQty != 0 {
		t.Errorf("expected nothing remaining, got %d", trade.RemainingQty)
	}
	// 50*(1532-1502) + 50*(1542-1502)
	if trade.RealizedPnL != 3500 {
		t.Errorf("expected total PnL 3500, got %f", trade.RealizedPnL)
	}

	stages := []Stage{
		StageSignalGenerated, StageValidated, StageEntryPending,
		StageEntered, StageMonitoring, StagePartialExit1, StageExited,
	}
	if len(trade.StageHistory) != len(stages) {
		t.Fatalf("expected %d stage changes, got %d", len(stages), len(trade.StageHistory))
	}
	for i, want := range stages {
		if trade.StageHistory[i].Stage != want {
			t.Errorf("stage history[%d]: expected %s, got %s", i, want, trade.StageHistory[i].Stage)
		}
	}

	if active := m.ActiveTrades(); len(active) != 0 {
		t.Errorf("expected no active trades, got %d", len(active))
	}
}

func TestEnterTradeDirectlyFromSignal(t *testing.T) {
	m := NewLifecycleManager(zerolog.Nop())
	id := m.CreateTrade("AXISBANK", analysis.SignalBuy, 40, 1100, 1078, nil)

	// No validation or pending step: straight from signal to fill.
	if err := m.EnterTrade(id, 1101); err != nil {
		t.Fatalf("direct entry from SIGNAL_GENERATED should work: %v", err)
	}
	if err := m.PartialExit(id, 1, 1123, 20); err != nil {
		t.Fatalf("partial exit: %v", err)
	}
	if err := m.FinalExit(id, 1145, "Target run complete"); err != nil {
		t.Fatalf("final exit: %v", err)
	}

	trade, _ := m.GetTrade(id)
	stages := []Stage{
		StageSignalGenerated, StageEntered, StageMonitoring,
		StagePartialExit1, StageExited,
	}
	if len(trade.StageHistory) != len(stages) {
		t.Fatalf("expected %d stage changes, got %d", len(stages), len(trade.StageHistory))
	}
	for i, want := range stages {
		if trade.StageHistory[i].Stage != want {
			t.Errorf("stage history[%d]: expected %s, got %s", i, want, trade.StageHistory[i].Stage)
		}
	}

	// Re-entering a live or closed trade is still refused.
	if err := m.EnterTrade(id, 1101); !errors.Is(err, ErrTradeNotFound) {
		t.Errorf("closed trade should not re-enter, got %v", err)
	}
}

func TestUpdateCurrentPriceTracksExtremes(t *testing.T) {
	m := NewLifecycleManager(zerolog.Nop())
	id := m.CreateTrade("MARUTI", analysis.SignalBuy, 10, 12000, 11760, nil)

	if err := m.EnterTrade(id, 12000); err != nil {
		t.Fatal(err)
	}
	trade, _ := m.GetTrade(id)
	if trade.HighestPrice != 12000 || trade.LowestPrice != 12000 {
		t.Fatalf("extremes should seed at the fill, got %f/%f", trade.HighestPrice, trade.LowestPrice)
	}

	m.UpdateCurrentPrice(id, 12300)
	m.UpdateCurrentPrice(id, 11900)
	m.UpdateCurrentPrice(id, 12100)

	trade, _ = m.GetTrade(id)
	if trade.HighestPrice != 12300 {
		t.Errorf("expected highest 12300, got %f", trade.HighestPrice)
	}
	if trade.LowestPrice != 11900 {
		t.Errorf("expected lowest 11900, got %f", trade.LowestPrice)
	}
	// Marked at the latest price on the full remaining quantity.
	if trade.UnrealizedPnL != 1000 {
		t.Errorf("expected unrealized 1000, got %f", trade.UnrealizedPnL)
	}

	// Booking half realizes profit and re-marks the remainder.
	if err := m.PartialExit(id, 1, 12100, 5); err != nil {
		t.Fatal(err)
	}
	trade, _ = m.GetTrade(id)
	if trade.RealizedPnL != 500 {
		t.Errorf("expected realized 500, got %f", trade.RealizedPnL)
	}
	if trade.UnrealizedPnL != 500 {
		t.Errorf("expected unrealized 500 on remainder, got %f", trade.UnrealizedPnL)
	}

	if err := m.FinalExit(id, 12100, "Manual close"); err != nil {
		t.Fatal(err)
	}
	trade, _ = m.GetTrade(id)
	if trade.UnrealizedPnL != 0 {
		t.Errorf("exited trade carries no unrealized P&L, got %f", trade.UnrealizedPnL)
	}
}

func TestShortTradeUnrealizedPnL(t *testing.T) {
	m := NewLifecycleManager(zerolog.Nop())
	id := m.CreateTrade("WIPRO", analysis.SignalSell, 100, 400, 408, nil)

	if err := m.EnterTrade(id, 400); err != nil {
		t.Fatal(err)
	}
	m.UpdateCurrentPrice(id, 390)

	trade, _ := m.GetTrade(id)
	if trade.UnrealizedPnL != 1000 {
		t.Errorf("short marked down should gain 1000, got %f", trade.UnrealizedPnL)
	}
	if trade.LowestPrice != 390 {
		t.Errorf("expected lowest 390, got %f", trade.LowestPrice)
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	m := NewLifecycleManager(zerolog.Nop())
	id := m.CreateTrade("SBIN", analysis.SignalBuy, 10, 600, 588, nil)

	// Skipping validation is not allowed.
	if err := m.MarkEntryPending(id); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage, got %v", err)
	}
	if err := m.PartialExit(id, 1, 610, 5); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("partial exit before entry should fail, got %v", err)
	}
	if err := m.Validate("T99999"); !errors.Is(err, ErrTradeNotFound) {
		t.Errorf("expected ErrTradeNotFound, got %v", err)
	}

	if err := m.Validate(id); err != nil {
		t.Fatal(err)
	}
	if err := m.EnterTrade(id, 600); err != nil {
		t.Fatal(err)
	}
	if err := m.PartialExit(id, 7, 610, 5); !errors.Is(err, ErrUnknownExitLevel) {
		t.Errorf("expected ErrUnknownExitLevel, got %v", err)
	}
}

func TestRejectBeforeEntry(t *testing.T) {
	m := NewLifecycleManager(zerolog.Nop())
	id := m.CreateTrade("HDFCBANK", analysis.SignalBuy, 10, 1600, 1568, nil)

	if err := m.Reject(id, "Risk limits breached"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	trade, ok := m.GetTrade(id)
	if !ok || trade.Stage != StageRejected {
		t.Errorf("expected REJECTED trade retrievable, got %+v ok=%v", trade, ok)
	}
	if err := m.Reject(id, "again"); !errors.Is(err, ErrTradeNotFound) {
		t.Errorf("double reject should fail lookup, got %v", err)
	}
}

func TestPartialExitCapsAtRemaining(t *testing.T) {
	m := NewLifecycleManager(zerolog.Nop())
	id := m.CreateTrade("WIPRO", analysis.SignalSell, 20, 400, 408, nil)

	if err := m.Validate(id); err != nil {
		t.Fatal(err)
	}
	if err := m.EnterTrade(id, 400); err != nil {
		t.Fatal(err)
	}

	// Request more than remains; only 20 can be booked.
	if err := m.PartialExit(id, 1, 392, 50); err != nil {
		t.Fatal(err)
	}
	trade, _ := m.GetTrade(id)
	if trade.RemainingQty != 0 {
		t.Errorf("expected zero remaining, got %d", trade.RemainingQty)
	}
	// Short: (400-392)*20
	if trade.RealizedPnL != 160 {
		t.Errorf("expected short PnL 160, got %f", trade.RealizedPnL)
	}
}

func TestPerformanceSummaryExcludesRejected(t *testing.T) {
	m := NewLifecycleManager(zerolog.Nop())

	winner := m.CreateTrade("A", analysis.SignalBuy, 10, 100, 98, nil)
	loser := m.CreateTrade("B", analysis.SignalBuy, 10, 100, 98, nil)
	rejected := m.CreateTrade("C", analysis.SignalBuy, 10, 100, 98, nil)

	for _, id := range []string{winner, loser} {
		if err := m.Validate(id); err != nil {
			t.Fatal(err)
		}
		if err := m.EnterTrade(id, 100); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.FinalExit(winner, 105, "Target"); err != nil {
		t.Fatal(err)
	}
	if err := m.FinalExit(loser, 98, "Stop"); err != nil {
		t.Fatal(err)
	}
	if err := m.Reject(rejected, "Risk limits"); err != nil {
		t.Fatal(err)
	}

	summary := m.PerformanceSummary()
	if summary.TotalTrades != 2 {
		t.Errorf("rejected trades must not count, got %d", summary.TotalTrades)
	}
	if summary.WinningTrades != 1 || summary.LosingTrades != 1 {
		t.Errorf("expected 1 win 1 loss, got %d/%d", summary.WinningTrades, summary.LosingTrades)
	}
	if summary.WinRate != 50 {
		t.Errorf("expected 50%% win rate, got %f", summary.WinRate)
	}
	if summary.TotalPnL != 30 {
		t.Errorf("expected total PnL 30, got %f", summary.TotalPnL)
	}
	if summary.BestTrade != 50 || summary.WorstTrade != -20 {
		t.Errorf("expected best 50 worst -20, got %f/%f", summary.BestTrade, summary.WorstTrade)
	}
}
