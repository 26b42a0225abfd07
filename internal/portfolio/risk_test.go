package portfolio

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDailyLossHaltIsSticky(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits(), 100000, zerolog.Nop())

	if !rm.CheckDailyLossLimit(99000) {
		t.Error("1% drawdown should not halt trading")
	}
	if !rm.CheckDailyLossLimit(97100) {
		t.Error("2.9% drawdown should not halt trading")
	}
	if rm.CheckDailyLossLimit(96000) {
		t.Error("4% drawdown must halt trading")
	}
	if !rm.TradingHalted() {
		t.Error("halt flag should be set")
	}
	// Recovery does not lift the halt within the same day.
	if rm.CheckDailyLossLimit(100000) {
		t.Error("halt must persist even after full recovery")
	}
}

func TestDailyCountersResetNextDay(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits(), 100000, zerolog.Nop())

	clock := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	rm.now = func() time.Time { return clock }
	rm.currentDay = clock.Format("2006-01-02")

	if rm.CheckDailyLossLimit(95000) {
		t.Fatal("5% drawdown must halt trading")
	}
	rm.RecordTrade("TCS")
	rm.RecordTrade("TCS")
	rm.RecordTrade("TCS")
	if rm.CheckSymbolFrequency("TCS") {
		t.Error("symbol at its daily limit should be blocked")
	}

	// Next trading day: baseline re-seeds from current capital, halt
	// lifts, frequency counters clear.
	clock = clock.Add(24 * time.Hour)
	if !rm.CheckDailyLossLimit(95000) {
		t.Error("new day should lift the halt and reset the baseline")
	}
	if rm.TradingHalted() {
		t.Error("halt flag should clear on the new day")
	}
	if !rm.CheckSymbolFrequency("TCS") {
		t.Error("frequency counters should reset on the new day")
	}
}

func TestCheckMaxPositions(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits(), 100000, zerolog.Nop())

	if !rm.CheckMaxPositions(7) {
		t.Error("7 open positions leaves room for one more")
	}
	if rm.CheckMaxPositions(8) {
		t.Error("8 open positions is the cap")
	}
}

func TestCalculatePositionSizeConfidenceScaling(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits(), 100000, zerolog.Nop())

	// Full confidence: budget 1000, 5 per share = 200 shares, value
	// 20000 breaches the 10% cap and resizes to 100.
	check := rm.CalculatePositionSize(100000, 100000, 100, 95, 100)
	if !check.Valid {
		t.Fatalf("expected valid check, got %q", check.Reason)
	}
	if check.Quantity != 100 {
		t.Errorf("expected 100 shares after value cap, got %d", check.Quantity)
	}

	// Zero confidence halves the budget: 500/5 = 100 shares, under cap.
	check = rm.CalculatePositionSize(100000, 100000, 100, 95, 0)
	if !check.Valid || check.Quantity != 100 {
		t.Errorf("expected 100 shares at half budget, got %+v", check)
	}
	if check.RiskAmount != 500 {
		t.Errorf("expected risk amount 500, got %f", check.RiskAmount)
	}
}

func TestCalculatePositionSizeAvailableCapitalCap(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits(), 100000, zerolog.Nop())

	// Only 5000 available: 100 shares at 100 would cost 10000.
	check := rm.CalculatePositionSize(100000, 5000, 100, 95, 100)
	if !check.Valid {
		t.Fatalf("expected valid check, got %q", check.Reason)
	}
	if check.Quantity != 50 {
		t.Errorf("expected 50 shares within available capital, got %d", check.Quantity)
	}

	check = rm.CalculatePositionSize(100000, 50, 100, 95, 100)
	if check.Valid {
		t.Error("expected rejection when one share is unaffordable")
	}
}

func TestCalculatePositionSizeInvalidInputs(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits(), 100000, zerolog.Nop())

	if check := rm.CalculatePositionSize(100000, 100000, 100, 100, 80); check.Valid {
		t.Error("equal entry and stop should be rejected")
	}
	if check := rm.CalculatePositionSize(100000, 100000, 0, -5, 80); check.Valid {
		t.Error("non-positive entry should be rejected")
	}
}

func TestValidateTradeGateOrder(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits(), 100000, zerolog.Nop())

	ok, reason := rm.ValidateTrade("RELIANCE", 100000, 100000, 0, false, 100, 95, 80)
	if !ok {
		t.Fatalf("clean trade should pass, got %q", reason)
	}

	ok, reason = rm.ValidateTrade("RELIANCE", 100000, 100000, 8, false, 100, 95, 80)
	if ok || !strings.Contains(reason, "open positions") {
		t.Errorf("expected max positions rejection, got %v %q", ok, reason)
	}

	rm.RecordTrade("RELIANCE")
	rm.RecordTrade("RELIANCE")
	rm.RecordTrade("RELIANCE")
	ok, reason = rm.ValidateTrade("RELIANCE", 100000, 100000, 0, false, 100, 95, 80)
	if ok || !strings.Contains(reason, "RELIANCE") {
		t.Errorf("expected symbol frequency rejection, got %v %q", ok, reason)
	}

	// Halt dominates every other gate.
	if rm.CheckDailyLossLimit(90000) {
		t.Fatal("10% drawdown must halt")
	}
	ok, reason = rm.ValidateTrade("TCS", 90000, 90000, 0, false, 100, 95, 80)
	if ok || !strings.Contains(reason, "halted") {
		t.Errorf("expected halt rejection, got %v %q", ok, reason)
	}
}

func TestValidateTradeRejectsExistingPosition(t *testing.T) {
	rm := NewRiskManager(DefaultRiskLimits(), 100000, zerolog.Nop())

	// An already-held symbol is rejected before any sizing runs, even
	// with room in every other limit.
	ok, reason := rm.ValidateTrade("TCS", 100000, 100000, 1, true, 100, 95, 80)
	if ok {
		t.Fatal("held symbol must be rejected")
	}
	if !strings.Contains(reason, "already open") || !strings.Contains(reason, "TCS") {
		t.Errorf("expected existing-position reason, got %q", reason)
	}

	// A different, unheld symbol still passes.
	ok, reason = rm.ValidateTrade("INFY", 100000, 100000, 1, false, 100, 95, 80)
	if !ok {
		t.Errorf("unheld symbol should pass, got %q", reason)
	}
}
