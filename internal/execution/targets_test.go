package execution

import (
	"testing"

	"github.com/rs/zerolog"

	"nse-trading-engine/internal/analysis"
	"nse-trading-engine/internal/market"
)

func TestCalculateTargetLadderLong(t *testing.T) {
	calc := NewTargetCalculator(2.0, zerolog.Nop())

	tiers := calc.Calculate(analysis.SignalBuy, 100, 98, nil)
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}

	if tiers[0].Price != 102 || tiers[0].RiskReward != 1 {
		t.Errorf("expected T1 at 102 (1R), got %f (%f)", tiers[0].Price, tiers[0].RiskReward)
	}
	if tiers[0].Basis != "MEASURED" {
		t.Errorf("no swing data, expected MEASURED basis, got %s", tiers[0].Basis)
	}
	if tiers[1].Price != 104 || tiers[1].RiskReward != 2 {
		t.Errorf("expected T2 at 104 (2R), got %f (%f)", tiers[1].Price, tiers[1].RiskReward)
	}
	if tiers[2].Price != 106 || tiers[2].RiskReward != 3 {
		t.Errorf("expected T3 at 106 (3R), got %f (%f)", tiers[2].Price, tiers[2].RiskReward)
	}

	totalBook := tiers[0].BookPct + tiers[1].BookPct + tiers[2].BookPct
	if totalBook != 100 {
		t.Errorf("booking percentages must sum to 100, got %f", totalBook)
	}
	if tiers[0].Action != "PARTIAL_EXIT" || tiers[1].Action != "PARTIAL_EXIT" {
		t.Error("first two tiers must book partial exits")
	}
	if tiers[2].Action != "TRAIL_STOP" {
		t.Errorf("final tier must hand over to the trailing stop, got %s", tiers[2].Action)
	}
}

func TestCalculateTargetLadderShort(t *testing.T) {
	calc := NewTargetCalculator(2.0, zerolog.Nop())

	tiers := calc.Calculate(analysis.SignalSell, 100, 102, nil)
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}
	if tiers[0].Price != 98 {
		t.Errorf("expected T1 at 98, got %f", tiers[0].Price)
	}
	if tiers[1].Price != 96 {
		t.Errorf("expected T2 at 96, got %f", tiers[1].Price)
	}
	if tiers[2].Price != 94 {
		t.Errorf("expected T3 at 94, got %f", tiers[2].Price)
	}
}

func TestCalculateRejectsInvertedStop(t *testing.T) {
	calc := NewTargetCalculator(2.0, zerolog.Nop())

	if tiers := calc.Calculate(analysis.SignalBuy, 100, 101, nil); tiers != nil {
		t.Errorf("stop above long entry should produce no ladder, got %v", tiers)
	}
	if tiers := calc.Calculate(analysis.SignalSell, 100, 99, nil); tiers != nil {
		t.Errorf("stop below short entry should produce no ladder, got %v", tiers)
	}
}

func TestCalculateFirstTierSnapsToSwingHigh(t *testing.T) {
	calc := NewTargetCalculator(2.0, zerolog.Nop())

	// Flat series with one swing high at 103, between entry and 2R.
	candles := make([]market.Candle, 25)
	for i := range candles {
		candles[i] = market.Candle{Open: 99, High: 100, Low: 98, Close: 99, Volume: 1000}
	}
	candles[10].High = 103

	tiers := calc.Calculate(analysis.SignalBuy, 100, 98, candles)
	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}
	if tiers[0].Price != 103 {
		t.Errorf("expected T1 snapped to swing high 103, got %f", tiers[0].Price)
	}
	if tiers[0].Basis != "STRUCTURE" {
		t.Errorf("expected STRUCTURE basis, got %s", tiers[0].Basis)
	}
	if tiers[0].RiskReward != 1.5 {
		t.Errorf("expected 1.5R at snapped level, got %f", tiers[0].RiskReward)
	}
	// Later tiers stay measured.
	if tiers[1].Price != 104 || tiers[2].Price != 106 {
		t.Errorf("expected measured T2/T3 at 104/106, got %f/%f", tiers[1].Price, tiers[2].Price)
	}
}

func TestShouldTrailStop(t *testing.T) {
	if !ShouldTrailStop(analysis.SignalBuy, 100, 101) {
		t.Error("1% open profit should start trailing")
	}
	if ShouldTrailStop(analysis.SignalBuy, 100, 100.5) {
		t.Error("0.5% profit should not trail yet")
	}
	if !ShouldTrailStop(analysis.SignalSell, 100, 99) {
		t.Error("short with 1% profit should start trailing")
	}
	if ShouldTrailStop(analysis.SignalSell, 100, 101) {
		t.Error("losing short should not trail")
	}
	if ShouldTrailStop(analysis.SignalBuy, 0, 10) {
		t.Error("zero entry price must not trail")
	}
}
