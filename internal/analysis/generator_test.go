package analysis

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nse-trading-engine/internal/market"
	"nse-trading-engine/internal/regime"
)

func newTestGenerator(cooldown time.Duration) *SignalGenerator {
	detector := regime.NewDetector(nil, zerolog.Nop())
	return NewSignalGenerator(detector, 60, 2.0, cooldown, zerolog.Nop())
}

func TestGenerateRejectsShortSeries(t *testing.T) {
	g := newTestGenerator(0)

	candles := make([]market.Candle, 150)
	for i := range candles {
		candles[i] = market.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000}
	}

	if signal := g.Generate("RELIANCE", candles, "15m"); signal != nil {
		t.Errorf("expected nil signal for 150 candles, got %+v", signal)
	}
}

func TestCooldownWindow(t *testing.T) {
	g := newTestGenerator(30 * time.Minute)

	clock := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return clock }

	if g.inCooldown("TCS", "15m") {
		t.Error("fresh symbol should not be in cooldown")
	}

	g.markEmitted("TCS", "15m")
	if !g.inCooldown("TCS", "15m") {
		t.Error("expected cooldown active immediately after emit")
	}

	// Cooldown is keyed per symbol and timeframe.
	if g.inCooldown("TCS", "1h") {
		t.Error("different timeframe should not share cooldown")
	}
	if g.inCooldown("INFY", "15m") {
		t.Error("different symbol should not share cooldown")
	}

	clock = clock.Add(29 * time.Minute)
	if !g.inCooldown("TCS", "15m") {
		t.Error("cooldown should still be active at 29 minutes")
	}

	clock = clock.Add(2 * time.Minute)
	if g.inCooldown("TCS", "15m") {
		t.Error("cooldown should expire after 31 minutes")
	}
}

func TestBaselineStopTargets(t *testing.T) {
	stop, targets, rr := baselineStopTargets(100, 2, SignalBuy)
	if stop != 97 {
		t.Errorf("expected stop 97, got %f", stop)
	}
	if len(targets) != 2 || targets[0] != 104 || targets[1] != 106 {
		t.Errorf("expected targets [104 106], got %v", targets)
	}
	if rr != 2 {
		t.Errorf("expected best risk-reward 2, got %f", rr)
	}

	stop, targets, rr = baselineStopTargets(100, 2, SignalSell)
	if stop != 103 {
		t.Errorf("expected short stop 103, got %f", stop)
	}
	if len(targets) != 2 || targets[0] != 96 || targets[1] != 94 {
		t.Errorf("expected targets [96 94], got %v", targets)
	}
	if rr != 2 {
		t.Errorf("expected best risk-reward 2, got %f", rr)
	}
}

func TestEvaluateValidityNoData(t *testing.T) {
	g := newTestGenerator(0)
	signal := &Signal{Type: SignalBuy, EntryPrice: 100, StopLoss: 95}

	v := g.EvaluateValidity(signal, nil)
	if v.Valid {
		t.Error("expected invalid with no candles")
	}
	if v.Reason != "No data available" {
		t.Errorf("unexpected reason %q", v.Reason)
	}
}

func TestEvaluateValidityStopTriggered(t *testing.T) {
	g := newTestGenerator(0)

	long := &Signal{Type: SignalBuy, EntryPrice: 100, StopLoss: 95, Targets: []float64{110}}
	v := g.EvaluateValidity(long, []market.Candle{{Close: 94}})
	if v.Valid || v.Reason != "Stop-loss triggered" {
		t.Errorf("long below stop should invalidate, got %+v", v)
	}

	short := &Signal{Type: SignalSell, EntryPrice: 100, StopLoss: 105, Targets: []float64{90}}
	v = g.EvaluateValidity(short, []market.Candle{{Close: 106}})
	if v.Valid || v.Reason != "Stop-loss triggered" {
		t.Errorf("short above stop should invalidate, got %+v", v)
	}
}

func TestEvaluateValidityTargetAchieved(t *testing.T) {
	g := newTestGenerator(0)

	long := &Signal{Type: SignalBuy, EntryPrice: 100, StopLoss: 95, Targets: []float64{104, 108}}
	v := g.EvaluateValidity(long, []market.Candle{{Close: 109}})
	if v.Valid {
		t.Fatal("price through the first target should invalidate")
	}
	if v.Reason != "Target 1 achieved" {
		t.Errorf("expected first target reported, got %q", v.Reason)
	}

	short := &Signal{Type: SignalSell, EntryPrice: 100, StopLoss: 105, Targets: []float64{96, 92}}
	v = g.EvaluateValidity(short, []market.Candle{{Close: 95}})
	if v.Valid || v.Reason != "Target 1 achieved" {
		t.Errorf("short through target should invalidate, got %+v", v)
	}
}
