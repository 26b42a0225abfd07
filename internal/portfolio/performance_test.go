package portfolio

import (
	"math"
	"testing"
)

func snapshotSeries(capitals ...float64) []Snapshot {
	snapshots := make([]Snapshot, len(capitals))
	for i, c := range capitals {
		snapshots[i] = Snapshot{TotalCapital: c}
	}
	return snapshots
}

func TestSnapshotReturns(t *testing.T) {
	returns := SnapshotReturns(snapshotSeries(100000, 101000, 99990))
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	if math.Abs(returns[0]-0.01) > 1e-9 {
		t.Errorf("expected 1%% return, got %f", returns[0])
	}
	if math.Abs(returns[1]+0.01) > 1e-9 {
		t.Errorf("expected -1%% return, got %f", returns[1])
	}

	if SnapshotReturns(snapshotSeries(100000)) != nil {
		t.Error("single snapshot yields no returns")
	}
}

func TestSharpeRatioFlatSeriesIsZero(t *testing.T) {
	if got := SharpeRatio([]float64{0.01, 0.01, 0.01}); got != 0 {
		t.Errorf("zero volatility should yield 0, got %f", got)
	}
	if got := SharpeRatio([]float64{0.01}); got != 0 {
		t.Errorf("short series should yield 0, got %f", got)
	}
}

func TestSharpeRatioSign(t *testing.T) {
	// Strong steady gains well above the risk-free hurdle.
	up := SharpeRatio([]float64{0.01, 0.012, 0.009, 0.011})
	if up <= 0 {
		t.Errorf("positive excess returns should give positive Sharpe, got %f", up)
	}
	down := SharpeRatio([]float64{-0.01, -0.012, -0.009, -0.011})
	if down >= 0 {
		t.Errorf("negative returns should give negative Sharpe, got %f", down)
	}
}

func TestSortinoRatioIgnoresUpsideVolatility(t *testing.T) {
	// No losing periods: downside deviation undefined, ratio 0.
	if got := SortinoRatio([]float64{0.01, 0.02, 0.03}); got != 0 {
		t.Errorf("no downside should yield 0, got %f", got)
	}

	mixed := SortinoRatio([]float64{0.02, -0.005, 0.02, -0.005})
	if mixed <= 0 {
		t.Errorf("net positive series should give positive Sortino, got %f", mixed)
	}
}

func TestMaxDrawdownPct(t *testing.T) {
	// Peak 110000, trough 99000: 10% drawdown.
	snapshots := snapshotSeries(100000, 110000, 99000, 105000)
	if got := MaxDrawdownPct(snapshots); math.Abs(got-10) > 1e-9 {
		t.Errorf("expected 10%% drawdown, got %f", got)
	}
	if got := MaxDrawdownPct(snapshotSeries(100, 110, 120)); got != 0 {
		t.Errorf("monotonic rise has no drawdown, got %f", got)
	}
}

func TestBuildPerformanceReport(t *testing.T) {
	trades := []TradeRecord{
		{Status: TradeStatusClosed, PnL: 1000},
		{Status: TradeStatusClosed, PnL: -400},
		{Status: TradeStatusClosed, PnL: 600},
		{Status: TradeStatusOpen, PnL: 9999}, // open trades excluded
	}
	snapshots := snapshotSeries(100000, 101000, 100600, 101200)

	report := BuildPerformanceReport(snapshots, trades)
	if report.TotalTrades != 3 {
		t.Errorf("expected 3 closed trades, got %d", report.TotalTrades)
	}
	if report.WinningTrades != 2 || report.LosingTrades != 1 {
		t.Errorf("expected 2 wins 1 loss, got %d/%d", report.WinningTrades, report.LosingTrades)
	}
	if math.Abs(report.WinRate-100.0*2/3) > 1e-9 {
		t.Errorf("unexpected win rate %f", report.WinRate)
	}
	if report.AverageWin != 800 {
		t.Errorf("expected average win 800, got %f", report.AverageWin)
	}
	if report.AverageLoss != 400 {
		t.Errorf("expected average loss 400, got %f", report.AverageLoss)
	}
	if math.Abs(report.ProfitFactor-4) > 1e-9 {
		t.Errorf("expected profit factor 4, got %f", report.ProfitFactor)
	}
	if report.Expectancy != 400 {
		t.Errorf("expected expectancy 400, got %f", report.Expectancy)
	}
	if report.BestTrade != 1000 || report.WorstTrade != -400 {
		t.Errorf("expected best 1000 worst -400, got %f/%f", report.BestTrade, report.WorstTrade)
	}
}
