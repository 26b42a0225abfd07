package portfolio

import "math"

// Annualization settings for ratio calculations: daily snapshots over
// an Indian equity trading year with a 6% risk-free rate.
const (
	tradingPeriodsPerYear = 252.0
	riskFreeRate          = 0.06
)

// PerformanceReport aggregates risk-adjusted return metrics and trade
// statistics.
type PerformanceReport struct {
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown_pct"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	Expectancy    float64 `json:"expectancy"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
}

// SnapshotReturns converts a capital series into period returns.
func SnapshotReturns(snapshots []Snapshot) []float64 {
	if len(snapshots) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(snapshots)-1)
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].TotalCapital
		if prev <= 0 {
			continue
		}
		returns = append(returns, (snapshots[i].TotalCapital-prev)/prev)
	}
	return returns
}

// SharpeRatio annualizes excess return over volatility. Zero when the
// series is too short or flat.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)
	sd := stdevOf(returns, mean)
	if sd == 0 {
		return 0
	}
	excess := mean - riskFreeRate/tradingPeriodsPerYear
	return excess / sd * math.Sqrt(tradingPeriodsPerYear)
}

// SortinoRatio annualizes excess return over downside deviation only.
func SortinoRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)
	excess := mean - riskFreeRate/tradingPeriodsPerYear

	var downSum float64
	var downCount int
	for _, r := range returns {
		if r < 0 {
			downSum += r * r
			downCount++
		}
	}
	if downCount == 0 {
		return 0
	}
	downside := math.Sqrt(downSum / float64(downCount))
	if downside == 0 {
		return 0
	}
	return excess / downside * math.Sqrt(tradingPeriodsPerYear)
}

// MaxDrawdownPct returns the largest peak-to-trough decline of the
// capital series, in percent.
func MaxDrawdownPct(snapshots []Snapshot) float64 {
	var peak, maxDD float64
	for _, s := range snapshots {
		if s.TotalCapital > peak {
			peak = s.TotalCapital
		}
		if peak > 0 {
			dd := (peak - s.TotalCapital) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// BuildPerformanceReport computes the full report from portfolio
// snapshots and closed trades.
func BuildPerformanceReport(snapshots []Snapshot, trades []TradeRecord) PerformanceReport {
	returns := SnapshotReturns(snapshots)

	report := PerformanceReport{
		SharpeRatio:  SharpeRatio(returns),
		SortinoRatio: SortinoRatio(returns),
		MaxDrawdown:  MaxDrawdownPct(snapshots),
	}

	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.Status != TradeStatusClosed {
			continue
		}
		report.TotalTrades++
		if t.PnL > 0 {
			report.WinningTrades++
			grossProfit += t.PnL
		} else {
			report.LosingTrades++
			grossLoss += -t.PnL
		}
		if report.TotalTrades == 1 || t.PnL > report.BestTrade {
			report.BestTrade = t.PnL
		}
		if report.TotalTrades == 1 || t.PnL < report.WorstTrade {
			report.WorstTrade = t.PnL
		}
	}

	if report.TotalTrades > 0 {
		report.WinRate = float64(report.WinningTrades) / float64(report.TotalTrades) * 100
		report.Expectancy = (grossProfit - grossLoss) / float64(report.TotalTrades)
	}
	if report.WinningTrades > 0 {
		report.AverageWin = grossProfit / float64(report.WinningTrades)
	}
	if report.LosingTrades > 0 {
		report.AverageLoss = grossLoss / float64(report.LosingTrades)
	}
	if grossLoss > 0 {
		report.ProfitFactor = grossProfit / grossLoss
	}
	return report
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdevOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
