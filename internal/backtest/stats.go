package backtest

import (
	"fmt"
	"math"

	"github.com/newthinker/thrust/internal/core"
)

// annualization treats every trade as one trading day.
var annualization = math.Sqrt(252)

// CalculateStats computes performance statistics from closed trades
func CalculateStats(trades []Trade) Stats {
	if len(trades) == 0 {
		return Stats{
			Undefined: []Metric{MetricWinRate, MetricAvgPnL, MetricMaxDrawdown, MetricSharpeRatio},
		}
	}

	var winning int
	var totalPnL float64
	returns := make([]float64, 0, len(trades))

	for _, t := range trades {
		totalPnL += t.PnL
		returns = append(returns, t.PnLPercent)
		if t.IsWin() {
			winning++
		}
	}

	n := float64(len(trades))
	stats := Stats{
		TotalTrades: len(trades),
		TotalPnL:    totalPnL,
		WinRate:     float64(winning) / n * 100,
		AvgPnL:      totalPnL / n,
	}

	if dd, ok := calculateMaxDrawdown(trades); ok {
		stats.MaxDrawdown = dd
	} else {
		stats.Undefined = append(stats.Undefined, MetricMaxDrawdown)
	}

	if sharpe, ok := calculateSharpeRatio(returns); ok {
		stats.SharpeRatio = sharpe
	} else {
		stats.Undefined = append(stats.Undefined, MetricSharpeRatio)
	}

	return stats
}

// Defined reports whether the metric carries a real value
func (s Stats) Defined(m Metric) bool {
	for _, u := range s.Undefined {
		if u == m {
			return false
		}
	}
	return true
}

// Err reports undefined metrics as a DEGENERATE_STATISTICS error, nil if all are defined.
// The result is still usable; the error only names what to ignore.
func (s Stats) Err() error {
	if len(s.Undefined) == 0 {
		return nil
	}
	return core.WrapError(core.ErrDegenerateStatistics,
		fmt.Errorf("%d trades, undefined: %v", s.TotalTrades, s.Undefined))
}

// calculateMaxDrawdown walks the cumulative P&L balance and returns the
// largest percentage decline from its running peak. Steps where the peak is
// not positive have no percentage drawdown; false means no step had one.
func calculateMaxDrawdown(trades []Trade) (float64, bool) {
	var balance, peak, maxDD float64
	defined := false

	for _, t := range trades {
		balance += t.PnL
		peak = math.Max(peak, balance)
		if peak <= 0 {
			continue
		}
		dd := (peak - balance) / peak * 100
		if !defined || dd > maxDD {
			maxDD = dd
		}
		defined = true
	}

	return maxDD, defined
}

// calculateSharpeRatio computes mean over population standard deviation of
// the per-trade percentage returns. Zero deviation yields 0 and false, as
// does deviation that is only rounding noise relative to the mean.
func calculateSharpeRatio(returns []float64) (float64, bool) {
	if len(returns) == 0 {
		return 0, false
	}

	var sum float64
	flat := true
	for _, r := range returns {
		sum += r
		if r != returns[0] {
			flat = false
		}
	}
	if flat {
		return 0, false
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)))

	if stdDev <= 1e-12*math.Max(1, math.Abs(mean)) || math.IsNaN(stdDev) || math.IsInf(stdDev, 0) {
		return 0, false
	}

	return mean / stdDev * annualization, true
}
