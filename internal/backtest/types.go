package backtest

import (
	"time"

	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
)

// Result holds the complete backtest output
type Result struct {
	Symbol       string            `json:"symbol,omitempty"`
	Timeframe    core.Timeframe    `json:"timeframe,omitempty"`
	Params       dualthrust.Params `json:"params"`
	Trades       []Trade           `json:"trades"`
	Stats        Stats             `json:"stats"`
	OpenPosition *OpenPosition     `json:"open_position,omitempty"`
}

// Trade represents a closed position from entry to exit
type Trade struct {
	Side       core.Side `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	PnL        float64   `json:"pnl"`
	PnLPercent float64   `json:"pnl_percent"`
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// OpenPosition describes a position still held when the candles ran out.
// It is not a trade and does not count towards statistics.
type OpenPosition struct {
	Side       core.Side `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
}

// Metric names a statistic that can be undefined for a run
type Metric string

const (
	MetricWinRate     Metric = "win_rate"
	MetricAvgPnL      Metric = "avg_pnl"
	MetricMaxDrawdown Metric = "max_drawdown"
	MetricSharpeRatio Metric = "sharpe_ratio"
)

// Stats holds performance statistics.
// Metrics listed in Undefined carry the zero value and must not be read as numbers.
type Stats struct {
	TotalTrades int      `json:"total_trades"`
	TotalPnL    float64  `json:"total_pnl"`
	WinRate     float64  `json:"win_rate"`     // Percentage of profitable trades
	AvgPnL      float64  `json:"avg_pnl"`      // Mean P&L per trade
	MaxDrawdown float64  `json:"max_drawdown"` // Largest decline from peak balance, percent
	SharpeRatio float64  `json:"sharpe_ratio"` // Per-trade returns scaled by sqrt(252)
	Undefined   []Metric `json:"undefined,omitempty"`
}
