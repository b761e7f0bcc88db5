package backtest

// Ledger is the append-only record of closed trades for one run
type Ledger struct {
	trades []Trade
}

// Record appends a closed trade
func (l *Ledger) Record(t Trade) {
	l.trades = append(l.trades, t)
}

// Trades returns a copy of the recorded trades in order
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Len returns the number of recorded trades
func (l *Ledger) Len() int {
	return len(l.trades)
}

// TotalPnL sums the P&L of every recorded trade
func (l *Ledger) TotalPnL() float64 {
	var sum float64
	for _, t := range l.trades {
		sum += t.PnL
	}
	return sum
}
