package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/newthinker/thrust/internal/backtest"
	"github.com/newthinker/thrust/internal/collector/crypto"
	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04"

// fixed formats v with places decimals
func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func renderBacktest(w io.Writer, res *backtest.Result, start, end time.Time) error {
	fmt.Fprintln(w, "=== Dual Thrust Backtest ===")
	fmt.Fprintf(w, "Symbol:    %s\n", crypto.FormatDisplay(res.Symbol))
	fmt.Fprintf(w, "Timeframe: %s (lookback %d)\n", res.Timeframe, res.Params.Lookback)
	fmt.Fprintf(w, "Params:    k1=%g k2=%g\n", res.Params.K1, res.Params.K2)
	fmt.Fprintf(w, "Period:    %s to %s\n", start.Format(timeLayout), end.Format(timeLayout))
	fmt.Fprintln(w)

	if len(res.Trades) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "SIDE\tENTRY TIME\tENTRY\tEXIT TIME\tEXIT\tPNL\tPNL %\t")
		for _, t := range res.Trades {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				t.Side,
				t.EntryTime.Format(timeLayout),
				fixed(t.EntryPrice, 4),
				t.ExitTime.Format(timeLayout),
				fixed(t.ExitPrice, 4),
				fixed(t.PnL, 4),
				fixed(t.PnLPercent, 2),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	s := res.Stats
	fmt.Fprintln(w, "Statistics")
	fmt.Fprintf(w, "  Total trades:  %d\n", s.TotalTrades)
	fmt.Fprintf(w, "  Total PnL:     %s\n", fixed(s.TotalPnL, 2))
	fmt.Fprintf(w, "  Win rate:      %s\n", metric(s, backtest.MetricWinRate, s.WinRate, "%"))
	fmt.Fprintf(w, "  Avg PnL:       %s\n", metric(s, backtest.MetricAvgPnL, s.AvgPnL, ""))
	fmt.Fprintf(w, "  Max drawdown:  %s\n", metric(s, backtest.MetricMaxDrawdown, s.MaxDrawdown, "%"))
	fmt.Fprintf(w, "  Sharpe ratio:  %s\n", metric(s, backtest.MetricSharpeRatio, s.SharpeRatio, ""))

	if op := res.OpenPosition; op != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Open position: %s at %s since %s (not counted)\n",
			op.Side, fixed(op.EntryPrice, 4), op.EntryTime.Format(timeLayout))
	}
	return nil
}

// metric prints n/a for statistics the run could not define
func metric(s backtest.Stats, m backtest.Metric, v float64, suffix string) string {
	if !s.Defined(m) {
		return "n/a"
	}
	return fixed(v, 2) + suffix
}

func renderSnapshot(w io.Writer, snap dualthrust.Snapshot, tf core.Timeframe) {
	l := snap.Lines
	fmt.Fprintf(w, "%s %s  bar %s\n", crypto.FormatDisplay(snap.Symbol), tf, snap.Time.Format(timeLayout))
	fmt.Fprintf(w, "  price  %s  (%s)\n", fixed(snap.Price, 4), snap.Breakout)
	fmt.Fprintf(w, "  open   %s  range %s\n", fixed(snap.Open, 4), fixed(l.Range, 4))
	fmt.Fprintf(w, "  buy    %s\n", fixed(l.BuyLine, 4))
	fmt.Fprintf(w, "  sell   %s\n", fixed(l.SellLine, 4))
}

var million = decimal.NewFromInt(1_000_000)

func renderSymbols(w io.Writer, tickers []core.Ticker) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPAIR\tPRICE\t24H VOLUME")
	for i, t := range tickers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%sM\n",
			i+1,
			crypto.FormatDisplay(t.Symbol),
			t.LastPrice.StringFixed(4),
			t.QuoteVolume.Div(million).StringFixed(2),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d pairs\n", len(tickers))
	return nil
}

// separator is printed between refreshes in watch mode
func separator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", 40))
}
