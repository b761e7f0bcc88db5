package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/newthinker/thrust/internal/backtest"
	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/storage/archive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backtestSymbol    string
	backtestFrom      string
	backtestTo        string
	backtestTimeframe string
	backtestK1        float64
	backtestK2        float64
	backtestJSON      bool
	backtestSave      bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest Dual Thrust on historical candles",
	Long: `Download candles for a pair and date range, simulate the Dual Thrust
breakout strategy over them and show every trade with summary statistics.
The end date is inclusive.`,
	Example: `  thrust backtest --symbol BTC --from 2024-01-01 --to 2024-03-31
  thrust backtest --symbol ETHUSDT --timeframe 4h --k1 0.7 --k2 0.4 --from 2023-06-01 --to 2024-06-01
  thrust backtest --symbol BTC --from 2024-01-01 --to 2024-03-31 --save`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Pair to backtest, e.g. BTCUSDT or BTC (required)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD, inclusive (required)")
	backtestCmd.Flags().StringVar(&backtestTimeframe, "timeframe", "", "Candle timeframe, 1h or 4h (default from config)")
	backtestCmd.Flags().Float64Var(&backtestK1, "k1", 0, "Buy line coefficient (default from config)")
	backtestCmd.Flags().Float64Var(&backtestK2, "k2", 0, "Sell line coefficient (default from config)")
	backtestCmd.Flags().BoolVar(&backtestJSON, "json", false, "Print the result as JSON")
	backtestCmd.Flags().BoolVar(&backtestSave, "save", false, "Save the report to the configured archive")

	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	start, end, err := backtest.ParseDateRange(backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	tf, k1, k2, err := strategyFlags(cmd, cfg.Strategy.Timeframe, cfg.Strategy.K1, cfg.Strategy.K2,
		backtestTimeframe, backtestK1, backtestK2)
	if err != nil {
		return err
	}

	var reports *archive.Reports
	if backtestSave {
		if reports, err = newReports(cfg); err != nil {
			return err
		}
	}

	m := newMarket(cfg, log, nil)
	symbol, err := m.Normalize(backtestSymbol)
	if err != nil {
		return err
	}

	bt := backtest.New(m, backtest.WithLogger(log))
	res, err := bt.Run(cmd.Context(), backtest.Request{
		Symbol:    symbol,
		Timeframe: tf,
		K1:        k1,
		K2:        k2,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return err
	}

	if err := res.Stats.Err(); err != nil {
		log.Debug("some statistics are undefined", zap.Any("metrics", res.Stats.Undefined))
	}

	if reports != nil {
		key, err := reports.Save(cmd.Context(), res, start, end)
		if err != nil {
			return err
		}
		log.Info("report saved", zap.String("key", key))
		fmt.Fprintf(os.Stderr, "saved %s\n", key)
	}

	if backtestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return renderBacktest(os.Stdout, res, start, end)
}

// strategyFlags overlays the strategy flags the user set on the config defaults
func strategyFlags(cmd *cobra.Command, cfgTF string, cfgK1, cfgK2 float64, tfFlag string, k1Flag, k2Flag float64) (core.Timeframe, float64, float64, error) {
	tfName := cfgTF
	if cmd.Flags().Changed("timeframe") {
		tfName = tfFlag
	}
	tf, err := core.ParseTimeframe(tfName)
	if err != nil {
		return "", 0, 0, err
	}

	k1, k2 := cfgK1, cfgK2
	if cmd.Flags().Changed("k1") {
		k1 = k1Flag
	}
	if cmd.Flags().Changed("k2") {
		k2 = k2Flag
	}
	return tf, k1, k2, nil
}
