package main

import (
	"context"
	"os"

	"github.com/newthinker/thrust/internal/alert"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
	"github.com/newthinker/thrust/internal/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	signalSymbol    string
	signalTimeframe string
	signalK1        float64
	signalK2        float64
	signalWatch     bool
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Show the live Dual Thrust lines for a pair",
	Long: `Fetch the latest candles and show the buy and sell lines for the bar in
progress, and whether the price has broken out. With --watch the lines are
refreshed every watch interval, and each new breakout is sent to the alert
channels configured under alerts.`,
	RunE: runSignal,
}

func init() {
	signalCmd.Flags().StringVar(&signalSymbol, "symbol", "", "Pair, e.g. BTCUSDT or BTC (required)")
	signalCmd.Flags().StringVar(&signalTimeframe, "timeframe", "", "Candle timeframe, 1h or 4h (default from config)")
	signalCmd.Flags().Float64Var(&signalK1, "k1", 0, "Buy line coefficient (default from config)")
	signalCmd.Flags().Float64Var(&signalK2, "k2", 0, "Sell line coefficient (default from config)")
	signalCmd.Flags().BoolVarP(&signalWatch, "watch", "w", false, "Refresh until interrupted")

	signalCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(signalCmd)
}

func runSignal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	tf, k1, k2, err := strategyFlags(cmd, cfg.Strategy.Timeframe, cfg.Strategy.K1, cfg.Strategy.K2,
		signalTimeframe, signalK1, signalK2)
	if err != nil {
		return err
	}
	params, err := dualthrust.ParamsFor(tf, k1, k2)
	if err != nil {
		return err
	}

	m := newMarket(cfg, log, nil)

	symbol, err := m.Normalize(signalSymbol)
	if err != nil {
		return err
	}

	var evaluator *alert.Evaluator
	if signalWatch {
		reg, err := newNotifiers(cfg)
		if err != nil {
			return err
		}
		if reg.Len() > 0 {
			log.Info("breakout alerts enabled", zap.Strings("notifiers", reg.Names()))
		}
		evaluator = alert.NewEvaluator(reg, log.Named("alert"))
		evaluator.SetCooldown(cfg.Alerts.Cooldown)
	}

	show := func(ctx context.Context) error {
		candles, err := m.FetchRecent(ctx, symbol, string(tf), params.Lookback+1)
		if err != nil {
			return err
		}
		snap, err := dualthrust.Current(candles, params)
		if err != nil {
			return err
		}
		renderSnapshot(os.Stdout, snap, tf)
		if evaluator != nil {
			evaluator.Observe(ctx, symbol, tf, snap)
		}
		return nil
	}

	if !signalWatch {
		return show(cmd.Context())
	}

	first := true
	// Run only returns ctx.Err(); Ctrl-C ends the watch cleanly.
	_ = watch.Poller{Interval: cfg.Watch.Interval, Name: "signal", Logger: log}.Run(cmd.Context(), func(ctx context.Context) error {
		if !first {
			separator(os.Stdout)
		}
		first = false
		return show(ctx)
	})
	return nil
}
