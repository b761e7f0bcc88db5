package main

import (
	"context"
	"fmt"
	"os"

	"github.com/newthinker/thrust/internal/collector/crypto"
	"github.com/newthinker/thrust/internal/watch"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	symbolsQuote     string
	symbolsMinVolume string
	symbolsLimit     int
	symbolsWatch     bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List liquid trading pairs",
	Long: `List pairs quoted in the screener quote asset whose 24h quote volume is
above the configured minimum, most traded first.`,
	RunE: runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&symbolsQuote, "quote", "", "Quote asset (default from config)")
	symbolsCmd.Flags().StringVar(&symbolsMinVolume, "min-volume", "", "Minimum 24h quote volume (default from config)")
	symbolsCmd.Flags().IntVarP(&symbolsLimit, "limit", "n", 0, "Show at most n pairs (0 for all)")
	symbolsCmd.Flags().BoolVarP(&symbolsWatch, "watch", "w", false, "Refresh until interrupted")

	rootCmd.AddCommand(symbolsCmd)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	quote := cfg.Screener.Quote
	if symbolsQuote != "" {
		quote = symbolsQuote
	}
	minVolume, err := cfg.MinQuoteVolume()
	if err != nil {
		return err
	}
	if symbolsMinVolume != "" {
		if minVolume, err = decimal.NewFromString(symbolsMinVolume); err != nil {
			return fmt.Errorf("invalid --min-volume: %w", err)
		}
	}

	m := newMarket(cfg, log, nil)

	show := func(ctx context.Context) error {
		tickers, err := m.FetchTickers(ctx)
		if err != nil {
			return err
		}
		liquid := crypto.FilterLiquid(tickers, quote, minVolume)
		if symbolsLimit > 0 && len(liquid) > symbolsLimit {
			liquid = liquid[:symbolsLimit]
		}
		return renderSymbols(os.Stdout, liquid)
	}

	if !symbolsWatch {
		return show(cmd.Context())
	}

	first := true
	watch.Poller{Interval: cfg.Watch.Interval, Name: "symbols", Logger: log}.Run(cmd.Context(), func(ctx context.Context) error {
		if !first {
			separator(os.Stdout)
		}
		first = false
		return show(ctx)
	})
	return nil
}
