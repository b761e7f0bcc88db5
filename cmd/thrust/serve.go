package main

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/thrust/internal/api"
	handler "github.com/newthinker/thrust/internal/api/handler/api"
	"github.com/newthinker/thrust/internal/api/job"
	"github.com/newthinker/thrust/internal/backtest"
	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the thrust HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	var reg *metrics.Registry
	var m *market
	btOpts := []backtest.Option{backtest.WithLogger(log.Named("backtest"))}
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		m = newMarket(cfg, log, reg)
		btOpts = append(btOpts, backtest.WithRecorder(reg))
	} else {
		m = newMarket(cfg, log, nil)
	}

	minVolume, err := cfg.MinQuoteVolume()
	if err != nil {
		return err
	}
	tf, err := core.ParseTimeframe(cfg.Strategy.Timeframe)
	if err != nil {
		return err
	}

	log.Info("starting thrust server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Strings("providers", m.Providers()),
		zap.Bool("auth", cfg.Server.APIKey != ""),
	)

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{
		Backtester: backtest.New(m, btOpts...),
		Market:     m,
		Jobs:       job.NewStore(cfg.Server.MaxJobs, cfg.Server.JobTTL),
		Metrics:    reg,
		Defaults: handler.StrategyDefaults{
			Timeframe: tf,
			K1:        cfg.Strategy.K1,
			K2:        cfg.Strategy.K2,
		},
		Quote:     cfg.Screener.Quote,
		MinVolume: minVolume,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cmd.Context())
	}()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	log.Info("shutting down thrust server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
