package main

import (
	"context"
	"fmt"

	"github.com/newthinker/thrust/internal/collector/crypto"
	"github.com/newthinker/thrust/internal/collector/crypto/binance"
	"github.com/newthinker/thrust/internal/collector/crypto/okx"
	"github.com/newthinker/thrust/internal/config"
	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/logger"
	"github.com/newthinker/thrust/internal/notifier"
	"github.com/newthinker/thrust/internal/notifier/telegram"
	"github.com/newthinker/thrust/internal/notifier/webhook"
	"github.com/newthinker/thrust/internal/storage/archive"
	"go.uber.org/zap"
)

// loadConfig reads --config, or the defaults when it is not given
func loadConfig() (*config.Config, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lc := logger.Config{
		Development: cfg.Log.Development || debug,
		Level:       cfg.Log.Level,
	}
	if debug {
		lc.Level = "debug"
	}
	return logger.New(lc)
}

// collectorRecorder is satisfied by the metrics registry
type collectorRecorder interface {
	binance.Recorder
	okx.Recorder
}

// market bundles the exchange clients the commands need
type market struct {
	*crypto.Collector
	tickers *binance.Binance
}

// newMarket wires Binance as the primary candle source and OKX as fallback.
// Tickers always come from Binance.
func newMarket(cfg *config.Config, log *zap.Logger, rec collectorRecorder) *market {
	bopts := []binance.Option{
		binance.WithBaseURL(cfg.Binance.BaseURL),
		binance.WithTimeout(cfg.Binance.Timeout),
		binance.WithRateLimit(cfg.Binance.RequestsPerSecond, cfg.Binance.Burst),
		binance.WithLogger(log.Named("binance")),
	}
	if rec != nil {
		bopts = append(bopts, binance.WithRecorder(rec))
	}
	b := binance.New(bopts...)

	providers := []crypto.Provider{b}
	if cfg.OKX.Enabled {
		oopts := []okx.Option{
			okx.WithBaseURL(cfg.OKX.BaseURL),
			okx.WithTimeout(cfg.OKX.Timeout),
			okx.WithRateLimit(cfg.OKX.RequestsPerSecond, cfg.OKX.Burst),
			okx.WithLogger(log.Named("okx")),
		}
		if rec != nil {
			oopts = append(oopts, okx.WithRecorder(rec))
		}
		providers = append(providers, okx.New(oopts...))
	}

	return &market{
		Collector: crypto.New(cfg.Screener.Quote, log.Named("collector"), providers...),
		tickers:   b,
	}
}

func (m *market) FetchTickers(ctx context.Context) ([]core.Ticker, error) {
	return m.tickers.FetchTickers(ctx)
}

// newNotifiers registers the alert channels that have a destination configured
func newNotifiers(cfg *config.Config) (*notifier.Registry, error) {
	reg := notifier.NewRegistry()

	if wc := cfg.Alerts.Webhook; wc.URL != "" {
		w, err := webhook.New(wc.URL, wc.Headers, wc.Timeout)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(w); err != nil {
			return nil, err
		}
	}

	if tc := cfg.Alerts.Telegram; tc.BotToken != "" {
		tg, err := telegram.New(tc.BotToken, tc.ChatID)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(tg); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// newReports opens the configured report archive
func newReports(cfg *config.Config) (*archive.Reports, error) {
	var (
		store archive.Storage
		err   error
	)
	switch cfg.Archive.Type {
	case "local":
		store, err = archive.NewLocalFS(cfg.Archive.Path)
	case "s3":
		sc := cfg.Archive.S3
		store, err = archive.NewS3(archive.S3Config{
			Bucket:    sc.Bucket,
			Endpoint:  sc.Endpoint,
			Region:    sc.Region,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
			Prefix:    sc.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("no report archive configured, set archive.type"))
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s archive: %w", cfg.Archive.Type, err)
	}
	return archive.NewReports(store), nil
}
