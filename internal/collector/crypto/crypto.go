package crypto

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/thrust/internal/core"
	"go.uber.org/zap"
)

// Collector normalizes symbols and fetches candles from the first provider
// that answers.
type Collector struct {
	providers    []Provider
	defaultQuote string
	logger       *zap.Logger
}

// New creates a Collector trying providers in order
func New(defaultQuote string, logger *zap.Logger, providers ...Provider) *Collector {
	if defaultQuote == "" {
		defaultQuote = "USDT"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		providers:    providers,
		defaultQuote: defaultQuote,
		logger:       logger,
	}
}

func (c *Collector) Name() string {
	return "crypto"
}

// Providers returns the provider names in fallback order
func (c *Collector) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// FetchHistory fetches historical candles with automatic fallback
func (c *Collector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Candle, error) {
	normalized, err := c.normalize(symbol)
	if err != nil {
		return nil, err
	}

	return c.each(ctx, normalized, func(p Provider) ([]core.Candle, error) {
		return p.FetchHistory(ctx, normalized, start, end, interval)
	})
}

// FetchRecent fetches the latest candles with automatic fallback
func (c *Collector) FetchRecent(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error) {
	normalized, err := c.normalize(symbol)
	if err != nil {
		return nil, err
	}

	return c.each(ctx, normalized, func(p Provider) ([]core.Candle, error) {
		return p.FetchRecent(ctx, normalized, interval, limit)
	})
}

// Normalize validates a user supplied symbol and returns the exchange form
func (c *Collector) Normalize(symbol string) (string, error) {
	return c.normalize(symbol)
}

func (c *Collector) normalize(symbol string) (string, error) {
	if err := ValidateCryptoSymbol(symbol); err != nil {
		return "", core.WrapError(core.ErrInvalidConfig, err)
	}
	return NormalizeSymbol(symbol, c.defaultQuote), nil
}

// each tries providers in order. An empty answer falls through to the next
// provider; a cancelled context stops the search.
func (c *Collector) each(ctx context.Context, symbol string, fetch func(Provider) ([]core.Candle, error)) ([]core.Candle, error) {
	if len(c.providers) == 0 {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("no providers configured"))
	}

	var lastErr error
	for _, p := range c.providers {
		data, err := fetch(p)
		if err == nil && len(data) > 0 {
			for i := range data {
				data[i].Symbol = symbol
			}
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			c.logger.Warn("provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all providers failed for %s: %w", symbol, lastErr)
	}
	// every provider answered with no candles
	return nil, nil
}
