package crypto

import (
	"context"
	"sort"
	"time"

	"github.com/newthinker/thrust/internal/core"
)

// Provider defines the interface for exchange candle sources
type Provider interface {
	// Name returns the provider identifier (e.g., "binance", "okx")
	Name() string

	// FetchHistory fetches candles whose open time lies in [start, end]
	// symbol: normalized format (e.g., "BTCUSDT")
	// interval: "1h", "4h"
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Candle, error)

	// FetchRecent fetches the latest limit candles, oldest first
	FetchRecent(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error)
}

// SortCandles orders candles by open time and drops repeated bars left by
// overlapping pages. The input slice is reused.
func SortCandles(candles []core.Candle) []core.Candle {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
	out := candles[:0]
	for _, c := range candles {
		if len(out) > 0 && c.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, c)
	}
	return out
}
