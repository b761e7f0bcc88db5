package dualthrust

import (
	"fmt"
	"math"

	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/indicator"
)

// Lines holds the breakout thresholds for one bar
type Lines struct {
	indicator.WindowExtremes
	Range    float64 `json:"range"`
	BuyLine  float64 `json:"buy_line"`
	SellLine float64 `json:"sell_line"`
}

// Calculate computes the breakout lines for a bar opening at open, from the
// Lookback candles strictly preceding it (oldest first).
func Calculate(window []core.Candle, open float64, p Params) (Lines, error) {
	if err := p.Validate(); err != nil {
		return Lines{}, err
	}
	if len(window) < p.Lookback {
		return Lines{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("window has %d candles, lookback is %d", len(window), p.Lookback))
	}
	if len(window) > p.Lookback {
		return Lines{}, core.WrapError(core.ErrInvalidConfig,
			fmt.Errorf("window has %d candles, lookback is %d", len(window), p.Lookback))
	}
	return FromExtremes(indicator.Extremes(window), open, p), nil
}

// FromExtremes applies the Dual Thrust formula to precomputed window extremes.
// range = max(HH-LC, HC-LL); the lines sit k1/k2 ranges above/below the open.
func FromExtremes(ext indicator.WindowExtremes, open float64, p Params) Lines {
	rng := math.Max(ext.HighestHigh-ext.LowestClose, ext.HighestClose-ext.LowestLow)
	return Lines{
		WindowExtremes: ext,
		Range:          rng,
		BuyLine:        open + p.K1*rng,
		SellLine:       open - p.K2*rng,
	}
}
