package dualthrust

import (
	"fmt"
	"math"

	"github.com/newthinker/thrust/internal/core"
)

// Default breakout coefficients
const (
	DefaultK1 = 0.5
	DefaultK2 = 0.5
)

// Params configures the Dual Thrust breakout lines
type Params struct {
	K1       float64 `json:"k1"`
	K2       float64 `json:"k2"`
	Lookback int     `json:"lookback"`
}

// ParamsFor derives the lookback from the timeframe
func ParamsFor(tf core.Timeframe, k1, k2 float64) (Params, error) {
	p := Params{K1: k1, K2: k2, Lookback: tf.Lookback()}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate rejects non-positive coefficients and lookback
func (p Params) Validate() error {
	if math.IsNaN(p.K1) || math.IsInf(p.K1, 0) || p.K1 <= 0 {
		return core.WrapError(core.ErrInvalidConfig, fmt.Errorf("k1 must be positive, got %v", p.K1))
	}
	if math.IsNaN(p.K2) || math.IsInf(p.K2, 0) || p.K2 <= 0 {
		return core.WrapError(core.ErrInvalidConfig, fmt.Errorf("k2 must be positive, got %v", p.K2))
	}
	if p.Lookback <= 0 {
		return core.WrapError(core.ErrInvalidConfig, fmt.Errorf("lookback must be positive, got %d", p.Lookback))
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("k1=%g k2=%g lookback=%d", p.K1, p.K2, p.Lookback)
}
