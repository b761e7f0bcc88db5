package dualthrust

import (
	"fmt"
	"time"

	"github.com/newthinker/thrust/internal/core"
)

// Breakout describes where the latest price sits relative to the lines
type Breakout string

const (
	BreakoutAbove  Breakout = "above"
	BreakoutBelow  Breakout = "below"
	BreakoutInside Breakout = "inside"
)

// Snapshot is the live view of the lines for the bar currently forming
type Snapshot struct {
	Symbol   string    `json:"symbol,omitempty"`
	Time     time.Time `json:"time"`
	Open     float64   `json:"open"`
	Price    float64   `json:"price"`
	Lines    Lines     `json:"lines"`
	Breakout Breakout  `json:"breakout"`
}

// Current treats the last candle as the bar in progress and builds its lines
// from the Lookback candles before it.
func Current(candles []core.Candle, p Params) (Snapshot, error) {
	if err := p.Validate(); err != nil {
		return Snapshot{}, err
	}
	if len(candles) < p.Lookback+1 {
		return Snapshot{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("need %d candles, got %d", p.Lookback+1, len(candles)))
	}

	last := candles[len(candles)-1]
	window := candles[len(candles)-1-p.Lookback : len(candles)-1]
	lines, err := Calculate(window, last.Open, p)
	if err != nil {
		return Snapshot{}, err
	}

	breakout := BreakoutInside
	switch {
	case last.Close > lines.BuyLine:
		breakout = BreakoutAbove
	case last.Close < lines.SellLine:
		breakout = BreakoutBelow
	}

	return Snapshot{
		Symbol:   last.Symbol,
		Time:     last.Time,
		Open:     last.Open,
		Price:    last.Close,
		Lines:    lines,
		Breakout: breakout,
	}, nil
}
