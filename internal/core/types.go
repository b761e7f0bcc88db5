package core

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe is the candle interval a strategy runs on
type Timeframe string

const (
	Timeframe1h Timeframe = "1h"
	Timeframe4h Timeframe = "4h"
)

// ParseTimeframe validates a timeframe string
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(s); tf {
	case Timeframe1h, Timeframe4h:
		return tf, nil
	default:
		return "", WrapError(ErrInvalidConfig, fmt.Errorf("unsupported timeframe %q (want 1h or 4h)", s))
	}
}

// Lookback returns the number of preceding bars the breakout range is built from.
// It is derived from the timeframe and is not settable on its own.
func (tf Timeframe) Lookback() int {
	switch tf {
	case Timeframe1h:
		return 24
	case Timeframe4h:
		return 6
	default:
		return 0
	}
}

// Duration returns the length of one bar
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe1h:
		return time.Hour
	case Timeframe4h:
		return 4 * time.Hour
	default:
		return 0
	}
}

// Side is the direction of a position or trade
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Candle represents an OHLCV bar
type Candle struct {
	Symbol   string    `json:"symbol,omitempty"`
	Interval string    `json:"interval,omitempty"`
	Time     time.Time `json:"time"` // open time
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Validate checks the OHLC invariant: High bounds every price from above and
// Low bounds every price from below. Prices must be positive.
func (c Candle) Validate() error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return WrapError(ErrMalformedData, fmt.Errorf("candle at %s has non-finite value", c.Time.Format(time.RFC3339)))
		}
	}
	if c.Low <= 0 || c.Volume < 0 {
		return WrapError(ErrMalformedData, fmt.Errorf("candle at %s has non-positive price or negative volume", c.Time.Format(time.RFC3339)))
	}
	if c.High < math.Max(c.Open, math.Max(c.Close, c.Low)) {
		return WrapError(ErrMalformedData, fmt.Errorf("candle at %s: high %v below open/close/low", c.Time.Format(time.RFC3339), c.High))
	}
	if c.Low > math.Min(c.Open, math.Min(c.Close, c.High)) {
		return WrapError(ErrMalformedData, fmt.Errorf("candle at %s: low %v above open/close/high", c.Time.Format(time.RFC3339), c.Low))
	}
	return nil
}

// Ticker is a 24h rolling summary for a trading pair
type Ticker struct {
	Symbol      string          `json:"symbol"`
	LastPrice   decimal.Decimal `json:"last_price"`
	QuoteVolume decimal.Decimal `json:"quote_volume"`
	Time        time.Time       `json:"time"`
}
