package indicator

import (
	"math"

	"github.com/newthinker/thrust/internal/core"
)

// WindowExtremes holds the price extremes of a candle window
type WindowExtremes struct {
	HighestHigh  float64 `json:"hh"`
	LowestLow    float64 `json:"ll"`
	HighestClose float64 `json:"hc"`
	LowestClose  float64 `json:"lc"`
}

// Extremes scans the window once. An empty window yields infinities,
// callers must check the length first.
func Extremes(window []core.Candle) WindowExtremes {
	ext := WindowExtremes{
		HighestHigh:  math.Inf(-1),
		LowestLow:    math.Inf(1),
		HighestClose: math.Inf(-1),
		LowestClose:  math.Inf(1),
	}
	for _, c := range window {
		ext.HighestHigh = math.Max(ext.HighestHigh, c.High)
		ext.LowestLow = math.Min(ext.LowestLow, c.Low)
		ext.HighestClose = math.Max(ext.HighestClose, c.Close)
		ext.LowestClose = math.Min(ext.LowestClose, c.Close)
	}
	return ext
}
