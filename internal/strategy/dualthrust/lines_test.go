package dualthrust

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/newthinker/thrust/internal/core"
)

func scenarioCandles() []core.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []core.Candle{
		{Time: base, Open: 100, High: 105, Low: 95, Close: 102},
		{Time: base.Add(time.Hour), Open: 102, High: 104, Low: 98, Close: 100},
		{Time: base.Add(2 * time.Hour), Open: 101, High: 110, Low: 99, Close: 108},
	}
}

func TestCalculate_Scenario(t *testing.T) {
	candles := scenarioCandles()
	p := Params{K1: 0.5, K2: 0.5, Lookback: 2}

	// HH=105, LL=95, HC=102, LC=100
	// range = max(105-100, 102-95) = 7
	// buy = 101 + 3.5, sell = 101 - 3.5
	lines, err := Calculate(candles[:2], candles[2].Open, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lines.HighestHigh != 105 || lines.LowestLow != 95 || lines.HighestClose != 102 || lines.LowestClose != 100 {
		t.Errorf("unexpected extremes: %+v", lines.WindowExtremes)
	}
	if lines.Range != 7 {
		t.Errorf("Range = %v, want 7", lines.Range)
	}
	if lines.BuyLine != 104.5 {
		t.Errorf("BuyLine = %v, want 104.5", lines.BuyLine)
	}
	if lines.SellLine != 97.5 {
		t.Errorf("SellLine = %v, want 97.5", lines.SellLine)
	}
}

func TestCalculate_AsymmetricCoefficients(t *testing.T) {
	candles := scenarioCandles()
	p := Params{K1: 1, K2: 0.2, Lookback: 2}

	lines, err := Calculate(candles[:2], 101, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines.BuyLine != 108 {
		t.Errorf("BuyLine = %v, want 108", lines.BuyLine)
	}
	if math.Abs(lines.SellLine-99.6) > 1e-9 {
		t.Errorf("SellLine = %v, want 99.6", lines.SellLine)
	}
}

func TestCalculate_InsufficientWindow(t *testing.T) {
	candles := scenarioCandles()
	p := Params{K1: 0.5, K2: 0.5, Lookback: 3}

	_, err := Calculate(candles[:2], 101, p)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected INSUFFICIENT_DATA, got %v", err)
	}
}

func TestCalculate_OversizedWindow(t *testing.T) {
	candles := scenarioCandles()
	p := Params{K1: 0.5, K2: 0.5, Lookback: 2}

	_, err := Calculate(candles, 101, p)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestCalculate_InvalidParams(t *testing.T) {
	candles := scenarioCandles()
	_, err := Calculate(candles[:2], 101, Params{K1: 0, K2: 0.5, Lookback: 2})
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestCalculate_LinesBracketOpen(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := Params{K1: 0.7, K2: 0.3, Lookback: 6}

	for trial := 0; trial < 200; trial++ {
		window := make([]core.Candle, p.Lookback)
		price := 50 + rng.Float64()*100
		for i := range window {
			open := price
			price += rng.NormFloat64() * 2
			window[i] = core.Candle{
				Open:  open,
				High:  math.Max(open, price) + rng.Float64(),
				Low:   math.Min(open, price) - rng.Float64(),
				Close: price,
			}
		}
		open := price + rng.NormFloat64()

		lines, err := Calculate(window, open, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lines.Range < 0 {
			t.Fatalf("trial %d: negative range %v", trial, lines.Range)
		}
		if !(lines.BuyLine >= open && open >= lines.SellLine) {
			t.Fatalf("trial %d: lines %v/%v do not bracket open %v", trial, lines.BuyLine, lines.SellLine, open)
		}
	}
}

func TestParamsFor(t *testing.T) {
	p, err := ParamsFor(core.Timeframe4h, 0.4, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lookback != 6 {
		t.Errorf("Lookback = %d, want 6", p.Lookback)
	}

	if _, err := ParamsFor(core.Timeframe("1d"), 0.5, 0.5); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for unknown timeframe, got %v", err)
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"valid", Params{K1: 0.5, K2: 0.5, Lookback: 24}, false},
		{"large coefficients", Params{K1: 5, K2: 3, Lookback: 6}, false},
		{"zero k1", Params{K1: 0, K2: 0.5, Lookback: 24}, true},
		{"negative k2", Params{K1: 0.5, K2: -0.1, Lookback: 24}, true},
		{"nan k1", Params{K1: math.NaN(), K2: 0.5, Lookback: 24}, true},
		{"zero lookback", Params{K1: 0.5, K2: 0.5, Lookback: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
