package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		input    string
		want     Timeframe
		lookback int
		wantErr  bool
	}{
		{"1h", Timeframe1h, 24, false},
		{"4h", Timeframe4h, 6, false},
		{"1d", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tf, err := ParseTimeframe(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeframe(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected INVALID_CONFIG, got %v", err)
				}
				return
			}
			if tf != tt.want {
				t.Errorf("ParseTimeframe(%q) = %s, want %s", tt.input, tf, tt.want)
			}
			if tf.Lookback() != tt.lookback {
				t.Errorf("Lookback() = %d, want %d", tf.Lookback(), tt.lookback)
			}
		})
	}
}

func TestTimeframe_Duration(t *testing.T) {
	if Timeframe1h.Duration() != time.Hour {
		t.Errorf("1h duration = %v", Timeframe1h.Duration())
	}
	if Timeframe4h.Duration() != 4*time.Hour {
		t.Errorf("4h duration = %v", Timeframe4h.Duration())
	}
}

func TestCandle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Candle
		wantErr bool
	}{
		{"valid", Candle{Open: 100, High: 105, Low: 95, Close: 102}, false},
		{"flat bar", Candle{Open: 100, High: 100, Low: 100, Close: 100}, false},
		{"high below close", Candle{Open: 100, High: 101, Low: 95, Close: 102}, true},
		{"low above open", Candle{Open: 94, High: 105, Low: 95, Close: 102}, true},
		{"high below low", Candle{Open: 100, High: 90, Low: 95, Close: 92}, true},
		{"zero low", Candle{Open: 1, High: 2, Low: 0, Close: 1}, true},
		{"negative volume", Candle{Open: 100, High: 105, Low: 95, Close: 102, Volume: -1}, true},
		{"nan close", Candle{Open: 100, High: 105, Low: 95, Close: math.NaN()}, true},
		{"inf high", Candle{Open: 100, High: math.Inf(1), Low: 95, Close: 102}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedData) {
				t.Errorf("expected MALFORMED_DATA, got %v", err)
			}
		})
	}
}

func TestSide_Constants(t *testing.T) {
	sides := []Side{SideLong, SideShort}
	expected := []string{"long", "short"}

	for i, s := range sides {
		if string(s) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], s)
		}
	}
}
