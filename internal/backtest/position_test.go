package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
)

func lines(buy, sell float64) dualthrust.Lines {
	return dualthrust.Lines{BuyLine: buy, SellLine: sell}
}

func TestStateMachine_StartsFlat(t *testing.T) {
	m := NewStateMachine()
	if _, ok := m.Position().(Flat); !ok {
		t.Fatalf("initial position = %T, want Flat", m.Position())
	}
	if m.Open() != nil {
		t.Error("flat machine should report no open position")
	}
}

func TestStateMachine_Transitions(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	tests := []struct {
		name      string
		start     Position
		bar       Bar
		wantPos   Position
		wantTrade *Trade
	}{
		{
			name:    "flat stays flat inside lines",
			start:   Flat{},
			bar:     Bar{Time: t1, High: 104, Low: 98},
			wantPos: Flat{},
		},
		{
			name:    "flat enters long above buy line",
			start:   Flat{},
			bar:     Bar{Time: t1, High: 110, Low: 99},
			wantPos: Long{EntryPrice: 105, EntryTime: t1},
		},
		{
			name:    "flat enters short below sell line",
			start:   Flat{},
			bar:     Bar{Time: t1, High: 101, Low: 90},
			wantPos: Short{EntryPrice: 95, EntryTime: t1},
		},
		{
			name:    "long wins the tie when both lines are crossed",
			start:   Flat{},
			bar:     Bar{Time: t1, High: 110, Low: 90},
			wantPos: Long{EntryPrice: 105, EntryTime: t1},
		},
		{
			name:    "touching the line is not a breakout",
			start:   Flat{},
			bar:     Bar{Time: t1, High: 105, Low: 95},
			wantPos: Flat{},
		},
		{
			name:    "long holds while low stays above sell line",
			start:   Long{EntryPrice: 100, EntryTime: t0},
			bar:     Bar{Time: t1, High: 120, Low: 96},
			wantPos: Long{EntryPrice: 100, EntryTime: t0},
		},
		{
			name:    "long exits at sell line",
			start:   Long{EntryPrice: 100, EntryTime: t0},
			bar:     Bar{Time: t1, High: 101, Low: 90},
			wantPos: Flat{},
			wantTrade: &Trade{
				Side: core.SideLong, EntryPrice: 100, ExitPrice: 95,
				EntryTime: t0, ExitTime: t1, PnL: -5, PnLPercent: -5,
			},
		},
		{
			name:    "short exits at buy line",
			start:   Short{EntryPrice: 110, EntryTime: t0},
			bar:     Bar{Time: t1, High: 106, Low: 100},
			wantPos: Flat{},
			wantTrade: &Trade{
				Side: core.SideShort, EntryPrice: 110, ExitPrice: 105,
				EntryTime: t0, ExitTime: t1, PnL: 5, PnLPercent: 5.0 / 110 * 100,
			},
		},
		{
			name:    "exit bar does not reverse into a new position",
			start:   Short{EntryPrice: 100, EntryTime: t0},
			bar:     Bar{Time: t1, High: 130, Low: 80},
			wantPos: Flat{},
			wantTrade: &Trade{
				Side: core.SideShort, EntryPrice: 100, ExitPrice: 105,
				EntryTime: t0, ExitTime: t1, PnL: -5, PnLPercent: -5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &StateMachine{pos: tt.start}
			trade, closed, err := m.Step(tt.bar, lines(105, 95))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Position() != tt.wantPos {
				t.Errorf("position = %#v, want %#v", m.Position(), tt.wantPos)
			}
			if closed != (tt.wantTrade != nil) {
				t.Fatalf("closed = %v, want %v", closed, tt.wantTrade != nil)
			}
			if tt.wantTrade != nil && trade != *tt.wantTrade {
				t.Errorf("trade = %+v, want %+v", trade, *tt.wantTrade)
			}
		})
	}
}

func TestStateMachine_OpenReportsPayload(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewStateMachine()
	if _, _, err := m.Step(Bar{Time: t0, High: 101, Low: 90}, lines(105, 95)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	open := m.Open()
	if open == nil {
		t.Fatal("expected open short position")
	}
	if open.Side != core.SideShort || open.EntryPrice != 95 || !open.EntryTime.Equal(t0) {
		t.Errorf("unexpected open position %+v", open)
	}
}

func TestStateMachine_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		bar   Bar
		lines dualthrust.Lines
	}{
		{"nan buy line", Bar{High: 101, Low: 99}, lines(math.NaN(), 95)},
		{"inf sell line", Bar{High: 101, Low: 99}, lines(105, math.Inf(-1))},
		{"high below low", Bar{High: 98, Low: 99}, lines(105, 95)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateMachine()
			_, _, err := m.Step(tt.bar, tt.lines)
			if !errors.Is(err, core.ErrMalformedData) {
				t.Fatalf("expected MALFORMED_DATA, got %v", err)
			}
			if _, ok := m.Position().(Flat); !ok {
				t.Error("rejected step must not change the position")
			}
		})
	}
}
