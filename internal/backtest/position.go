package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
)

// Position is the state of the simulated account: Flat, Long or Short.
type Position interface {
	isPosition()
}

// Flat holds no position
type Flat struct{}

// Long holds a long position entered at the buy line
type Long struct {
	EntryPrice float64
	EntryTime  time.Time
}

// Short holds a short position entered at the sell line
type Short struct {
	EntryPrice float64
	EntryTime  time.Time
}

func (Flat) isPosition()  {}
func (Long) isPosition()  {}
func (Short) isPosition() {}

// Bar is the part of a candle the state machine reacts to
type Bar struct {
	Time time.Time
	High float64
	Low  float64
}

// StateMachine applies the breakout entry and exit rules one bar at a time
type StateMachine struct {
	pos Position
}

// NewStateMachine returns a machine in the Flat state
func NewStateMachine() *StateMachine {
	return &StateMachine{pos: Flat{}}
}

// Position returns the current position
func (m *StateMachine) Position() Position {
	return m.pos
}

// Step advances one bar. It returns the closed trade and true when the bar
// exits a position. A bar that exits never enters; the next chance is the
// following bar. When flat and both lines are crossed, long is taken.
func (m *StateMachine) Step(bar Bar, lines dualthrust.Lines) (Trade, bool, error) {
	if err := checkStep(bar, lines); err != nil {
		return Trade{}, false, err
	}

	switch p := m.pos.(type) {
	case Flat:
		if bar.High > lines.BuyLine {
			m.pos = Long{EntryPrice: lines.BuyLine, EntryTime: bar.Time}
		} else if bar.Low < lines.SellLine {
			m.pos = Short{EntryPrice: lines.SellLine, EntryTime: bar.Time}
		}
	case Long:
		if bar.Low < lines.SellLine {
			m.pos = Flat{}
			return closeTrade(core.SideLong, p.EntryPrice, lines.SellLine, p.EntryTime, bar.Time), true, nil
		}
	case Short:
		if bar.High > lines.BuyLine {
			m.pos = Flat{}
			return closeTrade(core.SideShort, p.EntryPrice, lines.BuyLine, p.EntryTime, bar.Time), true, nil
		}
	}
	return Trade{}, false, nil
}

// Open reports the position still held, nil when flat
func (m *StateMachine) Open() *OpenPosition {
	switch p := m.pos.(type) {
	case Long:
		return &OpenPosition{Side: core.SideLong, EntryPrice: p.EntryPrice, EntryTime: p.EntryTime}
	case Short:
		return &OpenPosition{Side: core.SideShort, EntryPrice: p.EntryPrice, EntryTime: p.EntryTime}
	default:
		return nil
	}
}

func closeTrade(side core.Side, entry, exit float64, entryTime, exitTime time.Time) Trade {
	pnl := exit - entry
	if side == core.SideShort {
		pnl = entry - exit
	}
	return Trade{
		Side:       side,
		EntryPrice: entry,
		ExitPrice:  exit,
		EntryTime:  entryTime,
		ExitTime:   exitTime,
		PnL:        pnl,
		PnLPercent: pnl / entry * 100,
	}
}

func checkStep(bar Bar, lines dualthrust.Lines) error {
	for _, v := range []float64{bar.High, bar.Low, lines.BuyLine, lines.SellLine} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.WrapError(core.ErrMalformedData, fmt.Errorf("non-finite price at %s", bar.Time.Format(time.RFC3339)))
		}
	}
	if bar.High < bar.Low {
		return core.WrapError(core.ErrMalformedData, fmt.Errorf("bar at %s has high %v below low %v", bar.Time.Format(time.RFC3339), bar.High, bar.Low))
	}
	return nil
}
