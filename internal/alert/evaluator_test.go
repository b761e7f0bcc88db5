package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/notifier"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []notifier.Alert
	errs map[string]error
}

func (s *recordingSender) NotifyAll(ctx context.Context, a notifier.Alert) map[string]error {
	s.sent = append(s.sent, a)
	return s.errs
}

func snapshot(b dualthrust.Breakout, price float64) dualthrust.Snapshot {
	return dualthrust.Snapshot{
		Time:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Price:    price,
		Lines:    dualthrust.Lines{BuyLine: 100.5, SellLine: 99.5},
		Breakout: b,
	}
}

func newTestEvaluator(s Sender) (*Evaluator, *time.Time) {
	e := NewEvaluator(s, nil)
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }
	return e, &clock
}

func TestEvaluator_FirstObservationIsBaseline(t *testing.T) {
	s := &recordingSender{}
	e, _ := newTestEvaluator(s)

	_, fired := e.Observe(context.Background(), "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutAbove, 101))
	assert.False(t, fired)
	assert.Empty(t, s.sent)
}

func TestEvaluator_FiresOnBreakout(t *testing.T) {
	s := &recordingSender{}
	e, _ := newTestEvaluator(s)
	ctx := context.Background()

	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutInside, 100))
	a, fired := e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutAbove, 101))

	require.True(t, fired)
	require.Len(t, s.sent, 1)
	assert.Equal(t, a, s.sent[0])
	assert.Equal(t, "BTCUSDT", a.Symbol)
	assert.Equal(t, "1h", a.Timeframe)
	assert.Equal(t, "inside", a.From)
	assert.Equal(t, "above", a.To)
	assert.Equal(t, 101.0, a.Price)
	assert.Equal(t, 100.5, a.BuyLine)
	assert.Equal(t, 99.5, a.SellLine)
}

func TestEvaluator_NoAlertWithoutChange(t *testing.T) {
	s := &recordingSender{}
	e, _ := newTestEvaluator(s)
	ctx := context.Background()

	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutInside, 100))
	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutInside, 100.2))
	// Falling back inside is not an alert.
	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutAbove, 101))
	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutAbove, 101.5))
	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutInside, 100))

	assert.Len(t, s.sent, 1)
}

func TestEvaluator_Cooldown(t *testing.T) {
	s := &recordingSender{}
	e, clock := newTestEvaluator(s)
	e.SetCooldown(10 * time.Minute)
	ctx := context.Background()

	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutInside, 100))
	_, fired := e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutAbove, 101))
	require.True(t, fired)

	*clock = clock.Add(time.Minute)
	_, fired = e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutBelow, 99))
	assert.False(t, fired, "within cooldown")

	*clock = clock.Add(15 * time.Minute)
	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutInside, 100))
	a, fired := e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutBelow, 99))
	require.True(t, fired)
	assert.Equal(t, "below", a.To)
	assert.Len(t, s.sent, 2)
}

func TestEvaluator_KeysAreIndependent(t *testing.T) {
	s := &recordingSender{}
	e, _ := newTestEvaluator(s)
	ctx := context.Background()

	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutInside, 100))
	_, fired := e.Observe(ctx, "BTCUSDT", core.Timeframe4h, snapshot(dualthrust.BreakoutAbove, 101))
	assert.False(t, fired, "4h has no baseline yet")

	_, fired = e.Observe(ctx, "ETHUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutAbove, 101))
	assert.False(t, fired)
}

func TestEvaluator_DeliveryErrorsDoNotSuppress(t *testing.T) {
	s := &recordingSender{errs: map[string]error{"webhook": errors.New("timeout")}}
	e, _ := newTestEvaluator(s)
	ctx := context.Background()

	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutInside, 100))
	_, fired := e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutBelow, 99))
	assert.True(t, fired)
}

func TestEvaluator_NilSender(t *testing.T) {
	e := NewEvaluator(nil, nil)
	ctx := context.Background()

	e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutInside, 100))
	_, fired := e.Observe(ctx, "BTCUSDT", core.Timeframe1h, snapshot(dualthrust.BreakoutAbove, 101))
	assert.True(t, fired)
}
