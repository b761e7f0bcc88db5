// Package alert turns live Dual Thrust snapshots into breakout alerts.
package alert

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/notifier"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
	"go.uber.org/zap"
)

// Sender fans an alert out to its notifiers. *notifier.Registry satisfies it.
type Sender interface {
	NotifyAll(ctx context.Context, a notifier.Alert) map[string]error
}

// Evaluator remembers the last breakout state per symbol and timeframe and
// fires when the price moves above the buy line or below the sell line.
type Evaluator struct {
	sender   Sender
	logger   *zap.Logger
	cooldown time.Duration

	last      map[string]dualthrust.Breakout
	lastFired map[string]time.Time

	now func() time.Time

	mu sync.Mutex
}

// NewEvaluator creates a new alert evaluator.
func NewEvaluator(sender Sender, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		sender:    sender,
		logger:    logger,
		cooldown:  5 * time.Minute,
		last:      make(map[string]dualthrust.Breakout),
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetCooldown sets the minimum time between two alerts for the same key.
func (e *Evaluator) SetCooldown(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldown = d
}

// Observe records snap and sends an alert if the breakout state changed to
// above or below. The first snapshot for a key only sets the baseline.
func (e *Evaluator) Observe(ctx context.Context, symbol string, tf core.Timeframe, snap dualthrust.Snapshot) (notifier.Alert, bool) {
	key := symbol + "|" + string(tf)

	e.mu.Lock()
	prev, seen := e.last[key]
	e.last[key] = snap.Breakout
	if !seen || prev == snap.Breakout || snap.Breakout == dualthrust.BreakoutInside {
		e.mu.Unlock()
		return notifier.Alert{}, false
	}

	now := e.now()
	if fired, ok := e.lastFired[key]; ok && now.Sub(fired) < e.cooldown {
		e.mu.Unlock()
		e.logger.Debug("breakout alert suppressed by cooldown",
			zap.String("symbol", symbol), zap.String("breakout", string(snap.Breakout)))
		return notifier.Alert{}, false
	}
	e.lastFired[key] = now
	e.mu.Unlock()

	a := notifier.Alert{
		Symbol:    symbol,
		Timeframe: string(tf),
		From:      string(prev),
		To:        string(snap.Breakout),
		Price:     snap.Price,
		BuyLine:   snap.Lines.BuyLine,
		SellLine:  snap.Lines.SellLine,
		Time:      snap.Time,
	}

	e.logger.Info("breakout",
		zap.String("symbol", symbol),
		zap.String("timeframe", a.Timeframe),
		zap.String("from", a.From),
		zap.String("to", a.To),
		zap.Float64("price", a.Price),
	)

	if e.sender != nil {
		for name, err := range e.sender.NotifyAll(ctx, a) {
			e.logger.Warn("alert delivery failed", zap.String("notifier", name), zap.Error(err))
		}
	}
	return a, true
}
