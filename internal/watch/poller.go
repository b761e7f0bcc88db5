package watch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller runs a function now and then on every tick until its context ends.
type Poller struct {
	Interval time.Duration
	Name     string
	Logger   *zap.Logger
}

// Run blocks until ctx is done and returns ctx.Err(). Errors from fn are
// logged and the next tick runs as usual. A context that is already done
// runs nothing.
func (p Poller) Run(ctx context.Context, fn func(context.Context) error) error {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if p.Interval <= 0 {
		p.Interval = time.Minute
	}

	tick := func() {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("poll failed", zap.String("poller", p.Name), zap.Error(err))
		}
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tick()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
