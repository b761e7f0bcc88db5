package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/indicator"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
	"go.uber.org/zap"
)

// CandleProvider defines the interface for fetching historical candles
type CandleProvider interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Candle, error)
}

// Recorder receives run metrics
type Recorder interface {
	RecordBacktest(status string, duration float64)
	RecordTrades(side string, count int)
}

// Request describes one backtest over a symbol and date range
type Request struct {
	Symbol    string
	Timeframe core.Timeframe
	K1        float64
	K2        float64
	Start     time.Time
	End       time.Time
}

// Backtester fetches candles and runs the Dual Thrust simulation over them
type Backtester struct {
	provider CandleProvider
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Backtester
type Option func(*Backtester)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(b *Backtester) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(b *Backtester) {
		b.recorder = r
	}
}

// New creates a new Backtester with the given candle provider
func New(provider CandleProvider, opts ...Option) *Backtester {
	b := &Backtester{
		provider: provider,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run fetches the candles for the request and simulates the strategy over them
func (b *Backtester) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	params, err := dualthrust.ParamsFor(req.Timeframe, req.K1, req.K2)
	if err != nil {
		b.record("invalid", started)
		return nil, err
	}

	candles, err := b.provider.FetchHistory(ctx, req.Symbol, req.Start, req.End, string(req.Timeframe))
	if err != nil {
		b.record("fetch_failed", started)
		return nil, fmt.Errorf("fetching %s candles: %w", req.Symbol, err)
	}
	if len(candles) == 0 {
		b.record("no_data", started)
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no %s candles for %s", req.Timeframe, req.Symbol))
	}

	result, err := Simulate(ctx, candles, params)
	if err != nil {
		b.record("failed", started)
		b.logger.Warn("backtest failed",
			zap.String("symbol", req.Symbol),
			zap.Int("candles", len(candles)),
			zap.Error(err),
		)
		return nil, err
	}
	result.Symbol = req.Symbol
	result.Timeframe = req.Timeframe

	b.record("success", started)
	if b.recorder != nil {
		var long, short int
		for _, t := range result.Trades {
			if t.Side == core.SideLong {
				long++
			} else {
				short++
			}
		}
		b.recorder.RecordTrades(string(core.SideLong), long)
		b.recorder.RecordTrades(string(core.SideShort), short)
	}

	fields := []zap.Field{
		zap.String("symbol", req.Symbol),
		zap.String("timeframe", string(req.Timeframe)),
		zap.Stringer("params", params),
		zap.Int("candles", len(candles)),
		zap.Int("trades", result.Stats.TotalTrades),
		zap.Float64("total_pnl", result.Stats.TotalPnL),
	}
	if err := result.Stats.Err(); err != nil {
		fields = append(fields, zap.NamedError("degenerate", err))
	}
	b.logger.Info("backtest complete", fields...)

	return result, nil
}

func (b *Backtester) record(status string, started time.Time) {
	if b.recorder != nil {
		b.recorder.RecordBacktest(status, time.Since(started).Seconds())
	}
}

// Run simulates the strategy over candles. It is a pure function of its
// inputs: identical candles and params always produce an identical Result.
func Run(candles []core.Candle, p dualthrust.Params) (*Result, error) {
	return Simulate(context.Background(), candles, p)
}

// Simulate is Run with cancellation. A cancelled context aborts the whole run.
func Simulate(ctx context.Context, candles []core.Candle, p dualthrust.Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(candles) < p.Lookback+1 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("need at least %d candles, got %d", p.Lookback+1, len(candles)))
	}
	if err := validateSeries(candles); err != nil {
		return nil, err
	}

	machine := NewStateMachine()
	ledger := &Ledger{}
	window := indicator.NewRolling(p.Lookback)
	for _, c := range candles[:p.Lookback] {
		window.Push(c)
	}

	for i := p.Lookback; i < len(candles); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		bar := candles[i]
		lines := dualthrust.FromExtremes(window.Extremes(), bar.Open, p)

		trade, closed, err := machine.Step(Bar{Time: bar.Time, High: bar.High, Low: bar.Low}, lines)
		if err != nil {
			return nil, err
		}
		if closed {
			ledger.Record(trade)
		}

		window.Push(bar)
	}

	trades := ledger.Trades()
	return &Result{
		Params:       p,
		Trades:       trades,
		Stats:        CalculateStats(trades),
		OpenPosition: machine.Open(),
	}, nil
}

// validateSeries checks every candle and that open times strictly increase
func validateSeries(candles []core.Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return err
		}
		if i > 0 && !c.Time.After(candles[i-1].Time) {
			return core.WrapError(core.ErrMalformedData,
				fmt.Errorf("candle %d at %s does not follow %s", i, c.Time.Format(time.RFC3339), candles[i-1].Time.Format(time.RFC3339)))
		}
	}
	return nil
}
