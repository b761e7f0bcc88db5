package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/newthinker/thrust/internal/collector/crypto"
	"github.com/newthinker/thrust/internal/core"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	baseURL = "https://api.binance.com"

	// klineLimit is the maximum number of klines Binance returns per request
	klineLimit = 1000

	// errInvalidSymbol is the Binance error code for an unknown symbol
	errInvalidSymbol = -1121
)

// Recorder receives request outcomes
type Recorder interface {
	RecordCollectorRequest(endpoint, status string)
}

// Binance fetches klines and tickers from the Binance spot REST API
type Binance struct {
	client   *http.Client
	baseURL  string
	limiter  *rate.Limiter
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Binance client
type Option func(*Binance)

// WithBaseURL overrides the API base URL (for testing)
func WithBaseURL(u string) Option {
	return func(b *Binance) {
		if u != "" {
			b.baseURL = u
		}
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(b *Binance) {
		if d > 0 {
			b.client.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second
func WithRateLimit(perSecond float64, burst int) Option {
	return func(b *Binance) {
		if perSecond > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(b *Binance) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(b *Binance) {
		b.recorder = r
	}
}

// New creates a new Binance client
func New(opts ...Option) *Binance {
	b := &Binance{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Binance) Name() string {
	return "binance"
}

// FetchHistory fetches klines whose open time lies in [start, end], paging
// through the 1000-kline limit. Candles are returned oldest first.
func (b *Binance) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Candle, error) {
	var candles []core.Candle
	from := start

	for !from.After(end) {
		q := url.Values{}
		q.Set("symbol", symbol)
		q.Set("interval", b.toInterval(interval))
		q.Set("startTime", strconv.FormatInt(from.UnixMilli(), 10))
		q.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
		q.Set("limit", strconv.Itoa(klineLimit))

		page, err := b.fetchKlines(ctx, symbol, interval, q)
		if err != nil {
			return nil, err
		}
		candles = append(candles, page...)

		b.logger.Debug("fetched klines page",
			zap.String("symbol", symbol),
			zap.String("interval", interval),
			zap.Time("from", from),
			zap.Int("count", len(page)),
		)

		if len(page) < klineLimit {
			break
		}
		from = page[len(page)-1].Time.Add(time.Millisecond)
	}

	return crypto.SortCandles(candles), nil
}

// FetchRecent fetches the latest limit klines, the last one usually still forming
func (b *Binance) FetchRecent(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error) {
	if limit <= 0 || limit > klineLimit {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("limit must be between 1 and %d, got %d", klineLimit, limit))
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", b.toInterval(interval))
	q.Set("limit", strconv.Itoa(limit))

	candles, err := b.fetchKlines(ctx, symbol, interval, q)
	if err != nil {
		return nil, err
	}
	return crypto.SortCandles(candles), nil
}

// FetchTickers fetches 24h rolling statistics for every pair
func (b *Binance) FetchTickers(ctx context.Context) ([]core.Ticker, error) {
	var raw []ticker24hr
	if err := b.get(ctx, "ticker", "/api/v3/ticker/24hr", nil, &raw); err != nil {
		return nil, err
	}

	tickers := make([]core.Ticker, 0, len(raw))
	for _, r := range raw {
		last, err := decimal.NewFromString(r.LastPrice)
		if err != nil {
			continue
		}
		volume, err := decimal.NewFromString(r.QuoteVolume)
		if err != nil {
			continue
		}
		tickers = append(tickers, core.Ticker{
			Symbol:      r.Symbol,
			LastPrice:   last,
			QuoteVolume: volume,
			Time:        time.UnixMilli(r.CloseTime),
		})
	}
	return tickers, nil
}

func (b *Binance) fetchKlines(ctx context.Context, symbol, interval string, q url.Values) ([]core.Candle, error) {
	var klines [][]any
	if err := b.get(ctx, "klines", "/api/v3/klines", q, &klines); err != nil {
		return nil, err
	}

	data := make([]core.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := parseKline(k)
		if err != nil {
			return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("parsing %s kline: %w", symbol, err))
		}
		c.Symbol = symbol
		c.Interval = interval
		data = append(data, c)
	}
	return data, nil
}

// get performs a rate-limited GET and decodes the JSON body into out
func (b *Binance) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	u := b.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.record(endpoint, "error")
		return core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching %s: %w", endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b.record(endpoint, strconv.Itoa(resp.StatusCode))
		var apiErr apiError
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Code == errInvalidSymbol {
			return core.WrapError(core.ErrSymbolNotFound, errors.New(apiErr.Msg))
		}
		return core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		b.record(endpoint, "decode_error")
		return core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}
	b.record(endpoint, "ok")
	return nil
}

func (b *Binance) record(endpoint, status string) {
	if b.recorder != nil {
		b.recorder.RecordCollectorRequest("binance_"+endpoint, status)
	}
}

// parseKline converts [openTime, open, high, low, close, volume, ...]
func parseKline(k []any) (core.Candle, error) {
	if len(k) < 6 {
		return core.Candle{}, fmt.Errorf("kline has %d fields, want at least 6", len(k))
	}

	openTime, ok := k[0].(float64)
	if !ok {
		return core.Candle{}, fmt.Errorf("open time is %T", k[0])
	}

	var values [5]float64
	for i := range values {
		s, ok := k[i+1].(string)
		if !ok {
			return core.Candle{}, fmt.Errorf("field %d is %T", i+1, k[i+1])
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return core.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		values[i] = d.InexactFloat64()
	}

	return core.Candle{
		Time:   time.UnixMilli(int64(openTime)).UTC(),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

func (b *Binance) toInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m":
		return interval
	case "1h", "2h", "4h":
		return interval
	case "1d":
		return "1d"
	case "1w":
		return "1w"
	default:
		return "1d"
	}
}

// Binance API response types
type ticker24hr struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	QuoteVolume string `json:"quoteVolume"`
	CloseTime   int64  `json:"closeTime"`
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
