package okx

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
	baseURL = "https://www.okx.com"

	// historyLimit is the page size of /market/history-candles
	historyLimit = 100
	// recentLimit is the maximum of /market/candles
	recentLimit = 300

	// codeInstrumentNotFound is the OKX error code for an unknown instId
	codeInstrumentNotFound = "51001"
)

// Recorder receives request outcomes
type Recorder interface {
	RecordCollectorRequest(endpoint, status string)
}

// OKX fetches candles from the OKX v5 public market API
type OKX struct {
	client   *http.Client
	baseURL  string
	limiter  *rate.Limiter
	logger   *zap.Logger
	recorder Recorder
}

// Option configures an OKX client
type Option func(*OKX)

// WithBaseURL overrides the API base URL (for testing)
func WithBaseURL(u string) Option {
	return func(o *OKX) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(o *OKX) {
		if d > 0 {
			o.client.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *OKX) {
		if perSecond > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *OKX) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(o *OKX) {
		o.recorder = r
	}
}

// New creates a new OKX provider. The public candle endpoints allow 20
// requests per 2 seconds.
func New(opts ...Option) *OKX {
	o := &OKX{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *OKX) Name() string {
	return "okx"
}

// toInstID converts normalized symbol to OKX instrument ID
// BTCUSDT -> BTC-USDT
func (o *OKX) toInstID(symbol string) string {
	base, quote := crypto.ParseSymbol(symbol)
	if quote == "" {
		return base
	}
	return base + "-" + quote
}

// FetchHistory walks /market/history-candles backwards from end until start
// is covered. OKX pages newest first; the result is oldest first.
func (o *OKX) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Candle, error) {
	var candles []core.Candle
	cursor := end.Add(time.Millisecond)

	for {
		q := url.Values{}
		q.Set("instId", o.toInstID(symbol))
		q.Set("bar", o.toInterval(interval))
		q.Set("after", strconv.FormatInt(cursor.UnixMilli(), 10))
		q.Set("limit", strconv.Itoa(historyLimit))

		page, err := o.fetchCandles(ctx, "history_candles", "/api/v5/market/history-candles", symbol, interval, q)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		oldest := page[0].Time
		for _, c := range page {
			if !c.Time.Before(start) && !c.Time.After(end) {
				candles = append(candles, c)
			}
			if c.Time.Before(oldest) {
				oldest = c.Time
			}
		}

		o.logger.Debug("fetched candles page",
			zap.String("symbol", symbol),
			zap.String("interval", interval),
			zap.Time("before", cursor),
			zap.Int("count", len(page)),
		)

		if len(page) < historyLimit || !oldest.After(start) {
			break
		}
		cursor = oldest
	}

	return crypto.SortCandles(candles), nil
}

// FetchRecent fetches the latest limit candles, the last one usually still forming
func (o *OKX) FetchRecent(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error) {
	if limit <= 0 || limit > recentLimit {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("limit must be between 1 and %d, got %d", recentLimit, limit))
	}

	q := url.Values{}
	q.Set("instId", o.toInstID(symbol))
	q.Set("bar", o.toInterval(interval))
	q.Set("limit", strconv.Itoa(limit))

	candles, err := o.fetchCandles(ctx, "candles", "/api/v5/market/candles", symbol, interval, q)
	if err != nil {
		return nil, err
	}
	return crypto.SortCandles(candles), nil
}

func (o *OKX) fetchCandles(ctx context.Context, endpoint, path, symbol, interval string, q url.Values) ([]core.Candle, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		o.record(endpoint, "error")
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching %s: %w", endpoint, err))
	}
	defer resp.Body.Close()

	var result candleResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode != http.StatusOK {
		o.record(endpoint, strconv.Itoa(resp.StatusCode))
		if decodeErr == nil && result.Code == codeInstrumentNotFound {
			return nil, core.WrapError(core.ErrSymbolNotFound, errors.New(result.Msg))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}
	if decodeErr != nil {
		o.record(endpoint, "decode_error")
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", decodeErr))
	}
	if result.Code != "0" {
		o.record(endpoint, "api_error")
		if result.Code == codeInstrumentNotFound {
			return nil, core.WrapError(core.ErrSymbolNotFound, errors.New(result.Msg))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("okx error %s: %s", result.Code, result.Msg))
	}
	o.record(endpoint, "ok")

	data := make([]core.Candle, 0, len(result.Data))
	for _, row := range result.Data {
		c, err := parseCandle(row)
		if err != nil {
			return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("parsing %s candle: %w", symbol, err))
		}
		c.Symbol = symbol
		c.Interval = interval
		data = append(data, c)
	}
	return data, nil
}

func (o *OKX) record(endpoint, status string) {
	if o.recorder != nil {
		o.recorder.RecordCollectorRequest("okx_"+endpoint, status)
	}
}

// parseCandle converts [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm]
func parseCandle(row []string) (core.Candle, error) {
	if len(row) < 6 {
		return core.Candle{}, fmt.Errorf("candle has %d fields, want at least 6", len(row))
	}

	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return core.Candle{}, fmt.Errorf("timestamp: %w", err)
	}

	var values [5]float64
	for i := range values {
		d, err := decimal.NewFromString(row[i+1])
		if err != nil {
			return core.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		values[i] = d.InexactFloat64()
	}

	return core.Candle{
		Time:   time.UnixMilli(ts).UTC(),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

func (o *OKX) toInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m":
		return interval
	case "1h":
		return "1H"
	case "2h":
		return "2H"
	case "4h":
		return "4H"
	case "1d":
		return "1Dutc"
	case "1w":
		return "1Wutc"
	default:
		return "1Dutc"
	}
}

// OKX API response types
type candleResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}
