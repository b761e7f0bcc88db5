package okx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newthinker/thrust/internal/collector/crypto"
	"github.com/newthinker/thrust/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ crypto.Provider = (*OKX)(nil)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) RecordCollectorRequest(endpoint, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, endpoint+":"+status)
}

// hourlyServer serves n hourly candles starting at t0, newest first, honouring
// the after cursor and limit the way OKX does.
func hourlyServer(t *testing.T, t0 time.Time, n int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	requests := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		after := int64(1 << 62)
		if a := q.Get("after"); a != "" {
			after, _ = strconv.ParseInt(a, 10, 64)
		}

		var rows []string
		for i := n - 1; i >= 0 && len(rows) < limit; i-- {
			ts := t0.Add(time.Duration(i) * time.Hour).UnixMilli()
			if ts >= after {
				continue
			}
			p := 100 + float64(i)
			rows = append(rows, fmt.Sprintf(`["%d","%.1f","%.1f","%.1f","%.1f","3.5","350","350","1"]`, ts, p, p+2, p-2, p+1))
		}
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[%s]}`, strings.Join(rows, ","))
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

func TestOKX_Name(t *testing.T) {
	o := New()
	if o.Name() != "okx" {
		t.Errorf("expected 'okx', got '%s'", o.Name())
	}
}

func TestOKX_ToInstID(t *testing.T) {
	tests := []struct {
		symbol   string
		expected string
	}{
		{"BTCUSDT", "BTC-USDT"},
		{"ETHUSDT", "ETH-USDT"},
		{"SOLUSDT", "SOL-USDT"},
		{"ETHBTC", "ETH-BTC"},
	}

	o := New()
	for _, tc := range tests {
		got := o.toInstID(tc.symbol)
		if got != tc.expected {
			t.Errorf("toInstID(%s) = %s, want %s", tc.symbol, got, tc.expected)
		}
	}
}

func TestOKX_ToInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1m", "1m"},
		{"5m", "5m"},
		{"1h", "1H"},
		{"4h", "4H"},
		{"1d", "1Dutc"},
	}

	o := New()
	for _, tc := range tests {
		got := o.toInterval(tc.input)
		if got != tc.expected {
			t.Errorf("toInterval(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestOKX_FetchHistory_Pages(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv, requests := hourlyServer(t, t0, 250)
	rec := &recorder{}

	o := New(WithBaseURL(srv.URL), WithRecorder(rec), WithRateLimit(1000, 10))

	start := t0.Add(10 * time.Hour)
	end := t0.Add(239 * time.Hour)
	data, err := o.FetchHistory(context.Background(), "BTCUSDT", start, end, "1h")
	require.NoError(t, err)

	require.Len(t, data, 230)
	assert.Equal(t, start, data[0].Time)
	assert.Equal(t, end, data[len(data)-1].Time)
	for i := 1; i < len(data); i++ {
		require.True(t, data[i].Time.After(data[i-1].Time), "candles must be strictly increasing")
	}
	assert.Equal(t, "BTCUSDT", data[0].Symbol)
	assert.Equal(t, 110.0, data[0].Open)
	assert.Equal(t, 112.0, data[0].High)
	assert.EqualValues(t, 3, requests.Load())
	assert.Contains(t, rec.calls, "okx_history_candles:ok")
}

func TestOKX_FetchRecent(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv, _ := hourlyServer(t, t0, 50)

	o := New(WithBaseURL(srv.URL))
	data, err := o.FetchRecent(context.Background(), "ETHUSDT", "1h", 25)
	require.NoError(t, err)

	require.Len(t, data, 25)
	assert.Equal(t, t0.Add(49*time.Hour), data[24].Time)
	assert.True(t, data[0].Time.Before(data[24].Time))
}

func TestOKX_FetchRecent_InvalidLimit(t *testing.T) {
	o := New()
	_, err := o.FetchRecent(context.Background(), "BTCUSDT", "1h", 0)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestOKX_UnknownInstrument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	}))
	defer srv.Close()

	o := New(WithBaseURL(srv.URL))
	_, err := o.FetchRecent(context.Background(), "NOPEUSDT", "1h", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSymbolNotFound))
}

func TestOKX_ServerError(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	o := New(WithBaseURL(srv.URL), WithRecorder(rec))
	_, err := o.FetchHistory(context.Background(), "BTCUSDT", time.Now().Add(-time.Hour), time.Now(), "1h")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrCollectorFailed))
	assert.Equal(t, []string{"okx_history_candles:503"}, rec.calls)
}

func TestParseCandle_Invalid(t *testing.T) {
	_, err := parseCandle([]string{"1704067200000", "1", "2"})
	assert.Error(t, err)

	_, err = parseCandle([]string{"x", "1", "2", "0.5", "1", "3"})
	assert.Error(t, err)

	_, err = parseCandle([]string{"1704067200000", "1", "abc", "0.5", "1", "3"})
	assert.Error(t, err)
}

// Integration test - skip in CI
func TestOKX_FetchHistory_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	o := New()
	end := time.Now()
	start := end.AddDate(0, 0, -7) // Last 7 days

	data, err := o.FetchHistory(context.Background(), "BTCUSDT", start, end, "4h")
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}

	if len(data) == 0 {
		t.Error("expected at least one candle")
	}
	for _, c := range data {
		if err := c.Validate(); err != nil {
			t.Errorf("invalid candle: %v", err)
		}
	}
}
