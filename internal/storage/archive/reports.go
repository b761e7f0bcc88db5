package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/thrust/internal/backtest"
	"github.com/newthinker/thrust/internal/core"
)

const reportsRoot = "reports"

// Report is a saved backtest run together with the range it covered
type Report struct {
	Key       string           `json:"key"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	CreatedAt time.Time        `json:"created_at"`
	Result    *backtest.Result `json:"result"`
}

// Reports saves and loads backtest reports as JSON documents in a Storage.
// Keys look like reports/BTCUSDT/1h/20240101-20240331-20240401T120000Z.json.
type Reports struct {
	store Storage
	now   func() time.Time
}

func NewReports(store Storage) *Reports {
	return &Reports{store: store, now: time.Now}
}

// Save writes res and returns the key it was stored under
func (r *Reports) Save(ctx context.Context, res *backtest.Result, start, end time.Time) (string, error) {
	if res == nil || res.Symbol == "" || res.Timeframe == "" {
		return "", fmt.Errorf("report needs a symbol and timeframe")
	}

	created := r.now().UTC()
	key := reportKey(res.Symbol, res.Timeframe, start, end, created)

	data, err := json.MarshalIndent(Report{
		Key:       key,
		Start:     start.UTC(),
		End:       end.UTC(),
		CreatedAt: created,
		Result:    res,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	if err := r.store.Write(ctx, key, data); err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}
	return key, nil
}

// Load reads the report stored under key
func (r *Reports) Load(ctx context.Context, key string) (*Report, error) {
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("checking report: %w", err)
	}
	if !ok {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no report at %s", key))
	}

	data, err := r.store.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", key, err)
	}
	return &rep, nil
}

// List returns the report keys for symbol, or for every symbol when it is
// empty, newest first.
func (r *Reports) List(ctx context.Context, symbol string) ([]string, error) {
	prefix := reportsRoot
	if symbol != "" {
		prefix = path.Join(reportsRoot, symbol)
	}

	keys, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	out := keys[:0]
	for _, k := range keys {
		if strings.HasSuffix(k, ".json") {
			out = append(out, k)
		}
	}
	// the created timestamp is the last part of the file name
	sort.Slice(out, func(i, j int) bool {
		return created(out[i]) > created(out[j])
	})
	return out, nil
}

func reportKey(symbol string, tf core.Timeframe, start, end, created time.Time) string {
	name := fmt.Sprintf("%s-%s-%s.json",
		start.UTC().Format("20060102"),
		end.UTC().Format("20060102"),
		created.Format("20060102T150405Z"),
	)
	return path.Join(reportsRoot, symbol, string(tf), name)
}

func created(key string) string {
	name := strings.TrimSuffix(path.Base(key), ".json")
	if i := strings.LastIndex(name, "-"); i >= 0 {
		return name[i+1:]
	}
	return name
}
