package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/newthinker/thrust/internal/api/response"
	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
)

// RecentFetcher returns the latest candles for a symbol
type RecentFetcher interface {
	FetchRecent(ctx context.Context, symbol, interval string, limit int) ([]core.Candle, error)
}

// SignalHandler serves the live Dual Thrust lines
type SignalHandler struct {
	fetcher  RecentFetcher
	defaults StrategyDefaults
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(fetcher RecentFetcher, defaults StrategyDefaults) *SignalHandler {
	return &SignalHandler{fetcher: fetcher, defaults: defaults}
}

// Get handles GET /api/v1/signal?symbol=&timeframe=&k1=&k2=
func (h *SignalHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	symbol := q.Get("symbol")
	if symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, errors.New("symbol required")))
		return
	}

	k1, err := queryFloat(q, "k1")
	if err != nil {
		response.Fail(w, err)
		return
	}
	k2, err := queryFloat(q, "k2")
	if err != nil {
		response.Fail(w, err)
		return
	}

	tf, params, err := h.defaults.resolve(q.Get("timeframe"), k1, k2)
	if err != nil {
		response.Fail(w, err)
		return
	}

	candles, err := h.fetcher.FetchRecent(r.Context(), symbol, string(tf), params.Lookback+1)
	if err != nil {
		response.Fail(w, err)
		return
	}

	snap, err := dualthrust.Current(candles, params)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"timeframe": tf,
		"params":    params,
		"snapshot":  snap,
	})
}
