package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/newthinker/thrust/internal/api/response"
	"github.com/newthinker/thrust/internal/collector/crypto"
	"github.com/newthinker/thrust/internal/core"
	"github.com/shopspring/decimal"
)

// TickerFetcher returns 24h statistics for every pair
type TickerFetcher interface {
	FetchTickers(ctx context.Context) ([]core.Ticker, error)
}

// SymbolsHandler lists liquid trading pairs
type SymbolsHandler struct {
	fetcher   TickerFetcher
	quote     string
	minVolume decimal.Decimal
}

// NewSymbolsHandler creates a new symbols handler
func NewSymbolsHandler(fetcher TickerFetcher, quote string, minVolume decimal.Decimal) *SymbolsHandler {
	return &SymbolsHandler{
		fetcher:   fetcher,
		quote:     quote,
		minVolume: minVolume,
	}
}

// List handles GET /api/v1/symbols?quote=&min_volume=
func (h *SymbolsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	quote := h.quote
	if v := q.Get("quote"); v != "" {
		quote = strings.ToUpper(v)
	}

	minVolume := h.minVolume
	if v := q.Get("min_volume"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrInvalidConfig, fmt.Errorf("min_volume: %q is not a non-negative number", v)))
			return
		}
		minVolume = d
	}

	tickers, err := h.fetcher.FetchTickers(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}

	symbols := crypto.FilterLiquid(tickers, quote, minVolume)
	response.JSON(w, http.StatusOK, map[string]any{
		"symbols":          symbols,
		"count":            len(symbols),
		"quote":            quote,
		"min_quote_volume": minVolume,
	})
}
