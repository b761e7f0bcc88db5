package crypto

import (
	"sort"
	"strings"

	"github.com/newthinker/thrust/internal/core"
	"github.com/shopspring/decimal"
)

// DefaultMinQuoteVolume is the 24h quote volume a pair must exceed to be listed
var DefaultMinQuoteVolume = decimal.NewFromInt(10_000_000)

// FilterLiquid keeps pairs quoted in quote whose 24h quote volume is strictly
// above minQuoteVolume, most traded first.
func FilterLiquid(tickers []core.Ticker, quote string, minQuoteVolume decimal.Decimal) []core.Ticker {
	quote = strings.ToUpper(quote)

	out := make([]core.Ticker, 0, len(tickers))
	for _, t := range tickers {
		base, q := ParseSymbol(t.Symbol)
		if q != quote || base == "" {
			continue
		}
		if !t.QuoteVolume.GreaterThan(minQuoteVolume) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QuoteVolume.GreaterThan(out[j].QuoteVolume)
	})
	return out
}
