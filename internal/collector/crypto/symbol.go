package crypto

import (
	"fmt"
	"regexp"
	"strings"
)

// quoteCurrencies are checked in order when splitting a pair
var quoteCurrencies = []string{"USDT", "FDUSD", "USDC", "BUSD", "BTC", "ETH", "BNB"}

var pairPattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

var separators = strings.NewReplacer("-", "", "/", "", "_", "")

// NormalizeSymbol turns "btc", "BTC-USDT" or "btc/usdt" into "BTCUSDT",
// appending defaultQuote when no known quote currency is present.
func NormalizeSymbol(input, defaultQuote string) string {
	if input == "" {
		return ""
	}
	s := separators.Replace(strings.ToUpper(input))
	if _, quote := ParseSymbol(s); quote != "" {
		return s
	}
	return s + strings.ToUpper(defaultQuote)
}

// ParseSymbol splits a normalized pair: "BTCUSDT" -> ("BTC", "USDT").
// An unknown quote yields the whole symbol as base and an empty quote.
func ParseSymbol(symbol string) (base, quote string) {
	s := strings.ToUpper(symbol)
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return strings.TrimSuffix(s, q), q
		}
	}
	return s, ""
}

// FormatDisplay renders "BTCUSDT" as "BTC/USDT"
func FormatDisplay(symbol string) string {
	base, quote := ParseSymbol(symbol)
	if quote == "" {
		return base
	}
	return base + "/" + quote
}

// ValidateCryptoSymbol checks that a pair looks like an exchange symbol
func ValidateCryptoSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 30 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !pairPattern.MatchString(separators.Replace(strings.ToUpper(symbol))) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}
