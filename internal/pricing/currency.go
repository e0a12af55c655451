package pricing

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNoAmount = errors.New("no currency amount found")

// amountPattern matches a currency marker followed by a UK-formatted number,
// e.g. "£1,234.56" or "£17.00".
var amountPattern = regexp.MustCompile(`([£$€])\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// Amount is a parsed display price: a typed decimal plus its currency marker.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

// ParseAmount extracts the first currency amount from display text. Text
// without a recognized currency marker is rejected rather than guessed at.
func ParseAmount(text string) (Amount, error) {
	matches := amountPattern.FindStringSubmatch(text)
	if matches == nil {
		return Amount{}, ErrNoAmount
	}

	number := strings.ReplaceAll(matches[2], ",", "")
	value, err := decimal.NewFromString(number)
	if err != nil {
		return Amount{}, ErrNoAmount
	}

	return Amount{Value: value, Currency: matches[1]}, nil
}

// HasCurrencyMarker reports whether text carries a recognized currency symbol.
func HasCurrencyMarker(text string) bool {
	return amountPattern.MatchString(text)
}

// normalizeWhitespace collapses runs of whitespace the way display text is
// compared everywhere in this package.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
