// Package money renders server-supplied cent amounts for display.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter converts cents into a display currency using a fixed exchange rate.
type Formatter struct {
	Symbol string
	Rate   decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Default renders rupees at ten per dollar.
var Default = Formatter{Symbol: "₹", Rate: decimal.NewFromInt(10)}

// New returns a formatter, falling back to Default for empty settings.
func New(symbol string, rate decimal.Decimal) Formatter {
	f := Formatter{Symbol: symbol, Rate: rate}
	if f.Symbol == "" {
		f.Symbol = Default.Symbol
	}
	if !f.Rate.IsPositive() {
		f.Rate = Default.Rate
	}
	return f
}

// ParseRate reads a positive exchange rate such as "10" or "83.25".
func ParseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("exchange rate %q: %w", raw, err)
	}
	if !rate.IsPositive() {
		return decimal.Decimal{}, errors.New("exchange rate must be positive")
	}
	return rate, nil
}

// Amount returns cents/100*rate without rounding.
func (f Formatter) Amount(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred).Mul(f.Rate)
}

// Format renders cents as the symbol followed by the converted amount with
// exactly two decimals.
func (f Formatter) Format(cents int64) string {
	return f.Symbol + f.Amount(cents).StringFixed(2)
}

// FormatMoney formats cents with the Default formatter.
func FormatMoney(cents int64) string {
	return Default.Format(cents)
}
