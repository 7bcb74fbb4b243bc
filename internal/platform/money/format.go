// Package money formats minor-unit amounts for the configured locale.
package money

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders minor-unit amounts for a locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a formatter for a BCP 47 locale such as "en-US".
func NewFormatter(locale string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("money: locale %q: %w", locale, err)
	}
	return &Formatter{printer: message.NewPrinter(tag)}, nil
}

// Amount formats amount, given in minor units of code, e.g. "USD 1,234.56".
// Unknown currency codes fall back to two decimals.
func (f *Formatter) Amount(amount int64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return f.printer.Sprintf("%s %v", code, number.Decimal(float64(amount)/100, number.Scale(2)))
	}
	scale, _ := currency.Standard.Rounding(unit)
	major := float64(amount) / math.Pow10(scale)
	return f.printer.Sprintf("%s %v", unit, number.Decimal(major, number.Scale(scale)))
}

// Decimal formats minor units with scale decimals and no currency code,
// e.g. "1,234.56" for 123456 and scale 2.
func (f *Formatter) Decimal(minor int64, scale int) string {
	return f.printer.Sprint(number.Decimal(float64(minor)/math.Pow10(scale), number.Scale(scale)))
}
