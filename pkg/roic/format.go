package roic

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var hundred = decimal.NewFromInt(100)

// FormatPercent renders a fraction as a percentage with two decimals.
func FormatPercent(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).StringFixed(2) + "%"
}

// Formatter renders amounts with locale digit grouping.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a Formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Yen renders an amount rounded to whole yen, e.g. ¥1,234,567.
func (f *Formatter) Yen(amount decimal.Decimal) string {
	return f.printer.Sprintf("¥%d", amount.Round(0).IntPart())
}

// Millions renders an amount in millions of yen with grouping.
func (f *Formatter) Millions(amount decimal.Decimal) string {
	return f.printer.Sprintf("¥%dM", amount.Div(decimal.NewFromInt(1_000_000)).Round(0).IntPart())
}
