package services

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders an amount as $1,234.56.
func FormatMoney(d decimal.Decimal) string {
	return printer.Sprintf("$%.2f", d.Round(2).InexactFloat64())
}

// FormatPercent renders a ratio as a percentage, e.g. 0.2 -> 20.00%.
func FormatPercent(ratio float64) string {
	return printer.Sprintf("%.2f%%", ratio*100)
}

// FormatDelta renders a ratio difference with an explicit sign, e.g. +5.00%.
func FormatDelta(ratio float64) string {
	return printer.Sprintf("%+.2f%%", ratio*100)
}
