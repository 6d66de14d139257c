package output

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

var hundred = decimal.NewFromInt(100)

// FormatCurrency formats an amount as US dollars with thousands grouping,
// e.g. "$12,514.00" or "-$1,100.00".
func FormatCurrency(amount decimal.Decimal) string {
	r := amount.Round(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}
	whole := r.Truncate(0)
	cents := r.Sub(whole).StringFixed(2)[1:]
	return sign + "$" + printer.Sprintf("%d", whole.IntPart()) + cents
}

// FormatWholeCurrency formats an amount rounded to whole dollars.
func FormatWholeCurrency(amount decimal.Decimal) string {
	r := amount.Round(0)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}
	return sign + "$" + printer.Sprintf("%d", r.IntPart())
}

// FormatPercentage formats a value that is already a percentage.
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}

// FormatRate formats a fractional rate as a percentage: 0.22 is "22.00%".
func FormatRate(rate decimal.Decimal) string {
	return FormatPercentage(rate.Mul(hundred))
}
