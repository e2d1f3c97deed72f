package bank

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const timestampLayout = "2006-01-02 15:04:05"

// Printers and casers keep per-call state, so each call builds its own.

// money formats v with two decimals and grouping separators (5,420.50).
func money(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%.2f", v)
}

// wholeMoney formats v without decimals and with grouping separators.
func wholeMoney(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%.0f", v)
}

func grouped(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// signed formats a change as +1.23 / -1.23.
func signed(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

// rate formats an interest rate keeping at least one decimal (0.0, 2.5).
func rate(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
