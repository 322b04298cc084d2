// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCurrency is used when a budget reports no usable ISO code.
const DefaultCurrency = "USD"

var titleCaser = cases.Title(language.English)

// FormatMoney formats a major-unit amount in the given ISO currency.
// e.g., (1234.5, "USD") -> "$1,234.50"
func FormatMoney(amount float64, isoCode string) string {
	code := strings.ToUpper(strings.TrimSpace(isoCode))
	if code == "" || money.GetCurrency(code) == nil {
		code = DefaultCurrency
	}
	return money.NewFromFloat(amount, code).Display()
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a value already expressed in percent.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f)
}

// FormatDelta formats a signed amount with an explicit sign.
func FormatDelta(delta float64, isoCode string) string {
	if delta >= 0 {
		return "+" + FormatMoney(delta, isoCode)
	}
	return "-" + FormatMoney(-delta, isoCode)
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}

// FormatAccountType turns an upstream account type such as "creditCard" or
// "otherAsset" into a display label.
func FormatAccountType(t string) string {
	if t == "" {
		return "Unknown"
	}
	var b strings.Builder
	for i, r := range t {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return titleCaser.String(b.String())
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 2 {
		return s
	}
	return string(r[:n-1]) + "…"
}
