// Package utils provides shared formatting helpers.
package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPrice renders a USD price for display. Prices at or above one
// dollar show two decimals with thousands separators; sub-dollar prices
// show up to six decimals with trailing zeros trimmed.
func FormatPrice(p decimal.Decimal) string {
	if p.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)) {
		s := p.StringFixed(2)
		neg := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")
		intPart, decPart, _ := strings.Cut(s, ".")
		out := groupThousands(intPart) + "." + decPart
		if neg {
			out = "-" + out
		}
		return out
	}

	s := strings.TrimRight(p.StringFixed(6), "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// FormatMarketCap renders a market cap with a T/B/M suffix.
func FormatMarketCap(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return "$" + groupThousands(fmt.Sprintf("%.0f", v))
	}
}

// FormatChange renders a 24h percentage change with an explicit sign.
func FormatChange(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// groupThousands inserts commas into a non-negative integer string.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
