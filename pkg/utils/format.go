// Package utils provides common utility functions for FilingSense.
package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatShares formats a share count with thousands separators and no
// decimals, e.g. 1234567 → "1,234,567".
func FormatShares(shares float64) string {
	return groupFixed(shares, 0)
}

// FormatPrice formats a per-share price in dollars with two decimals,
// e.g. 1234.5 → "$1,234.50".
func FormatPrice(price float64) string {
	return "$" + groupFixed(price, 2)
}

// groupFixed rounds v to prec decimals (ties on the exact binary value go
// to even) and groups the integer digits with commas.
func groupFixed(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		// Beyond int64; leave ungrouped.
		return sign + s
	}
	out := sign + humanize.Comma(n)
	if hasFrac {
		out += "." + frac
	}
	return out
}

// FormatPercentChange formats a percentage with sign and one decimal,
// e.g. 25 → "+25.0%", -3.21 → "-3.2%".
func FormatPercentChange(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}

// FormatScore formats a sentiment score with sign and two decimals.
func FormatScore(score float64) string {
	return fmt.Sprintf("%+.2f", score)
}
