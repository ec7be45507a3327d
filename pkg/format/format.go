// Package format renders dashboard numbers for metric cards, tables and bot replies.
package format

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Placeholder is shown for values that are missing or not finite.
const Placeholder = "N/A"

// NotApplicable is shown for a change against a zero or missing baseline.
const NotApplicable = "n/a"

// Number formats v with thousands separators and a fixed number of decimals.
// Number(1234.56, 1) == "1,234.6", Number(0, 0) == "0".
func Number(v float64, decimals int) string {
	if !finite(v) {
		return Placeholder
	}
	if decimals < 0 {
		decimals = 0
	}

	d := decimal.NewFromFloat(v).Round(int32(decimals))
	whole := d.Truncate(0)

	s := humanize.BigComma(whole.BigInt())
	if d.IsNegative() && whole.IsZero() {
		s = "-" + s
	}

	if decimals > 0 {
		frac := d.Sub(whole).Abs().StringFixed(int32(decimals))
		s += frac[1:]
	}

	return s
}

// Percent formats v as a percentage value that is already scaled to 0..100.
func Percent(v float64, decimals int) string {
	if !finite(v) {
		return Placeholder
	}
	return Number(v, decimals) + "%"
}

// WithUnit formats v followed by a space and unit.
func WithUnit(v float64, decimals int, unit string) string {
	if !finite(v) {
		return Placeholder
	}
	if unit == "" {
		return Number(v, decimals)
	}
	return Number(v, decimals) + " " + unit
}

// Change formats the signed relative change from prev to curr in percent.
func Change(curr, prev float64) string {
	if !finite(curr) || !finite(prev) || prev == 0 {
		return NotApplicable
	}

	pct := (curr - prev) / math.Abs(prev) * 100
	s := Percent(pct, 1)
	if pct > 0 {
		s = "+" + s
	}
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
