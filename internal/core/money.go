// Package core provides the domain value types shared by the invoice and
// price comparison components.
//
// This file contains amount parsing, rounding and display helpers.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a quote or invoice carries no currency code.
const DefaultCurrency = "TRY"

// ParseAmount converts a user-entered decimal string to a non-negative float.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both
// separators appear, the last one is the decimal separator and the other one is
// treated as thousands grouping, so "1.234,56" and "1,234.56" both parse as 1234.56.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34, nil
//	ParseAmount("12,34")    -> 12.34, nil
//	ParseAmount("1.234,56") -> 1234.56, nil
//	ParseAmount("1.234.567") -> 1234567, nil
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	if strings.Count(s, ".") > 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// RoundAmount rounds v half-away-from-zero to two decimals.
// NaN and infinities are returned unchanged.
func RoundAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatAmount renders v for display in the given currency, e.g. "₺1.234,56".
// Unknown currency codes fall back to "1234.56 CODE".
func FormatAmount(v float64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = DefaultCurrency
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v %s", v, code)
	}
	if money.GetCurrency(code) == nil {
		return fmt.Sprintf("%.2f %s", RoundAmount(v), code)
	}
	return money.NewFromFloat(v, code).Display()
}
