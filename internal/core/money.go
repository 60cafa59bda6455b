// Package core provides amount parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings.
// Amounts are whole rupiah written the Indonesian way: dot groups
// thousands, comma separates a fractional part which is rounded half-up.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts an Indonesian-formatted amount string to whole
// rupiah units.
//
// Dots are thousands separators and must group digits in threes; a comma
// starts an optional fractional part which rounds half-up on its first
// digit. The result is always strictly positive. Returns ErrInvalidAmount
// for invalid formats, negative values, or zero.
//
// Examples:
//   ParseAmount("50.000")    -> 50000, nil
//   ParseAmount("1.234.567") -> 1234567, nil
//   ParseAmount("50000,4")   -> 50000, nil (rounds down)
//   ParseAmount("50000,5")   -> 50001, nil (rounds up)
//   ParseAmount("50.00")     -> ErrInvalidAmount (bad grouping)
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ",")
	if hasFrac && (fracPart == "" || strings.ContainsAny(fracPart, ",.")) {
		return 0, ErrInvalidAmount
	}
	groups := strings.Split(intPart, ".")
	if len(groups) > 1 {
		if len(groups[0]) == 0 || len(groups[0]) > 3 {
			return 0, ErrInvalidAmount
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return 0, ErrInvalidAmount
			}
		}
	}
	digits := strings.Join(groups, "")
	if digits == "" {
		digits = "0"
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	units, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Half-up rounding on the first fractional digit
	if len(fracPart) > 0 && fracPart[0] >= '5' {
		units++
	}
	if units <= 0 {
		return 0, ErrInvalidAmount
	}
	return units, nil
}

// FormatRupiah formats whole rupiah with dot thousands separators, e.g.
// FormatRupiah(60000) -> "Rp60.000". Negative values keep the leading minus.
func FormatRupiah(units int64) string {
	neg := units < 0
	if neg {
		units = -units
	}
	digits := strconv.FormatInt(units, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp" + b.String()
	}
	return "Rp" + b.String()
}
