// Package core holds the domain model and the pure aggregation functions
// computed over transaction snapshots.
//
// Money is stored as integer cents; parsing accepts both dot and comma
// decimal separators and rounds half-up on the third decimal place.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,5")  -> 1250, nil
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
//
// Negative values and zero are rejected: a transaction amount must be a
// positive number of currency units.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrMissingAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrMissingAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrMissingAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrMissingAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrMissingAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrMissingAmount
	}
	return cents, nil
}

// Units returns the value in whole currency units for display purposes.
// Use cents for calculations to avoid floating-point drift.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount with the minimal number of decimals:
// 1250 cents -> "12.5", 1200 -> "12", 1234 -> "12.34".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10)
	switch rem := cents % 100; {
	case rem == 0:
	case rem%10 == 0:
		s += "." + strconv.FormatInt(rem/10, 10)
	default:
		s += fmt.Sprintf(".%02d", rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

// MarshalJSON encodes the amount as a plain JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

func (m Money) Add(o Money) Money     { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money     { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsNegative() bool      { return m.Cents < 0 }
func (m Money) LessThan(o Money) bool { return m.Cents < o.Cents }
