// Package core provides money parsing and handling utilities.
//
// This file contains the tolerant Amount type carried inside payloads and the
// exact Money type used for every sum.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidAmount = errors.New("invalid amount")

// maxAmount keeps amounts inside the range where a cents conversion is exact.
const maxAmount = float64(1<<53) / 100

type (
	// Money is an exact amount in hundredths of the currency unit.
	Money struct {
		Cents int64
	}

	// Amount is the payload's amount as decrypted. Decoding never fails on a
	// bad value: missing, non-numeric, negative or out-of-range amounts decode
	// with Valid=false and contribute nothing to sums. Non-numeric input is
	// kept verbatim so re-encrypting a payload does not lose it.
	Amount struct {
		Value float64
		Valid bool
		raw   json.RawMessage
	}
)

// NewAmount wraps a number, marking it valid when it can be summed.
func NewAmount(v float64) Amount {
	return Amount{Value: v, Valid: summable(v)}
}

func summable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= maxAmount
}

// Cents returns the amount rounded to cents, or 0 when the amount is invalid.
func (a Amount) Cents() int64 {
	if !a.Valid {
		return 0
	}
	return int64(math.Round(a.Value * 100))
}

// Money converts the amount to Money; invalid amounts become zero.
func (a Amount) Money() Money {
	return Money{Cents: a.Cents()}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.raw != nil {
		return a.raw, nil
	}
	if !a.Valid && a.Value == 0 {
		return []byte("null"), nil
	}
	if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(a.Value, 'f', -1, 64)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*a = Amount{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = NewAmount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := ParseDecimal(s); err == nil {
			*a = NewAmount(v)
			return nil
		}
	}
	a.raw = append(json.RawMessage(nil), data...)
	return nil
}

// ParseDecimal parses a non-negative decimal string.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and thousands separators are rejected.
//
// Examples:
//
//	ParseDecimal("12.34") -> 12.34, nil
//	ParseDecimal("12,34") -> 12.34, nil
//	ParseDecimal("0")     -> 0, nil
//	ParseDecimal("-1")    -> 0, ErrInvalidAmount
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return 0, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return 0, ErrInvalidAmount
			}
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !summable(v) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m minus o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Units returns the value in currency units as a float64 for display and JSON.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// MarshalJSON encodes Money as a plain number of currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Units(), 'f', -1, 64)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.Cents = int64(math.Round(v * 100))
	return nil
}
