package model

import (
	"errors"
	"strings"
)

// ErrInvalidCurrency indicates a currency code is not three ASCII letters.
var ErrInvalidCurrency = errors.New("invalid currency code format")

// IsValidCurrencyCode checks whether a string is a valid 3-letter currency code.
func IsValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	code = strings.ToUpper(code)
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// NormalizeCurrency trims and upper-cases a code, rejecting malformed input.
func NormalizeCurrency(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !IsValidCurrencyCode(code) {
		return "", ErrInvalidCurrency
	}
	return strings.ToUpper(code), nil
}

// NormalizeCurrencies normalizes every code, preserving order.
func NormalizeCurrencies(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n, err := NormalizeCurrency(c)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
