// Package gtin validates GS1 trade item numbers (GTIN-8, GTIN-12,
// GTIN-13 and GTIN-14).
package gtin

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmpty         = errors.New("gtin is required")
	ErrInvalidLength = errors.New("gtin must have 8, 12, 13 or 14 digits")
	ErrCheckDigit    = errors.New("gtin check digit is invalid")
)

var typeNames = map[int]string{
	8:  "GTIN-8",
	12: "GTIN-12 (UPC-A)",
	13: "GTIN-13 (EAN-13)",
	14: "GTIN-14",
}

// Normalize strips everything but digits (spaces, dashes, etc).
func Normalize(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidFormat reports whether the normalized code has a valid GTIN length.
func ValidFormat(code string) bool {
	switch len(Normalize(code)) {
	case 8, 12, 13, 14:
		return true
	}
	return false
}

// TypeName returns the GS1 name for the code's length, e.g. "GTIN-13 (EAN-13)".
func TypeName(code string) string {
	return typeNames[len(Normalize(code))]
}

// CheckDigit computes the GS1 check digit for a code that does not yet
// include one. Digits are weighted from the right: odd positions x3,
// even positions x1.
func CheckDigit(body string) int {
	sum := 0
	n := len(body)
	for i := n - 1; i >= 0; i-- {
		d := int(body[i] - '0')
		if (n-i)%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	rem := sum % 10
	if rem == 0 {
		return 0
	}
	return 10 - rem
}

// Valid reports whether code is a well-formed GTIN with a correct check digit.
func Valid(code string) bool {
	return Validate(code) == nil
}

// Validate normalizes and fully validates a GTIN, returning a sentinel
// error describing the first failure.
func Validate(code string) error {
	normalized := Normalize(code)
	if normalized == "" {
		return ErrEmpty
	}
	if !ValidFormat(normalized) {
		return ErrInvalidLength
	}
	body := normalized[:len(normalized)-1]
	provided := int(normalized[len(normalized)-1] - '0')
	if CheckDigit(body) != provided {
		return ErrCheckDigit
	}
	return nil
}

// ValidationError builds a descriptive message for an invalid code, or ""
// when the code is valid.
func ValidationError(code string) string {
	err := Validate(code)
	if err == nil {
		return ""
	}
	return fmt.Sprintf("invalid gtin %q: %v (must be a GS1 code of 8, 12, 13 or 14 digits with a correct check digit)", code, err)
}
