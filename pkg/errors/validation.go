package errors

import (
	"math"
	"unicode"
)

// maxIDLength bounds item identifiers accepted from manifests and requests.
const maxIDLength = 256

// ValidatePositive checks that v is a finite number greater than zero.
// The name is used in the error message (e.g. "container width").
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be finite, got %v", name, v)
	}
	if v <= 0 {
		return New(ErrCodeInvalidInput, "%s must be positive, got %v", name, v)
	}
	return nil
}

// ValidateNonNegative checks that v is a finite number greater than or equal to zero.
func ValidateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be finite, got %v", name, v)
	}
	if v < 0 {
		return New(ErrCodeInvalidInput, "%s must not be negative, got %v", name, v)
	}
	return nil
}

// ValidateID validates an item identifier taken from untrusted input.
//
// The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 256 bytes
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "item id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "item id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "item id %q contains control characters", id)
		}
	}
	return nil
}
