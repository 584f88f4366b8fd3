package bitap

import (
	"errors"
	"fmt"
)

// Errors returned by New.
var (
	// ErrPatternTooLong indicates the normalized pattern exceeds MaxPatternLength runes.
	ErrPatternTooLong = errors.New("pattern length is too long")

	// ErrEmptyPattern indicates the pattern has no runes.
	ErrEmptyPattern = errors.New("pattern is empty")
)

// PatternError describes a pattern that could not be compiled.
type PatternError struct {
	// Pattern is the normalized pattern.
	Pattern string
	// Length is the pattern length in runes.
	Length int
	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	if errors.Is(e.Err, ErrPatternTooLong) {
		return fmt.Sprintf("bitap: %v: %d runes (max %d)", e.Err, e.Length, MaxPatternLength)
	}
	return fmt.Sprintf("bitap: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *PatternError) Unwrap() error {
	return e.Err
}
