package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed indicates a setting holds an unusable value.
var ErrValidationFailed = errors.New("validation failed")

// FieldError describes one invalid setting.
type FieldError struct {
	// Path is the dotted setting path, e.g. "search.threshold".
	Path string
	// Value is the rejected value.
	Value any
	// Message describes the constraint.
	Message string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}

// ValidationError collects every invalid setting found by Validate.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// DecodeError wraps a failure to convert merged settings into Config.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding configuration: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
