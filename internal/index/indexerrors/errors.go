// Package indexerrors defines the typed errors surfaced by the autocomplete
// index's public façade.
package indexerrors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the category of an IndexError.
type ErrorCode string

const (
	// CodeUnknownKey is returned by SetScore (and Increment/Decrement) when
	// the given key has no entry in the store.
	CodeUnknownKey ErrorCode = "UNKNOWN_KEY"

	// CodeInvalidConfig is returned when a cache tuning parameter is set
	// outside its valid range.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// IndexError is the error type returned by the index façade. It carries a
// Code so callers can branch without string matching, and wraps an
// underlying error (if any) so errors.Is/errors.As keep working.
type IndexError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *IndexError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// UnknownKey builds the UnknownKey error for the given key's string form.
func UnknownKey(key string) error {
	return &IndexError{
		Code:    CodeUnknownKey,
		Message: fmt.Sprintf("no entry for key %q", key),
	}
}

// InvalidConfig builds the InvalidConfig error with a human-readable reason.
func InvalidConfig(message string) error {
	return &IndexError{
		Code:    CodeInvalidConfig,
		Message: message,
	}
}

// IsUnknownKey reports whether err is (or wraps) an UnknownKey IndexError.
func IsUnknownKey(err error) bool {
	var ie *IndexError
	return errors.As(err, &ie) && ie.Code == CodeUnknownKey
}

// IsInvalidConfig reports whether err is (or wraps) an InvalidConfig IndexError.
func IsInvalidConfig(err error) bool {
	var ie *IndexError
	return errors.As(err, &ie) && ie.Code == CodeInvalidConfig
}
