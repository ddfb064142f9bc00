// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrDuplicateAlarm   = errors.New("an active alarm with this asset, target and condition already exists")
	ErrDuplicateWatch   = errors.New("asset is already on the watchlist")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyTriggered = errors.New("alarm has already triggered")
	ErrQueryTooShort    = errors.New("query too short")
	ErrInvalidPrice     = errors.New("target price must be greater than zero")
)

// FetchErrorKind classifies a price source failure.
type FetchErrorKind string

const (
	FetchTimeout FetchErrorKind = "timeout"
	FetchNetwork FetchErrorKind = "network"
	FetchDecode  FetchErrorKind = "decode"
)

// FetchError represents a transient failure talking to the price source.
// Fetch errors are never fatal; the monitor loop converts them into a
// reported event and a backoff decision.
type FetchError struct {
	Kind      FetchErrorKind
	Operation string
	Err       error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch error [%s] %s: %v", e.Kind, e.Operation, e.Err)
	}
	return fmt.Sprintf("fetch error [%s] %s", e.Kind, e.Operation)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(kind FetchErrorKind, operation string, err error) *FetchError {
	return &FetchError{
		Kind:      kind,
		Operation: operation,
		Err:       err,
	}
}

// AsFetchError extracts a FetchError from an error chain.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
