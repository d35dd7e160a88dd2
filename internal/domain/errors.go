package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a missing or out-of-range argument.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing account.
	ErrNotFound = errors.New("not found")
	// ErrDataIntegrity signals stored data that is present but malformed.
	ErrDataIntegrity = errors.New("data integrity violation")
	// ErrStore signals a failure of the underlying data store, including timeouts.
	ErrStore = errors.New("store failure")
	// ErrQuotaExceeded signals that a caller flow was denied by the limit evaluator.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrProviderError signals an upstream LLM provider failure.
	ErrProviderError = errors.New("llm provider error")
)

// Validationf builds an ErrValidation with a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// RequireAccountID rejects an empty account identifier.
func RequireAccountID(accountID string) error {
	if accountID == "" {
		return Validationf("account id is required")
	}
	return nil
}

// StoreError wraps a data store failure with the operation that produced it.
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError wraps err as a StoreError. Returns nil for a nil err.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStore.Error(), e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports ErrStore so callers can match the kind without losing the cause.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// DataIntegrityError reports a malformed stored field.
type DataIntegrityError struct {
	Field string
	Value string
	Err   error
}

// NewDataIntegrityError creates a DataIntegrityError for a stored field.
func NewDataIntegrityError(field, value string, cause error) error {
	return &DataIntegrityError{Field: field, Value: value, Err: cause}
}

func (e *DataIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: field %q has malformed value %q: %v", ErrDataIntegrity.Error(), e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: field %q has malformed value %q", ErrDataIntegrity.Error(), e.Field, e.Value)
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }

// Is reports ErrDataIntegrity.
func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }
