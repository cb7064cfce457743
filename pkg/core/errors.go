package core

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNotInitialized is returned when an operation runs before Init.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrStoreClosed is returned when trying to use a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrNotFound is returned when an id or name lookup misses on an
	// operation that requires the row to exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidVector is returned when an embedding vector is empty or
	// contains non-finite values.
	ErrInvalidVector = errors.New("invalid embedding vector")

	// ErrEmptyWord is returned when a word document has no word text.
	ErrEmptyWord = errors.New("word cannot be empty")

	// ErrEmbeddingDisabled is returned when an embedding operation is
	// requested without a valid, enabled embedding configuration.
	ErrEmbeddingDisabled = errors.New("embedding not enabled or configured")

	// ErrIndexUnavailable signals a full-text engine failure. It is
	// recovered internally by the fallback search and never reaches callers
	// of the search API.
	ErrIndexUnavailable = errors.New("full-text index unavailable")

	// ErrCorruptPayload is returned when a stored document payload fails to
	// parse.
	ErrCorruptPayload = errors.New("corrupt document payload")

	// ErrTxFailed is returned when a step inside a composite operation
	// fails and the whole operation has been rolled back.
	ErrTxFailed = errors.New("transaction failed")
)

// StoreError wraps errors with operation context
type StoreError struct {
	Op  string // Operation name
	Err error  // Underlying error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("wordvault: %v", e.Err)
	}
	return fmt.Sprintf("wordvault: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError wraps an error with operation context
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
