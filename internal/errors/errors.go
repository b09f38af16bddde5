// Package errors provides the retry classification shared by the endpoint
// clients. Endpoint code marks failures that must not be retried; the retry
// loops consult IsNonRetryable before trying again.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// NonRetryableError represents an error that should not be retried.
// Operations that encounter this error type should fail immediately
// without retry attempts.
type NonRetryableError struct {
	message string
	cause   error
}

// Error implements the error interface.
func (e *NonRetryableError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying cause error for error unwrapping.
func (e *NonRetryableError) Unwrap() error {
	return e.cause
}

// Is checks if the target error is a NonRetryableError.
func (e *NonRetryableError) Is(target error) bool {
	_, ok := target.(*NonRetryableError)
	return ok
}

// NewNonRetryableError creates a new non-retryable error with a message and optional cause.
func NewNonRetryableError(message string, cause error) error {
	return &NonRetryableError{
		message: message,
		cause:   cause,
	}
}

// WrapNonRetryable wraps an existing error as non-retryable.
func WrapNonRetryable(cause error) error {
	if cause == nil {
		return nil
	}
	return &NonRetryableError{
		message: "endpoint request failed permanently",
		cause:   cause,
	}
}

// IsNonRetryable checks if an error is non-retryable.
func IsNonRetryable(err error) bool {
	if err == nil {
		return false
	}
	var nonRetryableErr *NonRetryableError
	return errors.As(err, &nonRetryableErr)
}

// IsRetryable is the retry predicate used with retry-go: everything that is
// not explicitly marked non-retryable, and is not a cancellation, may be tried
// again.
func IsRetryable(err error) bool {
	if err == nil || IsNonRetryable(err) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Sentinel errors for common non-retryable conditions.
var (
	// ErrObjectExists is returned when an exclusive create finds the object.
	ErrObjectExists = &NonRetryableError{
		message: "object already exists",
		cause:   nil,
	}

	// ErrBucketMissing is returned when the bucket of a path does not exist
	// and the open did not ask for the path to be made.
	ErrBucketMissing = &NonRetryableError{
		message: "bucket does not exist",
		cause:   nil,
	}
)
