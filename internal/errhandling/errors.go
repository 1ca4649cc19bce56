// Package errhandling provides error classification and retry utilities
// for the muonstream runtime. Classification decides whether a failure in
// a source, filter, or writer module is worth retrying.
package errhandling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrorCategory represents the type/category of an error.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryIO represents file and storage errors. Transient storage
	// failures (stale mounts, busy files) are retryable; a missing
	// dataset file is not.
	CategoryIO ErrorCategory = "io"

	// CategoryDecode represents malformed event container content.
	// Decode errors are fatal; re-reading the same bytes cannot help.
	CategoryDecode ErrorCategory = "decode"

	// CategoryValidation represents invalid configuration detected at
	// module construction or execution time. Always fatal.
	CategoryValidation ErrorCategory = "validation"

	// CategoryCanceled represents context cancellation. Fatal by
	// definition: the caller asked to stop.
	CategoryCanceled ErrorCategory = "canceled"

	// CategoryUnknown represents unclassified errors. Retryable by
	// default, transient causes being more likely than permanent ones.
	CategoryUnknown ErrorCategory = "unknown"
)

// ClassifiedError wraps an error with classification metadata.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Retryable indicates whether the error is transient.
	Retryable bool

	// Message is a human-readable error message.
	Message string

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Category, e.Message)
}

// Unwrap returns the original error for errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// NewValidationError creates a fatal validation ClassifiedError.
func NewValidationError(format string, args ...interface{}) *ClassifiedError {
	err := fmt.Errorf(format, args...)
	return &ClassifiedError{
		Category:    CategoryValidation,
		Retryable:   false,
		Message:     err.Error(),
		OriginalErr: err,
	}
}

// ClassifyError classifies an error into a category with retryability.
// Already-classified errors are returned unchanged.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{
			Category:    CategoryCanceled,
			Retryable:   false,
			Message:     err.Error(),
			OriginalErr: err,
		}
	}

	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return &ClassifiedError{
			Category:    CategoryIO,
			Retryable:   false,
			Message:     err.Error(),
			OriginalErr: err,
		}
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return &ClassifiedError{
			Category:    CategoryIO,
			Retryable:   true,
			Message:     err.Error(),
			OriginalErr: err,
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &ClassifiedError{
			Category:    CategoryDecode,
			Retryable:   false,
			Message:     err.Error(),
			OriginalErr: err,
		}
	}

	return &ClassifiedError{
		Category:    CategoryUnknown,
		Retryable:   true,
		Message:     err.Error(),
		OriginalErr: err,
	}
}

// IsRetryable reports whether the error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).Retryable
}

// IsFatal reports whether the error is permanent.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !ClassifyError(err).Retryable
}
