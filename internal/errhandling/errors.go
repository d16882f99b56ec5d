// Package errhandling provides error types, classification, and retry utilities.
// This file defines error categories and classification helpers shared by the
// input, cleaning, output, and report stages.
package errhandling

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
)

// ErrorCategory represents the type/category of an error.
// Categories decide the CLI exit code and whether a retry makes sense.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryIO represents file system errors (missing file, permission denied).
	CategoryIO ErrorCategory = "io"

	// CategoryParse represents malformed input (bad CSV rows, unparsable numbers).
	CategoryParse ErrorCategory = "parse"

	// CategorySchema represents configuration that fails schema validation.
	CategorySchema ErrorCategory = "schema"

	// CategoryData represents well-formed input that cannot be cleaned
	// (required column missing, count reconciliation failure).
	CategoryData ErrorCategory = "data"

	// CategoryDatabase represents SQL sink errors.
	CategoryDatabase ErrorCategory = "database"

	// CategoryInternal represents broken invariants inside the runtime.
	CategoryInternal ErrorCategory = "internal"

	// CategoryCanceled represents a run stopped through its context.
	CategoryCanceled ErrorCategory = "canceled"

	// CategoryUnknown represents unclassified errors.
	CategoryUnknown ErrorCategory = "unknown"
)

// ClassifiedError wraps an error with classification metadata.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Retryable indicates whether the error is transient and can be retried.
	Retryable bool

	// Message is a human-readable error message.
	Message string

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.OriginalErr != nil && e.OriginalErr.Error() != e.Message {
		return fmt.Sprintf("%s error: %s: %v", e.Category, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s error: %s", e.Category, e.Message)
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// retryableError is implemented by errors that know their own retryability,
// such as database.DatabaseError.
type retryableError interface {
	error
	IsRetryable() bool
}

// ClassifyError classifies any error into a ClassifiedError.
// Already classified errors are returned unchanged.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{Category: CategoryUnknown, Message: "nil error"}
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &ClassifiedError{Category: CategoryCanceled, Message: "run canceled", OriginalErr: err}
	}

	var re retryableError
	if errors.As(err, &re) {
		return &ClassifiedError{Category: CategoryDatabase, Retryable: re.IsRetryable(), Message: re.Error(), OriginalErr: err}
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return &ClassifiedError{
			Category:    CategoryIO,
			Message:     fmt.Sprintf("%s %s", pathErr.Op, pathErr.Path),
			OriginalErr: err,
		}
	}

	var csvErr *csv.ParseError
	var numErr *strconv.NumError
	if errors.As(err, &csvErr) || errors.As(err, &numErr) {
		return &ClassifiedError{Category: CategoryParse, Message: err.Error(), OriginalErr: err}
	}

	return &ClassifiedError{Category: CategoryUnknown, Message: err.Error(), OriginalErr: err}
}

// IsRetryable returns true if the error is classified as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).Retryable
}

// IsFatal returns true if the error should stop the run without retry.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !ClassifyError(err).Retryable
}

// GetErrorCategory returns the error category for a given error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	return ClassifyError(err).Category
}

// NewParseError creates a ClassifiedError for malformed input.
func NewParseError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{Category: CategoryParse, Message: message, OriginalErr: originalErr}
}

// NewDataError creates a ClassifiedError for input that cannot be cleaned.
func NewDataError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{Category: CategoryData, Message: message, OriginalErr: originalErr}
}

// NewSchemaError creates a ClassifiedError for invalid configuration.
func NewSchemaError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{Category: CategorySchema, Message: message, OriginalErr: originalErr}
}

// NewIOError creates a ClassifiedError for file system failures.
func NewIOError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{Category: CategoryIO, Message: message, OriginalErr: originalErr}
}

// NewInternalError creates a ClassifiedError for a broken runtime invariant.
func NewInternalError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{Category: CategoryInternal, Message: message, OriginalErr: originalErr}
}
