package runtime

import (
	"errors"

	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// Error codes for pipeline execution errors
const (
	ErrCodeInputFailed  = "INPUT_FAILED"
	ErrCodeFilterFailed = "FILTER_FAILED"
	ErrCodeCleanFailed  = "CLEAN_FAILED"
	ErrCodeOutputFailed = "OUTPUT_FAILED"
	ErrCodeReportFailed = "REPORT_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
)

// Common errors
var (
	// ErrNilPipeline is returned when pipeline configuration is nil
	ErrNilPipeline = errors.New("pipeline configuration is nil")

	// ErrNilInputModule is returned when input module is nil
	ErrNilInputModule = errors.New("input module is nil")

	// ErrNoOutputModules is returned when a non dry-run has nowhere to write
	ErrNoOutputModules = errors.New("at least one output module is required")
)

// buildExecutionError creates an ExecutionError with its classified category.
func buildExecutionError(code, module string, err error) *adclean.ExecutionError {
	return &adclean.ExecutionError{
		Code:          code,
		Message:       err.Error(),
		Module:        module,
		ErrorCategory: string(errhandling.ClassifyError(err).Category),
	}
}
