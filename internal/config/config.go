// Package config parses, validates, and converts pipeline configuration
// files (JSON/YAML) and applies environment overrides.
package config

import (
	"errors"
	"fmt"

	"github.com/Molly503/paid-media/pkg/adclean"
)

// Load errors.
var (
	ErrParse      = errors.New("configuration parse error")
	ErrValidation = errors.New("configuration validation error")
)

// LoadError carries the parse/validation result of a failed load.
type LoadError struct {
	Result *Result
	kind   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	errs := e.Result.AllErrors()
	switch len(errs) {
	case 0:
		return e.kind.Error()
	case 1:
		return fmt.Sprintf("%v: %v", e.kind, errs[0])
	default:
		return fmt.Sprintf("%v: %v (and %d more)", e.kind, errs[0], len(errs)-1)
	}
}

// Unwrap returns ErrParse or ErrValidation.
func (e *LoadError) Unwrap() error {
	return e.kind
}

// LoadPipeline reads a configuration file and converts it to a pipeline.
// An empty path returns DefaultPipeline. Environment overrides are applied
// and the result is validated again.
func LoadPipeline(path string) (*adclean.Pipeline, error) {
	var pipeline *adclean.Pipeline
	if path == "" {
		pipeline = DefaultPipeline()
	} else {
		result := ParseConfig(path)
		if len(result.ParseErrors) > 0 {
			return nil, &LoadError{Result: result, kind: ErrParse}
		}
		if len(result.ValidationErrors) > 0 {
			return nil, &LoadError{Result: result, kind: ErrValidation}
		}
		var err error
		if pipeline, err = ConvertToPipeline(result.Data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	if err := ApplyEnv(pipeline, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if errs := ValidatePipeline(pipeline); len(errs) > 0 {
		return nil, &LoadError{Result: &Result{FilePath: path, ValidationErrors: errs}, kind: ErrValidation}
	}
	return pipeline, nil
}
