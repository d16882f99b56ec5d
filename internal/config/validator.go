package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/Molly503/paid-media/pkg/adclean"
)

//go:embed schema/pipeline-schema.json
var embeddedSchema []byte

const schemaURL = "https://paid-media.local/schemas/pipeline/v1.0.0/pipeline-schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaInitErr  error
)

// GetEmbeddedSchema returns the embedded pipeline schema.
func GetEmbeddedSchema() []byte {
	return embeddedSchema
}

func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var schemaDoc interface{}
		if err := json.Unmarshal(embeddedSchema, &schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		var err error
		compiledSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", err)
		}
	})

	if schemaInitErr != nil {
		return nil, schemaInitErr
	}
	return compiledSchema, nil
}

// ValidateConfig validates parsed configuration against the pipeline schema,
// then checks the merged thresholds and paths.
func ValidateConfig(data map[string]interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(data) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "required",
			Message: "configuration data is empty",
		})
		return result
	}

	schema, err := getCompiledSchema()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "schema",
			Message: fmt.Sprintf("failed to load schema: %v", err),
		})
		return result
	}

	if validationErr := schema.Validate(data); validationErr != nil {
		result.Valid = false
		if detailedErr, ok := validationErr.(*jsonschema.ValidationError); ok {
			result.Errors = convertValidationErrors(detailedErr)
		} else {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "/",
				Type:    "validation",
				Message: validationErr.Error(),
			})
		}
		return result
	}

	pipeline, err := ConvertToPipeline(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/pipeline",
			Type:    "conversion",
			Message: err.Error(),
		})
		return result
	}
	if errs := ValidatePipeline(pipeline); len(errs) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, errs...)
	}
	return result
}

// ValidatePipeline checks constraints the schema cannot express: every
// threshold pair must satisfy min <= max once defaults are merged.
func ValidatePipeline(p *adclean.Pipeline) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateThresholds("/pipeline/cleaning/thresholds", p.Cleaning.Thresholds)...)
	if p.Cleaning.Fallback != nil && p.Cleaning.Fallback.Enabled {
		errs = append(errs, validateThresholds("/pipeline/cleaning/fallback/thresholds", p.Cleaning.Fallback.Thresholds)...)
	}
	if p.Input == nil {
		errs = append(errs, ValidationError{Path: "/pipeline/input", Type: "required", Message: "input module is required"})
	}
	if len(p.Outputs) == 0 {
		errs = append(errs, ValidationError{Path: "/pipeline/outputs", Type: "required", Message: "at least one output module is required"})
	}
	return errs
}

func validateThresholds(path string, th adclean.Thresholds) []ValidationError {
	pairs := []struct {
		name     string
		min, max float64
	}{
		{"ROAS", th.ROASMin, th.ROASMax},
		{"CPA", th.CPAMin, th.CPAMax},
		{"CPC", th.CPCMin, th.CPCMax},
		{"CPM", th.CPMMin, th.CPMMax},
	}

	var errs []ValidationError
	for _, p := range pairs {
		if p.min > p.max {
			errs = append(errs, ValidationError{
				Path:     path,
				Type:     "range",
				Expected: fmt.Sprintf("%s_MIN <= %s_MAX", p.name, p.name),
				Actual:   fmt.Sprintf("%g > %g", p.min, p.max),
				Message:  fmt.Sprintf("%s_MIN (%g) is greater than %s_MAX (%g)", p.name, p.min, p.name, p.max),
			})
		}
	}
	return errs
}

func convertValidationErrors(err *jsonschema.ValidationError) []ValidationError {
	var errs []ValidationError

	if err.ErrorKind != nil {
		errs = append(errs, ValidationError{
			Path:    formatInstanceLocation(err.InstanceLocation),
			Type:    extractErrorType(err),
			Message: err.Error(),
		})
	}
	for _, cause := range err.Causes {
		errs = append(errs, convertValidationErrors(cause)...)
	}
	return errs
}

func formatInstanceLocation(loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	return "/" + strings.Join(loc, "/")
}

func extractErrorType(err *jsonschema.ValidationError) string {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "required"):
		return "required"
	case strings.Contains(msg, "additional"):
		return "additionalProperties"
	case strings.Contains(msg, "type"):
		return "type"
	case strings.Contains(msg, "pattern"):
		return "pattern"
	case strings.Contains(msg, "value must be one of"), strings.Contains(msg, "enum"):
		return "enum"
	case strings.Contains(msg, "minimum"), strings.Contains(msg, "maximum"):
		return "range"
	default:
		return "validation"
	}
}
