// Package filter provides implementations for filter modules.
// Condition module keeps or drops records based on a boolean expression.
package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/internal/logger"
)

// Error codes for condition module
const (
	ErrCodeInvalidExpression = "INVALID_EXPRESSION"
	ErrCodeEvaluationFailed  = "EVALUATION_FAILED"
)

// Common errors for condition module
var (
	ErrEmptyExpression   = errors.New("expression cannot be empty")
	ErrInvalidExpression = errors.New("invalid expression syntax")
)

// Routing behavior constants
const (
	OnConditionContinue = "continue"
	OnConditionSkip     = "skip"
)

// ConditionConfig represents the configuration for a condition filter module.
type ConditionConfig struct {
	// Expression is the condition expression string (required)
	Expression string `json:"expression"`
	// OnTrue specifies behavior when condition is true: "continue" (default) or "skip"
	OnTrue string `json:"onTrue,omitempty"`
	// OnFalse specifies behavior when condition is false: "continue" or "skip" (default)
	OnFalse string `json:"onFalse,omitempty"`
	// OnError specifies error handling mode: "fail" (default), "skip", "log"
	OnError string `json:"onError,omitempty"`
}

// ConditionModule implements conditional filtering.
type ConditionModule struct {
	expression string
	onTrue     string
	onFalse    string
	onError    errhandling.OnErrorStrategy
	program    *vm.Program
}

// ConditionError carries structured context for condition evaluation failures.
type ConditionError struct {
	Code        string
	Message     string
	Expression  string
	RecordIndex int
	Err         error
}

func (e *ConditionError) Error() string {
	return e.Message
}

func (e *ConditionError) Unwrap() error {
	return e.Err
}

// NewConditionFromConfig creates a new condition filter module from configuration.
// Missing fields evaluate to nil; comparing nil with a number is an evaluation
// error handled by onError.
func NewConditionFromConfig(config ConditionConfig) (*ConditionModule, error) {
	if strings.TrimSpace(config.Expression) == "" {
		return nil, ErrEmptyExpression
	}

	onTrue := config.OnTrue
	if onTrue == "" {
		onTrue = OnConditionContinue
	}
	onFalse := config.OnFalse
	if onFalse == "" {
		onFalse = OnConditionSkip
	}
	for _, v := range []string{onTrue, onFalse} {
		if v != OnConditionContinue && v != OnConditionSkip {
			return nil, fmt.Errorf("invalid routing %q: must be %q or %q", v, OnConditionContinue, OnConditionSkip)
		}
	}

	if config.OnError != "" && !errhandling.ValidOnErrorStrategy(config.OnError) {
		logger.Warn("invalid onError value for condition module; defaulting to fail",
			slog.String("on_error", config.OnError),
		)
	}
	onError := errhandling.ParseOnErrorStrategy(config.OnError)

	program, err := expr.Compile(config.Expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	logger.Debug("condition module initialized",
		slog.String("expression", config.Expression),
		slog.String("on_true", onTrue),
		slog.String("on_false", onFalse),
		slog.String("on_error", string(onError)),
	)

	return &ConditionModule{
		expression: config.Expression,
		onTrue:     onTrue,
		onFalse:    onFalse,
		onError:    onError,
		program:    program,
	}, nil
}

// ParseConditionConfig parses a raw configuration map into ConditionConfig.
func ParseConditionConfig(config map[string]interface{}) ConditionConfig {
	var cfg ConditionConfig
	cfg.Expression, _ = config["expression"].(string)
	cfg.OnTrue, _ = config["onTrue"].(string)
	cfg.OnFalse, _ = config["onFalse"].(string)
	cfg.OnError, _ = config["onError"].(string)
	return cfg
}

// Process filters records based on the condition expression.
func (c *ConditionModule) Process(ctx context.Context, records []map[string]interface{}) ([]map[string]interface{}, error) {
	result := make([]map[string]interface{}, 0, len(records))

	for recordIdx, rec := range records {
		if err := checkContext(ctx, recordIdx); err != nil {
			return nil, err
		}

		output, err := expr.Run(c.program, rec)
		if err != nil {
			condErr := &ConditionError{
				Code:        ErrCodeEvaluationFailed,
				Message:     fmt.Sprintf("condition %q failed at record %d: %v", c.expression, recordIdx, err),
				Expression:  c.expression,
				RecordIndex: recordIdx,
				Err:         err,
			}
			if herr := handleRecordError(c.onError, "condition", recordIdx, condErr); herr != nil {
				return nil, herr
			}
			continue
		}

		keep := c.onFalse == OnConditionContinue
		if b, _ := output.(bool); b {
			keep = c.onTrue == OnConditionContinue
		}
		if keep {
			result = append(result, rec)
		}
	}

	return result, nil
}

var _ Module = (*ConditionModule)(nil)
