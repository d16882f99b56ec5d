// Package filter provides implementations for filter modules.
// Derive module computes new columns from per-record expressions.
package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/record"
)

// ErrNoDeriveFields is returned when a derive module has nothing to compute.
var ErrNoDeriveFields = errors.New("at least one field is required")

// DeriveField is one computed column.
type DeriveField struct {
	// Name is the column written with the result
	Name string `json:"name"`
	// Expression computes the value; earlier fields are visible to later ones
	Expression string `json:"expression"`
}

// DeriveConfig represents the configuration for a derive filter module.
type DeriveConfig struct {
	Fields  []DeriveField `json:"fields"`
	OnError string        `json:"onError,omitempty"`
}

type compiledField struct {
	name    string
	source  string
	program *vm.Program
}

// DeriveModule evaluates expressions against each record and stores the results.
// Non-finite numeric results are stored as nil.
type DeriveModule struct {
	fields  []compiledField
	onError errhandling.OnErrorStrategy
}

// deriveFunctions are the nil-safe helpers available to derive expressions.
//
//	ratio(a, b)           a / b, nil unless both are numbers and b > 0
//	ratioOr(a, b, dflt)   a / b, dflt unless both are numbers and b > 0
//	scale(a, k)           a * k, nil when a is not a number
func deriveFunctions() []expr.Option {
	return []expr.Option{
		expr.Function("ratio", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("ratio expects 2 arguments, got %d", len(params))
			}
			return safeRatio(params[0], params[1], nil), nil
		}),
		expr.Function("ratioOr", func(params ...any) (any, error) {
			if len(params) != 3 {
				return nil, fmt.Errorf("ratioOr expects 3 arguments, got %d", len(params))
			}
			return safeRatio(params[0], params[1], params[2]), nil
		}),
		expr.Function("scale", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("scale expects 2 arguments, got %d", len(params))
			}
			a, ok := record.Float(params[0])
			k, kok := record.Float(params[1])
			if !ok || !kok {
				return nil, nil
			}
			return a * k, nil
		}),
	}
}

func safeRatio(num, den, fallback any) any {
	a, ok := record.Float(num)
	b, bok := record.Float(den)
	if !ok || !bok || b <= 0 {
		return fallback
	}
	return a / b
}

// NewDeriveFromConfig creates a new derive filter module from configuration.
func NewDeriveFromConfig(config DeriveConfig) (*DeriveModule, error) {
	if len(config.Fields) == 0 {
		return nil, ErrNoDeriveFields
	}

	opts := append([]expr.Option{expr.AllowUndefinedVariables()}, deriveFunctions()...)
	fields := make([]compiledField, 0, len(config.Fields))
	for i, f := range config.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("field %d: name is required", i)
		}
		if strings.TrimSpace(f.Expression) == "" {
			return nil, fmt.Errorf("field %s: %w", f.Name, ErrEmptyExpression)
		}
		program, err := expr.Compile(f.Expression, opts...)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w: %v", f.Name, ErrInvalidExpression, err)
		}
		fields = append(fields, compiledField{name: f.Name, source: f.Expression, program: program})
	}

	onError := errhandling.ParseOnErrorStrategy(config.OnError)
	logger.Debug("derive module initialized",
		slog.Int("field_count", len(fields)),
		slog.String("on_error", string(onError)),
	)
	return &DeriveModule{fields: fields, onError: onError}, nil
}

// ParseDeriveConfig parses a raw configuration map into DeriveConfig.
func ParseDeriveConfig(config map[string]interface{}) (DeriveConfig, error) {
	var cfg DeriveConfig
	cfg.OnError, _ = config["onError"].(string)

	raw, ok := config["fields"].([]interface{})
	if !ok || len(raw) == 0 {
		return cfg, fmt.Errorf("'fields' is required")
	}
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return cfg, fmt.Errorf("fields[%d] must be an object", i)
		}
		name, _ := m["name"].(string)
		expression, _ := m["expression"].(string)
		cfg.Fields = append(cfg.Fields, DeriveField{Name: name, Expression: expression})
	}
	return cfg, nil
}

// Names returns the derived column names in evaluation order.
func (d *DeriveModule) Names() []string {
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.name
	}
	return names
}

// Process computes the derived columns for every record in place.
func (d *DeriveModule) Process(ctx context.Context, records []map[string]interface{}) ([]map[string]interface{}, error) {
	result := make([]map[string]interface{}, 0, len(records))

	for recordIdx, rec := range records {
		if err := checkContext(ctx, recordIdx); err != nil {
			return nil, err
		}
		if err := d.deriveRecord(rec); err != nil {
			if herr := handleRecordError(d.onError, "derive", recordIdx, fmt.Errorf("record %d: %w", recordIdx, err)); herr != nil {
				return nil, herr
			}
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

func (d *DeriveModule) deriveRecord(rec map[string]interface{}) error {
	for _, f := range d.fields {
		out, err := expr.Run(f.program, rec)
		if err != nil {
			return fmt.Errorf("deriving %s from %q: %w", f.name, f.source, err)
		}
		rec[f.name] = normalizeResult(out)
	}
	return nil
}

// normalizeResult maps numeric results onto float64 cells.
func normalizeResult(v interface{}) interface{} {
	switch n := v.(type) {
	case nil, string, bool:
		return n
	}
	f, ok := record.Float(v)
	if !ok || math.IsInf(f, 0) {
		return nil
	}
	return f
}

var _ Module = (*DeriveModule)(nil)
