// Package cleaning runs the threshold cleaning stage: four range steps over
// ROAS, CPA, CPC, and CPM followed by the minimum spend/conversions step.
package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/modules/filter"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// Step names in execution order.
const (
	StepROAS    = "ROAS"
	StepCPA     = "CPA"
	StepCPC     = "CPC"
	StepCPM     = "CPM"
	StepMinimum = "minimum"
)

// keeper is the per-record predicate of a step.
type keeper interface {
	Keep(rec map[string]interface{}) bool
}

// Step is one cleaning step bound to its columns.
type Step struct {
	Name    string
	Columns []string
	// Required steps fail the run when a column is absent; the others are skipped.
	Required bool
	filter   keeper
}

// Result is the outcome of one pass over the records.
type Result struct {
	Initial    int
	Final      int
	Steps      []adclean.StepResult
	Skipped    []string
	Thresholds adclean.Thresholds
	Records    []map[string]interface{}
}

// TotalRemoved returns the records removed across all steps.
func (r *Result) TotalRemoved() int {
	total := 0
	for _, s := range r.Steps {
		total += s.Removed
	}
	return total
}

// BuildSteps creates the five steps from a column mapping and thresholds.
func BuildSteps(cols adclean.Columns, th adclean.Thresholds) ([]Step, error) {
	ranges := []struct {
		name     string
		column   string
		min, max float64
	}{
		{StepROAS, cols.ROAS, th.ROASMin, th.ROASMax},
		{StepCPA, cols.CPA, th.CPAMin, th.CPAMax},
		{StepCPC, cols.CPC, th.CPCMin, th.CPCMax},
		{StepCPM, cols.CPM, th.CPMMin, th.CPMMax},
	}

	steps := make([]Step, 0, len(ranges)+1)
	for _, r := range ranges {
		lo, hi := r.min, r.max
		m, err := filter.NewRangeFromConfig(filter.RangeConfig{Column: r.column, Min: &lo, Max: &hi})
		if err != nil {
			return nil, errhandling.NewSchemaError(fmt.Sprintf("%s step", r.name), err)
		}
		steps = append(steps, Step{Name: r.name, Columns: []string{r.column}, filter: m})
	}

	minimum, err := filter.NewMinimumFromConfig(filter.MinimumConfig{
		SpendColumn:       cols.Spend,
		MinSpend:          th.MinSpend,
		ConversionsColumn: cols.Conversions,
		MinConversions:    th.MinConversions,
	})
	if err != nil {
		return nil, errhandling.NewSchemaError("minimum step", err)
	}
	steps = append(steps, Step{Name: StepMinimum, Columns: minimum.Columns(), Required: true, filter: minimum})
	return steps, nil
}

// Cleaner applies the steps to a record set.
type Cleaner struct {
	columns    adclean.Columns
	thresholds adclean.Thresholds
	steps      []Step
	execCtx    logger.ExecutionContext
}

// New creates a Cleaner for the given mapping and thresholds.
func New(cols adclean.Columns, th adclean.Thresholds) (*Cleaner, error) {
	steps, err := BuildSteps(cols, th)
	if err != nil {
		return nil, err
	}
	return &Cleaner{columns: cols, thresholds: th, steps: steps}, nil
}

// WithLogContext attaches run identifiers to the step logs.
func (c *Cleaner) WithLogContext(execCtx logger.ExecutionContext) *Cleaner {
	c.execCtx = execCtx
	c.execCtx.Stage = "clean"
	return c
}

// Steps returns the configured steps.
func (c *Cleaner) Steps() []Step {
	return c.steps
}

// Run applies every step in order. header lists the dataset columns: range
// steps whose column is absent are skipped, and an absent minimum column is a
// data error. The input slice is not modified.
func (c *Cleaner) Run(ctx context.Context, header []string, records []map[string]interface{}) (*Result, error) {
	res := &Result{
		Initial:    len(records),
		Thresholds: c.thresholds,
		Steps:      make([]adclean.StepResult, 0, len(c.steps)),
	}

	current := records
	for _, step := range c.steps {
		if missing := missingColumns(header, step.Columns); len(missing) > 0 {
			if step.Required {
				return nil, errhandling.NewDataError(
					fmt.Sprintf("%s step requires columns %v", step.Name, missing), nil)
			}
			logger.Warn("cleaning step skipped: column not in dataset",
				slog.String("step", step.Name),
				slog.Any("missing_columns", missing),
			)
			res.Skipped = append(res.Skipped, step.Name)
			continue
		}

		before := len(current)
		kept := make([]map[string]interface{}, 0, before)
		for i, rec := range current {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			if step.filter.Keep(rec) {
				kept = append(kept, rec)
			}
		}
		current = kept

		res.Steps = append(res.Steps, adclean.StepResult{
			Name:    step.Name,
			Column:  step.Columns[0],
			Before:  before,
			After:   len(current),
			Removed: before - len(current),
		})
		logger.LogStepRemoval(c.execCtx, step.Name, step.Columns[0], before, len(current))
	}

	res.Final = len(current)
	res.Records = current

	if res.Initial-res.TotalRemoved() != res.Final {
		return nil, errhandling.NewInternalError(fmt.Sprintf(
			"record counts do not reconcile: initial %d - removed %d != final %d",
			res.Initial, res.TotalRemoved(), res.Final), nil)
	}
	return res, nil
}

func missingColumns(header, columns []string) []string {
	var missing []string
	for _, col := range columns {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	return missing
}
