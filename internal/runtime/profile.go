package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/stats"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// ProfileResult describes the dataset as the cleaning stage would see it.
type ProfileResult struct {
	Records   int
	Summaries []adclean.MetricSummary
	Profiles  []stats.OutlierProfile
}

// Profile loads the dataset, applies the preprocessing filters, and counts the
// values each range step would remove. Nothing is cleaned or written.
func (e *Executor) Profile(ctx context.Context, pipeline *adclean.Pipeline) (*ProfileResult, error) {
	result := &adclean.ExecutionResult{RunID: uuid.NewString()}
	if pipeline == nil {
		return nil, ErrNilPipeline
	}
	if e.inputModule == nil {
		return nil, ErrNilInputModule
	}

	execCtx := logger.ExecutionContext{
		PipelineID: pipeline.ID,
		RunID:      result.RunID,
		Stage:      "profile",
		DryRun:     true,
	}

	records, header, _, err := e.executeInput(ctx, execCtx, result)
	e.closeModule(execCtx, "input", e.inputModule)
	e.inputModule = nil
	if err != nil {
		return nil, err
	}

	filtered, _, err := e.executeFiltersWithResult(ctx, execCtx, records, header, result)
	if err != nil {
		return nil, err
	}

	cols := pipeline.Cleaning.Columns
	metrics := presentColumns(filtered.header, stats.MetricColumns(cols))
	if len(metrics) == 0 {
		return nil, errhandling.NewDataError(
			fmt.Sprintf("none of the metric columns %v are in the dataset", stats.MetricColumns(cols)), nil)
	}

	profiles := stats.ProfileThresholds(filtered.records, cols, pipeline.Cleaning.Thresholds)
	profiles = slices.DeleteFunc(profiles, func(p stats.OutlierProfile) bool {
		return !slices.Contains(metrics, p.Column)
	})

	return &ProfileResult{
		Records:   len(filtered.records),
		Summaries: stats.DescribeAll(filtered.records, metrics),
		Profiles:  profiles,
	}, nil
}
