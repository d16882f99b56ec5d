// Package runtime provides the pipeline execution engine.
// It orchestrates the Input, Filter, cleaning, Output, and report stages.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Molly503/paid-media/internal/cleaning"
	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/modules/filter"
	"github.com/Molly503/paid-media/internal/modules/input"
	"github.com/Molly503/paid-media/internal/modules/output"
	"github.com/Molly503/paid-media/internal/pathutil"
	"github.com/Molly503/paid-media/internal/record"
	"github.com/Molly503/paid-media/internal/report"
	"github.com/Molly503/paid-media/internal/stats"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// Execution status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Record counts below which the cleaned dataset is reported as small.
const (
	LowVolumeWarning = 100
	LowVolumeNotice  = 200
)

// RelaxedSuffix is appended to file output paths when the fallback result is
// written without an explicit fallback output path.
const RelaxedSuffix = "_relaxed"

// filterResult holds the result of filter module execution
type filterResult struct {
	records []map[string]interface{}
	header  []string
	err     error
	errIdx  int
}

// stageTimings holds timing measurements for each execution stage
type stageTimings struct {
	inputDuration  time.Duration
	filterDuration time.Duration
	cleanDuration  time.Duration
	outputDuration time.Duration
}

// columnRemover is implemented by filters that drop dataset columns.
type columnRemover interface {
	Targets() []string
}

// columnDeriver is implemented by filters that add dataset columns.
type columnDeriver interface {
	Names() []string
}

// Executor is responsible for executing cleaning pipelines.
// It orchestrates the execution flow: Input → Filters → Cleaning → Outputs → Report.
//
// The Executor only interacts with modules through their public interfaces.
type Executor struct {
	inputModule   input.Module
	filterModules []filter.Module
	outputModules []output.Module
	dryRun        bool
	now           func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock sets the clock used for result timestamps and the summary log.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutorWithModules creates a new pipeline executor with all modules configured.
//
// Parameters:
//   - inputModule: The input module that loads the dataset
//   - filterModules: Optional preprocessing filters applied before cleaning (can be nil)
//   - outputModules: The destinations for the surviving records
//   - dryRun: If true, skips output modules and the summary log file
func NewExecutorWithModules(
	inputModule input.Module,
	filterModules []filter.Module,
	outputModules []output.Module,
	dryRun bool,
	opts ...Option,
) *Executor {
	e := &Executor{
		inputModule:   inputModule,
		filterModules: filterModules,
		outputModules: outputModules,
		dryRun:        dryRun,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a pipeline with a background context.
func (e *Executor) Execute(pipeline *adclean.Pipeline) (*adclean.ExecutionResult, error) {
	return e.ExecuteWithContext(context.Background(), pipeline)
}

// ExecuteWithContext runs a pipeline with the given context.
//
// Execution flow:
//  1. Validate pipeline configuration
//  2. Execute Input module to load the dataset
//  3. Execute preprocessing Filter modules in sequence (if any)
//  4. Run the cleaning steps, rerunning with relaxed thresholds when too
//     few records survive and the fallback is enabled
//  5. Execute Output modules (unless dry-run mode)
//  6. Write the summary log (unless dry-run mode or no report path)
//
// The input module is closed as soon as the dataset is loaded. Output
// modules are closed at the end of execution.
//
// Returns both result and error; the result carries the error details.
func (e *Executor) ExecuteWithContext(ctx context.Context, pipeline *adclean.Pipeline) (*adclean.ExecutionResult, error) {
	startedAt := e.now()
	result := &adclean.ExecutionResult{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
		Status:    StatusError,
	}
	var timings stageTimings

	if err := e.validateExecution(pipeline, result); err != nil {
		return result, err
	}
	result.PipelineID = pipeline.ID

	execCtx := logger.ExecutionContext{
		PipelineID: pipeline.ID,
		RunID:      result.RunID,
		DryRun:     e.dryRun,
	}
	logger.LogExecutionStart(execCtx)
	defer e.closeOutputs(execCtx)

	records, header, inputDuration, err := e.executeInput(ctx, execCtx, result)
	timings.inputDuration = inputDuration
	e.closeModule(execCtx, "input", e.inputModule)
	e.inputModule = nil
	if err != nil {
		return e.fail(execCtx, result, startedAt, err)
	}

	filtered, filterDuration, err := e.executeFiltersWithResult(ctx, execCtx, records, header, result)
	timings.filterDuration = filterDuration
	if err != nil {
		return e.fail(execCtx, result, startedAt, err)
	}

	cleaned, cleanDuration, err := e.executeCleaning(ctx, execCtx, pipeline.Cleaning, filtered, result)
	timings.cleanDuration = cleanDuration
	if err != nil {
		return e.fail(execCtx, result, startedAt, err)
	}
	logVolume(execCtx, result.FinalCount)

	outputDuration, err := e.executeOutputs(ctx, execCtx, filtered.header, cleaned.Records, result)
	timings.outputDuration = outputDuration
	if err != nil {
		return e.fail(execCtx, result, startedAt, err)
	}

	if err := e.writeReport(execCtx, pipeline.Report, result); err != nil {
		return e.fail(execCtx, result, startedAt, err)
	}

	e.finalizeSuccessWithMetrics(execCtx, result, startedAt, timings)
	return result, nil
}

// validateExecution validates the pipeline and modules before execution.
func (e *Executor) validateExecution(pipeline *adclean.Pipeline, result *adclean.ExecutionResult) error {
	if pipeline == nil {
		logger.Error("pipeline execution failed: nil pipeline configuration")
		result.CompletedAt = e.now()
		result.Error = buildExecutionError(ErrCodeInvalidInput, "", ErrNilPipeline)
		return ErrNilPipeline
	}

	if e.inputModule == nil {
		logger.Error("pipeline execution failed: input module is nil",
			slog.String("pipeline_id", pipeline.ID))
		result.CompletedAt = e.now()
		result.Error = buildExecutionError(ErrCodeInvalidInput, "input", ErrNilInputModule)
		return ErrNilInputModule
	}

	if len(e.outputModules) == 0 && !e.dryRun {
		logger.Error("pipeline execution failed: no output module",
			slog.String("pipeline_id", pipeline.ID))
		result.CompletedAt = e.now()
		result.Error = buildExecutionError(ErrCodeInvalidInput, "output", ErrNoOutputModules)
		return ErrNoOutputModules
	}

	return nil
}

// fail completes a failed run and logs its end.
func (e *Executor) fail(execCtx logger.ExecutionContext, result *adclean.ExecutionResult, startedAt time.Time, err error) (*adclean.ExecutionResult, error) {
	result.Status = StatusError
	result.CompletedAt = e.now()
	logger.LogExecutionEnd(execCtx, StatusError, result.FinalCount, result.CompletedAt.Sub(startedAt))
	return result, err
}

// moduleCloser interface for modules that can be closed.
type moduleCloser interface {
	Close() error
}

// closeModule closes a module and logs any error.
func (e *Executor) closeModule(execCtx logger.ExecutionContext, moduleName string, m moduleCloser) {
	if m == nil {
		return
	}
	if err := m.Close(); err != nil {
		logger.Warn("failed to close module",
			slog.String("pipeline_id", execCtx.PipelineID),
			slog.String("module", moduleName),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Executor) closeOutputs(execCtx logger.ExecutionContext) {
	for _, m := range e.outputModules {
		if m != nil {
			e.closeModule(execCtx, "output", m)
		}
	}
}

// executeInput loads the dataset and resolves its column order.
func (e *Executor) executeInput(ctx context.Context, execCtx logger.ExecutionContext, result *adclean.ExecutionResult) ([]map[string]interface{}, []string, time.Duration, error) {
	stageCtx := execCtx
	stageCtx.Stage = "input"
	logger.LogStageStart(stageCtx)

	inputStartTime := time.Now()
	records, err := e.inputModule.Fetch(ctx)
	inputDuration := time.Since(inputStartTime)

	if err != nil {
		result.Error = buildExecutionError(ErrCodeInputFailed, "input", err)
		logger.LogStageEnd(stageCtx, 0, inputDuration, &logger.ExecutionError{
			Code:    ErrCodeInputFailed,
			Message: err.Error(),
		})
		return nil, nil, inputDuration, fmt.Errorf("executing input module: %w", err)
	}

	var header []string
	if p, ok := e.inputModule.(input.ColumnProvider); ok {
		header = p.Columns()
	}
	header = record.Columns(header, records)

	logger.LogStageEnd(stageCtx, len(records), inputDuration, nil)
	return records, header, inputDuration, nil
}

// executeFilters runs all filter modules in sequence on the given records,
// tracking the columns they add or remove.
func (e *Executor) executeFilters(ctx context.Context, execCtx logger.ExecutionContext, records []map[string]interface{}, header []string) filterResult {
	currentRecords := records
	currentHeader := header
	for i, filterModule := range e.filterModules {
		if filterModule == nil {
			logger.Warn("nil filter module encountered; skipping",
				slog.String("pipeline_id", execCtx.PipelineID),
				slog.String("stage", "filter"),
				slog.Int("filter_index", i),
			)
			continue
		}

		filterStartTime := time.Now()
		var err error
		currentRecords, err = filterModule.Process(ctx, currentRecords)
		filterDuration := time.Since(filterStartTime)

		if err != nil {
			logger.Error("filter module execution failed",
				slog.String("pipeline_id", execCtx.PipelineID),
				slog.String("module", "filter"),
				slog.Int("filter_index", i),
				slog.Duration("duration", filterDuration),
				slog.String("error", err.Error()),
			)
			return filterResult{err: err, errIdx: i}
		}
		currentHeader = nextHeader(filterModule, currentHeader, currentRecords)

		logger.Debug("filter module completed",
			slog.String("pipeline_id", execCtx.PipelineID),
			slog.String("stage", "filter"),
			slog.Int("filter_index", i),
			slog.Int("output_records", len(currentRecords)),
			slog.Duration("duration", filterDuration),
		)
	}
	return filterResult{records: currentRecords, header: currentHeader, errIdx: -1}
}

func nextHeader(m filter.Module, header []string, records []map[string]interface{}) []string {
	if r, ok := m.(columnRemover); ok {
		removed := r.Targets()
		header = slices.DeleteFunc(slices.Clone(header), func(col string) bool {
			return slices.Contains(removed, col)
		})
	}
	if d, ok := m.(columnDeriver); ok {
		header = append(slices.Clone(header), d.Names()...)
	}
	return record.Columns(header, records)
}

// executeFiltersWithResult executes filter modules and updates result on error.
func (e *Executor) executeFiltersWithResult(ctx context.Context, execCtx logger.ExecutionContext, records []map[string]interface{}, header []string, result *adclean.ExecutionResult) (filterResult, time.Duration, error) {
	stageCtx := execCtx
	stageCtx.Stage = "filter"
	logger.LogStageStart(stageCtx)

	filterStartTime := time.Now()
	filterRes := e.executeFilters(ctx, execCtx, records, header)
	filterDuration := time.Since(filterStartTime)

	if filterRes.err != nil {
		errMsg := fmt.Sprintf("filter module %d failed: %v", filterRes.errIdx, filterRes.err)
		result.Error = buildExecutionError(ErrCodeFilterFailed, "filter", filterRes.err)
		result.Error.Message = errMsg
		result.Error.Details = map[string]interface{}{"filterIndex": filterRes.errIdx}
		logger.LogStageEnd(stageCtx, len(records), filterDuration, &logger.ExecutionError{
			Code:    ErrCodeFilterFailed,
			Message: errMsg,
		})
		return filterRes, filterDuration, fmt.Errorf("executing filter module %d: %w", filterRes.errIdx, filterRes.err)
	}

	logger.LogStageEnd(stageCtx, len(filterRes.records), filterDuration, nil)
	return filterRes, filterDuration, nil
}

// executeCleaning runs the cleaning steps and the fallback rerun.
func (e *Executor) executeCleaning(ctx context.Context, execCtx logger.ExecutionContext, cfg adclean.Cleaning, in filterResult, result *adclean.ExecutionResult) (*cleaning.Result, time.Duration, error) {
	stageCtx := execCtx
	stageCtx.Stage = "clean"
	logger.LogStageStart(stageCtx)

	cleanStartTime := time.Now()
	metrics := presentColumns(in.header, stats.MetricColumns(cfg.Columns))
	result.Before = stats.DescribeAll(in.records, metrics)

	res, err := clean(ctx, execCtx, cfg.Columns, cfg.Thresholds, in.header, in.records)
	if err == nil && needsFallback(cfg.Fallback, res.Final) {
		logger.Warn("too few records survived cleaning; rerunning with relaxed thresholds",
			slog.String("pipeline_id", execCtx.PipelineID),
			slog.Int("final_count", res.Final),
			slog.Int("min_records", cfg.Fallback.MinRecords),
		)
		fallbackCtx := execCtx
		fallbackCtx.Fallback = true
		res, err = clean(ctx, fallbackCtx, cfg.Columns, cfg.Fallback.Thresholds, in.header, in.records)
		if err == nil {
			result.FallbackUsed = true
			result.FallbackThresholds = &res.Thresholds
			e.retargetOutputs(execCtx, cfg.Fallback.OutputPath)
		}
	}
	cleanDuration := time.Since(cleanStartTime)

	if err != nil {
		result.Error = buildExecutionError(ErrCodeCleanFailed, "clean", err)
		logger.LogStageEnd(stageCtx, len(in.records), cleanDuration, &logger.ExecutionError{
			Code:    ErrCodeCleanFailed,
			Message: err.Error(),
		})
		return nil, cleanDuration, fmt.Errorf("executing cleaning steps: %w", err)
	}

	result.InitialCount = res.Initial
	result.FinalCount = res.Final
	result.Steps = res.Steps
	result.Skipped = res.Skipped
	result.Thresholds = cfg.Thresholds
	result.After = stats.DescribeAll(res.Records, metrics)

	logger.LogStageEnd(stageCtx, res.Final, cleanDuration, nil)
	return res, cleanDuration, nil
}

func clean(ctx context.Context, execCtx logger.ExecutionContext, cols adclean.Columns, th adclean.Thresholds, header []string, records []map[string]interface{}) (*cleaning.Result, error) {
	c, err := cleaning.New(cols, th)
	if err != nil {
		return nil, err
	}
	return c.WithLogContext(execCtx).Run(ctx, header, records)
}

func needsFallback(fb *adclean.Fallback, final int) bool {
	return fb != nil && fb.Enabled && final < fb.MinRecords
}

func presentColumns(header, columns []string) []string {
	present := make([]string, 0, len(columns))
	for _, col := range columns {
		if slices.Contains(header, col) && !slices.Contains(present, col) {
			present = append(present, col)
		}
	}
	return present
}

// retargetOutputs points file outputs at the relaxed result paths. The first
// file output takes fallbackPath when set; every other path gets RelaxedSuffix
// in its own directory.
func (e *Executor) retargetOutputs(execCtx logger.ExecutionContext, fallbackPath string) {
	first := true
	for _, m := range e.outputModules {
		t, ok := m.(output.FileTarget)
		if !ok {
			continue
		}
		path := pathutil.WithSuffix(t.Path(), RelaxedSuffix)
		if first && fallbackPath != "" {
			path = fallbackPath
		}
		first = false

		logger.Info("output retargeted to relaxed result",
			slog.String("pipeline_id", execCtx.PipelineID),
			slog.String("previous_path", t.Path()),
			slog.String("path", path),
		)
		t.SetPath(path)
	}
}

// outputPath returns the path of the first file output.
func (e *Executor) outputPath() string {
	for _, m := range e.outputModules {
		if t, ok := m.(output.FileTarget); ok {
			return t.Path()
		}
	}
	return ""
}

func logVolume(execCtx logger.ExecutionContext, final int) {
	attrs := []any{
		slog.String("pipeline_id", execCtx.PipelineID),
		slog.Int("final_count", final),
	}
	switch {
	case final < LowVolumeWarning:
		logger.Warn("cleaned dataset is very small; consider relaxing the thresholds", attrs...)
	case final < LowVolumeNotice:
		logger.Info("cleaned dataset is small; analysis may be limited", attrs...)
	default:
		logger.Info("cleaned dataset volume is sufficient", attrs...)
	}
}

// executeOutputs sends the surviving records to every output module.
// In dry-run mode, returns without sending.
func (e *Executor) executeOutputs(ctx context.Context, execCtx logger.ExecutionContext, header []string, records []map[string]interface{}, result *adclean.ExecutionResult) (time.Duration, error) {
	result.OutputPath = e.outputPath()
	if e.dryRun {
		logger.Debug("dry-run mode: skipping output modules",
			slog.String("pipeline_id", execCtx.PipelineID),
			slog.Int("records_would_send", len(records)),
			slog.Int("output_count", len(e.outputModules)),
		)
		return 0, nil
	}

	stageCtx := execCtx
	stageCtx.Stage = "output"
	logger.LogStageStart(stageCtx)

	outputStartTime := time.Now()
	written := len(records)
	for i, m := range e.outputModules {
		if m == nil {
			logger.Warn("nil output module encountered; skipping",
				slog.String("pipeline_id", execCtx.PipelineID),
				slog.Int("output_index", i),
			)
			continue
		}
		if ca, ok := m.(output.ColumnAware); ok {
			ca.SetColumns(header)
		}

		sent, err := m.Send(ctx, records)
		written = min(written, sent)
		if err != nil {
			outputDuration := time.Since(outputStartTime)
			result.RecordsWritten = written
			result.Error = buildExecutionError(ErrCodeOutputFailed, "output", err)
			result.Error.Details = map[string]interface{}{
				"outputIndex":   i,
				"recordsSent":   sent,
				"recordsFailed": len(records) - sent,
			}
			logger.LogStageEnd(stageCtx, sent, outputDuration, &logger.ExecutionError{
				Code:    ErrCodeOutputFailed,
				Message: err.Error(),
			})
			return outputDuration, fmt.Errorf("executing output module %d: %w", i, err)
		}
	}
	outputDuration := time.Since(outputStartTime)

	result.RecordsWritten = written
	logger.LogStageEnd(stageCtx, written, outputDuration, nil)
	return outputDuration, nil
}

// writeReport renders the summary log into the configured file.
func (e *Executor) writeReport(execCtx logger.ExecutionContext, cfg adclean.ReportConfig, result *adclean.ExecutionResult) error {
	if e.dryRun || cfg.Path == "" {
		logger.Debug("summary log skipped",
			slog.String("pipeline_id", execCtx.PipelineID),
			slog.Bool("dry_run", e.dryRun),
		)
		return nil
	}

	locale, err := report.ParseLocale(cfg.Locale)
	if err == nil {
		err = report.Write(cfg.Path, report.NewSummary(result, e.now()), locale)
	}
	if err != nil {
		result.Error = buildExecutionError(ErrCodeReportFailed, "report", err)
		logger.LogError("failed to write summary log", logger.ErrorContext{
			PipelineID: execCtx.PipelineID,
			RunID:      execCtx.RunID,
			Stage:      "report",
			ErrorCode:  ErrCodeReportFailed,
			Err:        err,
			Path:       cfg.Path,
		})
		return fmt.Errorf("writing summary log: %w", err)
	}

	logger.Info("summary log written",
		slog.String("pipeline_id", execCtx.PipelineID),
		slog.String("path", cfg.Path),
		slog.String("locale", string(locale)),
	)
	return nil
}

// finalizeSuccessWithMetrics marks the execution as successful and logs completion with metrics.
func (e *Executor) finalizeSuccessWithMetrics(execCtx logger.ExecutionContext, result *adclean.ExecutionResult, startedAt time.Time, timings stageTimings) {
	result.Status = StatusSuccess
	result.CompletedAt = e.now()
	result.Error = nil

	totalDuration := result.CompletedAt.Sub(startedAt)
	execCtx.Fallback = result.FallbackUsed

	logger.LogMetrics(execCtx, logger.ExecutionMetrics{
		TotalDuration:  totalDuration,
		InputDuration:  timings.inputDuration,
		FilterDuration: timings.filterDuration,
		CleanDuration:  timings.cleanDuration,
		OutputDuration: timings.outputDuration,
		InitialCount:   result.InitialCount,
		FinalCount:     result.FinalCount,
		RemovalRate:    result.RemovalRate(),
	})
	logger.LogExecutionEnd(execCtx, StatusSuccess, result.FinalCount, totalDuration)
}
