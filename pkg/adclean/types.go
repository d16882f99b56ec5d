// Package adclean provides public types for paid-media cleaning pipelines.
// This package is intended to be importable by external projects that need
// to build or inspect cleaning runs without depending on runtime internals.
package adclean

import (
	"strconv"
	"time"
)

// Pipeline represents a complete cleaning pipeline configuration.
// It wires an Input module, optional preprocessing Filters, the threshold
// cleaning stage, and one or more Output modules.
type Pipeline struct {
	// ID is the unique identifier for this pipeline
	ID string `json:"id"`

	// Name is the human-readable name of the pipeline
	Name string `json:"name"`

	// Description provides additional context about the pipeline
	Description string `json:"description,omitempty"`

	// Version is the pipeline configuration version
	Version string `json:"version"`

	// Input defines the data source module
	Input *ModuleConfig `json:"input"`

	// Filters is an ordered list of preprocessing modules applied before cleaning
	Filters []ModuleConfig `json:"filters,omitempty"`

	// Cleaning configures the threshold cleaning stage
	Cleaning Cleaning `json:"cleaning"`

	// Outputs are the destinations for the surviving records
	Outputs []ModuleConfig `json:"outputs"`

	// Report configures the summary log file
	Report ReportConfig `json:"report"`

	// CreatedAt is when the pipeline was loaded
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ModuleConfig represents the configuration for a pipeline module.
type ModuleConfig struct {
	// Type identifies the module type (e.g., "csv", "condition", "sqlite")
	Type string `json:"type"`

	// Config contains the module-specific configuration
	Config map[string]interface{} `json:"config"`
}

// Cleaning configures the threshold cleaning stage.
type Cleaning struct {
	// Columns maps each metric to its dataset column
	Columns Columns `json:"columns"`

	// Thresholds are the bounds applied by the cleaning steps
	Thresholds Thresholds `json:"thresholds"`

	// Fallback configures the relaxed rerun when too few records survive
	Fallback *Fallback `json:"fallback,omitempty"`
}

// Columns maps the cleaned metrics to dataset column names.
type Columns struct {
	ROAS        string `json:"roas" env:"COLUMN_ROAS"`
	CPA         string `json:"cpa" env:"COLUMN_CPA"`
	CPC         string `json:"cpc" env:"COLUMN_CPC"`
	CPM         string `json:"cpm" env:"COLUMN_CPM"`
	Spend       string `json:"spend" env:"COLUMN_SPEND"`
	Conversions string `json:"conversions" env:"COLUMN_CONVERSIONS"`
}

// DefaultColumns returns the column names produced by the preprocessing step.
func DefaultColumns() Columns {
	return Columns{
		ROAS:        "ROAS_Approved",
		CPA:         "CPA_Approved",
		CPC:         "CPC",
		CPM:         "CPM",
		Spend:       "Spent",
		Conversions: "Approved_Conversion",
	}
}

// Thresholds holds the inclusive bounds used by the cleaning steps.
type Thresholds struct {
	ROASMax        float64 `json:"ROAS_MAX" env:"ROAS_MAX"`
	ROASMin        float64 `json:"ROAS_MIN" env:"ROAS_MIN"`
	CPAMax         float64 `json:"CPA_MAX" env:"CPA_MAX"`
	CPAMin         float64 `json:"CPA_MIN" env:"CPA_MIN"`
	CPCMax         float64 `json:"CPC_MAX" env:"CPC_MAX"`
	CPCMin         float64 `json:"CPC_MIN" env:"CPC_MIN"`
	CPMMax         float64 `json:"CPM_MAX" env:"CPM_MAX"`
	CPMMin         float64 `json:"CPM_MIN" env:"CPM_MIN"`
	MinSpend       float64 `json:"MIN_SPEND" env:"MIN_SPEND"`
	MinConversions float64 `json:"MIN_CONVERSIONS" env:"MIN_CONVERSIONS"`
}

// DefaultThresholds returns the standard cleaning bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ROASMax:        100,
		ROASMin:        0.01,
		CPAMax:         1000,
		CPAMin:         0.1,
		CPCMax:         50,
		CPCMin:         0.01,
		CPMMax:         200,
		CPMMin:         0.01,
		MinSpend:       0.01,
		MinConversions: 0,
	}
}

// BackupThresholds returns the relaxed bounds used by the fallback rerun.
func BackupThresholds() Thresholds {
	return Thresholds{
		ROASMax:        500,
		ROASMin:        0.001,
		CPAMax:         5000,
		CPAMin:         0.01,
		CPCMax:         100,
		CPCMin:         0.001,
		CPMMax:         1000,
		CPMMin:         0.001,
		MinSpend:       0.001,
		MinConversions: 0,
	}
}

// Threshold is a single named bound, used where order matters (reports, tables).
type Threshold struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// String formats the value in its shortest form ("100", "0.01").
func (t Threshold) String() string {
	return strconv.FormatFloat(t.Value, 'f', -1, 64)
}

// Ordered returns the thresholds in their canonical order.
func (t Thresholds) Ordered() []Threshold {
	return []Threshold{
		{Key: "ROAS_MAX", Value: t.ROASMax},
		{Key: "ROAS_MIN", Value: t.ROASMin},
		{Key: "CPA_MAX", Value: t.CPAMax},
		{Key: "CPA_MIN", Value: t.CPAMin},
		{Key: "CPC_MAX", Value: t.CPCMax},
		{Key: "CPC_MIN", Value: t.CPCMin},
		{Key: "CPM_MAX", Value: t.CPMMax},
		{Key: "CPM_MIN", Value: t.CPMMin},
		{Key: "MIN_SPEND", Value: t.MinSpend},
		{Key: "MIN_CONVERSIONS", Value: t.MinConversions},
	}
}

// Fallback configures the relaxed rerun.
type Fallback struct {
	// Enabled turns the fallback rerun on
	Enabled bool `json:"enabled"`

	// MinRecords is the surviving-record count below which the rerun happens
	MinRecords int `json:"minRecords"`

	// Thresholds are the relaxed bounds
	Thresholds Thresholds `json:"thresholds"`

	// OutputPath replaces the csv output path when the fallback result is used.
	// Empty keeps the output path with a _relaxed suffix.
	OutputPath string `json:"outputPath"`
}

// Default fallback values.
const (
	DefaultFallbackMinRecords = 50
	DefaultOutputPath         = "facebook_ads_final_clean.csv"
	DefaultInputPath          = "facebook_ads_clean.csv"
	DefaultReportPath         = "outlier_cleaning_log.txt"
)

// DefaultFallback returns the fallback configuration used when none is given.
func DefaultFallback() *Fallback {
	return &Fallback{
		Enabled:    true,
		MinRecords: DefaultFallbackMinRecords,
		Thresholds: BackupThresholds(),
	}
}

// ReportConfig configures the summary log.
type ReportConfig struct {
	// Path is the file the summary log is written to; empty disables it
	Path string `json:"path"`

	// Locale selects the label set ("zh" or "en")
	Locale string `json:"locale"`
}

// StepResult records the outcome of one cleaning step.
type StepResult struct {
	// Name identifies the step ("ROAS", "CPA", "CPC", "CPM", "minimum")
	Name string `json:"name"`

	// Column is the column checked by the step (first column for minimum)
	Column string `json:"column,omitempty"`

	// Before is the record count entering the step
	Before int `json:"before"`

	// After is the record count leaving the step
	After int `json:"after"`

	// Removed is Before minus After
	Removed int `json:"removed"`
}

// MetricSummary holds descriptive statistics for one column.
type MetricSummary struct {
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
}

// ExecutionResult represents the result of a cleaning run.
type ExecutionResult struct {
	// RunID identifies this execution
	RunID string `json:"runId"`

	// PipelineID is the ID of the executed pipeline
	PipelineID string `json:"pipelineId"`

	// Status is the execution status ("success", "error")
	Status string `json:"status"`

	// StartedAt is when execution started
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when execution completed
	CompletedAt time.Time `json:"completedAt"`

	// InitialCount is the number of records entering the cleaning stage
	InitialCount int `json:"initialCount"`

	// FinalCount is the number of records surviving the cleaning stage
	FinalCount int `json:"finalCount"`

	// Steps lists per-step removal counts in execution order
	Steps []StepResult `json:"steps"`

	// Skipped names the range steps whose column was absent from the dataset
	Skipped []string `json:"skipped,omitempty"`

	// Thresholds are the configured cleaning bounds
	Thresholds Thresholds `json:"thresholds"`

	// FallbackThresholds are the relaxed bounds that produced FinalCount,
	// set only when the fallback rerun was used
	FallbackThresholds *Thresholds `json:"fallbackThresholds,omitempty"`

	// FallbackUsed is true when the relaxed rerun produced the result
	FallbackUsed bool `json:"fallbackUsed"`

	// OutputPath is the csv file the surviving records were written to
	OutputPath string `json:"outputPath,omitempty"`

	// RecordsWritten is the number of records accepted by the outputs
	RecordsWritten int `json:"recordsWritten"`

	// Before and After hold metric statistics around the cleaning stage
	Before []MetricSummary `json:"before,omitempty"`
	After  []MetricSummary `json:"after,omitempty"`

	// Error contains error details if execution failed
	Error *ExecutionError `json:"error,omitempty"`
}

// TotalRemoved returns the number of records removed by the cleaning stage.
func (r *ExecutionResult) TotalRemoved() int {
	return r.InitialCount - r.FinalCount
}

// RemovalRate returns the removed share as a percentage (0 when nothing was read).
func (r *ExecutionResult) RemovalRate() float64 {
	if r.InitialCount == 0 {
		return 0
	}
	return float64(r.TotalRemoved()) / float64(r.InitialCount) * 100
}

// ExecutionError contains details about an execution failure.
type ExecutionError struct {
	// Code is the error code
	Code string `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Module is the module where the error occurred
	Module string `json:"module,omitempty"`

	// ErrorCategory is the classified category (io, parse, data, ...)
	ErrorCategory string `json:"errorCategory,omitempty"`

	// Details contains additional error context
	Details map[string]interface{} `json:"details,omitempty"`
}
