package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Molly503/paid-media/internal/report"
	"github.com/Molly503/paid-media/internal/stats"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
	DryRun  bool
}

// PrintExecutionResult displays the cleaning run result.
func PrintExecutionResult(result *adclean.ExecutionResult, err error, opts OutputOptions) {
	if result == nil {
		fmt.Fprintln(stderr, "✗ No execution result available")
		return
	}

	if err != nil {
		fmt.Fprintln(stderr, "✗ Pipeline execution failed")
		if result.Error != nil {
			if result.Error.Module != "" {
				fmt.Fprintf(stderr, "  Module: %s\n", result.Error.Module)
			}
			fmt.Fprintf(stderr, "  Code: %s\n", result.Error.Code)
			if result.Error.ErrorCategory != "" {
				fmt.Fprintf(stderr, "  Category: %s\n", result.Error.ErrorCategory)
			}
			fmt.Fprintf(stderr, "  Error: %s\n", result.Error.Message)
		} else {
			fmt.Fprintf(stderr, "  Error: %v\n", err)
		}
		return
	}

	if opts.Quiet {
		return
	}

	fmt.Fprintln(stdout, "✓ Cleaning completed")
	fmt.Fprintf(stdout, "  Initial records: %s\n", humanize.Comma(int64(result.InitialCount)))
	fmt.Fprintf(stdout, "  Final records: %s\n", humanize.Comma(int64(result.FinalCount)))
	fmt.Fprintf(stdout, "  Removed: %s (%.1f%%)\n", humanize.Comma(int64(result.TotalRemoved())), result.RemovalRate())
	if result.FallbackUsed {
		fmt.Fprintln(stdout, "  Relaxed thresholds were used (too few records survived)")
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(stdout, "  Skipped steps: %s\n", strings.Join(result.Skipped, ", "))
	}
	if opts.DryRun {
		fmt.Fprintln(stdout, "  Dry-run: no output or summary log was written")
	} else if result.OutputPath != "" {
		fmt.Fprintf(stdout, "  Output: %s\n", result.OutputPath)
	}
	if opts.Verbose {
		fmt.Fprintf(stdout, "  Run ID: %s\n", result.RunID)
		fmt.Fprintf(stdout, "  Duration: %v\n", result.CompletedAt.Sub(result.StartedAt))
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, report.StepsTable(result))
	if opts.Verbose && len(result.Before) > 0 {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, report.MetricsTable(result.Before, result.After))
	}
}

// PrintProfile displays column statistics and outlier counts.
func PrintProfile(summaries []adclean.MetricSummary, profiles []stats.OutlierProfile, recordCount int) {
	fmt.Fprintf(stdout, "Records: %s\n\n", humanize.Comma(int64(recordCount)))
	fmt.Fprintln(stdout, report.SummaryTable(summaries))
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, report.ProfileTable(profiles))
}

// PrintPipelineSummary prints the modules wired by a configuration.
func PrintPipelineSummary(p *adclean.Pipeline) {
	if p == nil {
		return
	}
	fmt.Fprintf(stdout, "  Pipeline: %s (v%s)\n", p.Name, p.Version)
	if p.Description != "" {
		fmt.Fprintf(stdout, "  Description: %s\n", p.Description)
	}
	if p.Input != nil {
		fmt.Fprintf(stdout, "  Input: %s\n", p.Input.Type)
	}
	if len(p.Filters) > 0 {
		fmt.Fprintf(stdout, "  Filters: %s\n", strings.Join(moduleTypes(p.Filters), ", "))
	}
	fmt.Fprintf(stdout, "  Outputs: %s\n", strings.Join(moduleTypes(p.Outputs), ", "))
	if fb := p.Cleaning.Fallback; fb != nil && fb.Enabled {
		fmt.Fprintf(stdout, "  Fallback: below %d records\n", fb.MinRecords)
	}
}

func moduleTypes(cfgs []adclean.ModuleConfig) []string {
	types := make([]string, len(cfgs))
	for i, c := range cfgs {
		types[i] = c.Type
	}
	return types
}
