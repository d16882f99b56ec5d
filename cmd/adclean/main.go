// Package main provides the CLI entry point for the paid-media cleaning runtime.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Molly503/paid-media/internal/cli"
	"github.com/Molly503/paid-media/internal/config"
	"github.com/Molly503/paid-media/internal/factory"
	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/modules/input"
	"github.com/Molly503/paid-media/internal/report"
	"github.com/Molly503/paid-media/internal/runtime"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// Build information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// exitError carries an exit code once the command has printed its own error.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitWith(err error) error {
	return &exitError{code: cli.ExitCode(err)}
}

// options holds the flag values of one invocation.
type options struct {
	verbose   bool
	quiet     bool
	logFormat string
	logFile   string

	dryRun    bool
	overrides config.Overrides
}

func (o *options) output() cli.OutputOptions {
	return cli.OutputOptions{Verbose: o.verbose, Quiet: o.quiet, DryRun: o.dryRun}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cli.SetOutput(stdout, stderr)
	defer logger.CloseLogFile()

	root := newRootCmd(&options{})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return cli.ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return cli.ExitRuntimeError
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "adclean",
		Short: "adclean - Facebook ads outlier cleaning",
		Long: `adclean removes outliers from Facebook ads performance data.

It loads the dataset (csv or sqlite), applies optional preprocessing
filters, then runs five threshold steps in order: ROAS, CPA, CPC, CPM
ranges and the minimum spend/conversions check. Surviving records are
written to the configured outputs and a summary log is produced.

Without a configuration file the built-in defaults are used: input
facebook_ads_clean.csv, output facebook_ads_final_clean.csv, summary log
outlier_cleaning_log.txt.

Examples:
  # Clean with the built-in defaults
  adclean run

  # Run a pipeline configuration
  adclean run pipeline.yaml

  # Inspect how many values each step would remove
  adclean profile --input ads.csv

  # Validate a configuration file
  adclean validate pipeline.yaml`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd.ErrOrStderr(), opts)
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "Console log format (json, human)")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")

	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newProfileCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

func setupLogging(stderr io.Writer, opts *options) error {
	format, err := logger.ParseFormat(opts.logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return &exitError{code: cli.ExitValidationError}
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	} else if opts.quiet {
		level = slog.LevelError
	}

	if opts.logFile == "" {
		logger.SetLevelAndFormat(level, format)
		return nil
	}
	if err := logger.SetLogFile(opts.logFile, level, format); err != nil {
		cli.PrintRunError("open log file", err)
		return &exitError{code: cli.ExitRuntimeError}
	}
	return nil
}

func addOverrideFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.overrides.InputPath, "input", "", "Override the csv/sqlite input path")
	cmd.Flags().StringVar(&opts.overrides.OutputPath, "output", "", "Override the csv output path")
	cmd.Flags().StringVar(&opts.overrides.ReportPath, "report", "", "Override the summary log path")
	cmd.Flags().StringVar(&opts.overrides.Locale, "locale", "", "Summary log language (zh, en)")
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a pipeline configuration file",
		Long: `Validate a pipeline configuration file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content. Environment
overrides (ADCLEAN_*) are applied before the threshold checks.

Exit codes:
  0 - Configuration is valid
  1 - Validation errors (schema violations, min greater than max)
  2 - Parse errors (invalid JSON/YAML syntax)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath(args)
			pipeline, err := loadPipeline(path, opts)
			if err != nil {
				return err
			}
			if !opts.quiet {
				if path == "" {
					fmt.Fprintln(out, "✓ Built-in defaults are valid")
				} else {
					fmt.Fprintf(out, "✓ Configuration is valid: %s\n", path)
				}
				if opts.verbose {
					cli.PrintPipelineSummary(pipeline)
				}
			}
			return nil
		},
	}
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [config-file]",
		Short: "Run the cleaning pipeline",
		Long: `Run the cleaning pipeline defined in the configuration file, or the
built-in defaults when no file is given.

When fewer records than the fallback minimum survive, the steps are rerun
with relaxed thresholds and the result is written to the relaxed output.

Flags:
  --dry-run   Run every step without writing outputs or the summary log

Exit codes:
  0 - Pipeline executed successfully
  1 - Validation errors
  2 - Parse errors
  3 - Runtime errors`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := loadPipeline(configPath(args), opts)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cmd.OutOrStdout(), pipeline, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run without writing outputs or the summary log")
	addOverrideFlags(cmd, opts)
	return cmd
}

func newProfileCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [config-file]",
		Short: "Show column statistics and outlier counts",
		Long: `Load the dataset, apply the preprocessing filters, and report how many
values each range step would remove. Nothing is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, err := loadPipeline(configPath(args), opts)
			if err != nil {
				return err
			}
			return runProfile(cmd.Context(), pipeline)
		},
	}
	addOverrideFlags(cmd, opts)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}

func configPath(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// loadPipeline loads the configuration, then applies flag overrides on top of
// the environment ones.
func loadPipeline(path string, opts *options) (*adclean.Pipeline, error) {
	pipeline, err := config.LoadPipeline(path)
	if err != nil {
		cli.PrintLoadError(err, opts.verbose, opts.quiet)
		return nil, exitWith(err)
	}

	config.ApplyOverrides(pipeline, opts.overrides)
	if _, err := report.ParseLocale(pipeline.Report.Locale); err != nil {
		cli.PrintRunError("read locale", err)
		return nil, &exitError{code: cli.ExitValidationError}
	}
	if errs := config.ValidatePipeline(pipeline); len(errs) > 0 {
		cli.PrintValidationErrors(errs, opts.verbose, opts.quiet)
		return nil, &exitError{code: cli.ExitValidationError}
	}
	return pipeline, nil
}

func runPipeline(ctx context.Context, out io.Writer, pipeline *adclean.Pipeline, opts *options) error {
	inputModule, err := factory.CreateInputModule(pipeline.Input)
	if err != nil {
		cli.PrintRunError("create input module", err)
		return exitWith(err)
	}
	filterModules, err := factory.CreateFilterModules(pipeline.Filters)
	if err != nil {
		closeInput(inputModule)
		cli.PrintRunError("create filter modules", err)
		return exitWith(err)
	}
	outputModules, err := factory.CreateOutputModules(pipeline.Outputs)
	if err != nil {
		closeInput(inputModule)
		cli.PrintRunError("create output modules", err)
		return exitWith(err)
	}

	if !opts.quiet {
		if opts.dryRun {
			fmt.Fprintln(out, "Executing pipeline (dry-run mode - nothing will be written)...")
		} else {
			fmt.Fprintln(out, "Executing pipeline...")
		}
	}

	executor := runtime.NewExecutorWithModules(inputModule, filterModules, outputModules, opts.dryRun)
	result, err := executor.ExecuteWithContext(ctx, pipeline)
	cli.PrintExecutionResult(result, err, opts.output())
	if err != nil {
		return &exitError{code: cli.ExitRuntimeError}
	}
	return nil
}

func runProfile(ctx context.Context, pipeline *adclean.Pipeline) error {
	inputModule, err := factory.CreateInputModule(pipeline.Input)
	if err != nil {
		cli.PrintRunError("create input module", err)
		return exitWith(err)
	}
	filterModules, err := factory.CreateFilterModules(pipeline.Filters)
	if err != nil {
		closeInput(inputModule)
		cli.PrintRunError("create filter modules", err)
		return exitWith(err)
	}

	profile, err := runtime.NewExecutorWithModules(inputModule, filterModules, nil, true).Profile(ctx, pipeline)
	if err != nil {
		cli.PrintRunError("profile dataset", err)
		return &exitError{code: cli.ExitRuntimeError}
	}
	cli.PrintProfile(profile.Summaries, profile.Profiles, profile.Records)
	return nil
}

// closeInput releases an input module that never reached the executor.
func closeInput(m input.Module) {
	if m == nil {
		return
	}
	if err := m.Close(); err != nil {
		logger.Warn("failed to close input module", slog.String("error", err.Error()))
	}
}
