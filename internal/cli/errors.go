// Package cli provides CLI output formatting and display functions.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Molly503/paid-media/internal/config"
	"github.com/Molly503/paid-media/internal/errhandling"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects command output and error output.
func SetOutput(out, errOut io.Writer) {
	stdout = out
	stderr = errOut
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, config.ErrParse):
		return ExitParseError
	case errors.Is(err, config.ErrValidation),
		errhandling.GetErrorCategory(err) == errhandling.CategorySchema:
		return ExitValidationError
	default:
		return ExitRuntimeError
	}
}

// PrintLoadError prints a configuration load failure with its details.
func PrintLoadError(err error, verbose, quiet bool) {
	var loadErr *config.LoadError
	if !errors.As(err, &loadErr) {
		fmt.Fprintf(stderr, "✗ %v\n", err)
		return
	}
	if len(loadErr.Result.ParseErrors) > 0 {
		PrintParseErrors(loadErr.Result.ParseErrors, verbose)
	}
	if len(loadErr.Result.ValidationErrors) > 0 {
		PrintValidationErrors(loadErr.Result.ValidationErrors, verbose, quiet)
	}
}

// PrintParseErrors prints parse errors to stderr.
func PrintParseErrors(errs []config.ParseError, verbose bool) {
	fmt.Fprintln(stderr, "✗ Parse errors:")
	for _, err := range errs {
		printSingleParseError(err, verbose)
	}
}

// printSingleParseError prints a single parse error with location information.
func printSingleParseError(err config.ParseError, verbose bool) {
	location := formatErrorLocation(err.Path, err.Line, err.Column)

	if location != "" {
		fmt.Fprintf(stderr, "  %s: %s\n", location, err.Message)
	} else {
		fmt.Fprintf(stderr, "  %s\n", err.Message)
	}

	if verbose && err.Type != "" {
		fmt.Fprintf(stderr, "    Type: %s\n", err.Type)
	}
}

// formatErrorLocation formats the error location string (path:line:column).
func formatErrorLocation(path string, line, column int) string {
	if path == "" {
		return ""
	}

	location := path
	if line > 0 {
		location += fmt.Sprintf(":%d", line)
		if column > 0 {
			location += fmt.Sprintf(":%d", column)
		}
	}
	return location
}

// PrintValidationErrors prints validation errors to stderr.
func PrintValidationErrors(errs []config.ValidationError, verbose, quiet bool) {
	fmt.Fprintln(stderr, "✗ Validation errors:")
	for _, err := range errs {
		printSingleValidationError(err, verbose)
	}
	printValidationHint(verbose, quiet)
}

func printSingleValidationError(err config.ValidationError, verbose bool) {
	path := err.Path
	if path == "" {
		path = "/"
	}

	if verbose {
		fmt.Fprintf(stderr, "  %s:\n", path)
		fmt.Fprintf(stderr, "    Message: %s\n", err.Message)
		if err.Type != "" {
			fmt.Fprintf(stderr, "    Type: %s\n", err.Type)
		}
		if err.Expected != "" {
			fmt.Fprintf(stderr, "    Expected: %s\n", err.Expected)
		}
		return
	}

	msg := err.Message
	if len(msg) > 80 {
		msg = msg[:77] + "..."
	}
	fmt.Fprintf(stderr, "  %s: %s\n", path, msg)
}

func printValidationHint(verbose, quiet bool) {
	if !verbose && !quiet {
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Hint: Use --verbose for detailed error information")
	}
}

// PrintRunError prints a failure that happened before the pipeline ran.
func PrintRunError(stage string, err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "✗ Interrupted")
		return
	}
	fmt.Fprintf(stderr, "✗ Failed to %s: %v\n", stage, err)
}
