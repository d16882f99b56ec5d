// Package errhandling provides error types, classification, and retry utilities.
// This file contains the onError strategy and the retry executor used by sinks
// that can hit transient failures (a locked SQLite database).
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Default retry configuration values.
const (
	DefaultMaxAttempts       = 3
	DefaultDelayMs           = 100
	DefaultBackoffMultiplier = 2.0
	DefaultMaxDelayMs        = 5000
	MaxRetryAttempts         = 10
	MinBackoffMultiplier     = 1.0
)

// OnErrorStrategy defines what action to take when a record-level error occurs.
type OnErrorStrategy string

const (
	// OnErrorFail stops execution and returns the error (default).
	OnErrorFail OnErrorStrategy = "fail"

	// OnErrorSkip drops the offending record with a warning and continues.
	OnErrorSkip OnErrorStrategy = "skip"

	// OnErrorLog drops the offending record with an error log and continues.
	OnErrorLog OnErrorStrategy = "log"
)

// ParseOnErrorStrategy parses an error strategy string.
// Returns OnErrorFail for invalid or empty input.
func ParseOnErrorStrategy(s string) OnErrorStrategy {
	switch OnErrorStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case OnErrorSkip:
		return OnErrorSkip
	case OnErrorLog:
		return OnErrorLog
	default:
		return OnErrorFail
	}
}

// ValidOnErrorStrategy reports whether s names a known strategy.
func ValidOnErrorStrategy(s string) bool {
	switch OnErrorStrategy(s) {
	case OnErrorFail, OnErrorSkip, OnErrorLog:
		return true
	}
	return false
}

// RetryConfig holds retry configuration for transient failures.
type RetryConfig struct {
	// MaxAttempts is the number of retries after the first attempt (0 = no retry).
	MaxAttempts int

	// DelayMs is the initial delay between retries in milliseconds.
	DelayMs int

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64

	// MaxDelayMs caps the delay between retries.
	MaxDelayMs int
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       DefaultMaxAttempts,
		DelayMs:           DefaultDelayMs,
		BackoffMultiplier: DefaultBackoffMultiplier,
		MaxDelayMs:        DefaultMaxDelayMs,
	}
}

// Validate validates the retry configuration.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 0 {
		return errors.New("maxAttempts must be >= 0")
	}
	if c.MaxAttempts > MaxRetryAttempts {
		return fmt.Errorf("maxAttempts must be <= %d", MaxRetryAttempts)
	}
	if c.DelayMs < 0 {
		return errors.New("delayMs must be >= 0")
	}
	if c.BackoffMultiplier < MinBackoffMultiplier {
		return fmt.Errorf("backoffMultiplier must be >= %v", MinBackoffMultiplier)
	}
	if c.MaxDelayMs < 0 {
		return errors.New("maxDelayMs must be >= 0")
	}
	return nil
}

// CalculateDelay returns min(delayMs * backoffMultiplier^attempt, maxDelayMs).
func (c RetryConfig) CalculateDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delayMs := float64(c.DelayMs) * math.Pow(c.BackoffMultiplier, float64(attempt))
	if delayMs > float64(c.MaxDelayMs) {
		delayMs = float64(c.MaxDelayMs)
	}
	return time.Duration(delayMs) * time.Millisecond
}

// ParseRetryConfig reads a retry block from module configuration,
// falling back to defaults for missing keys.
func ParseRetryConfig(m map[string]interface{}) RetryConfig {
	cfg := DefaultRetryConfig()
	if m == nil {
		return cfg
	}
	if v, ok := m["maxAttempts"].(float64); ok {
		cfg.MaxAttempts = int(v)
	}
	if v, ok := m["delayMs"].(float64); ok {
		cfg.DelayMs = int(v)
	}
	if v, ok := m["backoffMultiplier"].(float64); ok {
		cfg.BackoffMultiplier = v
	}
	if v, ok := m["maxDelayMs"].(float64); ok {
		cfg.MaxDelayMs = int(v)
	}
	return cfg
}

// RetryFunc is a function that can be retried.
type RetryFunc func(ctx context.Context) error

// RetryInfo contains information about retry attempts.
type RetryInfo struct {
	TotalAttempts int
	RetryCount    int
	TotalDuration time.Duration
	Delays        []time.Duration
	Errors        []error
}

// RetryExecutor executes functions with retry logic.
type RetryExecutor struct {
	config    RetryConfig
	retryInfo RetryInfo
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewRetryExecutor creates a new retry executor with the given configuration.
func NewRetryExecutor(config RetryConfig) *RetryExecutor {
	return &RetryExecutor{config: config, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Execute runs fn, retrying retryable errors up to MaxAttempts times.
func (e *RetryExecutor) Execute(ctx context.Context, fn RetryFunc) error {
	start := time.Now()
	e.retryInfo = RetryInfo{}
	defer func() { e.retryInfo.TotalDuration = time.Since(start) }()

	var lastErr error
	for attempt := 0; attempt <= e.config.MaxAttempts; attempt++ {
		e.retryInfo.TotalAttempts = attempt + 1
		if err := ctx.Err(); err != nil {
			return ClassifyError(err)
		}

		err := fn(ctx)
		if err == nil {
			e.retryInfo.RetryCount = attempt
			return nil
		}
		lastErr = err
		e.retryInfo.Errors = append(e.retryInfo.Errors, err)

		if !IsRetryable(err) || attempt == e.config.MaxAttempts {
			break
		}

		delay := e.config.CalculateDelay(attempt)
		e.retryInfo.Delays = append(e.retryInfo.Delays, delay)
		if err := e.sleep(ctx, delay); err != nil {
			return ClassifyError(err)
		}
	}

	e.retryInfo.RetryCount = e.retryInfo.TotalAttempts - 1
	return lastErr
}

// GetRetryInfo returns information about the last Execute call.
func (e *RetryExecutor) GetRetryInfo() RetryInfo {
	return e.retryInfo
}
