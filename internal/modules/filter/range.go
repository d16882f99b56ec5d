package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/record"
)

// Common errors for range and minimum modules
var (
	ErrMissingColumn = errors.New("column is required")
	ErrInvalidBounds = errors.New("min must not exceed max")
)

// RangeConfig represents the configuration for a range filter module.
type RangeConfig struct {
	// Column is the numeric column checked by the filter
	Column string `json:"column"`
	// Min is the inclusive lower bound (nil = unbounded)
	Min *float64 `json:"min,omitempty"`
	// Max is the inclusive upper bound (nil = unbounded)
	Max *float64 `json:"max,omitempty"`
}

// RangeModule keeps records whose column value lies in [Min, Max].
// Missing and non-numeric values are dropped.
type RangeModule struct {
	column string
	min    float64
	max    float64
}

// NewRangeFromConfig creates a new range filter module from configuration.
func NewRangeFromConfig(config RangeConfig) (*RangeModule, error) {
	if config.Column == "" {
		return nil, ErrMissingColumn
	}
	lo, hi := math.Inf(-1), math.Inf(1)
	if config.Min != nil {
		lo = *config.Min
	}
	if config.Max != nil {
		hi = *config.Max
	}
	if lo > hi {
		return nil, fmt.Errorf("%w: column %s min %v max %v", ErrInvalidBounds, config.Column, lo, hi)
	}

	logger.Debug("range filter module initialized",
		slog.String("column", config.Column),
		slog.Float64("min", lo),
		slog.Float64("max", hi),
	)
	return &RangeModule{column: config.Column, min: lo, max: hi}, nil
}

// ParseRangeConfig parses a raw configuration map into RangeConfig.
func ParseRangeConfig(config map[string]interface{}) (RangeConfig, error) {
	var cfg RangeConfig
	cfg.Column, _ = config["column"].(string)
	if cfg.Column == "" {
		return cfg, fmt.Errorf("'column' is required")
	}
	if v, ok := config["min"].(float64); ok {
		cfg.Min = &v
	}
	if v, ok := config["max"].(float64); ok {
		cfg.Max = &v
	}
	if cfg.Min == nil && cfg.Max == nil {
		return cfg, fmt.Errorf("'min' or 'max' is required")
	}
	return cfg, nil
}

// Column returns the column checked by the filter.
func (m *RangeModule) Column() string {
	return m.column
}

// Keep reports whether a single record passes the filter.
func (m *RangeModule) Keep(rec map[string]interface{}) bool {
	v, ok := record.Float(rec[m.column])
	return ok && v >= m.min && v <= m.max
}

// Process implements the filter.Module interface.
func (m *RangeModule) Process(ctx context.Context, records []map[string]interface{}) ([]map[string]interface{}, error) {
	result := make([]map[string]interface{}, 0, len(records))
	for i, rec := range records {
		if err := checkContext(ctx, i); err != nil {
			return nil, err
		}
		if m.Keep(rec) {
			result = append(result, rec)
		}
	}
	return result, nil
}

var _ Module = (*RangeModule)(nil)
