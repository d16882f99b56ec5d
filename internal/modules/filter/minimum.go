package filter

import (
	"context"
	"log/slog"

	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/record"
)

// MinimumConfig represents the configuration for a minimum filter module.
type MinimumConfig struct {
	SpendColumn       string  `json:"spendColumn"`
	MinSpend          float64 `json:"minSpend"`
	ConversionsColumn string  `json:"conversionsColumn"`
	MinConversions    float64 `json:"minConversions"`
}

// MinimumModule keeps records that reach both the minimum spend and the
// minimum conversion count. Missing values are dropped.
type MinimumModule struct {
	config MinimumConfig
}

// NewMinimumFromConfig creates a new minimum filter module from configuration.
func NewMinimumFromConfig(config MinimumConfig) (*MinimumModule, error) {
	if config.SpendColumn == "" || config.ConversionsColumn == "" {
		return nil, ErrMissingColumn
	}
	logger.Debug("minimum filter module initialized",
		slog.String("spend_column", config.SpendColumn),
		slog.Float64("min_spend", config.MinSpend),
		slog.String("conversions_column", config.ConversionsColumn),
		slog.Float64("min_conversions", config.MinConversions),
	)
	return &MinimumModule{config: config}, nil
}

// ParseMinimumConfig parses a raw configuration map into MinimumConfig.
func ParseMinimumConfig(config map[string]interface{}) MinimumConfig {
	var cfg MinimumConfig
	cfg.SpendColumn, _ = config["spendColumn"].(string)
	cfg.ConversionsColumn, _ = config["conversionsColumn"].(string)
	cfg.MinSpend, _ = config["minSpend"].(float64)
	cfg.MinConversions, _ = config["minConversions"].(float64)
	return cfg
}

// Columns returns the spend and conversions columns.
func (m *MinimumModule) Columns() []string {
	return []string{m.config.SpendColumn, m.config.ConversionsColumn}
}

// Keep reports whether a single record passes the filter.
func (m *MinimumModule) Keep(rec map[string]interface{}) bool {
	spend, ok := record.Float(rec[m.config.SpendColumn])
	if !ok || spend < m.config.MinSpend {
		return false
	}
	conv, ok := record.Float(rec[m.config.ConversionsColumn])
	return ok && conv >= m.config.MinConversions
}

// Process implements the filter.Module interface.
func (m *MinimumModule) Process(ctx context.Context, records []map[string]interface{}) ([]map[string]interface{}, error) {
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

var _ Module = (*MinimumModule)(nil)
