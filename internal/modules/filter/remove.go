// Package filter provides implementations for filter modules.
// This file implements the "remove" filter module, which drops columns from
// records before they reach the outputs (for example the funnel counts once the
// KPIs are derived).
//
// The remove filter mutates each record in place. Absent columns are ignored.
package filter

import (
	"context"
	"errors"

	"github.com/Molly503/paid-media/internal/logger"
)

// RemoveConfig represents the configuration for a remove filter module.
type RemoveConfig struct {
	// Target is a single column to remove
	Target string `json:"target"`
	// Targets is a list of columns to remove
	Targets []string `json:"targets"`
}

// RemoveModule implements the remove filter that drops columns from each record.
type RemoveModule struct {
	targets []string
}

// NewRemoveFromConfig creates a new remove filter module from configuration.
func NewRemoveFromConfig(config RemoveConfig) (*RemoveModule, error) {
	targets := config.Targets
	if config.Target != "" {
		targets = append(targets, config.Target)
	}

	seen := make(map[string]bool)
	uniqueTargets := make([]string, 0, len(targets))
	for _, t := range targets {
		if t != "" && !seen[t] {
			seen[t] = true
			uniqueTargets = append(uniqueTargets, t)
		}
	}
	if len(uniqueTargets) == 0 {
		return nil, errors.New("at least one non-empty target column is required")
	}

	logger.Debug("remove filter module initialized", "targets", uniqueTargets)
	return &RemoveModule{targets: uniqueTargets}, nil
}

// Targets returns the removed column names.
func (m *RemoveModule) Targets() []string {
	return append([]string(nil), m.targets...)
}

// Process implements the filter.Module interface.
func (m *RemoveModule) Process(ctx context.Context, records []map[string]interface{}) ([]map[string]interface{}, error) {
	for i, rec := range records {
		if err := checkContext(ctx, i); err != nil {
			return nil, err
		}
		for _, target := range m.targets {
			delete(rec, target)
		}
	}
	return records, nil
}

// ParseRemoveConfig parses a raw configuration map into RemoveConfig.
func ParseRemoveConfig(config map[string]interface{}) (RemoveConfig, error) {
	var cfg RemoveConfig
	if target, ok := config["target"].(string); ok && target != "" {
		cfg.Target = target
	}
	if targets, ok := config["targets"]; ok {
		switch v := targets.(type) {
		case []interface{}:
			cfg.Targets = make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					cfg.Targets = append(cfg.Targets, s)
				}
			}
		case []string:
			cfg.Targets = v
		}
	}
	if cfg.Target == "" && len(cfg.Targets) == 0 {
		return cfg, errors.New("'target' or 'targets' is required")
	}
	return cfg, nil
}

var _ Module = (*RemoveModule)(nil)
