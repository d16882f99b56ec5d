package config

import (
	"fmt"
	"maps"

	"github.com/caarlos0/env/v11"

	"github.com/Molly503/paid-media/pkg/adclean"
)

// Environment variable prefixes. Thresholds read ADCLEAN_ROAS_MAX and so on,
// fallback thresholds ADCLEAN_BACKUP_ROAS_MAX, columns ADCLEAN_COLUMN_ROAS.
const (
	EnvPrefix       = "ADCLEAN_"
	EnvBackupPrefix = "ADCLEAN_BACKUP_"
)

// Overrides replaces paths and the report locale of a loaded pipeline.
// Empty fields leave the pipeline unchanged.
type Overrides struct {
	InputPath  string `env:"INPUT"`
	OutputPath string `env:"OUTPUT"`
	ReportPath string `env:"REPORT"`
	Locale     string `env:"LOCALE"`
}

// ApplyEnv overlays ADCLEAN_* variables on the pipeline. A nil environ
// reads the process environment.
func ApplyEnv(p *adclean.Pipeline, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}

	var o Overrides
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return fmt.Errorf("parse env overrides: %w", err)
	}
	if err := env.ParseWithOptions(&p.Cleaning.Thresholds, opts); err != nil {
		return fmt.Errorf("parse env thresholds: %w", err)
	}
	if err := env.ParseWithOptions(&p.Cleaning.Columns, opts); err != nil {
		return fmt.Errorf("parse env columns: %w", err)
	}
	if p.Cleaning.Fallback != nil {
		backup := env.Options{Prefix: EnvBackupPrefix, Environment: environ}
		if err := env.ParseWithOptions(&p.Cleaning.Fallback.Thresholds, backup); err != nil {
			return fmt.Errorf("parse env backup thresholds: %w", err)
		}
	}

	ApplyOverrides(p, o)
	return nil
}

// ApplyOverrides sets the input path, the path of the first csv output, the
// report path, and the report locale.
func ApplyOverrides(p *adclean.Pipeline, o Overrides) {
	if o.InputPath != "" && p.Input != nil {
		p.Input = withConfigValue(p.Input, "path", o.InputPath)
	}
	if o.OutputPath != "" {
		for i := range p.Outputs {
			if p.Outputs[i].Type == "csv" {
				p.Outputs[i] = *withConfigValue(&p.Outputs[i], "path", o.OutputPath)
				break
			}
		}
	}
	if o.ReportPath != "" {
		p.Report.Path = o.ReportPath
	}
	if o.Locale != "" {
		p.Report.Locale = o.Locale
	}
}

func withConfigValue(m *adclean.ModuleConfig, key string, value interface{}) *adclean.ModuleConfig {
	cfg := maps.Clone(m.Config)
	if cfg == nil {
		cfg = make(map[string]interface{}, 1)
	}
	cfg[key] = value
	return &adclean.ModuleConfig{Type: m.Type, Config: cfg}
}
