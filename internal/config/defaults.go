package config

import (
	"time"

	"github.com/Molly503/paid-media/pkg/adclean"
)

// Default pipeline identity.
const (
	DefaultPipelineID      = "facebook-ads-outlier-cleaning"
	DefaultPipelineName    = "Facebook ads outlier cleaning"
	DefaultPipelineVersion = "1.0.0"
	DefaultLocale          = "zh"
)

// DefaultPipeline returns the pipeline used when no configuration file is
// given: csv input, the standard thresholds with fallback, csv output, and
// the summary log.
func DefaultPipeline() *adclean.Pipeline {
	return &adclean.Pipeline{
		ID:      DefaultPipelineID,
		Name:    DefaultPipelineName,
		Version: DefaultPipelineVersion,
		Input: &adclean.ModuleConfig{
			Type:   "csv",
			Config: map[string]interface{}{"path": adclean.DefaultInputPath},
		},
		Cleaning: adclean.Cleaning{
			Columns:    adclean.DefaultColumns(),
			Thresholds: adclean.DefaultThresholds(),
			Fallback:   adclean.DefaultFallback(),
		},
		Outputs: []adclean.ModuleConfig{
			{Type: "csv", Config: map[string]interface{}{"path": adclean.DefaultOutputPath}},
		},
		Report: adclean.ReportConfig{
			Path:   adclean.DefaultReportPath,
			Locale: DefaultLocale,
		},
		CreatedAt: time.Now(),
	}
}
