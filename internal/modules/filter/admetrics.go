package filter

import (
	"fmt"
	"strconv"
)

// DefaultAOV is the average order value used to turn conversions into revenue.
const DefaultAOV = 50.0

// AdMetricsConfig represents the configuration for the adMetrics preset.
type AdMetricsConfig struct {
	// AOV is the average order value (default 50)
	AOV float64 `json:"aov"`
	// OnError specifies error handling mode: "fail" (default), "skip", "log"
	OnError string `json:"onError,omitempty"`
}

// AdMetricsFields returns the KPI definitions computed from the raw funnel
// columns (Impressions, Clicks, Spent, Total_Conversion, Approved_Conversion).
// Rates fall back to 0 without a denominator; costs and returns become missing.
func AdMetricsFields(aov float64) []DeriveField {
	k := strconv.FormatFloat(aov, 'f', -1, 64)
	return []DeriveField{
		{Name: "CTR", Expression: "ratioOr(Clicks, Impressions, 0)"},
		{Name: "CVR_Total", Expression: "ratioOr(Total_Conversion, Clicks, 0)"},
		{Name: "CVR_Approved", Expression: "ratioOr(Approved_Conversion, Clicks, 0)"},
		{Name: "CPC", Expression: "ratio(Spent, Clicks)"},
		{Name: "CPM", Expression: "scale(ratio(Spent, Impressions), 1000)"},
		{Name: "CPA_Total", Expression: "ratio(Spent, Total_Conversion)"},
		{Name: "CPA_Approved", Expression: "ratio(Spent, Approved_Conversion)"},
		{Name: "Avg_Frequency", Expression: "ratio(Impressions, Clicks)"},
		{Name: "Revenue_Total", Expression: fmt.Sprintf("scale(Total_Conversion, %s)", k)},
		{Name: "Revenue_Approved", Expression: fmt.Sprintf("scale(Approved_Conversion, %s)", k)},
		{Name: "ROAS_Total", Expression: "ratio(Revenue_Total, Spent)"},
		{Name: "ROAS_Approved", Expression: "ratio(Revenue_Approved, Spent)"},
	}
}

// NewAdMetricsFromConfig creates the KPI preset as a derive module.
func NewAdMetricsFromConfig(config AdMetricsConfig) (*DeriveModule, error) {
	aov := config.AOV
	if aov == 0 {
		aov = DefaultAOV
	}
	if aov < 0 {
		return nil, fmt.Errorf("aov must be positive, got %v", aov)
	}
	return NewDeriveFromConfig(DeriveConfig{Fields: AdMetricsFields(aov), OnError: config.OnError})
}

// ParseAdMetricsConfig parses a raw configuration map into AdMetricsConfig.
func ParseAdMetricsConfig(config map[string]interface{}) AdMetricsConfig {
	var cfg AdMetricsConfig
	cfg.AOV, _ = config["aov"].(float64)
	cfg.OnError, _ = config["onError"].(string)
	return cfg
}
