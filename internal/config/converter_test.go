package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Molly503/paid-media/pkg/adclean"
)

func TestConvertToPipeline_FullConfig(t *testing.T) {
	result := ParseConfig("testdata/valid-pipeline.yaml")
	if !result.IsValid() {
		t.Fatalf("config errors: %v", result.AllErrors())
	}

	p, err := ConvertToPipeline(result.Data)
	if err != nil {
		t.Fatalf("ConvertToPipeline() error = %v", err)
	}

	if p.ID != "fb-ads-q2" || p.Name != "Facebook ads Q2 cleaning" || p.Version != "1.2.0" {
		t.Errorf("identity = %q %q %q", p.ID, p.Name, p.Version)
	}

	wantInput := &adclean.ModuleConfig{Type: "csv", Config: map[string]interface{}{
		"path": "data/facebook_ads_clean.csv", "onError": "skip",
	}}
	if diff := cmp.Diff(wantInput, p.Input); diff != "" {
		t.Errorf("Input mismatch (-want +got):\n%s", diff)
	}

	if len(p.Filters) != 2 || p.Filters[0].Type != "adMetrics" || p.Filters[0].Config["aov"] != 40.0 {
		t.Errorf("Filters = %+v", p.Filters)
	}

	wantThresholds := adclean.DefaultThresholds()
	wantThresholds.ROASMax = 80
	wantThresholds.CPCMax = 40
	if diff := cmp.Diff(wantThresholds, p.Cleaning.Thresholds); diff != "" {
		t.Errorf("Thresholds mismatch (-want +got):\n%s", diff)
	}

	wantFallback := adclean.DefaultFallback()
	wantFallback.MinRecords = 30
	wantFallback.Thresholds.ROASMax = 400
	if diff := cmp.Diff(wantFallback, p.Cleaning.Fallback); diff != "" {
		t.Errorf("Fallback mismatch (-want +got):\n%s", diff)
	}

	if len(p.Outputs) != 2 || p.Outputs[1].Type != "sqlite" || p.Outputs[1].Config["truncate"] != true {
		t.Errorf("Outputs = %+v", p.Outputs)
	}
	if diff := cmp.Diff(adclean.ReportConfig{Path: "out/outlier_cleaning_log.txt", Locale: "en"}, p.Report); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertToPipeline_MinimalUsesDefaults(t *testing.T) {
	result := ParseConfig("testdata/valid-pipeline.json")
	p, err := ConvertToPipeline(result.Data)
	if err != nil {
		t.Fatalf("ConvertToPipeline() error = %v", err)
	}

	want := DefaultPipeline()
	want.ID = "minimal"
	want.Name = "minimal"
	want.Outputs = []adclean.ModuleConfig{{Type: "csv", Config: map[string]interface{}{"path": "clean.csv"}}}
	if diff := cmp.Diff(want, p, cmpopts.IgnoreFields(adclean.Pipeline{}, "CreatedAt")); diff != "" {
		t.Errorf("ConvertToPipeline() mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertToPipeline_Errors(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
	}{
		{"nil", nil},
		{"no pipeline", map[string]interface{}{"schemaVersion": "1.0.0"}},
		{"no name", map[string]interface{}{"pipeline": map[string]interface{}{"version": "1"}}},
		{"no version", map[string]interface{}{"pipeline": map[string]interface{}{"name": "x"}}},
		{"filter without type", map[string]interface{}{"pipeline": map[string]interface{}{
			"name": "x", "version": "1", "filters": []interface{}{map[string]interface{}{"column": "CPC"}},
		}}},
		{"bad threshold type", map[string]interface{}{"pipeline": map[string]interface{}{
			"name": "x", "version": "1",
			"cleaning": map[string]interface{}{"thresholds": map[string]interface{}{"ROAS_MAX": "high"}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ConvertToPipeline(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}
