package config

import (
	"errors"
	"testing"

	"github.com/Molly503/paid-media/pkg/adclean"
)

func TestLoadPipeline(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "defaults", path: ""},
		{name: "yaml file", path: "testdata/valid-pipeline.yaml"},
		{name: "parse error", path: "testdata/invalid-json.json", wantErr: ErrParse},
		{name: "validation error", path: "testdata/invalid-thresholds.yaml", wantErr: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LoadPipeline(tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("LoadPipeline() error = %v, want %v", err, tt.wantErr)
				}
				var loadErr *LoadError
				if errors.As(err, &loadErr) && len(loadErr.Result.AllErrors()) == 0 {
					t.Error("LoadError should carry the errors")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadPipeline() error = %v", err)
			}
			if p.Input == nil || len(p.Outputs) == 0 {
				t.Errorf("pipeline = %+v", p)
			}
		})
	}
}

func TestLoadPipeline_EnvValidation(t *testing.T) {
	t.Setenv("ADCLEAN_CPM_MIN", "999")
	_, err := LoadPipeline("")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("LoadPipeline() error = %v, want validation error", err)
	}
}

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()
	if p.Input.Config["path"] != adclean.DefaultInputPath {
		t.Errorf("input path = %v", p.Input.Config["path"])
	}
	if p.Cleaning.Fallback == nil || p.Cleaning.Fallback.MinRecords != adclean.DefaultFallbackMinRecords {
		t.Errorf("fallback = %+v", p.Cleaning.Fallback)
	}
	if p.Report.Path != adclean.DefaultReportPath || p.Report.Locale != "zh" {
		t.Errorf("report = %+v", p.Report)
	}
}
