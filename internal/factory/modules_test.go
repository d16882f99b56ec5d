package factory

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Molly503/paid-media/internal/modules/input"
	"github.com/Molly503/paid-media/internal/modules/output"
	"github.com/Molly503/paid-media/pkg/adclean"
)

func TestCreateInputModule(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *adclean.ModuleConfig
		wantNil bool
		wantErr error
	}{
		{name: "nil config", cfg: nil, wantNil: true},
		{name: "csv", cfg: &adclean.ModuleConfig{Type: "csv", Config: map[string]interface{}{"path": "ads.csv"}}},
		{name: "sqlite", cfg: &adclean.ModuleConfig{Type: "sqlite", Config: map[string]interface{}{"path": "ads.db", "table": "ads"}}},
		{name: "unknown", cfg: &adclean.ModuleConfig{Type: "httpPolling"}, wantNil: true, wantErr: ErrUnknownModuleType},
		{name: "invalid csv", cfg: &adclean.ModuleConfig{Type: "csv", Config: map[string]interface{}{}}, wantNil: true, wantErr: input.ErrCSVMissingPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateInputModule(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("module = %v, wantNil %v", got, tt.wantNil)
			}
		})
	}
}

func TestCreateFilterModules(t *testing.T) {
	got, err := CreateFilterModules(nil)
	if err != nil || got != nil {
		t.Fatalf("CreateFilterModules(nil) = (%v, %v)", got, err)
	}

	got, err = CreateFilterModules([]adclean.ModuleConfig{
		{Type: "adMetrics"},
		{Type: "condition", Config: map[string]interface{}{"expression": "Impressions > 0"}},
		{Type: "remove", Config: map[string]interface{}{"targets": []interface{}{"interest1", "interest2"}}},
	})
	if err != nil {
		t.Fatalf("CreateFilterModules() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 modules, got %d", len(got))
	}

	_, err = CreateFilterModules([]adclean.ModuleConfig{{Type: "adMetrics"}, {Type: "script"}})
	if !errors.Is(err, ErrUnknownModuleType) {
		t.Errorf("error = %v, want ErrUnknownModuleType", err)
	}
}

func TestCreateOutputModules(t *testing.T) {
	dir := t.TempDir()
	modules, err := CreateOutputModules([]adclean.ModuleConfig{
		{Type: "csv", Config: map[string]interface{}{"path": filepath.Join(dir, "clean.csv")}},
		{Type: "sqlite", Config: map[string]interface{}{"path": filepath.Join(dir, "ads.db")}},
	})
	if err != nil {
		t.Fatalf("CreateOutputModules() error = %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if _, ok := modules[0].(output.FileTarget); !ok {
		t.Error("csv output should be a FileTarget")
	}
	if err := CloseOutputs(modules); err != nil {
		t.Errorf("CloseOutputs() error = %v", err)
	}

	_, err = CreateOutputModules([]adclean.ModuleConfig{
		{Type: "csv", Config: map[string]interface{}{"path": filepath.Join(dir, "clean.csv")}},
		{Type: "httpRequest"},
	})
	if !errors.Is(err, ErrUnknownModuleType) {
		t.Errorf("error = %v, want ErrUnknownModuleType", err)
	}
}
