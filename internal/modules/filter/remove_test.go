package filter

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRemoveConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]interface{}
		wantErr bool
	}{
		{name: "missing target and targets", config: map[string]interface{}{}, wantErr: true},
		{name: "empty target", config: map[string]interface{}{"target": ""}, wantErr: true},
		{name: "target is not a string", config: map[string]interface{}{"target": 123}, wantErr: true},
		{name: "single target", config: map[string]interface{}{"target": "interest"}},
		{name: "targets array", config: map[string]interface{}{"targets": []interface{}{"interest", "xyz_campaign_id"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRemoveConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRemoveConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "required") {
				t.Errorf("unexpected error message %q", err.Error())
			}
		})
	}
}

func TestNewRemoveFromConfig_Dedup(t *testing.T) {
	m, err := NewRemoveFromConfig(RemoveConfig{Target: "a", Targets: []string{"a", "b", ""}})
	if err != nil {
		t.Fatalf("NewRemoveFromConfig() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, m.Targets()); diff != "" {
		t.Errorf("Targets() mismatch (-want +got):\n%s", diff)
	}
	if _, err := NewRemoveFromConfig(RemoveConfig{Targets: []string{""}}); err == nil {
		t.Error("expected error for empty targets")
	}
}

func TestRemoveModule_Process(t *testing.T) {
	m, err := NewRemoveFromConfig(RemoveConfig{Targets: []string{"interest", "missing"}})
	if err != nil {
		t.Fatalf("NewRemoveFromConfig() error = %v", err)
	}
	records := []map[string]interface{}{
		{"ad_id": 1.0, "interest": 15.0},
		{"ad_id": 2.0},
	}
	got, err := m.Process(context.Background(), records)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := []map[string]interface{}{{"ad_id": 1.0}, {"ad_id": 2.0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Process() mismatch (-want +got):\n%s", diff)
	}
}
