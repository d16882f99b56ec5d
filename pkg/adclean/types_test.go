package adclean_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Molly503/paid-media/pkg/adclean"
)

func TestThresholdsOrdered(t *testing.T) {
	got := adclean.DefaultThresholds().Ordered()

	wantKeys := []string{
		"ROAS_MAX", "ROAS_MIN", "CPA_MAX", "CPA_MIN", "CPC_MAX",
		"CPC_MIN", "CPM_MAX", "CPM_MIN", "MIN_SPEND", "MIN_CONVERSIONS",
	}
	wantValues := []string{"100", "0.01", "1000", "0.1", "50", "0.01", "200", "0.01", "0.01", "0"}

	if len(got) != len(wantKeys) {
		t.Fatalf("Ordered() returned %d thresholds, want %d", len(got), len(wantKeys))
	}
	for i, th := range got {
		if th.Key != wantKeys[i] {
			t.Errorf("threshold %d key = %q, want %q", i, th.Key, wantKeys[i])
		}
		if th.String() != wantValues[i] {
			t.Errorf("threshold %s = %q, want %q", th.Key, th.String(), wantValues[i])
		}
	}
}

func TestBackupThresholdsAreLooser(t *testing.T) {
	std := adclean.DefaultThresholds()
	backup := adclean.BackupThresholds()

	if backup.ROASMax <= std.ROASMax || backup.CPAMax <= std.CPAMax ||
		backup.CPCMax <= std.CPCMax || backup.CPMMax <= std.CPMMax {
		t.Error("backup maxima should be larger than the standard maxima")
	}
	if backup.ROASMin >= std.ROASMin || backup.CPAMin >= std.CPAMin ||
		backup.CPCMin >= std.CPCMin || backup.CPMMin >= std.CPMMin || backup.MinSpend >= std.MinSpend {
		t.Error("backup minima should be smaller than the standard minima")
	}
}

func TestExecutionResultRemovalRate(t *testing.T) {
	tests := []struct {
		name    string
		initial int
		final   int
		removed int
		rate    float64
	}{
		{name: "reference run", initial: 922, final: 504, removed: 418, rate: 45.336},
		{name: "nothing removed", initial: 10, final: 10, removed: 0, rate: 0},
		{name: "empty dataset", initial: 0, final: 0, removed: 0, rate: 0},
		{name: "everything removed", initial: 4, final: 0, removed: 4, rate: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &adclean.ExecutionResult{InitialCount: tt.initial, FinalCount: tt.final}
			if r.TotalRemoved() != tt.removed {
				t.Errorf("TotalRemoved() = %d, want %d", r.TotalRemoved(), tt.removed)
			}
			if math.Abs(r.RemovalRate()-tt.rate) > 0.001 {
				t.Errorf("RemovalRate() = %f, want %f", r.RemovalRate(), tt.rate)
			}
		})
	}
}

func TestThresholdsJSONKeys(t *testing.T) {
	data, err := json.Marshal(adclean.DefaultThresholds())
	if err != nil {
		t.Fatalf("Failed to marshal thresholds: %v", err)
	}

	var decoded map[string]float64
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal thresholds: %v", err)
	}

	want := map[string]float64{
		"ROAS_MAX": 100, "ROAS_MIN": 0.01, "CPA_MAX": 1000, "CPA_MIN": 0.1,
		"CPC_MAX": 50, "CPC_MIN": 0.01, "CPM_MAX": 200, "CPM_MIN": 0.01,
		"MIN_SPEND": 0.01, "MIN_CONVERSIONS": 0,
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("threshold JSON keys mismatch (-want +got):\n%s", diff)
	}
}
