package stats

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Molly503/paid-media/pkg/adclean"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name    string
		records []map[string]interface{}
		want    adclean.MetricSummary
	}{
		{
			name:    "empty",
			records: nil,
			want:    adclean.MetricSummary{Column: "CPC"},
		},
		{
			name: "numbers and gaps",
			records: []map[string]interface{}{
				{"CPC": 1.0}, {"CPC": 3.0}, {"CPC": nil}, {"CPC": "n/a"}, {"CPC": math.NaN()}, {"CPC": -1.0}, {},
			},
			want: adclean.MetricSummary{Column: "CPC", Count: 3, Missing: 4, Min: -1, Max: 3, Mean: 1},
		},
		{
			name:    "all missing",
			records: []map[string]interface{}{{"CPC": nil}},
			want:    adclean.MetricSummary{Column: "CPC", Missing: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Describe(tt.records, "CPC")); diff != "" {
				t.Errorf("Describe() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	records := []map[string]interface{}{
		{"ROAS": 0.01}, {"ROAS": 100.0}, {"ROAS": 100.5}, {"ROAS": 0.0}, {"ROAS": nil}, {"ROAS": 5.0},
	}
	got := Profile(records, "ROAS", 0.01, 100)
	want := OutlierProfile{Column: "ROAS", Min: 0.01, Max: 100, High: 1, Low: 1, Missing: 1, Total: 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Profile() mismatch (-want +got):\n%s", diff)
	}
	if got.Outside() != 3 {
		t.Errorf("Outside() = %d, want 3", got.Outside())
	}
}

func TestProfileThresholds(t *testing.T) {
	cols := adclean.DefaultColumns()
	records := []map[string]interface{}{
		{cols.ROAS: 200.0, cols.CPA: 5.0, cols.CPC: 1.0, cols.CPM: 10.0},
	}
	got := ProfileThresholds(records, cols, adclean.DefaultThresholds())
	if len(got) != 4 {
		t.Fatalf("expected 4 profiles, got %d", len(got))
	}
	if got[0].Column != cols.ROAS || got[0].High != 1 {
		t.Errorf("ROAS profile = %+v", got[0])
	}
	for _, p := range got[1:] {
		if p.Outside() != 0 {
			t.Errorf("%s profile = %+v, want no outliers", p.Column, p)
		}
	}
}

func TestDescribeAll(t *testing.T) {
	got := DescribeAll([]map[string]interface{}{{"a": 1.0, "b": 2.0}}, []string{"b", "a"})
	if len(got) != 2 || got[0].Column != "b" || got[1].Column != "a" {
		t.Errorf("DescribeAll() = %+v", got)
	}
}
