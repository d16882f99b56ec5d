package cleaning

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/pkg/adclean"
)

var header = []string{"ad_id", "ROAS_Approved", "CPA_Approved", "CPC", "CPM", "Spent", "Approved_Conversion"}

func ad(id, roas, cpa, cpc, cpm, spent, conv interface{}) map[string]interface{} {
	return map[string]interface{}{
		"ad_id": id, "ROAS_Approved": roas, "CPA_Approved": cpa, "CPC": cpc,
		"CPM": cpm, "Spent": spent, "Approved_Conversion": conv,
	}
}

func newCleaner(t *testing.T, th adclean.Thresholds) *Cleaner {
	t.Helper()
	c, err := New(adclean.DefaultColumns(), th)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestCleaner_Run(t *testing.T) {
	records := []map[string]interface{}{
		ad(1.0, 2.0, 10.0, 1.0, 5.0, 10.0, 1.0),     // kept
		ad(2.0, nil, 10.0, 1.0, 5.0, 10.0, 1.0),     // ROAS missing
		ad(3.0, 150.0, 10.0, 1.0, 5.0, 10.0, 1.0),   // ROAS too high
		ad(4.0, 2.0, 2000.0, 1.0, 5.0, 10.0, 1.0),   // CPA too high
		ad(5.0, 2.0, 10.0, 60.0, 5.0, 10.0, 1.0),    // CPC too high
		ad(6.0, 2.0, 10.0, 1.0, 250.0, 10.0, 1.0),   // CPM too high
		ad(7.0, 2.0, 10.0, 1.0, 5.0, 0.0, 1.0),      // no spend
		ad(8.0, 100.0, 0.1, 0.01, 200.0, 0.01, 0.0), // every bound inclusive
	}

	res, err := newCleaner(t, adclean.DefaultThresholds()).Run(context.Background(), header, records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantSteps := []adclean.StepResult{
		{Name: "ROAS", Column: "ROAS_Approved", Before: 8, After: 6, Removed: 2},
		{Name: "CPA", Column: "CPA_Approved", Before: 6, After: 5, Removed: 1},
		{Name: "CPC", Column: "CPC", Before: 5, After: 4, Removed: 1},
		{Name: "CPM", Column: "CPM", Before: 4, After: 3, Removed: 1},
		{Name: "minimum", Column: "Spent", Before: 3, After: 2, Removed: 1},
	}
	if diff := cmp.Diff(wantSteps, res.Steps); diff != "" {
		t.Errorf("Steps mismatch (-want +got):\n%s", diff)
	}
	if res.Initial != 8 || res.Final != 2 || res.TotalRemoved() != 6 {
		t.Errorf("counts = initial %d final %d removed %d", res.Initial, res.Final, res.TotalRemoved())
	}
	if res.Records[0]["ad_id"] != 1.0 || res.Records[1]["ad_id"] != 8.0 {
		t.Errorf("unexpected survivors: %v", res.Records)
	}
	if len(records) != 8 {
		t.Error("input slice must not be modified")
	}
}

// TestCleaner_ReferenceCounts reproduces the reference run: 922 rows in,
// 418 removed by the ROAS step, nothing by the others, 504 out.
func TestCleaner_ReferenceCounts(t *testing.T) {
	records := make([]map[string]interface{}, 0, 922)
	for i := 0; i < 504; i++ {
		records = append(records, ad(float64(i), 3.0, 20.0, 1.5, 10.0, 30.0, 1.0))
	}
	for i := 504; i < 922; i++ {
		records = append(records, ad(float64(i), nil, nil, 1.5, 10.0, 1.0, 0.0))
	}

	res, err := newCleaner(t, adclean.DefaultThresholds()).Run(context.Background(), header, records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	removed := make([]int, len(res.Steps))
	for i, s := range res.Steps {
		removed[i] = s.Removed
	}
	if diff := cmp.Diff([]int{418, 0, 0, 0, 0}, removed); diff != "" {
		t.Errorf("removed per step mismatch (-want +got):\n%s", diff)
	}
	if res.Final != 504 {
		t.Errorf("Final = %d, want 504", res.Final)
	}
	result := adclean.ExecutionResult{InitialCount: res.Initial, FinalCount: res.Final}
	if got := result.RemovalRate(); got < 45.33 || got > 45.34 {
		t.Errorf("RemovalRate() = %v, want ~45.3", got)
	}
}

func TestCleaner_SkipsAbsentRangeColumn(t *testing.T) {
	noCPM := []string{"ROAS_Approved", "CPA_Approved", "CPC", "Spent", "Approved_Conversion"}
	records := []map[string]interface{}{
		{"ROAS_Approved": 2.0, "CPA_Approved": 10.0, "CPC": 1.0, "Spent": 5.0, "Approved_Conversion": 1.0},
	}

	res, err := newCleaner(t, adclean.DefaultThresholds()).Run(context.Background(), noCPM, records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(res.Steps))
	}
	for _, s := range res.Steps {
		if s.Name == StepCPM {
			t.Error("CPM step should be skipped when the column is absent")
		}
	}
	if diff := cmp.Diff([]string{"CPM"}, res.Skipped); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}
	if res.Final != 1 {
		t.Errorf("Final = %d, want 1", res.Final)
	}
}

func TestCleaner_MissingMinimumColumnIsDataError(t *testing.T) {
	noSpend := []string{"ROAS_Approved", "CPA_Approved", "CPC", "CPM", "Approved_Conversion"}
	_, err := newCleaner(t, adclean.DefaultThresholds()).Run(context.Background(), noSpend, nil)
	if errhandling.GetErrorCategory(err) != errhandling.CategoryData {
		t.Errorf("Run() error = %v, want data error", err)
	}
}

func TestCleaner_EmptyDataset(t *testing.T) {
	res, err := newCleaner(t, adclean.DefaultThresholds()).Run(context.Background(), header, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Initial != 0 || res.Final != 0 || len(res.Steps) != 5 {
		t.Errorf("Result = %+v", res)
	}
}

func TestCleaner_BackupThresholdsKeepMore(t *testing.T) {
	records := []map[string]interface{}{
		ad(1.0, 300.0, 10.0, 1.0, 5.0, 10.0, 1.0),
		ad(2.0, 2.0, 3000.0, 1.0, 5.0, 10.0, 1.0),
	}
	std, err := newCleaner(t, adclean.DefaultThresholds()).Run(context.Background(), header, records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	backup, err := newCleaner(t, adclean.BackupThresholds()).Run(context.Background(), header, records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if std.Final != 0 || backup.Final != 2 {
		t.Errorf("standard kept %d, backup kept %d; want 0 and 2", std.Final, backup.Final)
	}
	if backup.Thresholds != adclean.BackupThresholds() {
		t.Error("result should carry the thresholds that produced it")
	}
}

func TestBuildSteps_InvalidBounds(t *testing.T) {
	th := adclean.DefaultThresholds()
	th.CPCMin, th.CPCMax = 10, 1
	_, err := BuildSteps(adclean.DefaultColumns(), th)
	if errhandling.GetErrorCategory(err) != errhandling.CategorySchema {
		t.Errorf("BuildSteps() error = %v, want schema error", err)
	}
}

func TestCleaner_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newCleaner(t, adclean.DefaultThresholds()).Run(ctx, header, []map[string]interface{}{ad(1.0, 2.0, 10.0, 1.0, 5.0, 10.0, 1.0)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
