package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Molly503/paid-media/internal/stats"
	"github.com/Molly503/paid-media/pkg/adclean"
)

func referenceResult() *adclean.ExecutionResult {
	return &adclean.ExecutionResult{
		InitialCount: 922,
		FinalCount:   504,
		Thresholds:   adclean.DefaultThresholds(),
		Steps: []adclean.StepResult{
			{Name: "ROAS", Column: "ROAS_Approved", Before: 922, After: 504, Removed: 418},
			{Name: "CPA", Column: "CPA_Approved", Before: 504, After: 504},
			{Name: "CPC", Column: "CPC", Before: 504, After: 504},
			{Name: "CPM", Column: "CPM", Before: 504, After: 504},
			{Name: "minimum", Column: "Spent", Before: 504, After: 504},
		},
		OutputPath: "facebook_ads_final_clean.csv",
	}
}

var referenceTime = time.Date(2025, 6, 14, 10, 30, 45, 123456000, time.Local)

const referenceZH = `Facebook广告数据异常值清洗日志
==================================================
清洗时间: 2025-06-14 10:30:45.123456
原始数据量: 922 条
最终数据量: 504 条
清洗率: 45.3%

清洗配置参数:
  ROAS_MAX: 100
  ROAS_MIN: 0.01
  CPA_MAX: 1000
  CPA_MIN: 0.1
  CPC_MAX: 50
  CPC_MIN: 0.01
  CPM_MAX: 200
  CPM_MIN: 0.01
  MIN_SPEND: 0.01
  MIN_CONVERSIONS: 0

清洗步骤详情:
  - ROAS清洗: 移除 418 条记录
  - CPA清洗: 移除 0 条记录
  - CPC清洗: 移除 0 条记录
  - CPM清洗: 移除 0 条记录
  - 最小阈值清洗: 移除 0 条记录

最终输出文件: facebook_ads_final_clean.csv
`

func TestRender_ZH(t *testing.T) {
	var b strings.Builder
	if err := Render(&b, NewSummary(referenceResult(), referenceTime), LocaleZH); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if diff := cmp.Diff(referenceZH, b.String()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_EN(t *testing.T) {
	var b strings.Builder
	if err := Render(&b, NewSummary(referenceResult(), referenceTime), LocaleEN); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	got := b.String()
	for _, want := range []string{
		"Facebook Ads Outlier Cleaning Log\n",
		"Initial records: 922\n",
		"Removal rate: 45.3%\n",
		"  CPM_MAX: 200\n",
		"  - ROAS cleaning: removed 418 records\n",
		"  - Minimum threshold cleaning: removed 0 records\n",
		"Final output file: facebook_ads_final_clean.csv\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Render() output missing %q:\n%s", want, got)
		}
	}
}

func TestRender_FallbackThresholds(t *testing.T) {
	backup := adclean.BackupThresholds()
	result := referenceResult()
	result.FallbackThresholds = &backup
	result.OutputPath = "facebook_ads_final_clean_relaxed.csv"

	var b strings.Builder
	if err := Render(&b, NewSummary(result, referenceTime), LocaleZH); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := strings.Replace(referenceZH, "\n清洗步骤详情:", `
备选清洗配置:
  ROAS_MAX: 500
  ROAS_MIN: 0.001
  CPA_MAX: 5000
  CPA_MIN: 0.01
  CPC_MAX: 100
  CPC_MIN: 0.001
  CPM_MAX: 1000
  CPM_MIN: 0.001
  MIN_SPEND: 0.001
  MIN_CONVERSIONS: 0

清洗步骤详情:`, 1)
	want = strings.Replace(want, "facebook_ads_final_clean.csv", "facebook_ads_final_clean_relaxed.csv", 1)
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_SkippedStepAndEmptyRun(t *testing.T) {
	result := &adclean.ExecutionResult{
		Thresholds: adclean.BackupThresholds(),
		Steps:      []adclean.StepResult{{Name: "minimum"}},
		OutputPath: "facebook_ads_final_clean_relaxed.csv",
	}
	var b strings.Builder
	if err := Render(&b, NewSummary(result, referenceTime), LocaleZH); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	got := b.String()
	if !strings.Contains(got, "清洗率: 0.0%\n") || !strings.Contains(got, "  ROAS_MAX: 500\n") {
		t.Errorf("unexpected output:\n%s", got)
	}
	if strings.Contains(got, "ROAS清洗") {
		t.Errorf("skipped step should not be listed:\n%s", got)
	}
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in      string
		want    Locale
		wantErr bool
	}{
		{"", LocaleZH, false},
		{"zh", LocaleZH, false},
		{" EN ", LocaleEN, false},
		{"fr", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLocale(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLocale(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "outlier_cleaning_log.txt")
	if err := Write(path, NewSummary(referenceResult(), referenceTime), LocaleZH); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if string(data) != referenceZH {
		t.Errorf("Write() content mismatch:\n%s", data)
	}
}

func TestTables(t *testing.T) {
	result := referenceResult()

	steps := StepsTable(result)
	for _, want := range []string{"ROAS_Approved", "418", "45.3%"} {
		if !strings.Contains(steps, want) {
			t.Errorf("StepsTable() missing %q:\n%s", want, steps)
		}
	}

	metrics := MetricsTable(
		[]adclean.MetricSummary{{Column: "CPC", Count: 1200, Mean: 1.5, Max: 80}},
		[]adclean.MetricSummary{{Column: "CPC", Count: 504, Mean: 1.25, Max: 49}},
	)
	if !strings.Contains(metrics, "1,200") || !strings.Contains(metrics, "1.25") {
		t.Errorf("MetricsTable() output:\n%s", metrics)
	}

	profile := ProfileTable([]stats.OutlierProfile{{Column: "ROAS_Approved", Min: 0.01, Max: 100, Missing: 418, Total: 922}})
	if !strings.Contains(profile, "[0.01, 100]") {
		t.Errorf("ProfileTable() output:\n%s", profile)
	}
}
