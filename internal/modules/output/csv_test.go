package output

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Molly503/paid-media/pkg/adclean"
)

func newCSVOutput(t *testing.T, cfg map[string]interface{}) *CSVOutput {
	t.Helper()
	out, err := NewCSVOutputFromConfig(&adclean.ModuleConfig{Type: "csv", Config: cfg})
	if err != nil {
		t.Fatalf("NewCSVOutputFromConfig() error = %v", err)
	}
	return out
}

func TestCSVOutput_Send(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out", "clean.csv")
	out := newCSVOutput(t, map[string]interface{}{"path": path})
	out.SetColumns([]string{"ad_id", "age", "Spent", "ROAS_Approved"})

	records := []map[string]interface{}{
		{"ad_id": 708746.0, "age": "30-34", "Spent": 1.43, "ROAS_Approved": 34.965034965034965},
		{"ad_id": 708749.0, "age": "35-39", "Spent": 100.0, "ROAS_Approved": nil, "CTR": math.NaN()},
	}
	n, err := out.Send(context.Background(), records)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Send() = %d, want 2", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "ad_id,age,Spent,ROAS_Approved,CTR\n" +
		"708746,30-34,1.43,34.96503496503497,\n" +
		"708749,35-39,100,,\n"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}
}

func TestCSVOutput_FixedColumns(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "clean.tsv")
	out := newCSVOutput(t, map[string]interface{}{
		"path":      path,
		"delimiter": `\t`,
		"columns":   []interface{}{"CPC", "ad_id"},
	})

	if _, err := out.Send(context.Background(), []map[string]interface{}{{"ad_id": 1.0, "CPC": 0.5, "CPM": 3.0}}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "CPC\tad_id\n0.5\t1\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestCSVOutput_EmptyRecordsWritesHeader(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "clean.csv")
	out := newCSVOutput(t, map[string]interface{}{"path": path})
	out.SetColumns([]string{"a", "b"})

	n, err := out.Send(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("Send() = %d, %v", n, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "a,b\n" {
		t.Errorf("file content = %q, want header only", data)
	}
}

func TestCSVOutput_DefaultPathAndRetarget(t *testing.T) {
	t.Parallel()
	out := newCSVOutput(t, map[string]interface{}{})
	if out.Path() != adclean.DefaultOutputPath {
		t.Errorf("Path() = %q, want %q", out.Path(), adclean.DefaultOutputPath)
	}
	out.SetPath("facebook_ads_final_clean_relaxed.csv")
	if out.Path() != "facebook_ads_final_clean_relaxed.csv" {
		t.Errorf("Path() after SetPath = %q", out.Path())
	}
}

func TestNewCSVOutputFromConfig_Errors(t *testing.T) {
	t.Parallel()
	if _, err := NewCSVOutputFromConfig(nil); err != ErrNilConfig {
		t.Errorf("error = %v, want ErrNilConfig", err)
	}
	if _, err := NewCSVOutputFromConfig(&adclean.ModuleConfig{Config: map[string]interface{}{"delimiter": "||"}}); err == nil {
		t.Error("expected error for long delimiter")
	}
}
