package input

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Molly503/paid-media/internal/database"
	"github.com/Molly503/paid-media/pkg/adclean"
)

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ads.db")
	db, err := database.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE ads (ad_id INTEGER, age TEXT, CPC REAL)`,
		`INSERT INTO ads VALUES (708746, '30-34', 1.5)`,
		`INSERT INTO ads VALUES (708749, '35-39', NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return path
}

func TestSQLiteInput_FetchTable(t *testing.T) {
	in, err := NewSQLiteInputFromConfig(&adclean.ModuleConfig{Type: "sqlite", Config: map[string]interface{}{
		"path":  seedSQLite(t),
		"table": "ads",
	}})
	if err != nil {
		t.Fatalf("NewSQLiteInputFromConfig() error = %v", err)
	}
	defer in.Close()

	records, err := in.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := []map[string]interface{}{
		{"ad_id": 708746.0, "age": "30-34", "CPC": 1.5},
		{"ad_id": 708749.0, "age": "35-39", "CPC": nil},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ad_id", "age", "CPC"}, in.Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteInput_FetchQuery(t *testing.T) {
	in, err := NewSQLiteInputFromConfig(&adclean.ModuleConfig{Config: map[string]interface{}{
		"path":  seedSQLite(t),
		"query": "SELECT ad_id FROM ads WHERE CPC IS NOT NULL",
	}})
	if err != nil {
		t.Fatalf("NewSQLiteInputFromConfig() error = %v", err)
	}
	defer in.Close()

	records, err := in.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(records) != 1 || records[0]["ad_id"] != 708746.0 {
		t.Errorf("Fetch() = %v", records)
	}
}

func TestSQLiteInput_MissingTable(t *testing.T) {
	in, err := NewSQLiteInputFromConfig(&adclean.ModuleConfig{Config: map[string]interface{}{
		"path":  seedSQLite(t),
		"table": "nope",
	}})
	if err != nil {
		t.Fatalf("NewSQLiteInputFromConfig() error = %v", err)
	}
	defer in.Close()

	_, err = in.Fetch(context.Background())
	dbErr := database.GetDatabaseError(err)
	if dbErr == nil || dbErr.Category != database.CategoryQuery {
		t.Errorf("Fetch() error = %v, want query error", err)
	}
}

func TestNewSQLiteInputFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]interface{}
		wantErr error
	}{
		{name: "missing path", cfg: map[string]interface{}{"table": "ads"}, wantErr: ErrSQLiteMissingPath},
		{name: "missing source", cfg: map[string]interface{}{"path": "ads.db"}, wantErr: ErrSQLiteMissingSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSQLiteInputFromConfig(&adclean.ModuleConfig{Config: tt.cfg})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
