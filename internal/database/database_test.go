package database

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestClassifyDatabaseError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCategory  string
		wantRetryable bool
	}{
		{name: "locked", err: errors.New("database is locked (5) (SQLITE_BUSY)"), wantCategory: CategoryBusy, wantRetryable: true},
		{name: "table locked", err: errors.New("database table is locked"), wantCategory: CategoryBusy, wantRetryable: true},
		{name: "timeout", err: errors.New("context deadline exceeded"), wantCategory: CategoryTimeout, wantRetryable: true},
		{name: "cannot open", err: errors.New("unable to open database file: out of memory (14)"), wantCategory: CategoryConnection},
		{name: "not a database", err: errors.New("file is not a database (26)"), wantCategory: CategoryConnection},
		{name: "unique", err: errors.New("UNIQUE constraint failed: ads_clean.ad_id"), wantCategory: CategoryConstraint},
		{name: "syntax", err: errors.New(`near "TABL": syntax error`), wantCategory: CategoryQuery},
		{name: "unknown column", err: errors.New("table ads_clean has no column named CTR"), wantCategory: CategoryQuery},
		{name: "other", err: errors.New("out of memory"), wantCategory: CategoryQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDatabaseError(tt.err, "insert", "ads_clean", "INSERT INTO ads_clean VALUES (?)")
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}
}

func TestClassifyDatabaseError_Nil(t *testing.T) {
	if ClassifyDatabaseError(nil, "insert", "", "") != nil {
		t.Error("nil error should classify to nil")
	}
}

func TestClassifyDatabaseError_KeepsExisting(t *testing.T) {
	orig := NewTransactionError("commit failed", errors.New("io"), false)
	if got := ClassifyDatabaseError(orig, "commit", "", ""); got != orig {
		t.Errorf("ClassifyDatabaseError() = %v, want the existing error", got)
	}
}

func TestDatabaseError_Error(t *testing.T) {
	err := &DatabaseError{Category: CategoryConstraint, Operation: "insert", Table: "ads_clean", Message: "constraint violation"}
	want := "database constraint error in insert on ads_clean: constraint violation"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsRetryableError(t *testing.T) {
	if !IsRetryableError(errors.New("database is locked")) {
		t.Error("raw locked error should be retryable")
	}
	if IsRetryableError(NewConnectionError("open", nil)) {
		t.Error("connection errors are not retryable")
	}
	if IsRetryableError(nil) {
		t.Error("nil is not retryable")
	}
}

func TestSanitizeQuery(t *testing.T) {
	long := strings.Repeat("x", 600)
	if got := sanitizeQuery(long); len(got) != 500+len("... (truncated)") {
		t.Errorf("sanitizeQuery() length = %d", len(got))
	}
	if sanitizeQuery("SELECT 1") != "SELECT 1" {
		t.Error("short queries should be unchanged")
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ads.db")
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE t (v REAL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	if GetDatabaseError(err) == nil || GetDatabaseError(err).Category != CategoryConnection {
		t.Errorf("Open(\"\") error = %v, want connection error", err)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := map[string]string{
		"ads_clean":   `"ads_clean"`,
		"Spent":       `"Spent"`,
		`we"ird`:      `"we""ird"`,
		"fb_campaign": `"fb_campaign"`,
	}
	for in, want := range tests {
		if got := QuoteIdentifier(in); got != want {
			t.Errorf("QuoteIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}
