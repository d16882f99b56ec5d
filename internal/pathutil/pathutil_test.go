package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty", "", true},
		{"blank", "   ", true},
		{"null byte", "a\x00b", true},
		{"directory", "out/", true},
		{"valid relative", "facebook_ads_clean.csv", false},
		{"valid nested", "data/2024/ads.csv", false},
		{"parent dir", "../data/ads.csv", false},
		{"absolute", "/tmp/ads.csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilePath(%q) err = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestWithSuffix(t *testing.T) {
	tests := []struct {
		in, suffix, want string
	}{
		{"facebook_ads_final_clean.csv", "_relaxed", "facebook_ads_final_clean_relaxed.csv"},
		{"out/clean.csv", "_relaxed", "out/clean_relaxed.csv"},
		{"clean", "_relaxed", "clean_relaxed"},
		{"ads.db", "_v2", "ads_v2.db"},
	}
	for _, tt := range tests {
		if got := WithSuffix(tt.in, tt.suffix); got != tt.want {
			t.Errorf("WithSuffix(%q, %q) = %q, want %q", tt.in, tt.suffix, got, tt.want)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "clean.csv")

	err := WriteFileAtomic(path, func(f *os.File) error {
		_, err := f.WriteString("a,b\n1,2\n")
		return err
	})
	if err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("content = %q", data)
	}
}

func TestWriteFileAtomic_FailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clean.csv")
	boom := errors.New("boom")

	err := WriteFileAtomic(path, func(f *os.File) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("WriteFileAtomic() error = %v, want %v", err, boom)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty dir after failure, found %d entries", len(entries))
	}
}
