// Package pathutil provides shared path helpers for input and output files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateFilePath rejects empty paths, paths with null bytes, and directories.
// Relative paths with ".." are allowed: data files commonly live next to the
// working directory.
func ValidateFilePath(filePath string) error {
	if strings.TrimSpace(filePath) == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.Contains(filePath, "\x00") {
		return fmt.Errorf("file path contains invalid characters")
	}
	if strings.HasSuffix(filepath.ToSlash(filePath), "/") {
		return fmt.Errorf("file path %q names a directory", filePath)
	}
	return nil
}

// WithSuffix inserts suffix before the extension:
// WithSuffix("out/clean.csv", "_relaxed") == "out/clean_relaxed.csv".
func WithSuffix(filePath, suffix string) string {
	ext := filepath.Ext(filePath)
	return strings.TrimSuffix(filePath, ext) + suffix + ext
}

// EnsureParentDir creates the directory holding filePath when missing.
func EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over filePath, so readers never see a partial file.
func WriteFileAtomic(filePath string, write func(f *os.File) error) (err error) {
	if err := EnsureParentDir(filePath); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(filePath), "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("rename to %s: %w", filePath, err)
	}
	return nil
}
