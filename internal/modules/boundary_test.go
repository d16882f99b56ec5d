// Package modules_test verifies module boundary compliance.
package modules_test

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "github.com/Molly503/paid-media"

// TestModuleBoundaryCompliance verifies that module packages only depend on
// shared infrastructure, never on the packages that assemble and run them.
func TestModuleBoundaryCompliance(t *testing.T) {
	modulePackages := []string{
		"internal/modules/input",
		"internal/modules/filter",
		"internal/modules/output",
		"internal/cleaning",
	}

	forbiddenImports := []string{
		modulePath + "/internal/runtime",
		modulePath + "/internal/factory",
		modulePath + "/internal/registry",
		modulePath + "/internal/config",
		modulePath + "/internal/cli",
		modulePath + "/internal/report",
	}

	for _, pkgPath := range modulePackages {
		t.Run(pkgPath, func(t *testing.T) {
			matches, err := filepath.Glob(filepath.Join("../..", pkgPath, "*.go"))
			if err != nil {
				t.Fatalf("failed to glob package %s: %v", pkgPath, err)
			}
			if len(matches) == 0 {
				t.Fatalf("no Go files found in %s", pkgPath)
			}

			for _, file := range matches {
				// Test files may wire real collaborators.
				if strings.HasSuffix(file, "_test.go") {
					continue
				}

				f, err := parser.ParseFile(token.NewFileSet(), file, nil, parser.ImportsOnly)
				if err != nil {
					t.Fatalf("failed to parse file %s: %v", file, err)
				}

				for _, imp := range f.Imports {
					importPath := strings.Trim(imp.Path.Value, `"`)
					for _, forbidden := range forbiddenImports {
						if importPath == forbidden {
							t.Errorf("BOUNDARY VIOLATION: %s imports forbidden package %s",
								filepath.Base(file), forbidden)
						}
					}
				}
			}
		})
	}
}
