// Package testutil provides assertion helpers that keep package boundaries
// honest in tests: which imports a package may take directly, and which
// dependencies may appear anywhere in its transitive closure.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// DomainImportForbidden matches any import path pointing at the domain
// package. Domain-agnostic layers, such as the blob stores, use it to prove
// they stay generic.
func DomainImportForbidden(path string) bool {
	return strings.HasSuffix(path, "/pkg/domain") || strings.Contains(path, "/pkg/domain@")
}

// InternalImportForbidden matches any path under an internal tree.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

// PersistenceImportForbidden matches the persistence driver packages. The
// HTTP adapters use it to prove all storage access goes through the service.
func PersistenceImportForbidden(path string) bool {
	return strings.Contains(path, "rollcore/internal/infra/persistence")
}

// AssertNoDirectImports parses every non-test .go file in dir (typically "."
// from within the package under test) and fails when an import path satisfies
// the forbidden predicate. Build tags are not evaluated.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(path string) bool, reason string) {
	t.Helper()
	violations, err := directImports(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failOnViolations(t, "direct imports", reason, violations)
}

// AssertNoTransitiveDependency runs `go list -deps` for pattern (e.g. "." or
// "./...") and fails when any package in the closure satisfies the forbidden
// predicate.
func AssertNoTransitiveDependency(t testing.TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	out, err := listDeps(pattern)
	if err != nil {
		t.Fatalf("go list failed: %v\n%s", err, string(out))
	}
	var violations []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && forbidden(line) {
			violations = append(violations, line)
		}
	}
	failOnViolations(t, "transitive dependency", reason, violations)
}

// listDeps is a variable so tests can exercise failure handling without
// shelling out.
var listDeps = func(pattern string) ([]byte, error) {
	return exec.Command("go", "list", "-deps", pattern).CombinedOutput()
}

func directImports(dir string, forbidden func(path string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var violations []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		parsed, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range parsed.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			if forbidden(path) {
				violations = append(violations, path+" (in "+name+")")
			}
		}
	}
	return violations, nil
}

type failer interface {
	Fatalf(format string, args ...any)
}

func failOnViolations(t failer, kind, reason string, violations []string) {
	if len(violations) > 0 {
		t.Fatalf("forbidden %s (%s):\n%s", kind, reason, strings.Join(violations, "\n"))
	}
}
