// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lithammer/dedent"
)

// WriteTree writes files under root. Keys are slash-separated paths relative
// to root; values are dedented and stripped of a single leading newline so
// fixtures can be written as indented raw strings.
// It returns root with symlinks evaluated, matching what the resolver yields.
func WriteTree(t testing.TB, root string, files map[string]string) string {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		body := strings.TrimPrefix(dedent.Dedent(content), "\n")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	real, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("failed to evaluate %s: %v", root, err)
	}
	return real
}

// TempTree is WriteTree into a fresh t.TempDir().
func TempTree(t testing.TB, files map[string]string) string {
	t.Helper()
	return WriteTree(t, t.TempDir(), files)
}

// ReadFile returns the content of path as a string.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
