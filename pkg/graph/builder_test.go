// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/minipack/minipack/internal/testutil"
	"github.com/minipack/minipack/pkg/module"
)

type (
	// scriptTree is what scriptAnalyzer parses: one dependency per
	// "import <specifier>" line. A line reading "syntax error" fails parsing.
	scriptTree struct {
		path string
		deps []string
	}

	scriptAnalyzer struct {
		parsed []string
	}

	scriptTransformer struct {
		fail string
	}
)

func (a *scriptAnalyzer) Parse(path string, src []byte) (SyntaxTree, error) {
	a.parsed = append(a.parsed, path)
	tree := &scriptTree{path: path}
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "syntax error" {
			return nil, errors.New("unexpected token")
		}
		if spec, ok := strings.CutPrefix(line, "import "); ok {
			tree.deps = append(tree.deps, spec)
		}
	}
	return tree, nil
}

func (a *scriptAnalyzer) Imports(tree SyntaxTree) []string {
	return tree.(*scriptTree).deps
}

func (t scriptTransformer) Lower(tree SyntaxTree) (string, error) {
	st := tree.(*scriptTree)
	if t.fail != "" && filepath.Base(st.path) == t.fail {
		return "", errors.New("cannot lower")
	}
	return "// " + filepath.Base(st.path), nil
}

func build(t *testing.T, root, entry string) ([]*module.Record, *scriptAnalyzer, error) {
	t.Helper()
	an := &scriptAnalyzer{}
	recs, err := NewBuilder(an, scriptTransformer{}).Build(context.Background(), filepath.Join(root, entry))
	return recs, an, err
}

func byBase(recs []*module.Record) map[string]*module.Record {
	out := make(map[string]*module.Record, len(recs))
	for _, r := range recs {
		out[filepath.Base(r.Path)] = r
	}
	return out
}

func TestBuild_SharedDependency(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{
		"a.js": "import ./b.js\nimport ./c.js\n",
		"b.js": "import ./c.js\n",
		"c.js": "",
	})

	recs, an, err := build(t, root, "a.js")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if err := module.Validate(recs); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	m := byBase(recs)
	if m["a.js"].ID != module.EntryID {
		t.Errorf("entry ID = %d, want 0", m["a.js"].ID)
	}
	aToC, _ := m["a.js"].Mapping.Lookup("./c.js")
	bToC, _ := m["b.js"].Mapping.Lookup("./c.js")
	if aToC != bToC || aToC != m["c.js"].ID {
		t.Errorf("c.js ids disagree: a->%d b->%d record %d", aToC, bToC, m["c.js"].ID)
	}
	if _, ok := m["a.js"].Mapping.Lookup("./b.js"); !ok {
		t.Error("a.js mapping lacks ./b.js")
	}
	if len(an.parsed) != 3 {
		t.Errorf("parsed %d times, want each module once: %v", len(an.parsed), an.parsed)
	}
}

func TestBuild_BreadthFirstOrder(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{
		"entry.js":     "import ./x.js\nimport ./y.js\n",
		"x.js":         "import ./deep/z.js\n",
		"y.js":         "",
		"deep/z.js":    "import ../y.js\n",
		"unrelated.js": "",
	})

	recs, _, err := build(t, root, "entry.js")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var got []string
	for i, r := range recs {
		if int(r.ID) != i {
			t.Errorf("records[%d].ID = %d", i, r.ID)
		}
		rel, _ := filepath.Rel(root, r.Path)
		got = append(got, filepath.ToSlash(rel))
	}
	want := []string{"entry.js", "x.js", "y.js", "deep/z.js"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if id, _ := recs[3].Mapping.Lookup("../y.js"); id != 2 {
		t.Errorf("deep/z.js -> ../y.js = %d, want 2", id)
	}
}

func TestBuild_Cycle(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{
		"a.js": "import ./b.js\n",
		"b.js": "import ./a.js\n",
	})

	recs, _, err := build(t, root, "a.js")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if id, _ := recs[1].Mapping.Lookup("./a.js"); id != module.EntryID {
		t.Errorf("b.js -> ./a.js = %d, want 0", id)
	}
}

func TestBuild_SelfImport(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{"a.js": "import ./a.js\n"})

	recs, _, err := build(t, root, "a.js")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
}

func TestBuild_EquivalentSpecifiers(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{
		"a.js":     "import ./lib/b.js\nimport ./lib/../lib/b.js\nimport ./lib/b.js\n",
		"lib/b.js": "",
	})

	recs, _, err := build(t, root, "a.js")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	entry := recs[0]
	if entry.Mapping.Len() != 2 {
		t.Errorf("mapping has %d keys, want 2 distinct specifiers", entry.Mapping.Len())
	}
	if len(entry.Dependencies) != 3 {
		t.Errorf("dependencies = %v, want raw list of 3", entry.Dependencies)
	}
	for _, e := range entry.Mapping.Entries() {
		if e.ID != 1 {
			t.Errorf("%s -> %d, want 1", e.Specifier, e.ID)
		}
	}
}

func TestBuild_MissingDependency(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{"a.js": "import ./missing.js\n"})

	recs, _, err := build(t, root, "a.js")
	if recs != nil {
		t.Errorf("expected no records on failure, got %d", len(recs))
	}
	if !errors.Is(err, module.ErrUnresolvedPath) {
		t.Fatalf("err = %v, want ErrUnresolvedPath", err)
	}
	var upe *module.UnresolvedPathError
	if !errors.As(err, &upe) {
		t.Fatalf("err is %T", err)
	}
	if upe.Specifier != "./missing.js" {
		t.Errorf("Specifier = %q", upe.Specifier)
	}
	if upe.FromPath != filepath.Join(root, "a.js") {
		t.Errorf("FromPath = %q", upe.FromPath)
	}
}

func TestBuild_MissingEntry(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, _, err := build(t, root, "nope.js")
	var upe *module.UnresolvedPathError
	if !errors.As(err, &upe) {
		t.Fatalf("err = %v, want UnresolvedPathError", err)
	}
	if upe.FromPath != "" {
		t.Errorf("entry failure FromPath = %q, want empty", upe.FromPath)
	}
}

func TestBuild_DirectoryDependency(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{
		"a.js":         "import ./lib\n",
		"lib/index.js": "",
	})

	_, _, err := build(t, root, "a.js")
	if !errors.Is(err, ErrIsDirectory) || !errors.Is(err, module.ErrUnresolvedPath) {
		t.Fatalf("err = %v, want unresolved directory", err)
	}
}

func TestBuild_ParseError(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{
		"a.js": "import ./b.js\n",
		"b.js": "syntax error\n",
	})

	_, _, err := build(t, root, "a.js")
	var pe *module.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if pe.Path != filepath.Join(root, "b.js") {
		t.Errorf("Path = %q", pe.Path)
	}
	if !errors.Is(err, module.ErrParse) {
		t.Error("ParseError should match ErrParse")
	}
}

func TestBuild_LowerErrorIsParseError(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{"a.js": ""})

	_, err := NewBuilder(&scriptAnalyzer{}, scriptTransformer{fail: "a.js"}).
		Build(context.Background(), filepath.Join(root, "a.js"))
	if !errors.Is(err, module.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{
		"a.js": "import ./b.js\nimport ./c.js\n",
		"b.js": "import ./c.js\nimport ./a.js\n",
		"c.js": "",
	})

	first, _, err := build(t, root, "a.js")
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := build(t, root, "a.js")
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("record counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Path != second[i].Path {
			t.Errorf("record %d path %q vs %q", i, first[i].Path, second[i].Path)
		}
		if !slices.Equal(first[i].Mapping.Entries(), second[i].Mapping.Entries()) {
			t.Errorf("record %d mapping differs", i)
		}
	}
}

func TestBuild_Canceled(t *testing.T) {
	t.Parallel()

	root := testutil.TempTree(t, map[string]string{"a.js": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(&scriptAnalyzer{}, scriptTransformer{}).Build(ctx, filepath.Join(root, "a.js"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestBuild_CustomReader(t *testing.T) {
	t.Parallel()

	files := memReader{
		"/virtual/a.js": "import ./b.js\n",
		"/virtual/b.js": "",
	}
	recs, err := NewBuilder(&scriptAnalyzer{}, scriptTransformer{}, WithReader(files)).
		Build(context.Background(), "/virtual/a.js")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(recs) != 2 || recs[1].Code != "// b.js" {
		t.Errorf("unexpected records: %v", recs)
	}
}

type memReader map[string]string

func (m memReader) ReadFile(path string) ([]byte, error) {
	src, ok := m[filepath.ToSlash(path)]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(src), nil
}
