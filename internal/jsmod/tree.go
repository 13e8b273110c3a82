// SPDX-License-Identifier: MPL-2.0

package jsmod

import (
	"fmt"
	"slices"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/minipack/minipack/pkg/graph"
	"github.com/minipack/minipack/pkg/module"
)

type (
	// Tree is a parsed module. It implements graph.Sourced.
	Tree struct {
		path string
		src  []byte
		ast  *js.AST

		lowered *string
	}

	// Analyzer implements graph.Analyzer for JavaScript modules.
	Analyzer struct {
		// ScanRequire also reports require("x") calls with a single string
		// literal argument, so CommonJS sources contribute dependencies.
		ScanRequire bool
	}

	// requireScanner collects literal require calls that are not shadowed by
	// a local declaration of require.
	requireScanner struct {
		specs []string
	}
)

var (
	_ graph.Analyzer = (*Analyzer)(nil)
	_ graph.Sourced  = (*Tree)(nil)
)

// NewAnalyzer returns an Analyzer that also scans require calls.
func NewAnalyzer() *Analyzer {
	return &Analyzer{ScanRequire: true}
}

// SourcePath returns the path the tree was parsed from.
func (t *Tree) SourcePath() string { return t.path }

// SourceText returns the unmodified module source.
func (t *Tree) SourceText() []byte { return t.src }

// IsModule reports whether the source uses import or export statements.
func (t *Tree) IsModule() bool {
	for _, stmt := range t.ast.List {
		switch stmt.(type) {
		case *js.ImportStmt, *js.ExportStmt:
			return true
		}
	}
	return false
}

// Parse implements graph.Analyzer. Syntax errors are returned as
// *module.ParseError whose cause carries the line and column.
func (a *Analyzer) Parse(path string, src []byte) (graph.SyntaxTree, error) {
	// The input writes a NUL past the end of its buffer; parse a copy.
	input := parse.NewInputBytes(slices.Clone(src))
	ast, err := js.Parse(input, js.Options{})
	if err != nil {
		return nil, &module.ParseError{Path: path, Cause: err}
	}
	return &Tree{path: path, src: src, ast: ast}, nil
}

// Imports implements graph.Analyzer. Static import and re-export specifiers
// come first in statement order, followed by scanned require calls in
// traversal order. Dynamic import() is not reported.
func (a *Analyzer) Imports(tree graph.SyntaxTree) []string {
	t, ok := tree.(*Tree)
	if !ok {
		return nil
	}

	var specs []string
	for _, stmt := range t.ast.List {
		switch s := stmt.(type) {
		case *js.ImportStmt:
			specs = append(specs, unquote(s.Module))
		case *js.ExportStmt:
			if s.Module != nil {
				specs = append(specs, unquote(s.Module))
			}
		}
	}

	if a.ScanRequire {
		sc := &requireScanner{}
		js.Walk(sc, t.ast)
		specs = append(specs, sc.specs...)
	}
	return specs
}

func (s *requireScanner) Enter(n js.INode) js.IVisitor {
	call, ok := n.(*js.CallExpr)
	if !ok || len(call.Args.List) != 1 || call.Args.List[0].Rest {
		return s
	}
	callee, ok := call.X.(*js.Var)
	if !ok || string(callee.Name()) != "require" || rootVar(callee).Decl != js.NoDecl {
		return s
	}
	if lit, ok := call.Args.List[0].Value.(*js.LiteralExpr); ok && lit.TokenType == js.StringToken {
		s.specs = append(s.specs, unquote(lit.Data))
	}
	return s
}

func (s *requireScanner) Exit(js.INode) {}

func rootVar(v *js.Var) *js.Var {
	for v.Link != nil {
		v = v.Link
	}
	return v
}

func treeOf(tree graph.SyntaxTree) (*Tree, error) {
	t, ok := tree.(*Tree)
	if !ok || t == nil {
		return nil, fmt.Errorf("jsmod: unexpected syntax tree %T", tree)
	}
	return t, nil
}
