// SPDX-License-Identifier: MPL-2.0

package jsmod

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/js"

	"github.com/minipack/minipack/pkg/graph"
)

const defaultLocal = "__mp_default"

type (
	// Lowerer implements graph.Transformer by rewriting ES module syntax into
	// CommonJS. It is stateless.
	Lowerer struct{}

	// export is one getter installed on exports.
	export struct {
		name string
		expr string
	}

	// lowering holds the state of lowering one tree.
	lowering struct {
		tree *Tree

		requests int
		// locals maps import bindings to the expression that reads them.
		locals map[string]string
		// calls are the bindings whose calls must not pass their module as this.
		calls   map[string]bool
		head    []string
		exports []export
		seen    map[string]bool
	}

	// rewriter patches the AST after import bindings have been renamed.
	rewriter struct {
		renamed map[*js.Var]bool
		calls   map[*js.Var]bool
	}
)

var _ graph.Transformer = Lowerer{}

// Lower implements graph.Transformer. Lowering a tree twice returns the first
// result; the tree's AST is modified in place.
func (Lowerer) Lower(tree graph.SyntaxTree) (string, error) {
	t, err := treeOf(tree)
	if err != nil {
		return "", err
	}
	if t.lowered != nil {
		return *t.lowered, nil
	}

	code := string(t.src)
	if t.IsModule() {
		l := &lowering{
			tree:   t,
			locals: make(map[string]string),
			calls:  make(map[string]bool),
			seen:   make(map[string]bool),
		}
		if code, err = l.run(); err != nil {
			return "", err
		}
	}
	t.lowered = &code
	return code, nil
}

func (l *lowering) run() (string, error) {
	stmts := l.tree.ast.List

	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *js.ImportStmt:
			l.importStmt(s)
		case *js.ExportStmt:
			if s.Module != nil {
				l.reexportStmt(s)
			}
		}
	}
	l.rename()

	var body bytes.Buffer
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *js.ImportStmt:
			continue
		case *js.ExportStmt:
			if s.Module != nil {
				continue
			}
			if err := l.exportStmt(&body, s); err != nil {
				return "", err
			}
		default:
			writeStmt(&body, stmt)
		}
	}

	var out strings.Builder
	out.WriteString("\"use strict\";\n")
	out.WriteString("Object.defineProperty(exports, \"__esModule\", { value: true });\n")
	if len(l.exports) > 0 {
		out.WriteString("Object.defineProperties(exports, {\n")
		for i, e := range l.exports {
			fmt.Fprintf(&out, "  %s: { enumerable: true, get: function () { return %s; } }", quote(e.name), e.expr)
			if i < len(l.exports)-1 {
				out.WriteByte(',')
			}
			out.WriteByte('\n')
		}
		out.WriteString("});\n")
	}
	for _, line := range l.head {
		out.WriteString(line)
		out.WriteByte('\n')
	}
	out.Write(body.Bytes())
	return out.String(), nil
}

// request emits the require call for specifier and returns the variable
// holding the module exports.
func (l *lowering) request(specifier []byte, name string) (local string, index int) {
	index = l.requests
	l.requests++
	if name == "" {
		name = fmt.Sprintf("__mp%d", index)
	}
	l.head = append(l.head, fmt.Sprintf("var %s = require(%s);", name, quote(unquote(specifier))))
	return name, index
}

// defaultOf emits the interop wrapper that exposes module.exports of a
// CommonJS module as its default export.
func (l *lowering) defaultOf(local string, index int) string {
	wrapped := fmt.Sprintf("__mp%d_default", index)
	l.head = append(l.head, fmt.Sprintf("var %s = %s && %s.__esModule ? %s : { default: %s };",
		wrapped, local, local, local, local))
	return wrapped + ".default"
}

func (l *lowering) importStmt(s *js.ImportStmt) {
	if s.Default == nil && len(s.List) == 0 {
		l.head = append(l.head, fmt.Sprintf("require(%s);", quote(unquote(s.Module))))
		return
	}

	var ns string
	for _, alias := range s.List {
		if string(alias.Name) == "*" {
			ns = string(alias.Binding)
		}
	}
	local, index := l.request(s.Module, ns)

	var def string
	readDefault := func() string {
		if def == "" {
			def = l.defaultOf(local, index)
		}
		return def
	}

	if s.Default != nil {
		l.bind(string(s.Default), readDefault())
	}
	for _, alias := range s.List {
		if alias.Binding == nil || string(alias.Name) == "*" {
			continue
		}
		imported := unquote(alias.Binding)
		if alias.Name != nil {
			imported = unquote(alias.Name)
		}
		if imported == "default" {
			l.bind(string(alias.Binding), readDefault())
			continue
		}
		l.bind(string(alias.Binding), member(local, imported))
	}
}

func (l *lowering) bind(name, expr string) {
	l.locals[name] = expr
	l.calls[name] = true
}

func (l *lowering) reexportStmt(s *js.ExportStmt) {
	local, index := l.request(s.Module, "")

	if len(s.List) == 1 && s.List[0].Name == nil && string(s.List[0].Binding) == "*" {
		l.head = append(l.head, fmt.Sprintf(starExport, local, local))
		return
	}

	var def string
	for _, alias := range s.List {
		if alias.Binding == nil {
			continue
		}
		exported := unquote(alias.Binding)
		switch name := unquote(alias.Name); {
		case string(alias.Name) == "*":
			l.export(exported, local)
		case alias.Name == nil && exported == "default", name == "default":
			if def == "" {
				def = l.defaultOf(local, index)
			}
			l.export(exported, def)
		case alias.Name == nil:
			l.export(exported, member(local, exported))
		default:
			l.export(exported, member(local, name))
		}
	}
}

// starExport copies every export except default of the required module.
// Names exported locally take precedence.
const starExport = `Object.keys(%s).forEach(function (k) {
  if (k === "default" || k === "__esModule" || Object.prototype.hasOwnProperty.call(exports, k)) return;
  var m = %s;
  Object.defineProperty(exports, k, { enumerable: true, get: function () { return m[k]; } });
});`

func (l *lowering) export(name, expr string) {
	if l.seen[name] {
		return
	}
	l.seen[name] = true
	l.exports = append(l.exports, export{name: name, expr: expr})
}

// localExpr returns the expression reading a module-level binding, which is
// the binding itself unless it was imported.
func (l *lowering) localExpr(name string) string {
	if expr, ok := l.locals[name]; ok {
		return expr
	}
	return name
}

func (l *lowering) exportStmt(w *bytes.Buffer, s *js.ExportStmt) error {
	if s.Decl == nil {
		for _, alias := range s.List {
			if alias.Binding == nil {
				continue
			}
			local := string(alias.Binding)
			if alias.Name != nil {
				local = string(alias.Name)
			}
			l.export(unquote(alias.Binding), l.localExpr(local))
		}
		return nil
	}

	if s.Default {
		return l.exportDefault(w, s.Decl)
	}

	switch decl := s.Decl.(type) {
	case *js.VarDecl:
		for _, name := range boundNames(decl) {
			l.export(name, name)
		}
		writeStmt(w, decl)
	case *js.FuncDecl:
		l.export(string(decl.Name.Data), string(decl.Name.Data))
		writeStmt(w, decl)
	case *js.ClassDecl:
		l.export(string(decl.Name.Data), string(decl.Name.Data))
		writeStmt(w, decl)
	default:
		return fmt.Errorf("%s: unsupported export declaration %T", l.tree.path, s.Decl)
	}
	return nil
}

func (l *lowering) exportDefault(w *bytes.Buffer, decl js.IExpr) error {
	switch d := decl.(type) {
	case *js.FuncDecl:
		if d.Name == nil {
			d.Name = &js.Var{Data: []byte(defaultLocal), Decl: js.FunctionDecl}
		}
		l.export("default", string(d.Name.Data))
		writeStmt(w, d)
	case *js.ClassDecl:
		if d.Name != nil {
			l.export("default", string(d.Name.Data))
			writeStmt(w, d)
			return nil
		}
		l.export("default", defaultLocal)
		writeDefault(w, d)
	default:
		l.export("default", defaultLocal)
		writeDefault(w, d)
	}
	return nil
}

func writeDefault(w *bytes.Buffer, expr js.IExpr) {
	w.WriteString("var " + defaultLocal + " = ")
	expr.JS(w)
	w.WriteString(";\n")
}

func writeStmt(w *bytes.Buffer, stmt js.INode) {
	stmt.JS(w)
	if _, ok := stmt.(*js.VarDecl); ok {
		w.WriteByte(';')
	}
	w.WriteByte('\n')
}

// rename points every use of an import binding at the expression that reads
// it from the required module, then patches the spots where the new text
// would change meaning.
func (l *lowering) rename() {
	if len(l.locals) == 0 {
		return
	}
	rw := &rewriter{renamed: make(map[*js.Var]bool), calls: make(map[*js.Var]bool)}
	for _, v := range l.tree.ast.Undeclared {
		if v.Link != nil || v.Decl != js.NoDecl {
			continue
		}
		name := string(v.Data)
		expr, ok := l.locals[name]
		if !ok || expr == name {
			continue
		}
		v.Data = []byte(expr)
		rw.renamed[v] = true
		if l.calls[name] {
			rw.calls[v] = true
		}
	}
	if len(rw.renamed) > 0 {
		js.Walk(rw, l.tree.ast)
	}
}

func (rw *rewriter) Enter(n js.INode) js.IVisitor {
	switch n := n.(type) {
	case *js.Property:
		// {a} would print as {__mp0.a}; spell out the key.
		v, ok := n.Value.(*js.Var)
		if ok && n.Name != nil && !n.Name.IsComputed() && rw.renamed[rootVar(v)] &&
			n.Name.Literal.TokenType == js.IdentifierToken {
			key := quote(string(n.Name.Literal.Data))
			n.Name.Literal = js.LiteralExpr{TokenType: js.StringToken, Data: []byte(key)}
		}
	case *js.CallExpr:
		// Calling an imported function must not bind this to the module.
		if v, ok := n.X.(*js.Var); ok && rw.calls[rootVar(v)] {
			zero := &js.LiteralExpr{TokenType: js.DecimalToken, Data: []byte("0")}
			n.X = &js.GroupExpr{X: &js.CommaExpr{List: []js.IExpr{zero, v}}}
		}
	}
	return rw
}

func (rw *rewriter) Exit(js.INode) {}

// boundNames lists the identifiers declared by decl, including those inside
// destructuring patterns.
func boundNames(decl *js.VarDecl) []string {
	var names []string
	var visit func(b js.IBinding)
	visit = func(b js.IBinding) {
		switch b := b.(type) {
		case *js.Var:
			names = append(names, string(b.Data))
		case *js.BindingArray:
			for _, item := range b.List {
				visit(item.Binding)
			}
			visit(b.Rest)
		case *js.BindingObject:
			for _, item := range b.List {
				visit(item.Value.Binding)
			}
			if b.Rest != nil {
				visit(b.Rest)
			}
		}
	}
	for _, item := range decl.List {
		visit(item.Binding)
	}
	return names
}
