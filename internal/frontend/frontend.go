package frontend

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/funvibe/sigcheck/internal/analyzer"
	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/symbols"
	"github.com/funvibe/sigcheck/internal/token"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// Unit is everything extracted from one Python file.
type Unit struct {
	SymbolTable *symbols.SymbolTable
	Program     *ast.Program
	Errors      []*diagnostics.DiagnosticError // Syntax and annotation problems
}

// Frontend turns annotated Python source into definitions and call sites.
type Frontend struct {
	policy config.Policy
}

func New(policy config.Policy) *Frontend {
	return &Frontend{policy: policy}
}

// Extract parses src in two passes. The first collects imports, classes,
// type variables and function signatures from the top level; the second
// walks module-level statements in order and records every call. Problems
// in the source are returned as diagnostics; the error is reserved for the
// parser itself failing.
func (f *Frontend) Extract(ctx context.Context, file string, src []byte) (*Unit, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	root := tree.RootNode()

	x := &extraction{
		file:    file,
		src:     src,
		st:      symbols.NewSymbolTable(),
		program: &ast.Program{File: file},
	}
	x.assigner = typesystem.NewAssigner(f.policy, x.st)
	x.syntaxErrors(root)
	x.collectDefinitions(root)
	x.analyzer = analyzer.New(x.st, f.policy)
	x.walkStatements(root)
	if err := x.collectExpectations(root); err != nil {
		return nil, err
	}

	return &Unit{SymbolTable: x.st, Program: x.program, Errors: x.errs}, nil
}

// extraction is the state of one Extract call.
type extraction struct {
	file     string
	src      []byte
	st       *symbols.SymbolTable
	program  *ast.Program
	assigner typesystem.Assigner
	analyzer *analyzer.Analyzer
	errs     []*diagnostics.DiagnosticError
}

func (x *extraction) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(x.src)
}

func (x *extraction) tokenOf(n *sitter.Node) token.Token {
	p := n.StartPoint()
	return token.Token{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Lexeme: x.text(n)}
}

func (x *extraction) report(code diagnostics.ErrorCode, n *sitter.Node, format string, args ...interface{}) {
	err := diagnostics.NewErrorf(code, x.tokenOf(n), format, args...)
	err.File = x.file
	x.errs = append(x.errs, err)
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, n.NamedChild(i))
	}
	return children
}

// syntaxErrors reports every ERROR and MISSING node. Parsing recovers
// from them, so the rest of the file is still extracted.
func (x *extraction) syntaxErrors(n *sitter.Node) {
	if !n.HasError() && !n.IsMissing() {
		return
	}
	switch {
	case n.Type() == "ERROR":
		x.report(diagnostics.ErrP001, n, "invalid syntax")
		return
	case n.IsMissing():
		x.report(diagnostics.ErrP001, n, "invalid syntax: missing %q", n.Type())
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		x.syntaxErrors(n.Child(i))
	}
}
