package loader

import (
	"errors"
	"fmt"
	"sort"

	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/symbols"
	"github.com/funvibe/sigcheck/internal/token"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// Build resolves a validated manifest into a symbol table and the call
// sites to check. Type strings that do not resolve are reported as
// manifest diagnostics and treated as Any, so one bad entry does not hide
// the rest.
func Build(m *Manifest, file string) (*symbols.SymbolTable, *ast.Program, []*diagnostics.DiagnosticError) {
	b := &builder{file: file, st: symbols.NewSymbolTable()}

	for _, c := range m.Classes {
		cls := symbols.NewClass(c.Name)
		cls.Token = b.token(c.Position, c.Name)
		b.st.DefineClass(cls)
	}
	for _, tv := range m.TypeVars {
		v := typesystem.TVar{Name: tv.Name}
		for _, c := range tv.Constraints {
			v.Constraints = append(v.Constraints, b.resolve(tv.Position, c))
		}
		b.st.DefineTypeVar(v)
	}
	for _, c := range m.Classes {
		b.defineClass(c)
	}
	for _, f := range m.Functions {
		b.st.DefineFunction(b.function(f))
	}

	program := &ast.Program{File: file}
	for _, c := range m.Calls {
		site := b.call(c)
		program.Calls = append(program.Calls, site)
		if c.Expect != "" {
			program.Expectations = append(program.Expectations, ast.Expectation{
				Line:    c.Line,
				EndLine: c.EndLine,
				Message: c.Expect,
				Token:   site.Token,
			})
		}
	}
	return b.st, program, b.errs
}

type builder struct {
	file string
	st   *symbols.SymbolTable
	errs []*diagnostics.DiagnosticError
}

func (b *builder) token(pos Position, lexeme string) token.Token {
	return token.Token{Line: pos.Line, Column: pos.Column, Lexeme: lexeme}
}

// resolve parses a type string, degrading to Any on failure.
func (b *builder) resolve(pos Position, text string) typesystem.Type {
	t, err := typesystem.ParseAnnotation(text, b.st)
	if err == nil {
		return t
	}
	var notFound *typesystem.SymbolNotFoundError
	msg := err.Error()
	if errors.As(err, &notFound) {
		msg = fmt.Sprintf("Name %q is not defined", notFound.Name)
	}
	diag := diagnostics.NewErrorf(diagnostics.ErrL001, b.token(pos, text), "invalid type %q: %s", text, msg)
	diag.File = b.file
	b.errs = append(b.errs, diag)
	return typesystem.TAny{}
}

func (b *builder) params(pos Position, specs []ParamSpec) []symbols.Param {
	params := make([]symbols.Param, 0, len(specs))
	for _, p := range specs {
		params = append(params, symbols.Param{
			Name:       p.Name,
			Type:       b.resolve(pos, p.Type),
			HasDefault: p.Default,
			Variadic:   p.Variadic,
		})
	}
	return params
}

func (b *builder) function(f FunctionSpec) *symbols.FunctionSignature {
	params := b.params(f.Position, f.Params)
	var ret typesystem.Type = typesystem.TNone{}
	if f.Returns != "" {
		ret = b.resolve(f.Position, f.Returns)
	}
	sig := symbols.NewFunction(f.Name, params, ret)
	sig.Token = b.token(f.Position, f.Name)
	return sig
}

func (b *builder) defineClass(c ClassSpec) {
	cls, _ := b.st.LookupClass(c.Name)
	if c.Base != config.ObjectTypeName {
		cls.Base = c.Base
	}
	if c.Base != "" && c.Base != config.ObjectTypeName {
		if _, ok := b.st.LookupClass(c.Base); !ok {
			diag := diagnostics.NewErrorf(diagnostics.ErrL001, b.token(c.Position, c.Name), "base class %q of %q is not declared", c.Base, c.Name)
			diag.File = b.file
			b.errs = append(b.errs, diag)
		}
	}
	if c.Init != nil {
		cls.Init = b.params(c.Position, *c.Init)
		cls.HasInit = true
	}
	names := make([]string, 0, len(c.Attributes))
	for name := range c.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cls.Attributes[name] = b.resolve(c.Position, c.Attributes[name])
	}
	for _, m := range c.Methods {
		cls.AddMethod(b.function(m))
	}
}

func (b *builder) call(c CallSpec) *ast.CallSite {
	site := &ast.CallSite{
		Callee: c.Callee,
		Method: c.Method,
		File:   b.file,
		Token:  b.token(c.Position, c.Callee+c.Method),
	}
	if c.Method != "" {
		site.Receiver = b.resolve(c.Position, c.Receiver)
	}
	for _, a := range c.Args {
		site.Args = append(site.Args, ast.Arg{
			Type:  b.resolve(a.Position, a.Type),
			Token: b.token(a.Position, a.Type),
			Text:  a.Type,
		})
	}
	return site
}
