package symbols

import (
	"fmt"
	"strings"

	"github.com/funvibe/sigcheck/internal/token"
	"github.com/funvibe/sigcheck/internal/typesystem"
)

type SymbolKind int

const (
	UnknownSymbol SymbolKind = iota
	FunctionSymbol
	ClassSymbol
	TypeVarSymbol
	VariableSymbol
)

func (k SymbolKind) String() string {
	switch k {
	case FunctionSymbol:
		return "function"
	case ClassSymbol:
		return "class"
	case TypeVarSymbol:
		return "type variable"
	case VariableSymbol:
		return "variable"
	default:
		return "unknown"
	}
}

// Param is one declared parameter.
type Param struct {
	Name       string
	Type       typesystem.Type
	HasDefault bool // Optional at call sites
	Variadic   bool // *args: absorbs all remaining arguments
}

func (p Param) String() string {
	s := p.Name + ": " + p.Type.String()
	if p.Variadic {
		s = "*" + s
	}
	if p.HasDefault {
		s += " = ..."
	}
	return s
}

// FunctionSignature is a declared function, method or constructor.
// It is never mutated after definition.
type FunctionSignature struct {
	Name   string
	Params []Param
	Return typesystem.Type
	Owner  string      // Class name for methods; empty for functions and constructors
	Token  token.Token // Definition site
}

// NewFunction copies params so later changes to the caller's slice do not
// leak into the signature.
func NewFunction(name string, params []Param, ret typesystem.Type) *FunctionSignature {
	if ret == nil {
		ret = typesystem.TNone{}
	}
	return &FunctionSignature{
		Name:   name,
		Params: append([]Param(nil), params...),
		Return: ret,
	}
}

// Required returns the number of parameters a call must supply.
func (f *FunctionSignature) Required() int {
	n := 0
	for _, p := range f.Params {
		if !p.HasDefault && !p.Variadic {
			n++
		}
	}
	return n
}

// IsVariadic reports whether the last parameter is *args.
func (f *FunctionSignature) IsVariadic() bool {
	return len(f.Params) > 0 && f.Params[len(f.Params)-1].Variadic
}

// DisplayName renders the callee the way diagnostics quote it:
// "square", or "append" of "list" for methods.
func (f *FunctionSignature) DisplayName() string {
	if f.Owner != "" {
		return fmt.Sprintf("%q of %q", f.Name, f.Owner)
	}
	return fmt.Sprintf("%q", f.Name)
}

func (f *FunctionSignature) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("def %s(%s) -> %s", f.Name, strings.Join(params, ", "), f.Return)
}

// Apply substitutes type variables throughout the signature, returning a
// new signature.
func (f *FunctionSignature) Apply(s typesystem.Subst) *FunctionSignature {
	params := make([]Param, len(f.Params))
	for i, p := range f.Params {
		p.Type = p.Type.Apply(s)
		params[i] = p
	}
	return &FunctionSignature{
		Name:   f.Name,
		Params: params,
		Return: f.Return.Apply(s),
		Owner:  f.Owner,
		Token:  f.Token,
	}
}

// ClassDefinition is a declared class. Init holds the constructor
// parameters without self.
type ClassDefinition struct {
	Name       string
	Base       string            // Direct base class; empty for object
	TypeParams []typesystem.TVar // Generic builtins only (list[T])
	Init       []Param
	HasInit    bool
	Methods    []*FunctionSignature
	Attributes map[string]typesystem.Type
	Token      token.Token
}

func NewClass(name string) *ClassDefinition {
	return &ClassDefinition{
		Name:       name,
		Attributes: make(map[string]typesystem.Type),
	}
}

// Method finds a method declared directly on this class.
func (c *ClassDefinition) Method(name string) (*FunctionSignature, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// AddMethod registers a method, replacing an earlier one with the same name.
func (c *ClassDefinition) AddMethod(m *FunctionSignature) {
	m.Owner = c.Name
	for i, existing := range c.Methods {
		if existing.Name == m.Name {
			c.Methods[i] = m
			return
		}
	}
	c.Methods = append(c.Methods, m)
}

// InstanceType is the type of an instance: the class itself, or the
// class applied to its own type parameters for generics.
func (c *ClassDefinition) InstanceType() typesystem.Type {
	cls := typesystem.TClass{Name: c.Name}
	if len(c.TypeParams) == 0 {
		return cls
	}
	args := make([]typesystem.Type, len(c.TypeParams))
	for i, tp := range c.TypeParams {
		args[i] = tp
	}
	return typesystem.TApp{Constructor: cls, Args: args}
}
