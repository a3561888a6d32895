package symbols

import (
	"github.com/funvibe/sigcheck/internal/typesystem"
)

// SymbolTable holds every definition of one checked unit. It is filled
// once at load time and only read afterwards.
type SymbolTable struct {
	functions map[string]*FunctionSignature
	classes   map[string]*ClassDefinition
	typeVars  map[string]typesystem.TVar
	variables map[string]typesystem.Type
	builtins  map[string]bool
}

func NewEmptySymbolTable() *SymbolTable {
	return &SymbolTable{
		functions: make(map[string]*FunctionSignature),
		classes:   make(map[string]*ClassDefinition),
		typeVars:  make(map[string]typesystem.TVar),
		variables: make(map[string]typesystem.Type),
		builtins:  make(map[string]bool),
	}
}

// NewSymbolTable returns a table with the builtins registered.
func NewSymbolTable() *SymbolTable {
	st := NewEmptySymbolTable()
	st.InitBuiltins()
	return st
}

// Later definitions shadow earlier ones, as rebinding a name does in
// Python. A name lives in exactly one namespace at a time.

func (s *SymbolTable) DefineFunction(f *FunctionSignature) {
	s.forget(f.Name)
	s.functions[f.Name] = f
}

func (s *SymbolTable) DefineClass(c *ClassDefinition) {
	s.forget(c.Name)
	s.classes[c.Name] = c
}

func (s *SymbolTable) DefineTypeVar(tv typesystem.TVar) {
	s.forget(tv.Name)
	s.typeVars[tv.Name] = tv
}

func (s *SymbolTable) DefineVariable(name string, t typesystem.Type) {
	s.forget(name)
	s.variables[name] = t
}

func (s *SymbolTable) forget(name string) {
	delete(s.functions, name)
	delete(s.classes, name)
	delete(s.typeVars, name)
	delete(s.variables, name)
	delete(s.builtins, name)
}

func (s *SymbolTable) LookupFunction(name string) (*FunctionSignature, bool) {
	f, ok := s.functions[name]
	return f, ok
}

func (s *SymbolTable) LookupClass(name string) (*ClassDefinition, bool) {
	c, ok := s.classes[name]
	return c, ok
}

func (s *SymbolTable) LookupTypeVar(name string) (typesystem.TVar, bool) {
	tv, ok := s.typeVars[name]
	return tv, ok
}

func (s *SymbolTable) LookupVariable(name string) (typesystem.Type, bool) {
	t, ok := s.variables[name]
	return t, ok
}

// Kind reports which namespace currently binds name.
func (s *SymbolTable) Kind(name string) SymbolKind {
	switch {
	case s.functions[name] != nil:
		return FunctionSymbol
	case s.classes[name] != nil:
		return ClassSymbol
	case s.typeVars[name].Name != "":
		return TypeVarSymbol
	case s.variables[name] != nil:
		return VariableSymbol
	default:
		return UnknownSymbol
	}
}

// IsBuiltin reports whether name still refers to a prelude definition.
func (s *SymbolTable) IsBuiltin(name string) bool {
	return s.builtins[name]
}

// ResolveTypeName implements typesystem.NameResolver.
func (s *SymbolTable) ResolveTypeName(name string) (typesystem.Type, bool) {
	if tv, ok := s.LookupTypeVar(name); ok {
		return tv, true
	}
	if _, ok := s.classes[name]; ok {
		return typesystem.TClass{Name: name}, true
	}
	return nil, false
}

// BaseClass implements typesystem.Resolver.
func (s *SymbolTable) BaseClass(name string) (string, bool) {
	c, ok := s.classes[name]
	if !ok || c.Base == "" {
		return "", false
	}
	return c.Base, true
}

// FindMethod looks a method up on the class and then its bases.
func (s *SymbolTable) FindMethod(className, method string) (*FunctionSignature, *ClassDefinition, bool) {
	for _, c := range s.lineage(className) {
		if m, ok := c.Method(method); ok {
			return m, c, true
		}
	}
	return nil, nil, false
}

// FindAttribute looks a typed instance attribute up on the class and then
// its bases.
func (s *SymbolTable) FindAttribute(className, attr string) (typesystem.Type, bool) {
	for _, c := range s.lineage(className) {
		if t, ok := c.Attributes[attr]; ok {
			return t, true
		}
	}
	return nil, false
}

// Constructor returns the signature of calling the class: the nearest
// __init__ up the hierarchy without self, returning an instance. A class
// with no __init__ anywhere takes no arguments.
func (s *SymbolTable) Constructor(className string) (*FunctionSignature, bool) {
	cls, ok := s.classes[className]
	if !ok {
		return nil, false
	}
	var params []Param
	for _, c := range s.lineage(className) {
		if c.HasInit {
			params = c.Init
			break
		}
	}
	ctor := NewFunction(cls.Name, params, cls.InstanceType())
	ctor.Token = cls.Token
	return ctor, true
}

// lineage returns the class followed by its known bases, stopping on cycles.
func (s *SymbolTable) lineage(className string) []*ClassDefinition {
	var chain []*ClassDefinition
	seen := map[string]bool{}
	for name := className; name != "" && !seen[name]; {
		seen[name] = true
		c, ok := s.classes[name]
		if !ok {
			break
		}
		chain = append(chain, c)
		name = c.Base
	}
	return chain
}
