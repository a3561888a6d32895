package typesystem

import (
	"fmt"
	"strings"

	"github.com/funvibe/sigcheck/internal/config"
)

// Type is the closed set of annotations the checker understands. The
// unexported marker keeps the set closed: every switch over Type handles
// TCon, TClass, TNone, TAny, TOptional, TTuple, TApp and TVar.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
	isType()
}

// TCon is a primitive type (int, str, bytes, bool, float, object).
type TCon struct {
	Name string
}

func (TCon) isType()                     {}
func (t TCon) String() string            { return t.Name }
func (t TCon) Apply(Subst) Type          { return t }
func (t TCon) FreeTypeVariables() []TVar { return nil }

var (
	Int    = TCon{Name: config.IntTypeName}
	Str    = TCon{Name: config.StrTypeName}
	Bytes  = TCon{Name: config.BytesTypeName}
	Bool   = TCon{Name: config.BoolTypeName}
	Float  = TCon{Name: config.FloatTypeName}
	Object = TCon{Name: config.ObjectTypeName}
)

// Primitives lists the primitive types by name.
var Primitives = map[string]TCon{
	Int.Name:    Int,
	Str.Name:    Str,
	Bytes.Name:  Bytes,
	Bool.Name:   Bool,
	Float.Name:  Float,
	Object.Name: Object,
}

// TClass is a user-defined (or built-in generic) class, nominal by name.
// Subclassing is resolved through a Resolver.
type TClass struct {
	Name string
}

func (TClass) isType()                     {}
func (t TClass) String() string            { return t.Name }
func (t TClass) Apply(Subst) Type          { return t }
func (t TClass) FreeTypeVariables() []TVar { return nil }

// TNone is the type of the None value.
type TNone struct{}

func (TNone) isType()                     {}
func (TNone) String() string              { return config.NoneTypeName }
func (t TNone) Apply(Subst) Type          { return t }
func (t TNone) FreeTypeVariables() []TVar { return nil }

// TAny is the unknown type. It matches everything in both directions.
type TAny struct{}

func (TAny) isType()                     {}
func (TAny) String() string              { return config.AnyTypeName }
func (t TAny) Apply(Subst) Type          { return t }
func (t TAny) FreeTypeVariables() []TVar { return nil }

// TOptional is Optional[Elem]. Build it with NewOptional to keep it normalized.
type TOptional struct {
	Elem Type
}

func (TOptional) isType() {}

func (t TOptional) String() string {
	return fmt.Sprintf("%s[%s]", config.OptionalTypeName, t.Elem)
}

func (t TOptional) Apply(s Subst) Type {
	return NewOptional(t.Elem.Apply(s))
}

func (t TOptional) FreeTypeVariables() []TVar {
	return t.Elem.FreeTypeVariables()
}

// NewOptional wraps t in Optional, flattening Optional[Optional[T]] and
// collapsing Optional[None] and Optional[Any].
func NewOptional(t Type) Type {
	switch typ := t.(type) {
	case TOptional, TNone, TAny:
		return typ
	default:
		return TOptional{Elem: t}
	}
}

// TTuple is a fixed-length tuple (e.g. Tuple[int, int]).
type TTuple struct {
	Elements []Type
}

func (TTuple) isType() {}

func (t TTuple) String() string {
	if len(t.Elements) == 0 {
		return config.TupleTypeName + "[()]"
	}
	return fmt.Sprintf("%s[%s]", config.TupleTypeName, joinTypes(t.Elements))
}

func (t TTuple) Apply(s Subst) Type {
	return TTuple{Elements: applyAll(t.Elements, s)}
}

func (t TTuple) FreeTypeVariables() []TVar {
	return freeAll(t.Elements)
}

// TApp is a generic class applied to arguments (e.g. list[Photo]).
type TApp struct {
	Constructor TClass
	Args        []Type
}

func (TApp) isType() {}

func (t TApp) String() string {
	return fmt.Sprintf("%s[%s]", t.Constructor.Name, joinTypes(t.Args))
}

func (t TApp) Apply(s Subst) Type {
	return TApp{Constructor: t.Constructor, Args: applyAll(t.Args, s)}
}

func (t TApp) FreeTypeVariables() []TVar {
	return freeAll(t.Args)
}

// ListOf builds list[elem].
func ListOf(elem Type) TApp {
	return TApp{Constructor: TClass{Name: config.ListTypeName}, Args: []Type{elem}}
}

// TVar is a type variable. With Constraints it is bounded: every use in
// one call must resolve to the same member of the set.
type TVar struct {
	Name        string
	Constraints []Type
}

func (TVar) isType()          {}
func (t TVar) String() string { return t.Name }

// Describe renders the variable with its bound set, e.g. "Anystr (str, bytes)".
func (t TVar) Describe() string {
	if len(t.Constraints) == 0 {
		return t.Name
	}
	return fmt.Sprintf("%s (%s)", t.Name, joinTypes(t.Constraints))
}

func (t TVar) Apply(s Subst) Type {
	if replacement, ok := s[t.Name]; ok {
		// Self-reference would never terminate
		if tv, ok := replacement.(TVar); ok && tv.Name == t.Name {
			return t
		}
		return replacement
	}
	return t
}

func (t TVar) FreeTypeVariables() []TVar {
	return []TVar{t}
}

// Equal reports structural equality. Type variables compare by name.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case TCon:
		y, ok := b.(TCon)
		return ok && x.Name == y.Name
	case TClass:
		y, ok := b.(TClass)
		return ok && x.Name == y.Name
	case TNone:
		_, ok := b.(TNone)
		return ok
	case TAny:
		_, ok := b.(TAny)
		return ok
	case TOptional:
		y, ok := b.(TOptional)
		return ok && Equal(x.Elem, y.Elem)
	case TTuple:
		y, ok := b.(TTuple)
		return ok && equalAll(x.Elements, y.Elements)
	case TApp:
		y, ok := b.(TApp)
		return ok && x.Constructor.Name == y.Constructor.Name && equalAll(x.Args, y.Args)
	case TVar:
		y, ok := b.(TVar)
		return ok && x.Name == y.Name
	default:
		return false
	}
}

// ContainsTypeVariables reports whether t mentions any type variable.
func ContainsTypeVariables(t Type) bool {
	return len(t.FreeTypeVariables()) > 0
}

func equalAll(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func applyAll(ts []Type, s Subst) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = t.Apply(s)
	}
	return out
}

func freeAll(ts []Type) []TVar {
	vars := []TVar{}
	for _, t := range ts {
		vars = append(vars, t.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[string]bool{}
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			unique = append(unique, v)
		}
	}
	return unique
}
