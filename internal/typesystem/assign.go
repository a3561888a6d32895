package typesystem

import (
	"github.com/funvibe/sigcheck/internal/config"
)

// Resolver lets assignability look up class hierarchy information
// (e.g. from the SymbolTable).
type Resolver interface {
	// BaseClass returns the direct base of a class, if it has one.
	BaseClass(name string) (string, bool)
}

// Assigner decides assignability under an explicit policy.
type Assigner struct {
	Policy   config.Policy
	Resolver Resolver // may be nil: no user subclassing
}

func NewAssigner(policy config.Policy, resolver Resolver) Assigner {
	return Assigner{Policy: policy, Resolver: resolver}
}

// Assignable reports whether a value of type actual may be used where
// expected is declared. Neither side may be a type variable with pending
// uses; callers bind variables through Match first.
func (a Assigner) Assignable(expected, actual Type) bool {
	if _, ok := actual.(TAny); ok {
		return true
	}
	if _, ok := actual.(TVar); ok {
		// An unresolved variable carries no information yet
		return true
	}

	switch e := expected.(type) {
	case TAny:
		return true
	case TCon:
		if e.Name == config.ObjectTypeName {
			return true
		}
		act, ok := actual.(TCon)
		if !ok {
			return false
		}
		return a.primitiveAssignable(e.Name, act.Name)
	case TClass:
		act, ok := actual.(TClass)
		return ok && a.IsSubclass(act.Name, e.Name)
	case TNone:
		_, ok := actual.(TNone)
		return ok
	case TOptional:
		switch act := actual.(type) {
		case TNone:
			return true
		case TOptional:
			return a.Assignable(e.Elem, act.Elem)
		default:
			return a.Assignable(e.Elem, actual)
		}
	case TTuple:
		act, ok := actual.(TTuple)
		if !ok || len(act.Elements) != len(e.Elements) {
			return false
		}
		for i := range e.Elements {
			if !a.Assignable(e.Elements[i], act.Elements[i]) {
				return false
			}
		}
		return true
	case TApp:
		act, ok := actual.(TApp)
		if !ok || !a.IsSubclass(act.Constructor.Name, e.Constructor.Name) || len(act.Args) != len(e.Args) {
			return false
		}
		// Invariant: list[bool] is not a list[int]
		for i := range e.Args {
			if !a.sameType(e.Args[i], act.Args[i]) {
				return false
			}
		}
		return true
	case TVar:
		if len(e.Constraints) == 0 {
			return true
		}
		for _, c := range e.Constraints {
			if a.Assignable(c, actual) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (a Assigner) primitiveAssignable(expected, actual string) bool {
	if expected == actual {
		return true
	}
	switch expected {
	case config.IntTypeName:
		return a.Policy.BoolIsInt && actual == config.BoolTypeName
	case config.FloatTypeName:
		if !a.Policy.IntIsFloat {
			return false
		}
		return actual == config.IntTypeName || (a.Policy.BoolIsInt && actual == config.BoolTypeName)
	}
	return false
}

// sameType is equality that lets Any stand in for anything.
func (a Assigner) sameType(x, y Type) bool {
	return a.Assignable(x, y) && a.Assignable(y, x)
}

// IsSubclass reports whether class sub equals or derives from super.
func (a Assigner) IsSubclass(sub, super string) bool {
	seen := map[string]bool{}
	for name := sub; ; {
		if name == super {
			return true
		}
		if seen[name] || a.Resolver == nil {
			return false
		}
		seen[name] = true
		base, ok := a.Resolver.BaseClass(name)
		if !ok {
			return false
		}
		name = base
	}
}

// Join returns the least common type of x and y: one of them when it
// accepts the other, a shared base class, Optional when one side is None,
// and object otherwise.
func (a Assigner) Join(x, y Type) Type {
	if _, ok := x.(TAny); ok {
		return x
	}
	if _, ok := y.(TAny); ok {
		return y
	}
	if a.Assignable(x, y) {
		return x
	}
	if a.Assignable(y, x) {
		return y
	}
	if _, ok := x.(TNone); ok {
		return NewOptional(y)
	}
	if _, ok := y.(TNone); ok {
		return NewOptional(x)
	}
	if cx, ok := x.(TClass); ok {
		if cy, ok := y.(TClass); ok {
			for _, anc := range a.ancestors(cx.Name) {
				if a.IsSubclass(cy.Name, anc) {
					return TClass{Name: anc}
				}
			}
		}
	}
	return Object
}

// JoinAll folds Join over ts; an empty list joins to Any.
func (a Assigner) JoinAll(ts []Type) Type {
	if len(ts) == 0 {
		return TAny{}
	}
	acc := ts[0]
	for _, t := range ts[1:] {
		acc = a.Join(acc, t)
	}
	return acc
}

func (a Assigner) ancestors(name string) []string {
	chain := []string{name}
	seen := map[string]bool{name: true}
	for a.Resolver != nil {
		base, ok := a.Resolver.BaseClass(name)
		if !ok || seen[base] {
			break
		}
		seen[base] = true
		chain = append(chain, base)
		name = base
	}
	return chain
}
