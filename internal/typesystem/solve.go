package typesystem

// Use records one occurrence of a type variable bound by an argument.
type Use struct {
	Var      TVar
	Type     Type
	ArgIndex int // 1-based
}

// Conflict reports a bounded variable that no member of its bound set can
// satisfy across one call. Join is the least common type of all uses.
type Conflict struct {
	Var      TVar
	Join     Type
	ArgIndex int
}

// Match walks expected (which may mention type variables) against actual,
// recording each variable binding in uses. It returns false when the
// concrete parts of expected do not accept actual.
func (a Assigner) Match(expected, actual Type, argIndex int, uses *[]Use) bool {
	if !ContainsTypeVariables(expected) {
		return a.Assignable(expected, actual)
	}
	if _, ok := actual.(TAny); ok {
		return true
	}

	switch e := expected.(type) {
	case TVar:
		*uses = append(*uses, Use{Var: e, Type: actual, ArgIndex: argIndex})
		return true
	case TOptional:
		switch act := actual.(type) {
		case TNone:
			return true
		case TOptional:
			return a.Match(e.Elem, act.Elem, argIndex, uses)
		default:
			return a.Match(e.Elem, actual, argIndex, uses)
		}
	case TTuple:
		act, ok := actual.(TTuple)
		if !ok || len(act.Elements) != len(e.Elements) {
			return false
		}
		for i := range e.Elements {
			if !a.Match(e.Elements[i], act.Elements[i], argIndex, uses) {
				return false
			}
		}
		return true
	case TApp:
		act, ok := actual.(TApp)
		if !ok || !a.IsSubclass(act.Constructor.Name, e.Constructor.Name) || len(act.Args) != len(e.Args) {
			return false
		}
		for i := range e.Args {
			if ContainsTypeVariables(e.Args[i]) {
				if !a.Match(e.Args[i], act.Args[i], argIndex, uses) {
					return false
				}
			} else if !a.sameType(e.Args[i], act.Args[i]) {
				return false
			}
		}
		return true
	default:
		return a.Assignable(expected, actual)
	}
}

// Solve resolves every variable mentioned by uses, in order of first
// appearance. A bounded variable resolves to the first constraint that
// accepts all of its uses; an unbounded one resolves to their join.
func (a Assigner) Solve(uses []Use) (Subst, []Conflict) {
	order := []string{}
	byVar := map[string][]Use{}
	for _, u := range uses {
		if _, seen := byVar[u.Var.Name]; !seen {
			order = append(order, u.Var.Name)
		}
		byVar[u.Var.Name] = append(byVar[u.Var.Name], u)
	}

	subst := Subst{}
	var conflicts []Conflict
	for _, name := range order {
		group := byVar[name]
		tv := group[0].Var
		types := make([]Type, len(group))
		for i, u := range group {
			types[i] = u.Type
		}

		if len(tv.Constraints) == 0 {
			subst[name] = a.JoinAll(types)
			continue
		}

		resolved, ok := a.pickConstraint(tv, types)
		if ok {
			subst[name] = resolved
			continue
		}
		conflicts = append(conflicts, Conflict{
			Var:      tv,
			Join:     a.JoinAll(types),
			ArgIndex: firstDisagreement(group),
		})
		// Any keeps the return type usable by enclosing calls
		subst[name] = TAny{}
	}
	return subst, conflicts
}

func (a Assigner) pickConstraint(tv TVar, types []Type) (Type, bool) {
	for _, c := range tv.Constraints {
		fits := true
		for _, t := range types {
			if !a.Assignable(c, t) {
				fits = false
				break
			}
		}
		if fits {
			return c, true
		}
	}
	return nil, false
}

func firstDisagreement(group []Use) int {
	first := group[0]
	for _, u := range group[1:] {
		if !Equal(u.Type, first.Type) {
			return u.ArgIndex
		}
	}
	return first.ArgIndex
}
