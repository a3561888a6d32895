package typesystem

// Subst is a mapping from type variable names to types.
type Subst map[string]Type

// Erase replaces every remaining type variable in t with Any.
func Erase(t Type) Type {
	vars := t.FreeTypeVariables()
	if len(vars) == 0 {
		return t
	}
	s := make(Subst, len(vars))
	for _, v := range vars {
		s[v.Name] = TAny{}
	}
	return t.Apply(s)
}
