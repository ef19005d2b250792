package scope

import "github.com/pyanalyze/pyanalyze/value"

// Narrow implements spec §4.D "Narrowing": `assert isinstance(X, T)` or
// `if isinstance(X, T):` creates a child scope in which X's value set is
// filtered to members whose type is T. The complement variant (for the
// `else` branch) keeps members whose type is *not* T.
func (s *Scope) Narrow(name string, typeName string) *Scope {
	child := s.NewChild(Narrowed, "")
	vi, _, ok := s.Lookup(name)
	if !ok {
		return child
	}
	child.locals[name] = &VariableInfo{Value: filterByType(vi.Value, typeName, true)}
	return child
}

// NarrowComplement creates the `else`-branch sibling scope: members whose
// type is not T.
func (s *Scope) NarrowComplement(name string, typeName string) *Scope {
	child := s.NewChild(Narrowed, "")
	vi, _, ok := s.Lookup(name)
	if !ok {
		return child
	}
	child.locals[name] = &VariableInfo{Value: filterByType(vi.Value, typeName, false)}
	return child
}

func filterByType(set value.Set, typeName string, match bool) value.Set {
	var out value.Set
	for _, v := range set.Values() {
		is := v.Type() == typeName
		if is == match {
			out = out.Add(v, DefaultJoinBudget)
		}
	}
	return out
}

// DefaultJoinBudget bounds narrowed-set reconstruction; narrowing only ever
// removes members so the default assignment budget is generous enough.
const DefaultJoinBudget = 10

// JoinBack merges a narrowed child scope's ending value for name back into
// the parent scope when the branch exits (spec §4.D: "The narrowed value set
// is joined back when the branch ends").
func (s *Scope) JoinBack(child *Scope, name string, budgets value.Budgets) {
	vi, ok := child.getLocal(name)
	if !ok {
		return
	}
	s.Define(name, 0, vi.Value, budgets)
}
