package value

// A Set is a small, deduplicated collection of Value — the unit the
// interpreter and queue actually pass around (spec §3 "Value Set"). The zero
// Set is the empty set ("bottom").
type Set struct {
	vals []Value
}

// NewSet builds a Set from the given values, deduplicating by Equal.
func NewSet(vs ...Value) Set {
	var s Set
	for _, v := range vs {
		s = s.Add(v, DefaultBudgets().Assignment)
	}
	return s
}

// Empty reports whether the set carries no values.
func (s Set) Empty() bool { return len(s.vals) == 0 }

// Len reports the number of distinct values currently in the set.
func (s Set) Len() int { return len(s.vals) }

// Values returns the set's members in insertion order. Callers must not
// mutate the returned slice.
func (s Set) Values() []Value { return s.vals }

// Add joins v into s, deduplicating by Equal and widening per budget if the
// result would exceed it.
func (s Set) Add(v Value, budget int) Set {
	for _, existing := range s.vals {
		if existing.Equal(v) {
			return s
		}
	}
	out := Set{vals: append(append([]Value{}, s.vals...), v)}
	if len(out.vals) > budget {
		return out.widen(budget)
	}
	return out
}

// Join computes s1 ∪ s2 per spec §4.C "Join", widening against budget if the
// merged set is too large.
func Join(s1, s2 Set, budget int) Set {
	out := s1
	for _, v := range s2.vals {
		out = out.Add(v, budget*4) // avoid intermediate widening mid-merge
	}
	if out.Len() > budget {
		out = out.widen(budget)
	}
	return out
}

// widen implements the three-step widening ladder from §4.C:
//  1. collapse constants into their type-erased primitive instance
//  2. collapse same-class instances into one
//  3. if still too large, replace with the single "any object" marker
func (s Set) widen(budget int) Set {
	collapsed := collapseConstants(s.vals)
	if len(collapsed) <= budget {
		return Set{vals: collapsed}
	}
	collapsed = collapseInstances(collapsed)
	if len(collapsed) <= budget {
		return Set{vals: collapsed}
	}
	return NewSet(Any)
}

func collapseConstants(vals []Value) []Value {
	seenPrimitive := map[string]bool{}
	var out []Value
	for _, v := range vals {
		if c, ok := v.(Constant); ok {
			if seenPrimitive[c.TypeName] {
				continue
			}
			seenPrimitive[c.TypeName] = true
			out = append(out, Primitive{TypeName: c.TypeName})
			continue
		}
		out = append(out, v)
	}
	return dedupeValues(out)
}

func collapseInstances(vals []Value) []Value {
	seenClass := map[string]Value{}
	var out []Value
	for _, v := range vals {
		if inst, ok := v.(*Instance); ok && inst.Class != nil {
			if first, ok := seenClass[inst.Class.Name]; ok {
				_ = first
				continue
			}
			seenClass[inst.Class.Name] = v
		}
		out = append(out, v)
	}
	return out
}

func dedupeValues(vals []Value) []Value {
	var out []Value
	for _, v := range vals {
		dup := false
		for _, existing := range out {
			if existing.Equal(v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// IsTruthy reports the set's aggregate truthiness: known true/false only
// when every member agrees, matching the analyzer's narrowing rules (§4.D).
func (s Set) IsTruthy() (truthy bool, known bool) {
	if len(s.vals) == 0 {
		return false, false
	}
	first, firstKnown := s.vals[0].IsTruthy()
	if !firstKnown {
		return false, false
	}
	for _, v := range s.vals[1:] {
		t, k := v.IsTruthy()
		if !k || t != first {
			return false, false
		}
	}
	return first, true
}

// GetMember projects Property across every member and joins the results,
// per §3's uniform get-member contract.
func (s Set) GetMember(name string, budgets Budgets) (Set, bool) {
	var out Set
	found := false
	for _, v := range s.vals {
		if m, ok := v.Property(name); ok {
			found = true
			out = Join(out, m, budgets.Assignment)
		}
	}
	return out, found
}

// Call projects Call across every member (e.g. a value set holding two
// possible callables from different branches) and joins the results.
func (s Set) Call(args []Set, kwargs map[string]Set, ctx CallContext, budgets Budgets) Set {
	var out Set
	for _, v := range s.vals {
		out = Join(out, v.Call(args, kwargs, ctx), budgets.Assignment)
	}
	return out
}

// GetIter projects GetIter across every member and joins the results.
func (s Set) GetIter(budgets Budgets) Set {
	var out Set
	for _, v := range s.vals {
		out = Join(out, v.GetIter(), budgets.Assignment)
	}
	return out
}

// BinOp projects Operator(op, otherValue) across every (self, other) pair.
func (s Set) BinOp(op string, other Set, budgets Budgets) Set {
	var out Set
	for _, l := range s.vals {
		for _, r := range other.vals {
			out = Join(out, l.Operator(op, r), budgets.Assignment)
		}
	}
	return out
}
