package value

// Dictionary is a mapping value set with an optional string-constant-keyed
// specialization, so `d['foo']` can resolve to exactly what was assigned at
// `d['foo'] = ...` instead of the coarser any-key value set (spec §3
// "Dictionary").
type Dictionary struct {
	base
	Interner    *Interner
	KeysAny     Handle
	ValuesAny   Handle
	Specialized map[string]Handle // string-constant key -> specialized value handle
}

func (d Dictionary) Kind() Kind   { return KDictionary }
func (d Dictionary) Type() string { return "dict" }

func (d Dictionary) Equal(other Value) bool {
	o, ok := other.(Dictionary)
	if !ok || d.Interner == nil || o.Interner == nil {
		return ok && len(d.Specialized) == 0 && len(o.Specialized) == 0
	}
	if len(d.Specialized) != len(o.Specialized) {
		return false
	}
	for k, h := range d.Specialized {
		oh, ok := o.Specialized[k]
		if !ok || !d.Interner.EqualHandles(h, oh) {
			return false
		}
	}
	return d.Interner.EqualHandles(d.KeysAny, o.KeysAny) && d.Interner.EqualHandles(d.ValuesAny, o.ValuesAny)
}

func (d Dictionary) fingerprint() uint64 { return stringFingerprint("dict") }

func (d Dictionary) IsTruthy() (bool, bool) { return false, false }

func (d Dictionary) GetIndex(index Value) Set {
	if c, ok := index.(Constant); ok && (c.TypeName == "str" || c.TypeName == "unicode") {
		if key, ok := c.Literal.(string); ok {
			if h, ok := d.Specialized[key]; ok && d.Interner != nil {
				return d.Interner.Resolve(h)
			}
		}
	}
	if d.Interner == nil {
		return Set{}
	}
	return d.Interner.Resolve(d.ValuesAny)
}

func (d Dictionary) SetIndex(index Value, val Set) {
	if d.Interner == nil {
		return
	}
	if c, ok := index.(Constant); ok && (c.TypeName == "str" || c.TypeName == "unicode") {
		if key, ok := c.Literal.(string); ok {
			if d.Specialized == nil {
				d.Specialized = map[string]Handle{}
			}
			if h, ok := d.Specialized[key]; ok {
				d.Interner.Update(h, Join(d.Interner.Resolve(h), val, DefaultBudgets().SelfAttribute))
			} else {
				d.Specialized[key] = d.Interner.Intern(val)
			}
			return
		}
	}
	existing := d.Interner.Resolve(d.ValuesAny)
	d.Interner.Update(d.ValuesAny, Join(existing, val, DefaultBudgets().SelfAttribute))
}

func (d Dictionary) GetIter() Set {
	if d.Interner == nil {
		return Set{}
	}
	return d.Interner.Resolve(d.KeysAny)
}

// ValueSet returns the union of every value this dictionary might hold,
// specialized entries included — used when iterating `.values()` or `.items()`.
func (d Dictionary) ValueSet(budgets Budgets) Set {
	if d.Interner == nil {
		return Set{}
	}
	out := d.Interner.Resolve(d.ValuesAny)
	for _, h := range d.Specialized {
		out = Join(out, d.Interner.Resolve(h), budgets.Assignment)
	}
	return out
}

func (d Dictionary) Operator(op string, other Value) Set {
	switch op {
	case "in", "not in", "==", "!=":
		return NewSet(Primitive{TypeName: "bool"})
	}
	return Set{}
}

var _ Value = Dictionary{}
