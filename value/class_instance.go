package value

// Class is a reference to a class definition: its MRO (already linearized —
// see interp's C3 linearization in mro.go, out of this package's concern), its
// class-level members, and whether it participates in the descriptor
// protocol (spec §3 "Class").
type Class struct {
	base
	Def        DefID
	Name       string
	MRO        []*Class // linearized, self first
	Members    map[string]Set
	Descriptor bool
}

func (c *Class) Kind() Kind   { return KClass }
func (c *Class) Type() string { return "type" }

func (c *Class) Equal(other Value) bool {
	o, ok := other.(*Class)
	return ok && o.Def == c.Def
}

func (c *Class) fingerprint() uint64 { return stringFingerprint("class", c.Def.Module, c.Name) }

func (c *Class) IsTruthy() (bool, bool) { return true, true }

// Property resolves a class attribute by walking the MRO in order, matching
// Python's attribute lookup (spec §4.D name resolution applies the same walk
// for instance method lookup).
func (c *Class) Property(name string) (Set, bool) {
	for _, k := range c.MRO {
		if k == nil {
			continue
		}
		if s, ok := k.Members[name]; ok {
			return s, true
		}
	}
	return Set{}, false
}

func (c *Class) Call(args []Set, kwargs map[string]Set, ctx CallContext) Set {
	return NewSet(&Instance{Class: c, Attrs: map[string]Set{}})
}

var _ Value = (*Class)(nil)

// Instance is a class reference plus an attribute dictionary populated by
// `self.X = ...` assignments observed in method bodies (spec §3
// "Instance"). Attrs accumulates across every method of the class — the
// self-attribute budget (Budgets.SelfAttribute) bounds it, not the smaller
// assignment budget.
type Instance struct {
	base
	Class *Class
	Attrs map[string]Set
}

func (i *Instance) Kind() Kind   { return KInstance }
func (i *Instance) Type() string { return i.Class.Name }

func (i *Instance) Equal(other Value) bool {
	o, ok := other.(*Instance)
	return ok && o.Class != nil && i.Class != nil && o.Class.Def == i.Class.Def
}

func (i *Instance) fingerprint() uint64 {
	if i.Class == nil {
		return stringFingerprint("instance", "")
	}
	return stringFingerprint("instance", i.Class.Def.Module, i.Class.Name)
}

func (i *Instance) IsTruthy() (bool, bool) { return false, false }

func (i *Instance) Property(name string) (Set, bool) {
	if s, ok := i.Attrs[name]; ok {
		return s, true
	}
	if i.Class == nil {
		return Set{}, false
	}
	memberSet, ok := i.Class.Property(name)
	if !ok {
		return Set{}, false
	}
	// Bind any Function members as BoundMethod against this instance, per
	// spec §3 "Bound method" — the descriptor protocol's default behavior.
	// Descriptor members (staticmethod/classmethod/property) override that
	// default per spec §4.F's "the property marker flips the attribute's
	// descriptor behavior".
	var out Set
	for _, v := range memberSet.Values() {
		switch m := v.(type) {
		case Function:
			out = out.Add(BoundMethod{Func: m, Instance: i}, DefaultBudgets().Assignment)
		case Descriptor:
			out = out.Add(i.resolveDescriptor(m), DefaultBudgets().Assignment)
		default:
			out = out.Add(v, DefaultBudgets().Assignment)
		}
	}
	return out, true
}

// resolveDescriptor applies the descriptor protocol for a class-level
// staticmethod/classmethod/property member looked up through an instance
// (spec §4.F "Decorator", §9 "the property marker flips the attribute's
// descriptor behavior").
func (i *Instance) resolveDescriptor(d Descriptor) Value {
	switch d.DKind {
	case DescStatic:
		return d.Wrapped
	case DescClass:
		if fn, ok := d.Wrapped.(Function); ok {
			return BoundMethod{Func: fn, Instance: i.Class}
		}
		return d.Wrapped
	case DescProperty:
		return PropertyResult{Getter: d.Wrapped, Instance: i}
	}
	return d
}

// PropertyResult is the value a `property`-wrapped attribute access
// evaluates to: the getter invoked against the owning instance, computed
// lazily by Invoke rather than eagerly, since Instance.Property
// only returns a Set of Values and calling the getter here would need a
// CallContext the attribute-access site, not Instance, owns.
type PropertyResult struct {
	base
	Getter   Value
	Instance Value
}

func (p PropertyResult) Kind() Kind   { return KProtocol }
func (p PropertyResult) Type() string { return "property" }

func (p PropertyResult) Equal(other Value) bool {
	o, ok := other.(PropertyResult)
	return ok && p.Getter != nil && o.Getter != nil && o.Getter.Equal(p.Getter)
}

func (p PropertyResult) fingerprint() uint64 {
	if p.Getter == nil {
		return stringFingerprint("property", "")
	}
	return stringFingerprint("property") ^ Fingerprint(p.Getter)
}

func (p PropertyResult) IsTruthy() (bool, bool) { return false, false }

// Invoke calls the property's getter against Instance under ctx, returning
// the value an attribute read of a property member actually observes.
// Callers (interp's attribute-access rule) call this instead of treating
// PropertyResult as the final value, mirroring real Python property-get
// semantics where `obj.prop` is `type(obj).prop.fget(obj)`, not the
// descriptor object itself.
func (p PropertyResult) Invoke(ctx CallContext) Set {
	if p.Getter == nil {
		return Set{}
	}
	return p.Getter.Call([]Set{NewSet(p.Instance)}, nil, ctx)
}

var _ Value = PropertyResult{}

// SetAttr records a `self.X = value` write, joining into the accumulated
// attribute value set under the self-attribute budget.
func (i *Instance) SetAttr(name string, v Set, budgets Budgets) {
	if i.Attrs == nil {
		i.Attrs = map[string]Set{}
	}
	i.Attrs[name] = Join(i.Attrs[name], v, budgets.SelfAttribute)
}

var _ Value = (*Instance)(nil)
