package value

// SequenceKind distinguishes the four ordered/indexed container shapes the
// spec groups under "Sequence" (list, tuple, set, frozenset).
type SequenceKind int

const (
	SeqList SequenceKind = iota
	SeqTuple
	SeqSet
	SeqFrozenSet
)

func (k SequenceKind) String() string {
	switch k {
	case SeqList:
		return "list"
	case SeqTuple:
		return "tuple"
	case SeqSet:
		return "set"
	case SeqFrozenSet:
		return "frozenset"
	}
	return "sequence"
}

// Sequence is an ordered, indexed container: list, tuple, set, or frozenset
// (spec §3 "Sequence"). Per-index value sets are stored indirectly through
// an Interner Handle so a self-referential list (`x = []; x.append(x)`) can
// reference its own Handle without an infinite inline expansion (§4.C
// "Cycles"). KnownLength is set only for tuples built from a literal of
// fixed arity; -1 means unknown/variable.
type Sequence struct {
	base
	SeqKind      SequenceKind
	Interner     *Interner
	Elements     []Handle // per-index handles; only meaningful if KnownLength >= 0
	AnyIndex     Handle   // fallback handle covering indices beyond Elements
	KnownLength  int
}

func (s Sequence) Kind() Kind   { return KSequence }
func (s Sequence) Type() string { return s.SeqKind.String() }

func (s Sequence) Equal(other Value) bool {
	o, ok := other.(Sequence)
	if !ok || o.SeqKind != s.SeqKind {
		return false
	}
	if s.KnownLength != o.KnownLength {
		return false
	}
	if s.Interner == nil || o.Interner == nil {
		return len(s.Elements) == 0 && len(o.Elements) == 0
	}
	if len(s.Elements) != len(o.Elements) {
		return false
	}
	for i := range s.Elements {
		if !s.Interner.EqualHandles(s.Elements[i], o.Elements[i]) {
			return false
		}
	}
	return s.Interner.EqualHandles(s.AnyIndex, o.AnyIndex)
}

func (s Sequence) fingerprint() uint64 {
	return stringFingerprint("sequence", s.SeqKind.String())
}

func (s Sequence) IsTruthy() (bool, bool) {
	if s.KnownLength >= 0 {
		return s.KnownLength != 0, true
	}
	return false, false
}

// ElementSet returns the value set covering every element: per-index sets
// joined with the any-index fallback, the way iteration/indexing with an
// unknown index must see every possibly-stored value.
func (s Sequence) ElementSet(budgets Budgets) Set {
	if s.Interner == nil {
		return Set{}
	}
	out := s.Interner.Resolve(s.AnyIndex)
	for _, h := range s.Elements {
		out = Join(out, s.Interner.Resolve(h), budgets.Assignment)
	}
	return out
}

func (s Sequence) GetIter() Set { return s.ElementSet(DefaultBudgets()) }

func (s Sequence) GetIndex(index Value) Set {
	if c, ok := index.(Constant); ok && c.TypeName == "int" {
		if i, ok := c.Literal.(int); ok && i >= 0 && i < len(s.Elements) && s.Interner != nil {
			return s.Interner.Resolve(s.Elements[i])
		}
	}
	return s.ElementSet(DefaultBudgets())
}

func (s Sequence) SetIndex(_ Value, val Set) {
	if s.Interner == nil {
		return
	}
	existing := s.Interner.Resolve(s.AnyIndex)
	s.Interner.Update(s.AnyIndex, Join(existing, val, DefaultBudgets().SelfAttribute))
}

func (s Sequence) Operator(op string, other Value) Set {
	switch op {
	case "+":
		if o, ok := other.(Sequence); ok && o.SeqKind == s.SeqKind {
			return NewSet(Sequence{SeqKind: s.SeqKind, Interner: s.Interner, KnownLength: -1, AnyIndex: s.AnyIndex})
		}
	case "*":
		if _, ok := other.(Primitive); ok {
			return NewSet(Sequence{SeqKind: s.SeqKind, Interner: s.Interner, KnownLength: -1, AnyIndex: s.AnyIndex})
		}
	case "in", "not in", "==", "!=":
		return NewSet(Primitive{TypeName: "bool"})
	}
	return Set{}
}

var _ Value = Sequence{}
