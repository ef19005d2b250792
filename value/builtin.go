package value

// Builtin is a natively-implemented callable: the value-level counterpart
// to the teacher's pyFunc.nativeCode, used for the curated builtin
// recognition list (spec §4.H) — len, range, isinstance, and friends —
// whose behavior is computed directly from argument value sets rather than
// by walking an AST body.
type Builtin struct {
	base
	Name string
	Fn   func(args []Set, kwargs map[string]Set) Set
}

func (b Builtin) Kind() Kind   { return KBuiltin }
func (b Builtin) Type() string { return "builtin_function_or_method" }

func (b Builtin) Equal(other Value) bool {
	o, ok := other.(Builtin)
	return ok && o.Name == b.Name
}

func (b Builtin) fingerprint() uint64 { return stringFingerprint("builtin", b.Name) }

func (b Builtin) IsTruthy() (bool, bool) { return true, true }

func (b Builtin) Property(name string) (Set, bool) {
	if name == "__name__" {
		return NewSet(Constant{TypeName: "str", Literal: b.Name}), true
	}
	return Set{}, false
}

func (b Builtin) Call(args []Set, kwargs map[string]Set, ctx CallContext) Set {
	if b.Fn == nil {
		return NewSet(Any)
	}
	return b.Fn(args, kwargs)
}

var _ Value = Builtin{}
