package value

import "strconv"

// DefID identifies a function or class definition node without value
// depending on the ast package: the interpreter owns the mapping from DefID
// back to the actual *ast.FuncDef/*ast.ClassDef and its defining scope.
// Function.Equal compares DefIDs only: a Function value does not carry the
// call context it was reached in, so one definition reached from two call
// contexts is a single value.
type DefID struct {
	Module string
	Offset int
}

// ScopeID identifies the lexical scope a Function closes over, again kept
// opaque here so value has no dependency on the scope package.
type ScopeID uint64

// Function is a reference to a function definition plus the scope it closes
// over, with per-call-context parameter bindings and return value sets
// (spec §3 "Function"). Returns is populated by the interpreter as call
// contexts are discovered; Function itself is an immutable snapshot handed
// to callers, so mutation goes through the interner-backed Handles in
// Returns rather than in place.
type Function struct {
	base
	Def         DefID
	Name        string
	Closure     ScopeID
	IsAsync     bool
	IsGenerator bool
	Interner    *Interner
	// Returns maps a CallContext token to the handle holding that context's
	// accumulated return value set.
	Returns map[uint64]Handle
}

func (f Function) Kind() Kind   { return KFunction }
func (f Function) Type() string { return "function" }

func (f Function) Equal(other Value) bool {
	o, ok := other.(Function)
	return ok && o.Def == f.Def
}

func (f Function) fingerprint() uint64 {
	return stringFingerprint("function", f.Def.Module, strconv.Itoa(f.Def.Offset))
}

func (f Function) IsTruthy() (bool, bool) { return true, true }

func (f Function) Call(args []Set, kwargs map[string]Set, ctx CallContext) Set {
	if f.Interner == nil || f.Returns == nil {
		return Set{}
	}
	if h, ok := f.Returns[ctx.token]; ok {
		return f.Interner.Resolve(h)
	}
	return Set{}
}

func (f Function) Property(name string) (Set, bool) {
	switch name {
	case "__name__":
		return NewSet(Constant{TypeName: "str", Literal: f.Name}), true
	case "__call__":
		return NewSet(f), true
	}
	return Set{}, false
}

var _ Value = Function{}

// BoundMethod is a Function plus the instance bound as its implicit first
// argument (spec §3 "Bound method").
type BoundMethod struct {
	base
	Func     Function
	Instance Value
}

func (b BoundMethod) Kind() Kind   { return KBoundMethod }
func (b BoundMethod) Type() string { return "bound_method" }

func (b BoundMethod) Equal(other Value) bool {
	o, ok := other.(BoundMethod)
	return ok && o.Func.Equal(b.Func) && o.Instance.Equal(b.Instance)
}

func (b BoundMethod) fingerprint() uint64 {
	return stringFingerprint("bound-method", b.Func.Name) ^ Fingerprint(b.Instance)
}

func (b BoundMethod) IsTruthy() (bool, bool) { return true, true }

func (b BoundMethod) Call(args []Set, kwargs map[string]Set, ctx CallContext) Set {
	return b.Func.Call(append([]Set{NewSet(b.Instance)}, args...), kwargs, ctx)
}

var _ Value = BoundMethod{}
