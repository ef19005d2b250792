package value

// Partial is the value `functools.partial(fn, *bound_args, **bound_kwargs)`
// produces: a callable whose argument prefix is already bound (spec §4.H
// "functools.partial (produces a callable whose argument prefix is bound)").
// Calling it prepends BoundArgs/BoundKwargs ahead of whatever the caller
// supplies and forwards to Func — interp's call dispatch (not Func.Call
// directly) re-derives a CallContext for the combined arguments so a
// partial wrapping a user-defined Function still walks its body under the
// Cartesian Product Algorithm rather than reading a stale cache entry.
type Partial struct {
	base
	Func        Value
	BoundArgs   []Set
	BoundKwargs map[string]Set
}

func (p Partial) Kind() Kind   { return KPartial }
func (p Partial) Type() string { return "functools.partial" }

func (p Partial) Equal(other Value) bool {
	o, ok := other.(Partial)
	if !ok || p.Func == nil || o.Func == nil {
		return false
	}
	return o.Func.Equal(p.Func) && len(o.BoundArgs) == len(p.BoundArgs)
}

func (p Partial) fingerprint() uint64 {
	if p.Func == nil {
		return stringFingerprint("partial", "")
	}
	return stringFingerprint("partial") ^ Fingerprint(p.Func)
}

func (p Partial) IsTruthy() (bool, bool) { return true, true }

// Call is the fallback path for callers that invoke Partial generically
// (e.g. as an argument passed onward, not the direct callee of a call
// expression); interp's own call dispatch prefers unwrapping Func so a
// wrapped value.Function gets a freshly derived CallContext instead of this
// RootCallContext-keyed lookup.
func (p Partial) Call(args []Set, kwargs map[string]Set, ctx CallContext) Set {
	if p.Func == nil {
		return Set{}
	}
	return p.Func.Call(p.mergeArgs(args), p.mergeKwargs(kwargs), ctx)
}

func (p Partial) mergeArgs(args []Set) []Set {
	combined := make([]Set, 0, len(p.BoundArgs)+len(args))
	combined = append(combined, p.BoundArgs...)
	combined = append(combined, args...)
	return combined
}

func (p Partial) mergeKwargs(kwargs map[string]Set) map[string]Set {
	if len(p.BoundKwargs) == 0 {
		return kwargs
	}
	merged := make(map[string]Set, len(p.BoundKwargs)+len(kwargs))
	for k, v := range p.BoundKwargs {
		merged[k] = v
	}
	for k, v := range kwargs {
		merged[k] = v
	}
	return merged
}

var _ Value = Partial{}
