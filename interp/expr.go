package interp

import (
	"strconv"

	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/scope"
	"github.com/pyanalyze/pyanalyze/token"
	"github.com/pyanalyze/pyanalyze/value"
)

// evalExpr evaluates e and records its result in ip.NodeValues, keyed by
// source offset, before returning it. This is the sole recording point the
// query package's type_of(position) builds on (spec §4.I) — every
// expression, not just name reads, passes through here.
func (ip *Interpreter) evalExpr(s *scope.Scope, e *ast.Expr) value.Set {
	if e == nil {
		return value.Set{}
	}
	out := ip.evalExprKind(s, e)
	ip.NodeValues = append(ip.NodeValues, NodeValue{Start: int(e.Pos), End: int(e.End), Value: out})
	return out
}

// evalExprKind dispatches on ast.ExprKind, mirroring the teacher's
// scope.interpretValueExpression switch over ValueExpression variants (spec
// §4.F's abbreviated expression-rule list, implemented in full here).
func (ip *Interpreter) evalExprKind(s *scope.Scope, e *ast.Expr) value.Set {
	switch e.Kind {
	case ast.ENone:
		return value.NewSet(value.Constant{TypeName: "NoneType", Literal: nil})
	case ast.EBool:
		return value.NewSet(value.Constant{TypeName: "bool", Literal: e.BoolVal})
	case ast.EEllipsis:
		return value.NewSet(value.Primitive{TypeName: "ellipsis"})
	case ast.EInt:
		if n, err := strconv.Atoi(e.IntVal); err == nil {
			return value.NewSet(value.Constant{TypeName: "int", Literal: n})
		}
		return value.NewSet(value.Primitive{TypeName: "int"})
	case ast.EFloat:
		return value.NewSet(value.Primitive{TypeName: "float"})
	case ast.EStr:
		return value.NewSet(value.Constant{TypeName: "str", Literal: e.StrVal})
	case ast.EFString:
		// F-string internal expressions are opaque per §4.A; only the
		// resulting str type is tracked (§4.F "F-string produces a str
		// primitive instance").
		return value.NewSet(value.Primitive{TypeName: "str"})
	case ast.EBytes:
		return value.NewSet(value.Primitive{TypeName: "bytes"})

	case ast.EName:
		if vi, _, ok := s.Lookup(e.Name); ok {
			vi.RecordRef(int(e.Pos))
			return vi.Value
		}
		ip.diagnose("undefined-variable", token.Span{Start: e.Pos, End: e.End}, "undefined name %q", e.Name)
		return value.NewSet(value.Any)

	case ast.ETuple:
		return ip.evalContainerLiteral(s, value.SeqTuple, e.Elts, len(e.Elts))
	case ast.EList:
		return ip.evalContainerLiteral(s, value.SeqList, e.Elts, -1)
	case ast.ESet:
		return ip.evalContainerLiteral(s, value.SeqSet, e.Elts, -1)

	case ast.EDict:
		return ip.evalDict(s, e)

	case ast.EListComp, ast.ESetComp, ast.EGeneratorExp:
		return ip.evalSeqComp(s, e)
	case ast.EDictComp:
		return ip.evalDictComp(s, e)

	case ast.ELambda:
		return ip.evalLambda(s, e)

	case ast.EIfExp:
		cond := ip.evalExpr(s, e.Test)
		if truthy, known := cond.IsTruthy(); known {
			if truthy {
				return ip.evalExpr(s, e.Then)
			}
			return ip.evalExpr(s, e.Orelse)
		}
		return value.Join(ip.evalExpr(s, e.Then), ip.evalExpr(s, e.Orelse), ip.Budgets.Assignment)

	case ast.EBoolOp:
		var out value.Set
		for _, v := range e.Values {
			out = value.Join(out, ip.evalExpr(s, v), ip.Budgets.Assignment)
		}
		return out

	case ast.EBinOp:
		l := ip.evalExpr(s, e.Left)
		r := ip.evalExpr(s, e.Right)
		return l.BinOp(e.Op, r, ip.Budgets)

	case ast.EUnaryOp:
		operand := ip.evalExpr(s, e.Right)
		if e.Op == "not" {
			return value.NewSet(value.Primitive{TypeName: "bool"})
		}
		return operand.BinOp(e.Op, operand, ip.Budgets)

	case ast.ECompare:
		ip.evalExpr(s, e.Left)
		for _, r := range e.CompareRights {
			ip.evalExpr(s, r)
		}
		return value.NewSet(value.Primitive{TypeName: "bool"})

	case ast.ECall:
		return ip.evalCall(s, e)

	case ast.EAttribute:
		recv := ip.evalExpr(s, e.Value)
		out, ok := recv.GetMember(e.Attr, ip.Budgets)
		if !ok {
			return value.NewSet(value.Any)
		}
		return resolveProperties(out, ip.Budgets)

	case ast.ESubscript:
		recv := ip.evalExpr(s, e.Subject)
		idx := ip.evalExpr(s, e.Index)
		var out value.Set
		for _, rv := range recv.Values() {
			for _, iv := range idx.Values() {
				out = value.Join(out, rv.GetIndex(iv), ip.Budgets.Assignment)
			}
		}
		return out

	case ast.ESlice:
		if e.Lower != nil {
			ip.evalExpr(s, e.Lower)
		}
		if e.Upper != nil {
			ip.evalExpr(s, e.Upper)
		}
		if e.Step != nil {
			ip.evalExpr(s, e.Step)
		}
		return value.Set{}

	case ast.EStarred:
		return ip.evalExpr(s, e.Inner)

	case ast.EYield:
		if e.Inner != nil {
			return ip.evalExpr(s, e.Inner)
		}
		return value.Set{}

	case ast.EYieldFrom:
		inner := ip.evalExpr(s, e.Inner)
		return inner.GetIter(ip.Budgets)

	case ast.EAwait:
		return ip.evalExpr(s, e.Inner)

	case ast.EError:
		return value.NewSet(value.Any)
	}
	return value.Set{}
}

func (ip *Interpreter) evalContainerLiteral(s *scope.Scope, kind value.SequenceKind, elts []*ast.Expr, knownLength int) value.Set {
	var elems value.Set
	for _, elt := range elts {
		elems = value.Join(elems, ip.evalExpr(s, elt), ip.Budgets.Assignment)
	}
	in := value.NewInterner()
	h := in.Intern(elems)
	return value.NewSet(value.Sequence{SeqKind: kind, Interner: in, KnownLength: knownLength, AnyIndex: h})
}

func (ip *Interpreter) evalDict(s *scope.Scope, e *ast.Expr) value.Set {
	var keys, vals value.Set
	specialized := map[string]value.Handle{}
	in := value.NewInterner()
	for i, k := range e.Keys {
		if k == nil {
			// ** spread: contributes unknown keys/values only.
			continue
		}
		kv := ip.evalExpr(s, k)
		vv := ip.evalExpr(s, e.DictV[i])
		keys = value.Join(keys, kv, ip.Budgets.Assignment)
		vals = value.Join(vals, vv, ip.Budgets.Assignment)
		if k.Kind == ast.EStr {
			specialized[k.StrVal] = in.Intern(vv)
		}
	}
	return value.NewSet(value.Dictionary{
		Interner:    in,
		KeysAny:     in.Intern(keys),
		ValuesAny:   in.Intern(vals),
		Specialized: specialized,
	})
}

func (ip *Interpreter) evalSeqComp(s *scope.Scope, e *ast.Expr) value.Set {
	compScope := s.NewChild(scope.Comprehension, "")
	var elemSet value.Set
	ip.runCompFors(compScope, e.CompFors, 0, func(cs *scope.Scope) {
		elemSet = value.Join(elemSet, ip.evalExpr(cs, e.CompElt), ip.Budgets.Assignment)
	})
	kind := value.SeqList
	if e.Kind == ast.ESetComp {
		kind = value.SeqSet
	}
	in := value.NewInterner()
	h := in.Intern(elemSet)
	seq := value.Sequence{SeqKind: kind, Interner: in, KnownLength: -1, AnyIndex: h}
	if e.Kind == ast.EGeneratorExp {
		return value.NewSet(value.Generator{Yields: elemSet})
	}
	return value.NewSet(seq)
}

func (ip *Interpreter) evalDictComp(s *scope.Scope, e *ast.Expr) value.Set {
	compScope := s.NewChild(scope.Comprehension, "")
	var keys, vals value.Set
	ip.runCompFors(compScope, e.CompFors, 0, func(cs *scope.Scope) {
		keys = value.Join(keys, ip.evalExpr(cs, e.CompElt), ip.Budgets.Assignment)
		vals = value.Join(vals, ip.evalExpr(cs, e.CompVal), ip.Budgets.Assignment)
	})
	in := value.NewInterner()
	return value.NewSet(value.Dictionary{
		Interner:  in,
		KeysAny:   in.Intern(keys),
		ValuesAny: in.Intern(vals),
	})
}

// runCompFors walks a comprehension's chained "for ... if ..." clauses,
// binding each clause's targets to the prior clause's iterable element set
// (approximating the element, since the lattice tracks sets, not individual
// iterations) before invoking body in the innermost scope.
func (ip *Interpreter) runCompFors(s *scope.Scope, fors []ast.CompFor, idx int, body func(*scope.Scope)) {
	if idx >= len(fors) {
		body(s)
		return
	}
	clause := fors[idx]
	iterSet := ip.evalExpr(s, clause.Iter)
	elemSet := iterSet.GetIter(ip.Budgets)
	for _, target := range clause.Targets {
		ip.assign(s, target, elemSet)
	}
	for _, ifCond := range clause.Ifs {
		ip.evalExpr(s, ifCond)
	}
	ip.runCompFors(s, fors, idx+1, body)
}

func (ip *Interpreter) evalLambda(s *scope.Scope, e *ast.Expr) value.Set {
	lambdaScope := s.NewChild(scope.Lambda, "")
	scopeID := ip.Scopes.Register(lambdaScope)
	defID := ip.Defs.RegisterLambda(ip.Module, e)
	fn := value.Function{
		Def:      defID,
		Name:     "<lambda>",
		Closure:  scopeID,
		Interner: value.NewInterner(),
		Returns:  map[uint64]value.Handle{},
	}
	return value.NewSet(fn)
}

// evalCall implements call evaluation under the Cartesian Product Algorithm
// (spec §4.F/§9): the callee is evaluated to a value set, and each callable
// member's Call is invoked with a CallContext derived from the argument
// value-set fingerprints, depth-bounded by Budgets.CallContextDepth.
func (ip *Interpreter) evalCall(s *scope.Scope, e *ast.Expr) value.Set {
	callee := ip.evalExpr(s, e.Func)
	var args []value.Set
	for _, a := range e.Args {
		if a.Kind == ast.EStarred {
			args = append(args, ip.evalExpr(s, a.Inner))
			continue
		}
		args = append(args, ip.evalExpr(s, a))
	}
	kwargs := map[string]value.Set{}
	for _, kw := range e.Keywords {
		if kw.Name == "" {
			continue // **kwargs spread: not modeled as a named binding
		}
		kwargs[kw.Name] = ip.evalExpr(s, kw.Value)
	}

	var out value.Set
	for _, v := range callee.Values() {
		out = value.Join(out, ip.dispatchCallable(v, args, kwargs, e), ip.Budgets.Assignment)
	}
	return out
}

// dispatchCallable invokes v as a callee, unwrapping the layers a callable
// can arrive wrapped in — functools.partial's bound-argument prefix
// (value.Partial) and staticmethod/classmethod (value.Descriptor) — so a
// user-defined value.Function underneath still walks its body via
// invokeFunction under a CallContext derived from its *actual* combined
// arguments, rather than stopping at Function.Call's cache-only lookup.
func (ip *Interpreter) dispatchCallable(v value.Value, args []value.Set, kwargs map[string]value.Set, e *ast.Expr) value.Set {
	ctx := value.NewCallContext(value.RootCallContext, args, kwargs)
	if ctx.Insensitive(ip.Budgets) {
		ctx = value.RootCallContext
	}
	switch fn := v.(type) {
	case value.Function:
		return ip.invokeFunction(fn, args, kwargs, ctx)
	case value.BoundMethod:
		boundArgs := append([]value.Set{value.NewSet(fn.Instance)}, args...)
		return ip.dispatchCallable(fn.Func, boundArgs, kwargs, e)
	case value.Partial:
		if fn.Func == nil {
			return value.Set{}
		}
		combinedArgs := append(append([]value.Set{}, fn.BoundArgs...), args...)
		combinedKwargs := kwargs
		if len(fn.BoundKwargs) > 0 {
			combinedKwargs = make(map[string]value.Set, len(fn.BoundKwargs)+len(kwargs))
			for k, v := range fn.BoundKwargs {
				combinedKwargs[k] = v
			}
			for k, v := range kwargs {
				combinedKwargs[k] = v
			}
		}
		return ip.dispatchCallable(fn.Func, combinedArgs, combinedKwargs, e)
	case value.Descriptor:
		if fn.Wrapped == nil {
			return value.Set{}
		}
		return ip.dispatchCallable(fn.Wrapped, args, kwargs, e)
	default:
		if !isCallable(v) {
			ip.diagnose("not-callable", token.Span{Start: e.Pos, End: e.End}, "%s is not callable", v.Type())
		}
		return v.Call(args, kwargs, ctx)
	}
}

// isCallable reports whether v is a variant whose Call is meaningful, vs.
// one that merely inherits base.Call's empty-Set default.
func isCallable(v value.Value) bool {
	switch t := v.(type) {
	case *value.Class, value.Builtin, value.AnyValue, value.Partial, value.Descriptor:
		return true
	case value.Protocol:
		return t.Capability == "callable"
	default:
		return false
	}
}

// resolveProperties replaces any value.PropertyResult in set with its
// getter's return value, the attribute-access-time half of the property
// descriptor protocol (spec §4.F "Attribute access" — descriptors are
// applied via `__get__`); every other member passes through unchanged.
func resolveProperties(set value.Set, budgets value.Budgets) value.Set {
	var out value.Set
	changed := false
	for _, v := range set.Values() {
		if p, ok := v.(value.PropertyResult); ok {
			changed = true
			out = value.Join(out, p.Invoke(value.RootCallContext), budgets.Assignment)
			continue
		}
		out = out.Add(v, budgets.Assignment)
	}
	if !changed {
		return set
	}
	return out
}
