package interp

import (
	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/scope"
	"github.com/pyanalyze/pyanalyze/value"
)

// invokeFunction executes a user-defined function's body under ctx, the way
// the teacher's pyFunc.Call walks its Statements in a fresh child scope. The
// result is memoized on fn's own Interner/Returns map (shared by reference
// across every copy of fn, since Go maps and pointers are reference types)
// so a later call under an equivalent context reuses it instead of
// re-walking the body — the direct-invocation stand-in for the formal
// per-call-context Unit the queue package schedules (spec §3 "Unit":
// "function-body (per call context)").
func (ip *Interpreter) invokeFunction(fn value.Function, args []value.Set, kwargs map[string]value.Set, ctx value.CallContext) value.Set {
	if ctx.Insensitive(ip.Budgets) {
		ctx = value.RootCallContext
	}
	if fn.Interner != nil {
		if h, ok := fn.Returns[ctx.Token()]; ok {
			return fn.Interner.Resolve(h)
		}
		// Seed a placeholder before walking the body so a recursive call
		// under the same context sees "unknown so far" instead of looping.
		fn.Returns[ctx.Token()] = fn.Interner.Intern(value.Set{})
	}

	closureScope, ok := ip.Scopes.Get(fn.Closure)
	if !ok {
		return value.Set{}
	}
	callScope := closureScope.NewChild(scope.Function, "")

	var ret value.Set
	if lambdaBody, ok := ip.Defs.Lambda(fn.Def); ok {
		ip.bindParams(callScope, lambdaBody.Params, args, kwargs)
		ret = ip.evalExpr(callScope, lambdaBody.Body)
	} else if def, ok := ip.Defs.Func(fn.Def); ok {
		ip.bindParams(callScope, def.Params, args, kwargs)
		c := ip.evalBlock(callScope, def.Body)
		if c.kind == ctrlReturn {
			ret = c.value
		} else {
			ret = value.NewSet(value.Constant{TypeName: "NoneType", Literal: nil})
		}
		if fn.IsGenerator {
			ret = value.NewSet(value.Generator{Yields: collectYields(callScope, def.Body, ip), Return: ret})
		}
	} else {
		return value.Set{}
	}

	if fn.Interner != nil {
		fn.Returns[ctx.Token()] = fn.Interner.Intern(ret)
	}
	return ret
}

// bindParams binds positional and keyword arguments to a function's
// parameter list, handling *args/**kwargs collection and default values for
// arguments the caller omitted (spec §4.F call semantics).
func (ip *Interpreter) bindParams(s *scope.Scope, params []ast.Param, args []value.Set, kwargs map[string]value.Set) {
	pos := 0
	for _, p := range params {
		switch p.Kind {
		case ast.ParamKeywordOnlyMarker:
			continue
		case ast.ParamVarArgs:
			var rest value.Set
			for ; pos < len(args); pos++ {
				rest = value.Join(rest, args[pos], ip.Budgets.Assignment)
			}
			s.Define(p.Name, int(p.Pos), rest, ip.Budgets)
		case ast.ParamKwArgs:
			var rest value.Set
			for _, v := range kwargs {
				rest = value.Join(rest, v, ip.Budgets.Assignment)
			}
			s.Define(p.Name, int(p.Pos), rest, ip.Budgets)
		default:
			var v value.Set
			if kw, ok := kwargs[p.Name]; ok {
				v = kw
			} else if pos < len(args) {
				v = args[pos]
				pos++
			} else if p.Default != nil {
				v = ip.evalExpr(s, p.Default)
			} else {
				v = value.NewSet(value.Any)
			}
			s.Define(p.Name, int(p.Pos), v, ip.Budgets)
		}
	}
}

// collectYields re-walks the body collecting every yielded expression's
// value set; a coarse approximation since units don't yet suspend/resume at
// each `yield` the way a real generator would (owned by queue/session once
// built).
func collectYields(s *scope.Scope, stmts []*ast.Stmt, ip *Interpreter) value.Set {
	var out value.Set
	var walk func([]*ast.Stmt)
	var walkExpr func(*ast.Expr)
	walkExpr = func(e *ast.Expr) {
		if e == nil {
			return
		}
		if e.Kind == ast.EYield || e.Kind == ast.EYieldFrom {
			out = value.Join(out, ip.evalExpr(s, e.Inner), ip.Budgets.Assignment)
		}
	}
	walk = func(body []*ast.Stmt) {
		for _, stmt := range body {
			walkExpr(stmt.Expr)
			walkExpr(stmt.Value)
			for _, v := range stmt.Values {
				walkExpr(v)
			}
			walk(stmt.Body)
			walk(stmt.Else)
			for _, elif := range stmt.Elif {
				walk(elif.Body)
			}
			for _, h := range stmt.TryHandlers {
				walk(h.Body)
			}
			walk(stmt.TryElse)
			walk(stmt.TryFinally)
		}
	}
	walk(stmts)
	return out
}
