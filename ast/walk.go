package ast

// WalkStmts recursively visits every statement reachable from stmts,
// including those nested in if/while/for/try/with/def/class bodies. visit is
// called on each statement in source order; returning false skips that
// statement's children (its own siblings still get visited), mirroring the
// teacher's WalkAST(ast, func(stmt) bool) descend-or-prune callback shape.
func WalkStmts(stmts []*Stmt, visit func(*Stmt) bool) {
	for _, s := range stmts {
		if s == nil {
			continue
		}
		if !visit(s) {
			continue
		}
		WalkStmts(s.Body, visit)
		WalkStmts(s.Else, visit)
		for _, elif := range s.Elif {
			WalkStmts(elif.Body, visit)
		}
		for _, h := range s.TryHandlers {
			WalkStmts(h.Body, visit)
		}
		WalkStmts(s.TryElse, visit)
		WalkStmts(s.TryFinally, visit)
		if s.FuncDef != nil {
			WalkStmts(s.FuncDef.Body, visit)
		}
		if s.ClassDef != nil {
			WalkStmts(s.ClassDef.Body, visit)
		}
	}
}

// WalkExprs visits every expression reachable from stmts: each statement's
// own expression fields, plus everything nested inside sub-statements. visit
// is called on each expression; returning false skips that expression's
// children.
func WalkExprs(stmts []*Stmt, visit func(*Expr) bool) {
	WalkStmts(stmts, func(s *Stmt) bool {
		walkStmtExprs(s, visit)
		return true
	})
}

func walkStmtExprs(s *Stmt, visit func(*Expr) bool) {
	walkExpr(s.Expr, visit)
	for _, t := range s.Targets {
		walkExpr(t, visit)
	}
	walkExpr(s.Value, visit)
	walkExpr(s.Target, visit)
	walkExpr(s.AugVal, visit)
	walkExpr(s.Annotation, visit)
	for _, v := range s.Values {
		walkExpr(v, visit)
	}
	walkExpr(s.Message, visit)
	walkExpr(s.Cond, visit)
	for _, elif := range s.Elif {
		walkExpr(elif.Cond, visit)
	}
	for _, t := range s.ForTargets {
		walkExpr(t, visit)
	}
	walkExpr(s.ForIter, visit)
	for _, h := range s.TryHandlers {
		walkExpr(h.Type, visit)
	}
	for _, w := range s.WithItems {
		walkExpr(w.Context, visit)
		walkExpr(w.Target, visit)
	}
	if s.FuncDef != nil {
		for _, p := range s.FuncDef.Params {
			walkExpr(p.Annotation, visit)
			walkExpr(p.Default, visit)
		}
		walkExpr(s.FuncDef.Returns, visit)
		for _, d := range s.FuncDef.Decorators {
			walkExpr(d, visit)
		}
	}
	if s.ClassDef != nil {
		for _, b := range s.ClassDef.Bases {
			walkExpr(b, visit)
		}
		for _, kw := range s.ClassDef.Keywords {
			walkExpr(kw.Value, visit)
		}
		for _, d := range s.ClassDef.Decorators {
			walkExpr(d, visit)
		}
	}
	walkExpr(s.PrintDest, visit)
	for _, v := range s.PrintVals {
		walkExpr(v, visit)
	}
	walkExpr(s.ExecCode, visit)
	walkExpr(s.ExecGlobals, visit)
	walkExpr(s.ExecLocals, visit)
}

func walkExpr(e *Expr, visit func(*Expr) bool) {
	if e == nil {
		return
	}
	if !visit(e) {
		return
	}
	for _, elt := range e.Elts {
		walkExpr(elt, visit)
	}
	for _, k := range e.Keys {
		walkExpr(k, visit)
	}
	for _, v := range e.DictV {
		walkExpr(v, visit)
	}
	walkExpr(e.CompElt, visit)
	walkExpr(e.CompVal, visit)
	for _, cf := range e.CompFors {
		for _, t := range cf.Targets {
			walkExpr(t, visit)
		}
		walkExpr(cf.Iter, visit)
		for _, i := range cf.Ifs {
			walkExpr(i, visit)
		}
	}
	for _, p := range e.Params {
		walkExpr(p.Annotation, visit)
		walkExpr(p.Default, visit)
	}
	walkExpr(e.Body, visit)
	walkExpr(e.Test, visit)
	walkExpr(e.Then, visit)
	walkExpr(e.Orelse, visit)
	for _, v := range e.Values {
		walkExpr(v, visit)
	}
	walkExpr(e.Left, visit)
	walkExpr(e.Right, visit)
	for _, r := range e.CompareRights {
		walkExpr(r, visit)
	}
	walkExpr(e.Func, visit)
	for _, a := range e.Args {
		walkExpr(a, visit)
	}
	for _, kw := range e.Keywords {
		walkExpr(kw.Value, visit)
	}
	walkExpr(e.Value, visit)
	walkExpr(e.Subject, visit)
	walkExpr(e.Index, visit)
	walkExpr(e.Lower, visit)
	walkExpr(e.Upper, visit)
	walkExpr(e.Step, visit)
	walkExpr(e.Inner, visit)
}

// WithinRange reports whether pos falls within [start, end), matching the
// teacher's asp.WithinRange cursor-containment check.
func WithinRange(pos Pos, start, end Pos) bool {
	return pos >= start && pos < end
}
