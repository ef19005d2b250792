package interp

import (
	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/scope"
	"github.com/pyanalyze/pyanalyze/token"
	"github.com/pyanalyze/pyanalyze/value"
)

// resolveModule binds an import's module value via ip.ResolveImport if the
// owning session wired one in, raising `unresolved-import` on failure (spec
// §7 "Unresolved imports. Emitted as diagnostic; the import binding's value
// set is empty"). With no resolver configured, an import binds to a
// value.Module carrying only the dotted name and no members, and no
// unresolved-import diagnostic is raised.
func (ip *Interpreter) resolveModule(dotted string, stmt *ast.Stmt) value.Module {
	if ip.ResolveImport == nil {
		return value.Module{Name: dotted}
	}
	mod, err := ip.ResolveImport(dotted)
	if err != nil {
		ip.diagnose("unresolved-import", token.Span{Start: stmt.Pos, End: stmt.End}, "cannot resolve import %q: %s", dotted, err)
		return value.Module{Name: dotted}
	}
	return mod
}

// evalBlock interprets a statement list in order, short-circuiting the
// moment any statement yields a non-none control signal — mirroring the
// teacher's scope.interpretStatements loop-and-return-on-signal shape.
func (ip *Interpreter) evalBlock(s *scope.Scope, stmts []*ast.Stmt) control {
	for _, stmt := range stmts {
		if c := ip.evalStmt(s, stmt); c.kind != ctrlNone {
			return c
		}
	}
	return noControl
}

func (ip *Interpreter) evalStmt(s *scope.Scope, stmt *ast.Stmt) control {
	switch stmt.Kind {
	case ast.SExpr:
		ip.evalExpr(s, stmt.Expr)
		return noControl

	case ast.SAssign:
		v := ip.evalExpr(s, stmt.Value)
		for _, target := range stmt.Targets {
			ip.assign(s, target, v)
		}
		return noControl

	case ast.SAugAssign:
		cur := ip.evalExpr(s, stmt.Target)
		rhs := ip.evalExpr(s, stmt.AugVal)
		op := stmt.AugOp[:len(stmt.AugOp)-1] // "+=" -> "+"
		result := cur.BinOp(op, rhs, ip.Budgets)
		ip.assign(s, stmt.Target, result)
		return noControl

	case ast.SAnnAssign:
		if stmt.Value != nil {
			v := ip.evalExpr(s, stmt.Value)
			ip.assign(s, stmt.Target, v)
		}
		return noControl

	case ast.SReturn:
		if len(stmt.Values) == 0 {
			return control{kind: ctrlReturn, value: value.NewSet(value.Constant{TypeName: "NoneType", Literal: nil})}
		}
		if len(stmt.Values) == 1 {
			return control{kind: ctrlReturn, value: ip.evalExpr(s, stmt.Values[0])}
		}
		var elems value.Set
		for _, v := range stmt.Values {
			elems = value.Join(elems, ip.evalExpr(s, v), ip.Budgets.Assignment)
		}
		return control{kind: ctrlReturn, value: value.NewSet(wrapSequence(elems, len(stmt.Values)))}

	case ast.SRaise:
		for _, v := range stmt.Values {
			ip.evalExpr(s, v)
		}
		return noControl

	case ast.SAssert:
		if stmt.Cond != nil {
			ip.evalExpr(s, stmt.Cond)
		}
		if stmt.Message != nil {
			ip.evalExpr(s, stmt.Message)
		}
		return noControl

	case ast.SPass:
		return noControl

	case ast.SDel:
		return noControl

	case ast.SBreak:
		return control{kind: ctrlBreak}

	case ast.SContinue:
		return control{kind: ctrlContinue}

	case ast.SGlobal:
		for _, name := range stmt.Names {
			s.ForceGlobal(name)
		}
		return noControl

	case ast.SNonlocal:
		for _, name := range stmt.Names {
			s.ForceNonlocal(name)
		}
		return noControl

	case ast.SImport:
		for _, imp := range stmt.Imports {
			binding := imp.Alias
			if binding == "" {
				binding = imp.Name
			}
			s.Define(binding, int(stmt.Pos), value.NewSet(ip.resolveModule(imp.Name, stmt)), ip.Budgets)
		}
		return noControl

	case ast.SImportFrom:
		fromMod := ip.resolveModule(stmt.FromModule, stmt)
		for _, imp := range stmt.FromNames {
			binding := imp.Alias
			if binding == "" {
				binding = imp.Name
			}
			v, ok := fromMod.Property(imp.Name)
			if !ok {
				v = value.NewSet(value.Any)
			}
			s.Define(binding, int(stmt.Pos), v, ip.Budgets)
		}
		return noControl

	case ast.SIf:
		return ip.evalIf(s, stmt)

	case ast.SWhile:
		return ip.evalWhile(s, stmt)

	case ast.SFor:
		return ip.evalFor(s, stmt)

	case ast.STry:
		return ip.evalTry(s, stmt)

	case ast.SWith:
		return ip.evalWith(s, stmt)

	case ast.SFuncDef:
		ip.evalFuncDef(s, stmt.FuncDef, int(stmt.Pos))
		return noControl

	case ast.SClassDef:
		ip.evalClassDef(s, stmt.ClassDef, int(stmt.Pos))
		return noControl

	case ast.SPrint:
		if stmt.PrintDest != nil {
			ip.evalExpr(s, stmt.PrintDest)
		}
		for _, v := range stmt.PrintVals {
			ip.evalExpr(s, v)
		}
		return noControl

	case ast.SExec:
		if stmt.ExecCode != nil {
			ip.evalExpr(s, stmt.ExecCode)
		}
		if stmt.ExecGlobals != nil {
			ip.evalExpr(s, stmt.ExecGlobals)
		}
		if stmt.ExecLocals != nil {
			ip.evalExpr(s, stmt.ExecLocals)
		}
		return noControl

	case ast.SError:
		return noControl
	}
	return noControl
}

func wrapSequence(elems value.Set, length int) value.Value {
	in := value.NewInterner()
	h := in.Intern(elems)
	return value.Sequence{SeqKind: value.SeqTuple, Interner: in, KnownLength: length, AnyIndex: h}
}

// assign writes v into the scope bindings denoted by target, handling
// starred-target unpacking (PEP 3132) and plain name/attribute/subscript
// targets.
func (ip *Interpreter) assign(s *scope.Scope, target *ast.Expr, v value.Set) {
	switch target.Kind {
	case ast.EName:
		s.Define(target.Name, int(target.Pos), v, ip.Budgets)
	case ast.ETuple, ast.EList:
		for _, elt := range target.Elts {
			if elt.Kind == ast.EStarred {
				ip.assign(s, elt.Inner, v)
				continue
			}
			ip.assign(s, elt, v)
		}
	case ast.EAttribute:
		recv := ip.evalExpr(s, target.Value)
		for _, rv := range recv.Values() {
			if inst, ok := rv.(*value.Instance); ok {
				inst.SetAttr(target.Attr, v, ip.Budgets)
			}
		}
	case ast.ESubscript:
		recv := ip.evalExpr(s, target.Subject)
		idx := ip.evalExpr(s, target.Index)
		for _, rv := range recv.Values() {
			for _, iv := range idx.Values() {
				rv.SetIndex(iv, v)
			}
		}
	case ast.EStarred:
		ip.assign(s, target.Inner, v)
	}
}

func (ip *Interpreter) evalIf(s *scope.Scope, stmt *ast.Stmt) control {
	cond := ip.evalExpr(s, stmt.Cond)
	truthy, known := cond.IsTruthy()

	thenScope, elseScope := ip.narrowedScopes(s, stmt.Cond)

	if known && truthy {
		return ip.evalBlock(thenScope, stmt.Body)
	}
	if known && !truthy {
		return ip.evalElif(elseScope, stmt, 0)
	}
	// Unknown truthiness: analyze both arms, joining narrowed bindings back.
	thenCtrl := ip.evalBlock(thenScope, stmt.Body)
	elseCtrl := ip.evalElif(elseScope, stmt, 0)
	ip.joinNarrowedScope(s, thenScope, stmt.Cond)
	ip.joinNarrowedScope(s, elseScope, stmt.Cond)
	if thenCtrl.kind != ctrlNone {
		return thenCtrl
	}
	return elseCtrl
}

func (ip *Interpreter) evalElif(s *scope.Scope, stmt *ast.Stmt, idx int) control {
	if idx < len(stmt.Elif) {
		elif := stmt.Elif[idx]
		cond := ip.evalExpr(s, elif.Cond)
		if truthy, known := cond.IsTruthy(); !known || truthy {
			return ip.evalBlock(s, elif.Body)
		}
		return ip.evalElif(s, stmt, idx+1)
	}
	return ip.evalBlock(s, stmt.Else)
}

// narrowedScopes implements spec §4.D "Narrowing": an `isinstance(X, T)`
// condition creates a child scope for the then-branch with X filtered to
// type T, and the else-branch sees the complement.
func (ip *Interpreter) narrowedScopes(s *scope.Scope, cond *ast.Expr) (*scope.Scope, *scope.Scope) {
	name, typeName, ok := isinstanceCheck(cond)
	if !ok {
		return s, s
	}
	return s.Narrow(name, typeName), s.NarrowComplement(name, typeName)
}

func (ip *Interpreter) joinNarrowedScope(parent, child *scope.Scope, cond *ast.Expr) {
	if parent == child {
		return
	}
	name, _, ok := isinstanceCheck(cond)
	if !ok {
		return
	}
	parent.JoinBack(child, name, ip.Budgets)
}

// isinstanceCheck recognizes `isinstance(X, T)` where X is a bare name and T
// a bare name, the only narrowing shape the spec calls out.
func isinstanceCheck(cond *ast.Expr) (name, typeName string, ok bool) {
	if cond == nil || cond.Kind != ast.ECall || cond.Func == nil || cond.Func.Kind != ast.EName {
		return "", "", false
	}
	if cond.Func.Name != "isinstance" || len(cond.Args) != 2 {
		return "", "", false
	}
	if cond.Args[0].Kind != ast.EName || cond.Args[1].Kind != ast.EName {
		return "", "", false
	}
	return cond.Args[0].Name, cond.Args[1].Name, true
}

func (ip *Interpreter) evalWhile(s *scope.Scope, stmt *ast.Stmt) control {
	ip.evalExpr(s, stmt.Cond)
	c := ip.evalBlock(s, stmt.Body)
	switch c.kind {
	case ctrlBreak:
		return noControl
	case ctrlReturn:
		return c
	}
	return ip.evalBlock(s, stmt.Else)
}

func (ip *Interpreter) evalFor(s *scope.Scope, stmt *ast.Stmt) control {
	iterSet := ip.evalExpr(s, stmt.ForIter)
	elemSet := iterSet.GetIter(ip.Budgets)
	for _, target := range stmt.ForTargets {
		ip.assign(s, target, elemSet)
	}
	c := ip.evalBlock(s, stmt.Body)
	switch c.kind {
	case ctrlBreak:
		return noControl
	case ctrlReturn:
		return c
	}
	return ip.evalBlock(s, stmt.Else)
}

func (ip *Interpreter) evalTry(s *scope.Scope, stmt *ast.Stmt) control {
	c := ip.evalBlock(s, stmt.Body)
	for _, handler := range stmt.TryHandlers {
		if handler.Type != nil {
			ip.evalExpr(s, handler.Type)
		}
		if handler.Name != "" {
			s.Define(handler.Name, int(stmt.Pos), value.NewSet(value.Any), ip.Budgets)
		}
		hc := ip.evalBlock(s, handler.Body)
		if hc.kind != ctrlNone {
			c = hc
		}
	}
	if c.kind == ctrlNone {
		if ec := ip.evalBlock(s, stmt.TryElse); ec.kind != ctrlNone {
			c = ec
		}
	}
	if fc := ip.evalBlock(s, stmt.TryFinally); fc.kind != ctrlNone {
		return fc
	}
	return c
}

func (ip *Interpreter) evalWith(s *scope.Scope, stmt *ast.Stmt) control {
	for _, item := range stmt.WithItems {
		ctxSet := ip.evalExpr(s, item.Context)
		if item.Target != nil {
			ip.assign(s, item.Target, ctxSet)
		}
	}
	return ip.evalBlock(s, stmt.Body)
}

func (ip *Interpreter) evalFuncDef(s *scope.Scope, def *ast.FuncDef, defSite int) {
	defID := ip.Defs.RegisterFunc(ip.Module, def)
	fnScope := s.NewChild(scope.Function, "")
	scopeID := ip.Scopes.Register(fnScope)
	isGen := containsYield(def.Body)
	fn := value.Function{
		Def:         defID,
		Name:        def.Name,
		Closure:     scopeID,
		IsAsync:     def.IsAsync,
		IsGenerator: isGen,
		Interner:    value.NewInterner(),
		Returns:     map[uint64]value.Handle{},
	}
	result := ip.applyDecorators(s, def.Decorators, value.NewSet(fn))
	s.Define(def.Name, defSite, result, ip.Budgets)
}

// applyDecorators implements `@d1\n@d2\ndef f(): ...` as `f = d1(d2(f))`
// (spec §4.F "Decorator"): the decorator closest to the def/class applies
// first, so the list (given in source/top-to-bottom order) is walked in
// reverse.
func (ip *Interpreter) applyDecorators(s *scope.Scope, decorators []*ast.Expr, target value.Set) value.Set {
	for i := len(decorators) - 1; i >= 0; i-- {
		decExpr := decorators[i]
		dec := ip.evalExpr(s, decExpr)
		var out value.Set
		for _, v := range dec.Values() {
			out = value.Join(out, ip.dispatchCallable(v, []value.Set{target}, nil, decExpr), ip.Budgets.Assignment)
		}
		target = out
	}
	return target
}

func containsYield(stmts []*ast.Stmt) bool {
	for _, stmt := range stmts {
		if stmt.Expr != nil && exprContainsYield(stmt.Expr) {
			return true
		}
		if stmt.Value != nil && exprContainsYield(stmt.Value) {
			return true
		}
		for _, v := range stmt.Values {
			if exprContainsYield(v) {
				return true
			}
		}
		if containsYield(stmt.Body) || containsYield(stmt.Else) {
			return true
		}
		for _, elif := range stmt.Elif {
			if containsYield(elif.Body) {
				return true
			}
		}
	}
	return false
}

func exprContainsYield(e *ast.Expr) bool {
	if e == nil {
		return false
	}
	return e.Kind == ast.EYield || e.Kind == ast.EYieldFrom
}

func (ip *Interpreter) evalClassDef(s *scope.Scope, def *ast.ClassDef, defSite int) {
	defID := ip.Defs.RegisterClass(ip.Module, def)
	classScope := s.NewChild(scope.Class, def.Name)
	cls := &value.Class{Def: defID, Name: def.Name, Members: map[string]value.Set{}}
	cls.MRO = []*value.Class{cls}

	var bases []*value.Class
	for _, baseExpr := range def.Bases {
		baseSet := ip.evalExpr(s, baseExpr)
		for _, v := range baseSet.Values() {
			if b, ok := v.(*value.Class); ok {
				bases = append(bases, b)
				break // only the first resolved class per base expr participates in linearization
			}
		}
	}
	if len(bases) > 0 {
		if mro, err := linearizeMRO(cls, bases); err != nil {
			pos := token.Position(defSite)
			ip.diagnose("invalid-mro", token.Span{Start: pos, End: pos}, "%s", err)
			cls.MRO = append([]*value.Class{cls}, bases...)
		} else {
			cls.MRO = mro
		}
	}

	for _, bodyStmt := range def.Body {
		if bodyStmt.Kind == ast.SFuncDef {
			ip.evalFuncDef(classScope, bodyStmt.FuncDef, int(bodyStmt.Pos))
			if vi, _, ok := classScope.Lookup(bodyStmt.FuncDef.Name); ok {
				cls.Members[bodyStmt.FuncDef.Name] = vi.Value
			}
			continue
		}
		ip.evalStmt(classScope, bodyStmt)
	}
	result := ip.applyDecorators(s, def.Decorators, value.NewSet(cls))
	s.Define(def.Name, defSite, result, ip.Budgets)
}
