package ast

import "strings"

// Emit re-renders a File as Python source. With opts == DefaultFormatOptions
// it writes the tree's names, literals, operators, and block structure with
// canonical spacing; any non-Preserve switch in opts forces the
// corresponding whitespace on or off per spec (§4.B "code-formatting
// mode"). A statement's Leading text is written ahead of the statement, but
// Parse leaves Leading empty, so the comments of a parsed source are not
// re-emitted.
func Emit(f *File, opts FormatOptions) string {
	var b strings.Builder
	emitBlock(&b, f.Statements, 0, opts)
	return b.String()
}

func indentStr(depth int) string { return strings.Repeat("    ", depth) }

func emitBlock(b *strings.Builder, stmts []*Stmt, depth int, opts FormatOptions) {
	for _, s := range stmts {
		emitStmt(b, s, depth, opts)
	}
}

func emitLeading(b *strings.Builder, leading string) {
	if leading == "" {
		return
	}
	b.WriteString(strings.TrimRight(leading, " \t"))
}

func emitStmt(b *strings.Builder, s *Stmt, depth int, opts FormatOptions) {
	if s == nil {
		return
	}
	emitLeading(b, s.Leading)
	b.WriteString(indentStr(depth))
	switch s.Kind {
	case SExpr:
		b.WriteString(emitExpr(s.Expr, opts))
	case SAssign:
		for i, t := range s.Targets {
			if i > 0 {
				b.WriteString(" = ")
			}
			b.WriteString(emitExpr(t, opts))
		}
		b.WriteString(assignOpSpacing(opts))
		b.WriteString(emitExpr(s.Value, opts))
	case SAugAssign:
		b.WriteString(emitExpr(s.Target, opts))
		b.WriteString(" " + s.AugOp + " ")
		b.WriteString(emitExpr(s.AugVal, opts))
	case SAnnAssign:
		b.WriteString(emitExpr(s.Target, opts))
		b.WriteString(": ")
		b.WriteString(emitExpr(s.Annotation, opts))
		if s.Value != nil {
			b.WriteString(assignOpSpacing(opts))
			b.WriteString(emitExpr(s.Value, opts))
		}
	case SReturn:
		b.WriteString("return")
		emitValueList(b, s.Values, opts)
	case SRaise:
		b.WriteString("raise")
		emitValueList(b, s.Values, opts)
	case SAssert:
		b.WriteString("assert ")
		b.WriteString(emitExpr(s.Cond, opts))
		if s.Message != nil {
			b.WriteString(", ")
			b.WriteString(emitExpr(s.Message, opts))
		}
	case SDel:
		b.WriteString("del ")
		b.WriteString(emitExprJoin(s.Targets, opts))
	case SPass:
		b.WriteString("pass")
	case SBreak:
		b.WriteString("break")
	case SContinue:
		b.WriteString("continue")
	case SImport:
		b.WriteString("import ")
		b.WriteString(emitImportList(s.Imports))
	case SImportFrom:
		b.WriteString("from ")
		b.WriteString(strings.Repeat(".", s.FromDots))
		b.WriteString(s.FromModule)
		b.WriteString(" import ")
		if s.FromStar {
			b.WriteString("*")
		} else {
			b.WriteString(emitImportList(s.FromNames))
		}
	case SGlobal:
		b.WriteString("global ")
		b.WriteString(strings.Join(s.Names, ", "))
	case SNonlocal:
		b.WriteString("nonlocal ")
		b.WriteString(strings.Join(s.Names, ", "))
	case SIf:
		b.WriteString("if ")
		b.WriteString(emitExpr(s.Cond, opts))
		b.WriteString(":\n")
		emitBlock(b, s.Body, depth+1, opts)
		for _, elif := range s.Elif {
			b.WriteString(indentStr(depth) + "elif ")
			b.WriteString(emitExpr(elif.Cond, opts))
			b.WriteString(":\n")
			emitBlock(b, elif.Body, depth+1, opts)
		}
		if s.Else != nil {
			b.WriteString(indentStr(depth) + "else:\n")
			emitBlock(b, s.Else, depth+1, opts)
		}
		return
	case SWhile:
		b.WriteString("while ")
		b.WriteString(emitExpr(s.Cond, opts))
		b.WriteString(":\n")
		emitBlock(b, s.Body, depth+1, opts)
		if s.Else != nil {
			b.WriteString(indentStr(depth) + "else:\n")
			emitBlock(b, s.Else, depth+1, opts)
		}
		return
	case SFor:
		if s.IsAsyncFor {
			b.WriteString("async ")
		}
		b.WriteString("for ")
		b.WriteString(emitExprJoin(s.ForTargets, opts))
		b.WriteString(" in ")
		b.WriteString(emitExpr(s.ForIter, opts))
		b.WriteString(":\n")
		emitBlock(b, s.Body, depth+1, opts)
		if s.Else != nil {
			b.WriteString(indentStr(depth) + "else:\n")
			emitBlock(b, s.Else, depth+1, opts)
		}
		return
	case STry:
		b.WriteString("try:\n")
		emitBlock(b, s.Body, depth+1, opts)
		for _, h := range s.TryHandlers {
			b.WriteString(indentStr(depth) + "except")
			if h.Type != nil {
				b.WriteString(" " + emitExpr(h.Type, opts))
				if h.Name != "" {
					b.WriteString(" as " + h.Name)
				}
			}
			b.WriteString(":\n")
			emitBlock(b, h.Body, depth+1, opts)
		}
		if s.TryElse != nil {
			b.WriteString(indentStr(depth) + "else:\n")
			emitBlock(b, s.TryElse, depth+1, opts)
		}
		if s.TryFinally != nil {
			b.WriteString(indentStr(depth) + "finally:\n")
			emitBlock(b, s.TryFinally, depth+1, opts)
		}
		return
	case SWith:
		if s.IsAsyncWith {
			b.WriteString("async ")
		}
		b.WriteString("with ")
		for i, item := range s.WithItems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(emitExpr(item.Context, opts))
			if item.Target != nil {
				b.WriteString(" as " + emitExpr(item.Target, opts))
			}
		}
		b.WriteString(":\n")
		emitBlock(b, s.Body, depth+1, opts)
		return
	case SFuncDef:
		emitFuncDef(b, s.FuncDef, depth, opts)
		return
	case SClassDef:
		emitClassDef(b, s.ClassDef, depth, opts)
		return
	case SPrint:
		b.WriteString("print")
		if s.PrintDest != nil {
			b.WriteString(" >>" + emitExpr(s.PrintDest, opts) + ",")
		}
		for i, v := range s.PrintVals {
			if i > 0 || s.PrintDest != nil {
				b.WriteString(" ")
			} else {
				b.WriteString(" ")
			}
			b.WriteString(emitExpr(v, opts))
			if i < len(s.PrintVals)-1 {
				b.WriteString(",")
			}
		}
		if s.PrintNoNL {
			b.WriteString(",")
		}
	case SExec:
		b.WriteString("exec " + emitExpr(s.ExecCode, opts))
		if s.ExecGlobals != nil {
			b.WriteString(" in " + emitExpr(s.ExecGlobals, opts))
			if s.ExecLocals != nil {
				b.WriteString(", " + emitExpr(s.ExecLocals, opts))
			}
		}
	case SError:
		b.WriteString(s.ErrorText)
	}
	b.WriteString("\n")
}

func assignOpSpacing(opts FormatOptions) string {
	switch opts.SpacesAroundAssignmentOperator {
	case EnforceOff:
		return "="
	default:
		return " = "
	}
}

func emitValueList(b *strings.Builder, vals []*Expr, opts FormatOptions) {
	if len(vals) == 0 {
		return
	}
	b.WriteString(" ")
	b.WriteString(emitExprJoin(vals, opts))
}

func emitExprJoin(exprs []*Expr, opts FormatOptions) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = emitExpr(e, opts)
	}
	return strings.Join(parts, ", ")
}

func emitImportList(names []ImportName) string {
	parts := make([]string, len(names))
	for i, n := range names {
		if n.Alias != "" {
			parts[i] = n.Name + " as " + n.Alias
		} else {
			parts[i] = n.Name
		}
	}
	return strings.Join(parts, ", ")
}

func emitFuncDef(b *strings.Builder, fd *FuncDef, depth int, opts FormatOptions) {
	for _, d := range fd.Decorators {
		b.WriteString(indentStr(depth) + "@" + emitExpr(d, opts) + "\n")
	}
	b.WriteString(indentStr(depth))
	if fd.IsAsync {
		b.WriteString("async ")
	}
	b.WriteString("def " + fd.Name)
	if opts.spaceBefore(opts.SpaceBeforeFunctionParen, false) {
		b.WriteString(" ")
	}
	b.WriteString("(")
	b.WriteString(emitParamList(fd.Params, opts))
	b.WriteString(")")
	if fd.Returns != nil {
		if opts.spaceBefore(opts.SpaceAroundAnnotationArrow, true) {
			b.WriteString(" -> ")
		} else {
			b.WriteString("->")
		}
		b.WriteString(emitExpr(fd.Returns, opts))
	}
	b.WriteString(":\n")
	emitBlock(b, fd.Body, depth+1, opts)
}

func emitParamList(params []Param, opts FormatOptions) string {
	parts := make([]string, len(params))
	for i, p := range params {
		var s string
		switch p.Kind {
		case ParamVarArgs:
			s = "*" + p.Name
		case ParamKwArgs:
			s = "**" + p.Name
		case ParamKeywordOnlyMarker:
			s = "*"
		default:
			s = p.Name
		}
		if p.Annotation != nil {
			s += ": " + emitExpr(p.Annotation, opts)
		}
		if p.Default != nil {
			if opts.spaceBefore(opts.SpaceAroundDefaultEquals, p.Annotation != nil) {
				s += " = " + emitExpr(p.Default, opts)
			} else {
				s += "=" + emitExpr(p.Default, opts)
			}
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func emitClassDef(b *strings.Builder, cd *ClassDef, depth int, opts FormatOptions) {
	for _, d := range cd.Decorators {
		b.WriteString(indentStr(depth) + "@" + emitExpr(d, opts) + "\n")
	}
	b.WriteString(indentStr(depth) + "class " + cd.Name)
	if len(cd.Bases) > 0 || len(cd.Keywords) > 0 {
		b.WriteString("(")
		var parts []string
		for _, base := range cd.Bases {
			parts = append(parts, emitExpr(base, opts))
		}
		for _, kw := range cd.Keywords {
			parts = append(parts, kw.Name+"="+emitExpr(kw.Value, opts))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	b.WriteString(":\n")
	emitBlock(b, cd.Body, depth+1, opts)
}

// emitExpr renders a single expression. It is intentionally not
// parenthesisation-aware beyond what the grammar already requires (tuples,
// lambdas, conditional expressions): the parser never discards grouping
// parens needed for correctness because those always surface as a distinct
// node shape (e.g. a tuple).
func emitExpr(e *Expr, opts FormatOptions) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ENone:
		return "None"
	case EBool:
		if e.BoolVal {
			return "True"
		}
		return "False"
	case EEllipsis:
		return "..."
	case EInt:
		return e.IntVal
	case EFloat:
		return e.FloatVal
	case EStr:
		if e.StrRaw != "" {
			return e.StrRaw
		}
		return "'" + e.StrVal + "'"
	case EFString:
		return e.StrRaw
	case EName:
		return e.Name
	case ETuple:
		inner := emitExprJoin(e.Elts, opts)
		if len(e.Elts) == 1 {
			inner += ","
		}
		return "(" + inner + ")"
	case EList:
		return "[" + emitExprJoin(e.Elts, opts) + "]"
	case ESet:
		return "{" + emitExprJoin(e.Elts, opts) + "}"
	case EDict:
		parts := make([]string, len(e.Keys))
		for i := range e.Keys {
			if e.Keys[i] == nil {
				parts[i] = "**" + emitExpr(e.DictV[i], opts)
			} else {
				parts[i] = emitExpr(e.Keys[i], opts) + ": " + emitExpr(e.DictV[i], opts)
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case EListComp:
		return "[" + emitExpr(e.CompElt, opts) + emitCompFors(e.CompFors, opts) + "]"
	case ESetComp:
		return "{" + emitExpr(e.CompElt, opts) + emitCompFors(e.CompFors, opts) + "}"
	case EDictComp:
		return "{" + emitExpr(e.CompElt, opts) + ": " + emitExpr(e.CompVal, opts) + emitCompFors(e.CompFors, opts) + "}"
	case EGeneratorExp:
		return "(" + emitExpr(e.CompElt, opts) + emitCompFors(e.CompFors, opts) + ")"
	case ELambda:
		return "lambda " + emitParamList(e.Params, opts) + ": " + emitExpr(e.Body, opts)
	case EIfExp:
		return emitExpr(e.Then, opts) + " if " + emitExpr(e.Test, opts) + " else " + emitExpr(e.Orelse, opts)
	case EBoolOp:
		parts := make([]string, len(e.Values))
		for i, v := range e.Values {
			parts[i] = emitExpr(v, opts)
		}
		return strings.Join(parts, " "+e.BoolOpKind+" ")
	case EBinOp:
		return emitExpr(e.Left, opts) + binOpSpacing(e.Op, opts) + emitExpr(e.Right, opts)
	case EUnaryOp:
		if e.Op == "not" {
			return "not " + emitExpr(e.Right, opts)
		}
		return e.Op + emitExpr(e.Right, opts)
	case ECompare:
		var b strings.Builder
		b.WriteString(emitExpr(e.Left, opts))
		for i, op := range e.CompareOps {
			b.WriteString(" " + op + " ")
			b.WriteString(emitExpr(e.CompareRights[i], opts))
		}
		return b.String()
	case ECall:
		var b strings.Builder
		b.WriteString(emitExpr(e.Func, opts))
		b.WriteString("(")
		var parts []string
		for _, a := range e.Args {
			parts = append(parts, emitExpr(a, opts))
		}
		for _, kw := range e.Keywords {
			if kw.Name == "" {
				parts = append(parts, "**"+emitExpr(kw.Value, opts))
			} else {
				parts = append(parts, kw.Name+"="+emitExpr(kw.Value, opts))
			}
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
		return b.String()
	case EAttribute:
		return emitExpr(e.Value, opts) + "." + e.Attr
	case ESubscript:
		return emitExpr(e.Subject, opts) + "[" + emitExpr(e.Index, opts) + "]"
	case ESlice:
		var b strings.Builder
		if e.Lower != nil {
			b.WriteString(emitExpr(e.Lower, opts))
		}
		b.WriteString(":")
		if e.Upper != nil {
			b.WriteString(emitExpr(e.Upper, opts))
		}
		if e.Step != nil {
			b.WriteString(":")
			b.WriteString(emitExpr(e.Step, opts))
		}
		return b.String()
	case EStarred:
		return "*" + emitExpr(e.Inner, opts)
	case EYield:
		if e.Inner == nil {
			return "yield"
		}
		return "yield " + emitExpr(e.Inner, opts)
	case EYieldFrom:
		return "yield from " + emitExpr(e.Inner, opts)
	case EAwait:
		return "await " + emitExpr(e.Inner, opts)
	case EError:
		return e.ErrorText
	}
	return ""
}

func binOpSpacing(op string, opts FormatOptions) string {
	if opts.SpacesAroundBinaryOperators == EnforceOff {
		return op
	}
	return " " + op + " "
}

func emitCompFors(fors []CompFor, opts FormatOptions) string {
	var b strings.Builder
	for _, f := range fors {
		if f.IsAsync {
			b.WriteString(" async")
		}
		b.WriteString(" for ")
		b.WriteString(emitExprJoin(f.Targets, opts))
		b.WriteString(" in ")
		b.WriteString(emitExpr(f.Iter, opts))
		for _, ifc := range f.Ifs {
			b.WriteString(" if ")
			b.WriteString(emitExpr(ifc, opts))
		}
	}
	return b.String()
}
