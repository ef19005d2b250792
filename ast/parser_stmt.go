package ast

import "github.com/pyanalyze/pyanalyze/token"

// parseStatements parses one logical source line and returns the statement(s)
// it contains: compound statements (if/for/def/...) always yield exactly one,
// while a simple-statement line may hold several semicolon-separated
// statements.
func (p *Parser) parseStatements() []*Stmt {
	tok := p.lex.Peek()

	if tok.Kind == token.Op && tok.Text == "@" {
		return []*Stmt{p.parseDecorated()}
	}

	if tok.Kind == token.Keyword {
		switch tok.Text {
		case "if":
			return []*Stmt{p.parseIf()}
		case "while":
			return []*Stmt{p.parseWhile()}
		case "for":
			return []*Stmt{p.parseFor(false)}
		case "try":
			return []*Stmt{p.parseTry()}
		case "with":
			return []*Stmt{p.parseWith(false)}
		case "def":
			return []*Stmt{p.parseFuncDef(false, nil)}
		case "class":
			return []*Stmt{p.parseClassDef(nil)}
		case "async":
			return []*Stmt{p.parseAsync()}
		}
	}
	return p.parseSimpleStatementLine()
}

func (p *Parser) parseDecorated() *Stmt {
	var decorators []*Expr
	for p.atOp("@") {
		p.lex.Next()
		decorators = append(decorators, p.parseExpr())
		if p.lex.Peek().Kind == token.Newline {
			p.lex.Next()
		}
	}
	if p.atKeyword("async") {
		p.lex.Next()
		if p.atKeyword("def") {
			return p.parseFuncDef(true, decorators)
		}
	}
	if p.atKeyword("class") {
		return p.parseClassDef(decorators)
	}
	return p.parseFuncDef(false, decorators)
}

func (p *Parser) parseAsync() *Stmt {
	p.lex.Next() // async
	switch {
	case p.atKeyword("def"):
		return p.parseFuncDef(true, nil)
	case p.atKeyword("for"):
		return p.parseFor(true)
	case p.atKeyword("with"):
		return p.parseWith(true)
	default:
		start := p.lex.Peek().Span.Start
		return p.recoverToNextLine(start, "expected def/for/with after async")
	}
}

func (p *Parser) parseSimpleStatement() *Stmt {
	tok := p.lex.Peek()
	start := tok.Span.Start
	if tok.Kind == token.Keyword {
		switch tok.Text {
		case "pass":
			p.lex.Next()
			return &Stmt{Kind: SPass, Pos: start, End: p.endPos()}
		case "break":
			p.lex.Next()
			return &Stmt{Kind: SBreak, Pos: start, End: p.endPos()}
		case "continue":
			p.lex.Next()
			return &Stmt{Kind: SContinue, Pos: start, End: p.endPos()}
		case "return":
			p.lex.Next()
			vals := p.parseOptionalExprList()
			return &Stmt{Kind: SReturn, Pos: start, End: p.endPos(), Values: vals}
		case "raise":
			p.lex.Next()
			vals := p.parseOptionalExprList()
			s := &Stmt{Kind: SRaise, Pos: start, End: p.endPos(), Values: vals}
			return s
		case "assert":
			p.lex.Next()
			cond := p.parseExpr()
			s := &Stmt{Kind: SAssert, Pos: start, End: p.endPos(), Cond: cond}
			if p.atOp(",") {
				p.lex.Next()
				s.Message = p.parseExpr()
				s.End = p.endPos()
			}
			return s
		case "del":
			p.lex.Next()
			targets := p.parseExprList()
			return &Stmt{Kind: SDel, Pos: start, End: p.endPos(), Targets: targets}
		case "global":
			p.lex.Next()
			names := p.parseNameList()
			return &Stmt{Kind: SGlobal, Pos: start, End: p.endPos(), Names: names}
		case "nonlocal":
			p.lex.Next()
			names := p.parseNameList()
			return &Stmt{Kind: SNonlocal, Pos: start, End: p.endPos(), Names: names}
		case "import":
			return p.parseImport(start)
		case "from":
			return p.parseImportFrom(start)
		case "print":
			return p.parsePrintStatement(start)
		case "exec":
			return p.parseExecStatement(start)
		}
	}
	return p.parseExprOrAssignStatement(start)
}

func (p *Parser) endPos() token.Position {
	// The end position of the statement just parsed is the start of whatever
	// comes next (newline/semicolon/EOF); approximate with current peek start.
	return p.lex.Peek().Span.Start
}

func (p *Parser) parseNameList() []string {
	var names []string
	for {
		tok := p.lex.Peek()
		if tok.Kind != token.Ident {
			p.diag(tok.Span, "expected-name", "expected identifier, got %q", tok.String())
			break
		}
		p.lex.Next()
		names = append(names, tok.Text)
		if p.atOp(",") {
			p.lex.Next()
			continue
		}
		break
	}
	return names
}

func (p *Parser) parseOptionalExprList() []*Expr {
	tok := p.lex.Peek()
	if tok.Kind == token.Newline || tok.Kind == token.EOF || (tok.Kind == token.Op && (tok.Text == ";")) {
		return nil
	}
	return p.parseExprList()
}

func (p *Parser) parseExprList() []*Expr {
	var exprs []*Expr
	exprs = append(exprs, p.parseStarOrExpr())
	for p.atOp(",") {
		p.lex.Next()
		tok := p.lex.Peek()
		if tok.Kind == token.Newline || tok.Kind == token.EOF || (tok.Kind == token.Op && tok.Text == "=") {
			break
		}
		exprs = append(exprs, p.parseStarOrExpr())
	}
	return exprs
}

func (p *Parser) parseStarOrExpr() *Expr {
	if p.atOp("*") {
		start := p.lex.Next().Span.Start
		inner := p.parseExpr()
		return &Expr{Kind: EStarred, Pos: start, End: inner.End, Inner: inner}
	}
	return p.parseExpr()
}

// parseExprOrAssignStatement handles plain expression statements, assignment
// (including chained and tuple-unpacking targets), augmented assignment, and
// annotated assignment (spec §4.F "assignment ... statement rules").
func (p *Parser) parseExprOrAssignStatement(start token.Position) *Stmt {
	first := p.parseExprListAsTuple()

	if tok := p.lex.Peek(); tok.Kind == token.Op && isAugOp(tok.Text) {
		p.lex.Next()
		val := p.parseExprListAsTuple()
		return &Stmt{Kind: SAugAssign, Pos: start, End: p.endPos(), Target: first, AugOp: tok.Text, AugVal: val}
	}
	if p.atOp(":") {
		p.lex.Next()
		ann := p.parseExpr()
		s := &Stmt{Kind: SAnnAssign, Pos: start, End: p.endPos(), Target: first, Annotation: ann}
		if p.atOp("=") {
			p.lex.Next()
			s.Value = p.parseExprListAsTuple()
			s.End = p.endPos()
		}
		return s
	}
	if p.atOp("=") {
		targets := []*Expr{first}
		var value *Expr
		for p.atOp("=") {
			p.lex.Next()
			value = p.parseExprListAsTuple()
			if p.atOp("=") {
				targets = append(targets, value)
			}
		}
		return &Stmt{Kind: SAssign, Pos: start, End: p.endPos(), Targets: targets, Value: value}
	}
	return &Stmt{Kind: SExpr, Pos: start, End: p.endPos(), Expr: first}
}

func isAugOp(text string) bool {
	switch text {
	case "+=", "-=", "*=", "/=", "//=", "%=", "**=", ">>=", "<<=", "&=", "|=", "^=":
		return true
	}
	return false
}

// parseExprListAsTuple parses a comma-separated expression list and wraps it
// as a tuple literal when there's more than one element (handles unpacking
// targets like "a, b = 1, 2" uniformly with single-expression statements).
func (p *Parser) parseExprListAsTuple() *Expr {
	start := p.lex.Peek().Span.Start
	first := p.parseStarOrExpr()
	if !p.atOp(",") {
		return first
	}
	elts := []*Expr{first}
	for p.atOp(",") {
		p.lex.Next()
		tok := p.lex.Peek()
		if tok.Kind == token.Newline || tok.Kind == token.EOF ||
			(tok.Kind == token.Op && (tok.Text == "=" || tok.Text == ":" || isAugOp(tok.Text))) {
			break
		}
		elts = append(elts, p.parseStarOrExpr())
	}
	return &Expr{Kind: ETuple, Pos: start, End: p.endPos(), Elts: elts}
}

func (p *Parser) parseIf() *Stmt {
	start := p.lex.Next().Span.Start // if
	cond := p.parseExpr()
	body := p.parseSuite()
	s := &Stmt{Kind: SIf, Pos: start, Cond: cond, Body: body}
	for p.atKeyword("elif") {
		p.lex.Next()
		c := p.parseExpr()
		b := p.parseSuite()
		s.Elif = append(s.Elif, ElifClause{Cond: c, Body: b})
	}
	if p.atKeyword("else") {
		p.lex.Next()
		s.Else = p.parseSuite()
	}
	s.End = p.endPos()
	return s
}

func (p *Parser) parseWhile() *Stmt {
	start := p.lex.Next().Span.Start
	cond := p.parseExpr()
	body := p.parseSuite()
	s := &Stmt{Kind: SWhile, Pos: start, Cond: cond, Body: body}
	if p.atKeyword("else") {
		p.lex.Next()
		s.Else = p.parseSuite()
	}
	s.End = p.endPos()
	return s
}

func (p *Parser) parseFor(isAsync bool) *Stmt {
	start := p.lex.Next().Span.Start // for
	targets := p.parseTargetList()
	p.expectKeyword("in")
	iter := p.parseExprListAsTuple()
	body := p.parseSuite()
	s := &Stmt{Kind: SFor, Pos: start, ForTargets: targets, ForIter: iter, Body: body, IsAsyncFor: isAsync}
	if p.atKeyword("else") {
		p.lex.Next()
		s.Else = p.parseSuite()
	}
	s.End = p.endPos()
	return s
}

func (p *Parser) parseTargetList() []*Expr {
	var targets []*Expr
	targets = append(targets, p.parseStarOrExpr())
	for p.atOp(",") {
		p.lex.Next()
		if p.atKeyword("in") {
			break
		}
		targets = append(targets, p.parseStarOrExpr())
	}
	return targets
}

func (p *Parser) parseTry() *Stmt {
	start := p.lex.Next().Span.Start // try
	body := p.parseSuite()
	s := &Stmt{Kind: STry, Pos: start, Body: body}
	for p.atKeyword("except") {
		p.lex.Next()
		var clause ExceptClause
		if !p.atOp(":") {
			clause.Type = p.parseExpr()
			if p.atOp(",") { // Python 2 "except E, e" form
				p.lex.Next()
				if tok := p.lex.Peek(); tok.Kind == token.Ident {
					p.lex.Next()
					clause.Name = tok.Text
				}
			} else if p.atKeyword("as") {
				p.lex.Next()
				if tok := p.lex.Peek(); tok.Kind == token.Ident {
					p.lex.Next()
					clause.Name = tok.Text
				}
			}
		}
		clause.Body = p.parseSuite()
		s.TryHandlers = append(s.TryHandlers, clause)
	}
	if p.atKeyword("else") {
		p.lex.Next()
		s.TryElse = p.parseSuite()
	}
	if p.atKeyword("finally") {
		p.lex.Next()
		s.TryFinally = p.parseSuite()
	}
	s.End = p.endPos()
	return s
}

func (p *Parser) parseWith(isAsync bool) *Stmt {
	start := p.lex.Next().Span.Start // with
	var items []WithItem
	for {
		ctx := p.parseExpr()
		item := WithItem{Context: ctx}
		if p.atKeyword("as") {
			p.lex.Next()
			item.Target = p.parseExpr()
		}
		items = append(items, item)
		if p.atOp(",") {
			p.lex.Next()
			continue
		}
		break
	}
	body := p.parseSuite()
	return &Stmt{Kind: SWith, Pos: start, End: p.endPos(), WithItems: items, Body: body, IsAsyncWith: isAsync}
}

func (p *Parser) parseImport(start token.Position) *Stmt {
	p.lex.Next() // import
	var imports []ImportName
	for {
		name := p.parseDottedName()
		in := ImportName{Name: name}
		if p.atKeyword("as") {
			p.lex.Next()
			if tok := p.lex.Peek(); tok.Kind == token.Ident {
				p.lex.Next()
				in.Alias = tok.Text
			}
		}
		imports = append(imports, in)
		if p.atOp(",") {
			p.lex.Next()
			continue
		}
		break
	}
	return &Stmt{Kind: SImport, Pos: start, End: p.endPos(), Imports: imports}
}

func (p *Parser) parseDottedName() string {
	name := ""
	if tok := p.lex.Peek(); tok.Kind == token.Ident {
		p.lex.Next()
		name = tok.Text
	}
	for p.atOp(".") {
		p.lex.Next()
		if tok := p.lex.Peek(); tok.Kind == token.Ident {
			p.lex.Next()
			name += "." + tok.Text
		}
	}
	return name
}

// parseImportFrom handles "from [.[.[...]]module] import name [as alias], ..."
// and the star form, plus relative-import dot counting (spec §4.E point 5).
func (p *Parser) parseImportFrom(start token.Position) *Stmt {
	p.lex.Next() // from
	dots := 0
	for p.atOp(".") || p.atOp("...") {
		if p.atOp("...") {
			dots += 3
		} else {
			dots++
		}
		p.lex.Next()
	}
	module := ""
	if tok := p.lex.Peek(); tok.Kind == token.Ident {
		module = p.parseDottedName()
	}
	p.expectKeyword("import")
	s := &Stmt{Kind: SImportFrom, Pos: start, FromModule: module, FromDots: dots}
	if p.atOp("*") {
		p.lex.Next()
		s.FromStar = true
		s.End = p.endPos()
		return s
	}
	paren := p.atOp("(")
	if paren {
		p.lex.Next()
	}
	for {
		tok := p.lex.Peek()
		if tok.Kind != token.Ident {
			break
		}
		p.lex.Next()
		in := ImportName{Name: tok.Text}
		if p.atKeyword("as") {
			p.lex.Next()
			if t := p.lex.Peek(); t.Kind == token.Ident {
				p.lex.Next()
				in.Alias = t.Text
			}
		}
		s.FromNames = append(s.FromNames, in)
		if p.atOp(",") {
			p.lex.Next()
			continue
		}
		break
	}
	if paren && p.atOp(")") {
		p.lex.Next()
	}
	s.End = p.endPos()
	return s
}

// parsePrintStatement implements the Python 2.x print statement including the
// ">> file, args" redirection form (spec §4.F statement rules).
func (p *Parser) parsePrintStatement(start token.Position) *Stmt {
	p.lex.Next() // print
	s := &Stmt{Kind: SPrint, Pos: start}
	if p.atOp(">>") {
		p.lex.Next()
		s.PrintDest = p.parseExpr()
		if p.atOp(",") {
			p.lex.Next()
		}
	}
	for {
		tok := p.lex.Peek()
		if tok.Kind == token.Newline || tok.Kind == token.EOF || (tok.Kind == token.Op && tok.Text == ";") {
			break
		}
		s.PrintVals = append(s.PrintVals, p.parseExpr())
		if p.atOp(",") {
			p.lex.Next()
			if tok := p.lex.Peek(); tok.Kind == token.Newline || tok.Kind == token.EOF {
				s.PrintNoNL = true
				break
			}
			continue
		}
		break
	}
	s.End = p.endPos()
	return s
}

// parseExecStatement implements the Python 2.x "exec code in globals, locals" form.
func (p *Parser) parseExecStatement(start token.Position) *Stmt {
	p.lex.Next() // exec
	s := &Stmt{Kind: SExec, Pos: start}
	s.ExecCode = p.parseExpr()
	if p.atKeyword("in") {
		p.lex.Next()
		s.ExecGlobals = p.parseExpr()
		if p.atOp(",") {
			p.lex.Next()
			s.ExecLocals = p.parseExpr()
		}
	}
	s.End = p.endPos()
	return s
}

func (p *Parser) parseFuncDef(isAsync bool, decorators []*Expr) *Stmt {
	start := p.lex.Next().Span.Start // def
	name := ""
	if tok := p.lex.Peek(); tok.Kind == token.Ident {
		p.lex.Next()
		name = tok.Text
	}
	params := p.parseParamList()
	var returns *Expr
	if p.atOp("->") {
		p.lex.Next()
		returns = p.parseExpr()
	}
	body := p.parseSuite()
	fd := &FuncDef{Name: name, Params: params, Returns: returns, Body: body, Decorators: decorators, IsAsync: isAsync}
	fd.Docstring = docstringOf(body)
	fd.EndOfDef = p.endPos()
	return &Stmt{Kind: SFuncDef, Pos: start, End: fd.EndOfDef, FuncDef: fd}
}

func (p *Parser) parseParamList() []Param {
	p.expectOp("(")
	var params []Param
	for !p.atOp(")") {
		tok := p.lex.Peek()
		if tok.Kind == token.Op && tok.Text == "*" {
			p.lex.Next()
			if tok2 := p.lex.Peek(); tok2.Kind == token.Ident {
				p.lex.Next()
				pr := Param{Name: tok2.Text, Pos: tok2.Span.Start, Kind: ParamVarArgs}
				if p.atOp(":") {
					p.lex.Next()
					pr.Annotation = p.parseExpr()
				}
				params = append(params, pr)
			} else {
				params = append(params, Param{Kind: ParamKeywordOnlyMarker})
			}
		} else if tok.Kind == token.Op && tok.Text == "**" {
			p.lex.Next()
			if tok2 := p.lex.Peek(); tok2.Kind == token.Ident {
				p.lex.Next()
				pr := Param{Name: tok2.Text, Pos: tok2.Span.Start, Kind: ParamKwArgs}
				if p.atOp(":") {
					p.lex.Next()
					pr.Annotation = p.parseExpr()
				}
				params = append(params, pr)
			}
		} else if tok.Kind == token.Ident {
			p.lex.Next()
			pr := Param{Name: tok.Text, Pos: tok.Span.Start}
			if p.atOp(":") {
				p.lex.Next()
				pr.Annotation = p.parseExpr()
			}
			if p.atOp("=") {
				p.lex.Next()
				pr.Default = p.parseExpr()
			}
			params = append(params, pr)
		} else {
			// Python 2 tuple-unpacking params, e.g. def f((a, b)): -- skip gracefully.
			p.diag(tok.Span, "unsupported-param", "unsupported parameter syntax %q", tok.String())
			p.lex.Next()
		}
		if p.atOp(",") {
			p.lex.Next()
			continue
		}
		break
	}
	p.expectOp(")")
	return params
}

func (p *Parser) parseClassDef(decorators []*Expr) *Stmt {
	start := p.lex.Next().Span.Start // class
	name := ""
	if tok := p.lex.Peek(); tok.Kind == token.Ident {
		p.lex.Next()
		name = tok.Text
	}
	var bases []*Expr
	var keywords []Keyword
	if p.atOp("(") {
		p.lex.Next()
		for !p.atOp(")") {
			if p.assignFollowsName() {
				kwName := p.lex.Peek().Text
				p.lex.Next()
				p.lex.Next() // =
				keywords = append(keywords, Keyword{Name: kwName, Value: p.parseExpr()})
			} else {
				bases = append(bases, p.parseExpr())
			}
			if p.atOp(",") {
				p.lex.Next()
				continue
			}
			break
		}
		p.expectOp(")")
	}
	body := p.parseSuite()
	cd := &ClassDef{Name: name, Bases: bases, Keywords: keywords, Body: body, Decorators: decorators}
	cd.Docstring = docstringOf(body)
	return &Stmt{Kind: SClassDef, Pos: start, End: p.endPos(), ClassDef: cd}
}

func docstringOf(body []*Stmt) string {
	if len(body) == 0 || body[0].Kind != SExpr || body[0].Expr == nil {
		return ""
	}
	if body[0].Expr.Kind == EStr {
		return body[0].Expr.StrVal
	}
	return ""
}
