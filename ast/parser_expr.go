package ast

import "github.com/pyanalyze/pyanalyze/token"

// parseExpr parses a single expression, following the standard Python
// precedence chain from lambda/ternary down through "or", "and", "not",
// comparisons, bitwise/arithmetic binary operators, unary operators, power,
// await, and finally postfix trailers over an atom.
func (p *Parser) parseExpr() *Expr {
	if p.atKeyword("lambda") {
		return p.parseLambda()
	}
	return p.parseTernary()
}

func (p *Parser) parseLambda() *Expr {
	start := p.lex.Next().Span.Start // lambda
	var params []Param
	for !p.atOp(":") {
		tok := p.lex.Peek()
		switch {
		case tok.Kind == token.Op && tok.Text == "*":
			p.lex.Next()
			if t := p.lex.Peek(); t.Kind == token.Ident {
				p.lex.Next()
				params = append(params, Param{Name: t.Text, Kind: ParamVarArgs})
			}
		case tok.Kind == token.Op && tok.Text == "**":
			p.lex.Next()
			if t := p.lex.Peek(); t.Kind == token.Ident {
				p.lex.Next()
				params = append(params, Param{Name: t.Text, Kind: ParamKwArgs})
			}
		case tok.Kind == token.Ident:
			p.lex.Next()
			pr := Param{Name: tok.Text}
			if p.atOp("=") {
				p.lex.Next()
				pr.Default = p.parseTernary()
			}
			params = append(params, pr)
		default:
			goto done
		}
		if p.atOp(",") {
			p.lex.Next()
			continue
		}
		break
	}
done:
	p.expectOp(":")
	body := p.parseTernary()
	return &Expr{Kind: ELambda, Pos: start, End: body.End, Params: params, Body: body}
}

// parseTernary handles "X if COND else Y" conditional expressions.
func (p *Parser) parseTernary() *Expr {
	e := p.parseOr()
	if p.atKeyword("if") {
		p.lex.Next()
		cond := p.parseOr()
		p.expectKeyword("else")
		elseE := p.parseExpr()
		return &Expr{Kind: EIfExp, Pos: e.Pos, End: elseE.End, Test: cond, Then: e, Orelse: elseE}
	}
	return e
}

func (p *Parser) parseOr() *Expr {
	e := p.parseAnd()
	if p.atKeyword("or") {
		values := []*Expr{e}
		for p.atKeyword("or") {
			p.lex.Next()
			values = append(values, p.parseAnd())
		}
		last := values[len(values)-1]
		return &Expr{Kind: EBoolOp, Pos: e.Pos, End: last.End, BoolOpKind: "or", Values: values}
	}
	return e
}

func (p *Parser) parseAnd() *Expr {
	e := p.parseNot()
	if p.atKeyword("and") {
		values := []*Expr{e}
		for p.atKeyword("and") {
			p.lex.Next()
			values = append(values, p.parseNot())
		}
		last := values[len(values)-1]
		return &Expr{Kind: EBoolOp, Pos: e.Pos, End: last.End, BoolOpKind: "and", Values: values}
	}
	return e
}

func (p *Parser) parseNot() *Expr {
	if p.atKeyword("not") {
		start := p.lex.Next().Span.Start
		operand := p.parseNot()
		return &Expr{Kind: EUnaryOp, Pos: start, End: operand.End, Op: "not", Right: operand}
	}
	return p.parseComparison()
}

var compareOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true, "<>": true}

func (p *Parser) parseComparison() *Expr {
	e := p.parseBitOr()
	var ops []string
	var rights []*Expr
	for {
		tok := p.lex.Peek()
		if tok.Kind == token.Op && compareOps[tok.Text] {
			p.lex.Next()
			ops = append(ops, tok.Text)
			rights = append(rights, p.parseBitOr())
			continue
		}
		if tok.Kind == token.Keyword && tok.Text == "in" {
			p.lex.Next()
			ops = append(ops, "in")
			rights = append(rights, p.parseBitOr())
			continue
		}
		if tok.Kind == token.Keyword && tok.Text == "not" {
			save := tok
			p.lex.Next()
			if p.atKeyword("in") {
				p.lex.Next()
				ops = append(ops, "not in")
				rights = append(rights, p.parseBitOr())
				continue
			}
			// Not actually "not in": this "not" starts a fresh unary-not
			// expression, which cannot happen mid-comparison-chain in valid
			// Python, but recover gracefully rather than drop the token.
			p.diag(save.Span, "unexpected-not", "unexpected %q in comparison", "not")
			break
		}
		if tok.Kind == token.Keyword && tok.Text == "is" {
			p.lex.Next()
			op := "is"
			if p.atKeyword("not") {
				p.lex.Next()
				op = "is not"
			}
			ops = append(ops, op)
			rights = append(rights, p.parseBitOr())
			continue
		}
		break
	}
	if len(ops) == 0 {
		return e
	}
	last := rights[len(rights)-1]
	return &Expr{Kind: ECompare, Pos: e.Pos, End: last.End, Left: e, CompareOps: ops, CompareRights: rights}
}

func (p *Parser) parseBitOr() *Expr {
	e := p.parseBitXor()
	for p.atOp("|") {
		p.lex.Next()
		right := p.parseBitXor()
		e = &Expr{Kind: EBinOp, Pos: e.Pos, End: right.End, Op: "|", Left: e, Right: right}
	}
	return e
}

func (p *Parser) parseBitXor() *Expr {
	e := p.parseBitAnd()
	for p.atOp("^") {
		p.lex.Next()
		right := p.parseBitAnd()
		e = &Expr{Kind: EBinOp, Pos: e.Pos, End: right.End, Op: "^", Left: e, Right: right}
	}
	return e
}

func (p *Parser) parseBitAnd() *Expr {
	e := p.parseShift()
	for p.atOp("&") {
		p.lex.Next()
		right := p.parseShift()
		e = &Expr{Kind: EBinOp, Pos: e.Pos, End: right.End, Op: "&", Left: e, Right: right}
	}
	return e
}

func (p *Parser) parseShift() *Expr {
	e := p.parseAddSub()
	for p.atOp("<<") || p.atOp(">>") {
		op := p.lex.Next().Text
		right := p.parseAddSub()
		e = &Expr{Kind: EBinOp, Pos: e.Pos, End: right.End, Op: op, Left: e, Right: right}
	}
	return e
}

func (p *Parser) parseAddSub() *Expr {
	e := p.parseMulDiv()
	for p.atOp("+") || p.atOp("-") {
		op := p.lex.Next().Text
		right := p.parseMulDiv()
		e = &Expr{Kind: EBinOp, Pos: e.Pos, End: right.End, Op: op, Left: e, Right: right}
	}
	return e
}

func (p *Parser) parseMulDiv() *Expr {
	e := p.parseUnary()
	for p.atOp("*") || p.atOp("/") || p.atOp("//") || p.atOp("%") || p.atOp("@") {
		op := p.lex.Next().Text
		right := p.parseUnary()
		e = &Expr{Kind: EBinOp, Pos: e.Pos, End: right.End, Op: op, Left: e, Right: right}
	}
	return e
}

func (p *Parser) parseUnary() *Expr {
	if p.atOp("+") || p.atOp("-") || p.atOp("~") {
		tok := p.lex.Next()
		operand := p.parseUnary()
		return &Expr{Kind: EUnaryOp, Pos: tok.Span.Start, End: operand.End, Op: tok.Text, Right: operand}
	}
	if p.atKeyword("await") {
		start := p.lex.Next().Span.Start
		operand := p.parseUnary()
		return &Expr{Kind: EAwait, Pos: start, End: operand.End, Inner: operand}
	}
	return p.parsePower()
}

func (p *Parser) parsePower() *Expr {
	e := p.parsePostfix()
	if p.atOp("**") {
		p.lex.Next()
		right := p.parseUnary() // right-associative
		return &Expr{Kind: EBinOp, Pos: e.Pos, End: right.End, Op: "**", Left: e, Right: right}
	}
	return e
}

// parsePostfix parses an atom followed by any chain of call/attribute/subscript
// trailers.
func (p *Parser) parsePostfix() *Expr {
	e := p.parseAtom()
	for {
		switch {
		case p.atOp("("):
			e = p.parseCallTrailer(e)
		case p.atOp("."):
			p.lex.Next()
			name := ""
			if tok := p.lex.Peek(); tok.Kind == token.Ident || tok.Kind == token.Keyword {
				p.lex.Next()
				name = tok.Text
			}
			e = &Expr{Kind: EAttribute, Pos: e.Pos, End: p.endPos(), Value: e, Attr: name}
		case p.atOp("["):
			e = p.parseSubscriptTrailer(e)
		default:
			return e
		}
	}
}

func (p *Parser) parseCallTrailer(fn *Expr) *Expr {
	p.lex.Next() // (
	var args []*Expr
	var keywords []Keyword
	for !p.atOp(")") {
		if p.atOp("**") {
			p.lex.Next()
			keywords = append(keywords, Keyword{Name: "", Value: p.parseExpr()})
		} else if p.atOp("*") {
			p.lex.Next()
			inner := p.parseExpr()
			args = append(args, &Expr{Kind: EStarred, Pos: inner.Pos, End: inner.End, Inner: inner})
		} else if p.assignFollowsName() {
			name := p.lex.Next().Text
			p.lex.Next() // =
			keywords = append(keywords, Keyword{Name: name, Value: p.parseExpr()})
		} else {
			e := p.parseExpr()
			if p.atKeyword("for") || (p.atKeyword("async") && p.lex.PeekAt(1).Text == "for") {
				e = p.parseComprehensionTail(e, EGeneratorExp, e.Pos)
			}
			args = append(args, e)
		}
		if p.atOp(",") {
			p.lex.Next()
			continue
		}
		break
	}
	p.expectOp(")")
	return &Expr{Kind: ECall, Pos: fn.Pos, End: p.endPos(), Func: fn, Args: args, Keywords: keywords}
}

func (p *Parser) parseSubscriptTrailer(subject *Expr) *Expr {
	p.lex.Next() // [
	idx := p.parseSubscriptIndex()
	p.expectOp("]")
	return &Expr{Kind: ESubscript, Pos: subject.Pos, End: p.endPos(), Subject: subject, Index: idx}
}

// parseSubscriptIndex parses a single subscript expression, a tuple of them,
// or a slice ("lower:upper:step" with any part optional).
func (p *Parser) parseSubscriptIndex() *Expr {
	start := p.lex.Peek().Span.Start
	var lower *Expr
	if !p.atOp(":") {
		lower = p.parseExprOrSliceItem()
	}
	if !p.atOp(":") {
		return lower
	}
	p.lex.Next() // :
	var upper, step *Expr
	if !p.atOp(":") && !p.atOp("]") && !p.atOp(",") {
		upper = p.parseTernary()
	}
	if p.atOp(":") {
		p.lex.Next()
		if !p.atOp("]") && !p.atOp(",") {
			step = p.parseTernary()
		}
	}
	return &Expr{Kind: ESlice, Pos: start, End: p.endPos(), Lower: lower, Upper: upper, Step: step}
}

func (p *Parser) parseExprOrSliceItem() *Expr {
	if p.atOp(":") {
		return nil
	}
	first := p.parseStarOrExpr()
	if !p.atOp(",") {
		return first
	}
	elts := []*Expr{first}
	for p.atOp(",") {
		p.lex.Next()
		if p.atOp("]") {
			break
		}
		elts = append(elts, p.parseStarOrExpr())
	}
	return &Expr{Kind: ETuple, Pos: first.Pos, End: p.endPos(), Elts: elts}
}

// parseAtom parses a single atomic expression: literal, name, parenthesised
// expression/tuple/generator, list/list-comp, dict/dict-comp/set/set-comp,
// yield/yield-from, ellipsis.
func (p *Parser) parseAtom() *Expr {
	tok := p.lex.Peek()
	switch tok.Kind {
	case token.Int:
		p.lex.Next()
		return &Expr{Kind: EInt, Pos: tok.Span.Start, End: tok.Span.End, IntVal: tok.Text}
	case token.Float:
		p.lex.Next()
		return &Expr{Kind: EFloat, Pos: tok.Span.Start, End: tok.Span.End, FloatVal: tok.Text}
	case token.String:
		return p.parseStringLiteralChain(tok.Span.Start)
	case token.FString:
		p.lex.Next()
		return &Expr{Kind: EFString, Pos: tok.Span.Start, End: tok.Span.End, StrRaw: tok.Text, StrFlags: tok.StrFlags, FStrVars: parseFStringVars(tok.Text)}
	case token.Ident:
		p.lex.Next()
		return &Expr{Kind: EName, Pos: tok.Span.Start, End: tok.Span.End, Name: tok.Text}
	case token.Keyword:
		switch tok.Text {
		case "None":
			p.lex.Next()
			return &Expr{Kind: ENone, Pos: tok.Span.Start, End: tok.Span.End}
		case "True", "False":
			p.lex.Next()
			return &Expr{Kind: EBool, Pos: tok.Span.Start, End: tok.Span.End, BoolVal: tok.Text == "True"}
		case "yield":
			return p.parseYield()
		case "not":
			return p.parseNot()
		case "lambda":
			return p.parseLambda()
		case "await":
			return p.parseUnary()
		}
	case token.Op:
		switch tok.Text {
		case "(":
			return p.parseParenAtom()
		case "[":
			return p.parseListAtom()
		case "{":
			return p.parseDictOrSetAtom()
		case "...":
			p.lex.Next()
			return &Expr{Kind: EEllipsis, Pos: tok.Span.Start, End: tok.Span.End}
		case "*":
			p.lex.Next()
			inner := p.parseExpr()
			return &Expr{Kind: EStarred, Pos: tok.Span.Start, End: inner.End, Inner: inner}
		}
	}
	p.diag(tok.Span, "unexpected-token", "unexpected token %q", tok.String())
	p.lex.Next()
	return &Expr{Kind: EError, Pos: tok.Span.Start, End: tok.Span.End, ErrorText: tok.Text}
}

// parseStringLiteralChain merges adjacent string literals the way Python's
// own tokenizer leaves to the parser ("a" "b" == "ab").
func (p *Parser) parseStringLiteralChain(start token.Position) *Expr {
	var raw, val string
	var flags token.StringFlags
	end := start
	for {
		tok := p.lex.Peek()
		if tok.Kind != token.String {
			break
		}
		p.lex.Next()
		raw += tok.Text
		val += decodeStringLiteral(tok.Text, tok.StrFlags)
		flags |= tok.StrFlags
		end = tok.Span.End
	}
	return &Expr{Kind: EStr, Pos: start, End: end, StrRaw: raw, StrVal: val, StrFlags: flags}
}

// decodeStringLiteral strips the surrounding quotes; the lexer already keeps
// prefix letters out of the token text (they are carried in StrFlags). Every
// string keeps its escapes verbatim (decoding them is an interpreter
// concern, not a parse-time one).
func decodeStringLiteral(text string, flags token.StringFlags) string {
	s := text
	if len(s) >= 6 && (s[:3] == `"""` || s[:3] == `'''`) {
		return s[3 : len(s)-3]
	}
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

func (p *Parser) parseYield() *Expr {
	start := p.lex.Next().Span.Start // yield
	if p.atKeyword("from") {
		p.lex.Next()
		inner := p.parseExpr()
		return &Expr{Kind: EYieldFrom, Pos: start, End: inner.End, Inner: inner}
	}
	tok := p.lex.Peek()
	if tok.Kind == token.Newline || tok.Kind == token.EOF || (tok.Kind == token.Op && (tok.Text == ")" || tok.Text == ";")) {
		return &Expr{Kind: EYield, Pos: start, End: start}
	}
	inner := p.parseExprListAsTuple()
	return &Expr{Kind: EYield, Pos: start, End: inner.End, Inner: inner}
}

// parseParenAtom handles "(expr)", "()", "(expr,)", tuples, and generator
// expressions "(expr for x in it)".
func (p *Parser) parseParenAtom() *Expr {
	start := p.lex.Next().Span.Start // (
	if p.atOp(")") {
		end := p.lex.Next().Span.End
		return &Expr{Kind: ETuple, Pos: start, End: end}
	}
	if p.atKeyword("yield") {
		inner := p.parseYield()
		p.expectOp(")")
		return &Expr{Kind: inner.Kind, Pos: start, End: p.endPos(), Inner: inner.Inner}
	}
	first := p.parseStarOrExpr()
	if p.atKeyword("for") || (p.atKeyword("async") && p.lex.PeekAt(1).Text == "for") {
		e := p.parseComprehensionTail(first, EGeneratorExp, start)
		p.expectOp(")")
		return e
	}
	if p.atOp(",") {
		elts := []*Expr{first}
		for p.atOp(",") {
			p.lex.Next()
			if p.atOp(")") {
				break
			}
			elts = append(elts, p.parseStarOrExpr())
		}
		p.expectOp(")")
		return &Expr{Kind: ETuple, Pos: start, End: p.endPos(), Elts: elts}
	}
	p.expectOp(")")
	first.Pos = start
	first.End = p.endPos()
	return first
}

// parseListAtom handles "[...]" list displays and list comprehensions.
func (p *Parser) parseListAtom() *Expr {
	start := p.lex.Next().Span.Start // [
	if p.atOp("]") {
		end := p.lex.Next().Span.End
		return &Expr{Kind: EList, Pos: start, End: end}
	}
	first := p.parseStarOrExpr()
	if p.atKeyword("for") || (p.atKeyword("async") && p.lex.PeekAt(1).Text == "for") {
		e := p.parseComprehensionTail(first, EListComp, start)
		p.expectOp("]")
		return e
	}
	elts := []*Expr{first}
	for p.atOp(",") {
		p.lex.Next()
		if p.atOp("]") {
			break
		}
		elts = append(elts, p.parseStarOrExpr())
	}
	p.expectOp("]")
	return &Expr{Kind: EList, Pos: start, End: p.endPos(), Elts: elts}
}

// parseDictOrSetAtom handles "{...}" dict/set displays and their
// comprehension forms.
func (p *Parser) parseDictOrSetAtom() *Expr {
	start := p.lex.Next().Span.Start // {
	if p.atOp("}") {
		end := p.lex.Next().Span.End
		return &Expr{Kind: EDict, Pos: start, End: end}
	}
	if p.atOp("**") {
		p.lex.Next()
		spread := p.parseOr()
		return p.finishDict(start, nil, []*Expr{nil}, []*Expr{spread})
	}
	first := p.parseStarOrExpr()
	if p.atOp(":") {
		p.lex.Next()
		val := p.parseExpr()
		if p.atKeyword("for") || (p.atKeyword("async") && p.lex.PeekAt(1).Text == "for") {
			e := p.parseDictComprehensionTail(first, val, start)
			p.expectOp("}")
			return e
		}
		return p.finishDict(start, nil, []*Expr{first}, []*Expr{val})
	}
	if p.atKeyword("for") || (p.atKeyword("async") && p.lex.PeekAt(1).Text == "for") {
		e := p.parseComprehensionTail(first, ESetComp, start)
		p.expectOp("}")
		return e
	}
	elts := []*Expr{first}
	for p.atOp(",") {
		p.lex.Next()
		if p.atOp("}") {
			break
		}
		elts = append(elts, p.parseStarOrExpr())
	}
	p.expectOp("}")
	return &Expr{Kind: ESet, Pos: start, End: p.endPos(), Elts: elts}
}

func (p *Parser) finishDict(start token.Position, _ []*Expr, keys, vals []*Expr) *Expr {
	for p.atOp(",") {
		p.lex.Next()
		if p.atOp("}") {
			break
		}
		if p.atOp("**") {
			p.lex.Next()
			keys = append(keys, nil)
			vals = append(vals, p.parseOr())
			continue
		}
		k := p.parseExpr()
		p.expectOp(":")
		v := p.parseExpr()
		keys = append(keys, k)
		vals = append(vals, v)
	}
	p.expectOp("}")
	return &Expr{Kind: EDict, Pos: start, End: p.endPos(), Keys: keys, DictV: vals}
}

// parseComprehensionTail parses the "for targets in iter [if cond] ..." suffix
// shared by list/set/generator comprehensions, given the already-parsed
// element expression.
func (p *Parser) parseComprehensionTail(elt *Expr, kind ExprKind, start token.Position) *Expr {
	fors := p.parseCompForClauses()
	return &Expr{Kind: kind, Pos: start, End: p.endPos(), CompElt: elt, CompFors: fors}
}

func (p *Parser) parseDictComprehensionTail(key, val *Expr, start token.Position) *Expr {
	fors := p.parseCompForClauses()
	return &Expr{Kind: EDictComp, Pos: start, End: p.endPos(), CompElt: key, CompVal: val, CompFors: fors}
}

func (p *Parser) parseCompForClauses() []CompFor {
	var fors []CompFor
	for p.atKeyword("for") || p.atKeyword("async") {
		isAsync := false
		if p.atKeyword("async") {
			p.lex.Next()
			isAsync = true
		}
		p.expectKeyword("for")
		targets := p.parseTargetList()
		p.expectKeyword("in")
		iter := p.parseOr()
		var ifs []*Expr
		for p.atKeyword("if") {
			p.lex.Next()
			ifs = append(ifs, p.parseOrNoCondExpr())
		}
		fors = append(fors, CompFor{Targets: targets, Iter: iter, Ifs: ifs, IsAsync: isAsync})
	}
	return fors
}

// parseOrNoCondExpr parses the condition of a comprehension's "if" clause,
// which excludes the ternary "if/else" form to avoid grammar ambiguity.
func (p *Parser) parseOrNoCondExpr() *Expr {
	return p.parseOr()
}

func parseFStringVars(raw string) []FStringVar {
	var vars []FStringVar
	var lit []byte
	depth := 0
	var cur []byte
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if depth == 0 && c == '{' {
			if i+1 < len(raw) && raw[i+1] == '{' {
				lit = append(lit, '{')
				i++
				continue
			}
			depth = 1
			cur = nil
			continue
		}
		if depth > 0 {
			if c == '{' {
				depth++
			} else if c == '}' {
				depth--
				if depth == 0 {
					vars = append(vars, FStringVar{Prefix: string(lit), Expr: string(cur)})
					lit = nil
					continue
				}
			}
			cur = append(cur, c)
			continue
		}
		if c == '}' && i+1 < len(raw) && raw[i+1] == '}' {
			lit = append(lit, '}')
			i++
			continue
		}
		lit = append(lit, c)
	}
	return vars
}
