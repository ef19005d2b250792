package ast

import (
	"fmt"
	"io"

	"github.com/pyanalyze/pyanalyze/token"
)

// A Parser performs recursive-descent parsing of a token stream into a File.
// It never panics across its public entry point: internal parse errors are
// caught at statement boundaries, resynchronised past the offending
// construct, and recorded as diagnostics (spec §4.B point 2, §8 property 2).
type Parser struct {
	lex     *token.Lexer
	version token.Version
	diags   []token.Diagnostic
}

// Parse tokenizes and parses r as a single Python module.
func Parse(r io.Reader, filename string, version token.Version) (*File, []token.Diagnostic) {
	p := &Parser{lex: token.NewLexer(r, filename, version), version: version}
	file := &File{Name: filename}
	file.Statements = p.parseBlockStatements(true)
	p.diags = append(p.diags, p.lex.Diagnostics()...)
	return file, p.diags
}

func (p *Parser) diag(span token.Span, code, format string, args ...interface{}) {
	p.diags = append(p.diags, token.Diagnostic{
		Severity: token.Error,
		Code:     code,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	})
}

// parseBlockStatements parses statements until EOF (top==true) or a Dedent/EOF.
func (p *Parser) parseBlockStatements(top bool) []*Stmt {
	var stmts []*Stmt
	for {
		tok := p.lex.Peek()
		if tok.Kind == token.EOF {
			return stmts
		}
		if tok.Kind == token.Dedent {
			if top {
				p.lex.Next() // stray dedent at top level; consume and continue
				continue
			}
			return stmts
		}
		if tok.Kind == token.Newline {
			p.lex.Next()
			continue
		}
		stmts = append(stmts, p.parseStatements()...)
	}
}

// parseSuite parses the ":" NEWLINE-introduced block following a compound
// statement header, or a single simple-statement-list on the same line.
func (p *Parser) parseSuite() []*Stmt {
	p.expectOp(":")
	if p.lex.Peek().Kind == token.Newline {
		p.lex.Next()
		body := p.parseBlockStatements(false)
		if p.lex.Peek().Kind == token.Dedent {
			p.lex.Next()
		}
		return body
	}
	// Simple statements on the same line, semicolon-separated.
	return p.parseSimpleStatementLine()
}

func (p *Parser) parseSimpleStatementLine() []*Stmt {
	var stmts []*Stmt
	for {
		stmts = append(stmts, p.parseSimpleStatement())
		tok := p.lex.Peek()
		if tok.Kind == token.Op && tok.Text == ";" {
			p.lex.Next()
			if p.lex.Peek().Kind == token.Newline || p.lex.Peek().Kind == token.EOF {
				break
			}
			continue
		}
		break
	}
	if p.lex.Peek().Kind == token.Newline {
		p.lex.Next()
	}
	return stmts
}

func (p *Parser) expectOp(text string) bool {
	tok := p.lex.Peek()
	if tok.Kind == token.Op && tok.Text == text {
		p.lex.Next()
		return true
	}
	p.diag(tok.Span, "expected-token", "expected %q, got %q", text, tok.String())
	return false
}

func (p *Parser) expectKeyword(word string) bool {
	tok := p.lex.Peek()
	if tok.Kind == token.Keyword && tok.Text == word {
		p.lex.Next()
		return true
	}
	p.diag(tok.Span, "expected-token", "expected keyword %q, got %q", word, tok.String())
	return false
}

func (p *Parser) atKeyword(word string) bool {
	tok := p.lex.Peek()
	return tok.Kind == token.Keyword && tok.Text == word
}

func (p *Parser) atOp(text string) bool {
	tok := p.lex.Peek()
	return tok.Kind == token.Op && tok.Text == text
}

// assignFollowsName reports whether the current token is an identifier
// immediately followed by "=" — used to distinguish a class keyword argument
// ("metaclass=Foo") from a positional base-class expression, since both start
// with an identifier.
func (p *Parser) assignFollowsName() bool {
	tok := p.lex.PeekAt(0)
	if tok.Kind != token.Ident {
		return false
	}
	next := p.lex.PeekAt(1)
	return next.Kind == token.Op && next.Text == "="
}

// recoverToNextLine resynchronises after a parse error by skipping tokens
// until the next NEWLINE/DEDENT/EOF, matching the teacher's "resync to the
// next plausible statement boundary" contract (spec §4.B point 2).
func (p *Parser) recoverToNextLine(start token.Position, text string) *Stmt {
	for {
		tok := p.lex.Peek()
		if tok.Kind == token.Newline || tok.Kind == token.Dedent || tok.Kind == token.EOF {
			break
		}
		p.lex.Next()
	}
	end := start
	if p.lex.Peek().Kind == token.Newline {
		end = p.lex.Peek().Span.End
		p.lex.Next()
	}
	return &Stmt{Kind: SError, Pos: start, End: end, ErrorText: text}
}
