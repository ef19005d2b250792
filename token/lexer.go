package token

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	logging "gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("token")

// A Lexer tokenizes a single Python source file. It tracks indentation,
// recognises the version-parameterized keyword set, and never fails hard —
// unrecoverable situations (tabs, unterminated strings, unknown symbols) are
// recorded as Diagnostics and lexing continues on a best-effort basis, per
// spec §8 property 2 "Error tolerance".
type Lexer struct {
	reader   *bufio.Reader
	filename string
	version  Version

	cur, next rune
	pos, line, col int

	indent      int
	indents     []int
	unindents   int
	braces      int
	lastNewline bool

	diagnostics []Diagnostic

	peekBuf []Token
}

// NewLexer creates a Lexer over r. filename is used only for diagnostics.
func NewLexer(r io.Reader, filename string, version Version) *Lexer {
	l := &Lexer{reader: bufio.NewReader(r), filename: filename, version: version, indents: []int{0}}
	l.cur, _, _ = l.reader.ReadRune()
	l.advanceByte()
	return l
}

// Diagnostics returns everything the lexer has flagged so far.
func (l *Lexer) Diagnostics() []Diagnostic { return l.diagnostics }

func (l *Lexer) diag(pos Position, format string, args ...interface{}) {
	l.diagnostics = append(l.diagnostics, Diagnostic{
		Severity: Error,
		Code:     "lex-error",
		Span:     Span{Start: pos, End: pos},
		Message:  fmt.Sprintf(format, args...),
	})
}

func (l *Lexer) advanceByte() {
	var err error
	l.cur = l.next
	l.next, _, err = l.reader.ReadRune()
	if err != nil {
		if l.cur != '\n' {
			l.next = '\n'
		} else {
			l.next = 0
		}
	}
}

func (l *Lexer) advance() {
	l.col++
	l.pos++
	l.advanceByte()
}

func (l *Lexer) position() Position { return Position(l.pos) }

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token { return l.PeekAt(0) }

// PeekAt returns the token n positions ahead (0 == Peek) without consuming
// anything, buffering as many scans as needed. Used sparingly by the parser
// for the handful of constructs that need two-token lookahead (e.g.
// distinguishing a class keyword argument "name=value" from a positional
// base-class expression), mirroring the teacher's AssignFollows lookahead.
func (l *Lexer) PeekAt(n int) Token {
	for len(l.peekBuf) <= n {
		l.peekBuf = append(l.peekBuf, l.scan())
	}
	return l.peekBuf[n]
}

// Next consumes and returns the next token.
func (l *Lexer) Next() Token {
	if len(l.peekBuf) > 0 {
		t := l.peekBuf[0]
		l.peekBuf = l.peekBuf[1:]
		return t
	}
	return l.scan()
}

func (l *Lexer) stripSpaces() string {
	var b strings.Builder
	for l.cur == ' ' || l.cur == '\t' {
		b.WriteRune(l.cur)
		l.advance()
	}
	return b.String()
}

// All tolerates tokenizing the entire stream, which is occasionally useful
// for tests and tooling that want every token up front.
func (l *Lexer) All() []Token {
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == EOF {
			return toks
		}
	}
}

func (l *Lexer) scan() Token {
	leading := l.stripSpaces()
	startPos := l.position()
	if l.unindents > 0 {
		l.unindents--
		return Token{Kind: Dedent, Leading: leading, Span: Span{startPos, startPos}}
	}
	c := l.cur
	if c == '#' {
		var b strings.Builder
		for l.cur != '\n' && l.cur != 0 {
			b.WriteRune(l.cur)
			l.advance()
		}
		// Comments are trivia, not tokens: fold into the following token's leading text.
		return l.scanAfterComment(leading + b.String())
	}
	switch {
	case c == 0:
		return Token{Kind: EOF, Leading: leading, Span: Span{startPos, startPos}}
	case c == '\n':
		return l.scanNewline(leading, startPos)
	case c >= '0' && c <= '9':
		l.lastNewline = false
		return l.scanNumber(leading, startPos)
	case c == '"' || c == '\'':
		l.lastNewline = false
		return l.scanString(leading, startPos, 0)
	case isIdentStart(c):
		l.lastNewline = false
		return l.scanIdentOrPrefixedString(leading, startPos)
	default:
		return l.scanOperator(leading, startPos)
	}
}

func (l *Lexer) scanAfterComment(leading string) Token {
	t := l.scan()
	t.Leading = leading + t.Leading
	return t
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || c >= utf8.RuneSelf
}

func isIdentCont(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func (l *Lexer) scanNewline(leading string, startPos Position) Token {
	l.advance()
	l.line++
	l.col = 0
	indent := 0
	sawTab := false
	for l.cur == ' ' || l.cur == '\t' {
		if l.cur == '\t' {
			sawTab = true
			indent += 8 - (indent % 8)
		} else {
			indent++
		}
		l.advance()
	}
	if l.cur == '\n' || l.cur == '#' {
		// Blank or comment-only line: doesn't affect indentation.
		if l.cur == '#' {
			for l.cur != '\n' && l.cur != 0 {
				l.advance()
			}
			if l.cur == 0 {
				return Token{Kind: EOF, Leading: leading, Span: Span{startPos, l.position()}}
			}
		}
		return l.scanNewline(leading, startPos)
	}
	if sawTab {
		l.diag(l.position(), "tabs used for indentation; spaces are preferred")
	}
	lastIndent := l.indent
	if l.braces == 0 {
		l.indent = indent
	}
	endPos := l.position()
	if lastIndent > l.indent && l.braces == 0 {
		for l.indents[len(l.indents)-1] > l.indent {
			l.unindents++
			l.indents = l.indents[:len(l.indents)-1]
		}
		if l.indent != l.indents[len(l.indents)-1] {
			l.diag(endPos, "unindent does not match any outer indentation level")
			l.indents = append(l.indents, l.indent)
		}
	} else if lastIndent != l.indent {
		l.indents = append(l.indents, l.indent)
	}
	if l.braces == 0 && !l.lastNewline {
		l.lastNewline = true
		return Token{Kind: Newline, Leading: leading, Span: Span{startPos, endPos}}
	}
	return l.scan()
}

var operators3 = []string{"**=", "//=", "...", ">>=", "<<="}
var operators2 = []string{
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=", "<>", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", ":=",
}

func (l *Lexer) scanOperator(leading string, startPos Position) Token {
	l.lastNewline = false
	c := l.cur
	switch c {
	case '(', '[', '{':
		l.braces++
	case ')', ']', '}':
		if l.braces > 0 {
			l.braces--
		}
	}
	// Try 3-char operators, then 2-char, falling back to 1-char.
	three := string([]rune{l.cur, l.next})
	l.advance()
	three += string(l.cur)
	for _, op := range operators3 {
		if three == op {
			l.advance()
			l.advance()
			return Token{Kind: Op, Text: op, Leading: leading, Span: Span{startPos, l.position()}}
		}
	}
	two := string([]rune{c, l.cur})
	for _, op := range operators2 {
		if two == op {
			l.advance()
			return Token{Kind: Op, Text: op, Leading: leading, Span: Span{startPos, l.position()}}
		}
	}
	if !isPunct(c) {
		l.diag(startPos, "unknown symbol %q", c)
	}
	return Token{Kind: Op, Text: string(c), Leading: leading, Span: Span{startPos, l.position()}}
}

func isPunct(c rune) bool {
	return strings.ContainsRune("()[]{},.:;+-*/%&|^~<>=!@", c)
}

func (l *Lexer) scanNumber(leading string, startPos Position) Token {
	var b strings.Builder
	isFloat := false
	for isDigitOrNumSep(l.cur) {
		b.WriteRune(l.cur)
		l.advance()
	}
	if l.cur == '.' && l.next >= '0' && l.next <= '9' {
		isFloat = true
		b.WriteRune(l.cur)
		l.advance()
		for isDigitOrNumSep(l.cur) {
			b.WriteRune(l.cur)
			l.advance()
		}
	}
	if l.cur == 'e' || l.cur == 'E' {
		isFloat = true
		b.WriteRune(l.cur)
		l.advance()
		if l.cur == '+' || l.cur == '-' {
			b.WriteRune(l.cur)
			l.advance()
		}
		for l.cur >= '0' && l.cur <= '9' {
			b.WriteRune(l.cur)
			l.advance()
		}
	}
	if l.cur == 'j' || l.cur == 'J' || l.cur == 'L' || l.cur == 'l' {
		// Python 2 long suffix / complex suffix: keep it in the literal text,
		// the parser decides what to do with it.
		b.WriteRune(l.cur)
		l.advance()
	}
	kind := Int
	if isFloat {
		kind = Float
	}
	return Token{Kind: kind, Text: b.String(), Leading: leading, Span: Span{startPos, l.position()}}
}

func isDigitOrNumSep(c rune) bool {
	return (c >= '0' && c <= '9') || c == '_' || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == 'x' || c == 'X' || c == 'o' || c == 'O' || c == 'b' || c == 'B'
}

func (l *Lexer) scanIdentOrPrefixedString(leading string, startPos Position) Token {
	var b strings.Builder
	for isIdentCont(l.cur) {
		b.WriteRune(l.cur)
		l.advance()
	}
	word := b.String()
	if (l.cur == '"' || l.cur == '\'') && len(word) <= 2 {
		if flags, ok := stringPrefixFlags(word); ok {
			return l.scanString(leading, startPos, flags)
		}
	}
	if l.version.IsKeyword(word) {
		return Token{Kind: Keyword, Text: word, Leading: leading, Span: Span{startPos, l.position()}}
	}
	return Token{Kind: Ident, Text: word, Leading: leading, Span: Span{startPos, l.position()}}
}

// stringPrefixFlags maps a (case-insensitive, order-insensitive) string
// prefix like "rb", "fr", "u" to the corresponding StringFlags bitmask, per
// spec §4.A "String prefixes are parsed as a bitmask of flags".
func stringPrefixFlags(prefix string) (StringFlags, bool) {
	var flags StringFlags
	for _, c := range strings.ToLower(prefix) {
		switch c {
		case 'r':
			flags |= Raw
		case 'b':
			flags |= Bytes
		case 'u':
			flags |= Unicode
		case 'f':
			flags |= Formatted
		default:
			return 0, false
		}
	}
	if flags == 0 && prefix != "" {
		return 0, false
	}
	return flags, true
}

func (l *Lexer) scanString(leading string, startPos Position, flags StringFlags) Token {
	quote := l.cur
	raw := flags&Raw != 0
	l.advance()
	triple := false
	if l.cur == quote && l.next == quote {
		l.advance()
		l.advance()
		triple = true
	}
	var b strings.Builder
	b.WriteRune(quote)
	for {
		c := l.cur
		if c == 0 {
			l.diag(startPos, "unterminated string literal")
			break
		}
		if c == quote {
			if !triple || (l.next == quote) {
				l.advance()
				if triple {
					// consume the other two quote chars
					if l.cur == quote {
						l.advance()
					}
					l.advance()
				}
				break
			}
			b.WriteRune(c)
			l.advance()
			continue
		}
		if c == '\n' && !triple {
			l.diag(startPos, "unterminated string literal (EOL before end of string)")
			break
		}
		if c == '\n' {
			l.line++
			l.col = 0
		}
		if c == '\\' && !raw {
			b.WriteRune(c)
			l.advance()
			if l.cur != 0 {
				b.WriteRune(l.cur)
				l.advance()
			}
			continue
		}
		b.WriteRune(c)
		l.advance()
	}
	b.WriteRune(quote)
	kind := String
	if flags&Formatted != 0 {
		kind = FString
	}
	return Token{Kind: kind, Text: b.String(), Leading: leading, StrFlags: flags, Span: Span{startPos, l.position()}}
}
