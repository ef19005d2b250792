package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, src string) []Token {
	l := NewLexer(strings.NewReader(src), "<test>", V37)
	toks := l.All()
	require.Empty(t, l.Diagnostics())
	return toks
}

func kinds(toks []Token) []Kind {
	ks := make([]Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestSimpleAssignment(t *testing.T) {
	toks := tokenize(t, "x = 1\n")
	assert.Equal(t, []Kind{Ident, Op, Int, Newline, EOF}, kinds(toks))
	assert.Equal(t, "x", toks[0].Text)
	assert.Equal(t, "=", toks[1].Text)
	assert.Equal(t, "1", toks[2].Text)
}

func TestIndentDedent(t *testing.T) {
	// No explicit Indent token is emitted (mirrors the teacher's lexer): the
	// parser infers block entry from context and only needs Dedent to know
	// when a block ends.
	toks := tokenize(t, "if x:\n    y = 1\nz = 2\n")
	var dedents int
	for _, tok := range toks {
		if tok.Kind == Dedent {
			dedents++
		}
	}
	assert.Equal(t, 1, dedents)
}

func TestStringPrefixes(t *testing.T) {
	toks := tokenize(t, `x = rb'abc'`)
	require.Len(t, toks, 5)
	assert.Equal(t, String, toks[2].Kind)
	assert.Equal(t, Raw|Bytes, toks[2].StrFlags)
}

func TestFStringIsOpaqueToken(t *testing.T) {
	toks := tokenize(t, `x = f"hello {name}"`)
	require.Len(t, toks, 5)
	assert.Equal(t, FString, toks[2].Kind)
	assert.Contains(t, toks[2].Text, "{name}")
}

func TestKeywordVersioning(t *testing.T) {
	l2 := NewLexer(strings.NewReader("print x\n"), "<test>", V27)
	toks2 := l2.All()
	assert.Equal(t, Keyword, toks2[0].Kind)

	l3 := NewLexer(strings.NewReader("print(x)\n"), "<test>", V37)
	toks3 := l3.All()
	assert.Equal(t, Ident, toks3[0].Kind)
}

func TestCommentIsTrivia(t *testing.T) {
	toks := tokenize(t, "x = 1 # comment\n")
	require.Len(t, toks, 5)
	assert.Equal(t, Newline, toks[3].Kind)
	assert.Contains(t, toks[3].Leading, "# comment")
}

func TestTabIndentationIsDiagnosedNotFatal(t *testing.T) {
	l := NewLexer(strings.NewReader("if x:\n\ty = 1\n"), "<test>", V37)
	toks := l.All()
	assert.NotEmpty(t, toks)
	assert.NotEmpty(t, l.Diagnostics())
}

func TestEncodingDetection(t *testing.T) {
	enc, rest := DetectEncoding([]byte("# -*- coding: latin-1 -*-\nx = 1\n"))
	assert.Equal(t, "latin-1", enc)
	assert.Contains(t, string(rest), "x = 1")
}

func TestBOMOverridesDeclaration(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("# coding: latin-1\nx = 1\n")...)
	enc, _ := DetectEncoding(src)
	assert.Equal(t, "utf-8", enc)
}
