package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pyanalyze/pyanalyze/token"
)

func TestEmitRoundTripsSimpleStatements(t *testing.T) {
	srcs := []string{
		"x = 1\n",
		"def f(a, b=1):\n    return a + b\n",
		"if x:\n    pass\nelse:\n    pass\n",
		"for x in range(10):\n    print(x)\n",
		"class Foo(Base):\n    pass\n",
	}
	for _, src := range srcs {
		f, diags := Parse(strings.NewReader(src), "t.py", token.V37)
		assert.Empty(t, diags, "src=%q", src)
		out := Emit(f, DefaultFormatOptions())
		assert.Equal(t, src, out, "src=%q", src)
	}
}

func TestEmitHonoursEnforceOffBinaryOperatorSpacing(t *testing.T) {
	f, _ := Parse(strings.NewReader("x = 1+2\n"), "t.py", token.V37)
	opts := DefaultFormatOptions()
	opts.SpacesAroundBinaryOperators = EnforceOff
	out := Emit(f, opts)
	assert.Equal(t, "x = 1+2\n", out)
}
