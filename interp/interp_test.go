package interp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/token"
	"github.com/pyanalyze/pyanalyze/value"
)

func parseModule(t *testing.T, src string) *ast.File {
	t.Helper()
	f, diags := ast.Parse(strings.NewReader(src), "m.py", token.V37)
	for _, d := range diags {
		t.Logf("diag: %s: %s", d.Span, d.Message)
	}
	require.NotNil(t, f)
	return f
}

func TestInterpretSimpleAssignment(t *testing.T) {
	f := parseModule(t, "x = 1\n")
	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)

	vi, _, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 1, vi.Value.Len())
}

func TestInterpretIfJoinsBothBranches(t *testing.T) {
	f := parseModule(t, "if cond:\n    x = 1\nelse:\n    x = 'a'\n")
	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)

	vi, _, ok := s.Lookup("x")
	require.True(t, ok)
	assert.GreaterOrEqual(t, vi.Value.Len(), 1)
}

func TestInterpretFunctionCallReturnsBodyValue(t *testing.T) {
	f := parseModule(t, "def f():\n    return 1\n\ny = f()\n")
	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)

	vi, _, ok := s.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, 1, vi.Value.Len())
}

func TestInterpretFunctionWithParameter(t *testing.T) {
	f := parseModule(t, "def identity(a):\n    return a\n\ny = identity(1)\n")
	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)

	vi, _, ok := s.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, 1, vi.Value.Len())
}

// TestInterpretFunctionCallContextsKeepDistinctReturnTypesPerArgumentType
// exercises the Cartesian Product Algorithm (spec §4.F): calling the same
// function body with arguments of different types must analyze each call
// under its own value.CallContext rather than collapsing the second call's
// result into the first's memoized value.Function.Returns entry.
func TestInterpretFunctionCallContextsKeepDistinctReturnTypesPerArgumentType(t *testing.T) {
	f := parseModule(t, "def f(a):\n    return a\n\ny = f(42)\nz = f('fob')\n")
	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)

	yVI, _, ok := s.Lookup("y")
	require.True(t, ok)
	zVI, _, ok := s.Lookup("z")
	require.True(t, ok)

	require.Equal(t, 1, yVI.Value.Len())
	require.Equal(t, 1, zVI.Value.Len())
	assert.Equal(t, "int", yVI.Value.Values()[0].Type())
	assert.Equal(t, "str", zVI.Value.Values()[0].Type())
}

func TestInterpretForLoopBindsElementType(t *testing.T) {
	f := parseModule(t, "xs = [1, 2, 3]\nfor x in xs:\n    y = x\n")
	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)

	_, _, ok := s.Lookup("y")
	assert.True(t, ok)
}

func TestInterpretClassDefinesInstanceMethod(t *testing.T) {
	f := parseModule(t, "class Foo:\n    def bar(self):\n        return 1\n")
	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)

	vi, _, ok := s.Lookup("Foo")
	require.True(t, ok)
	require.Equal(t, 1, vi.Value.Len())
	cls, ok := vi.Value.Values()[0].(*value.Class)
	require.True(t, ok)
	_, hasMethod := cls.Members["bar"]
	assert.True(t, hasMethod)
}

func TestInterpretWhileLoopBreak(t *testing.T) {
	f := parseModule(t, "while True:\n    x = 1\n    break\n")
	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)
	_, _, ok := s.Lookup("x")
	assert.True(t, ok)
}

func TestInterpretGlobalStatementWritesModuleScope(t *testing.T) {
	f := parseModule(t, "def f():\n    global g\n    g = 1\n\nf()\n")
	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)
	_, _, ok := s.Lookup("g")
	assert.True(t, ok)
}
