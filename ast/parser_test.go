package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyanalyze/pyanalyze/token"
)

func parseSrc(t *testing.T, src string) *File {
	t.Helper()
	f, diags := Parse(strings.NewReader(src), "test.py", token.V37)
	for _, d := range diags {
		t.Logf("diag: %s: %s", d.Span, d.Message)
	}
	return f
}

func TestParseSimpleAssignment(t *testing.T) {
	f := parseSrc(t, "x = 1\n")
	require.Len(t, f.Statements, 1)
	s := f.Statements[0]
	assert.Equal(t, SAssign, s.Kind)
	assert.Equal(t, EInt, s.Value.Kind)
	assert.Equal(t, "1", s.Value.IntVal)
}

func TestParseIfElifElse(t *testing.T) {
	f := parseSrc(t, "if x:\n    pass\nelif y:\n    pass\nelse:\n    pass\n")
	require.Len(t, f.Statements, 1)
	s := f.Statements[0]
	require.Equal(t, SIf, s.Kind)
	assert.Len(t, s.Elif, 1)
	assert.Len(t, s.Else, 1)
}

func TestParseFuncDefWithDefaultsAndVarargs(t *testing.T) {
	f := parseSrc(t, "def f(a, b=1, *args, **kwargs):\n    return a + b\n")
	require.Len(t, f.Statements, 1)
	fd := f.Statements[0].FuncDef
	require.NotNil(t, fd)
	require.Len(t, fd.Params, 4)
	assert.Equal(t, ParamVarArgs, fd.Params[2].Kind)
	assert.Equal(t, ParamKwArgs, fd.Params[3].Kind)
}

func TestParseClassWithMetaclassKeyword(t *testing.T) {
	f := parseSrc(t, "class Foo(Base, metaclass=Meta):\n    pass\n")
	cd := f.Statements[0].ClassDef
	require.NotNil(t, cd)
	require.Len(t, cd.Bases, 1)
	require.Len(t, cd.Keywords, 1)
	assert.Equal(t, "metaclass", cd.Keywords[0].Name)
}

func TestParseListComprehension(t *testing.T) {
	f := parseSrc(t, "y = [x for x in range(10) if x % 2 == 0]\n")
	val := f.Statements[0].Value
	require.Equal(t, EListComp, val.Kind)
	require.Len(t, val.CompFors, 1)
	assert.Len(t, val.CompFors[0].Ifs, 1)
}

func TestParseTryExceptAsAndComma(t *testing.T) {
	f := parseSrc(t, "try:\n    pass\nexcept ValueError as e:\n    pass\nexcept TypeError, t:\n    pass\n")
	s := f.Statements[0]
	require.Equal(t, STry, s.Kind)
	require.Len(t, s.TryHandlers, 2)
	assert.Equal(t, "e", s.TryHandlers[0].Name)
	assert.Equal(t, "t", s.TryHandlers[1].Name)
}

func TestParseFromImportRelative(t *testing.T) {
	f := parseSrc(t, "from ..pkg import a, b as c\n")
	s := f.Statements[0]
	require.Equal(t, SImportFrom, s.Kind)
	assert.Equal(t, 2, s.FromDots)
	assert.Equal(t, "pkg", s.FromModule)
	require.Len(t, s.FromNames, 2)
	assert.Equal(t, "c", s.FromNames[1].Alias)
}

func TestParseStarredAssignmentTarget(t *testing.T) {
	f := parseSrc(t, "a, *rest = [1, 2, 3]\n")
	s := f.Statements[0]
	require.Equal(t, SAssign, s.Kind)
	target := s.Targets[0]
	require.Equal(t, ETuple, target.Kind)
	require.Len(t, target.Elts, 2)
	assert.Equal(t, EStarred, target.Elts[1].Kind)
}

func TestParseLambdaAndTernary(t *testing.T) {
	f := parseSrc(t, "f = lambda x, y=2: x if x > y else y\n")
	val := f.Statements[0].Value
	require.Equal(t, ELambda, val.Kind)
	require.Equal(t, EIfExp, val.Body.Kind)
}

func TestParseDecoratedAsyncFunc(t *testing.T) {
	f := parseSrc(t, "@decorator\nasync def f():\n    await g()\n")
	s := f.Statements[0]
	require.Equal(t, SFuncDef, s.Kind)
	assert.True(t, s.FuncDef.IsAsync)
	assert.Len(t, s.FuncDef.Decorators, 1)
}

func TestParsePrintStatementWithRedirect(t *testing.T) {
	f, _ := Parse(strings.NewReader("print >>sys.stderr, 'hi'\n"), "t.py", token.V26)
	s := f.Statements[0]
	require.Equal(t, SPrint, s.Kind)
	assert.NotNil(t, s.PrintDest)
	require.Len(t, s.PrintVals, 1)
}

func TestParseErrorRecovery(t *testing.T) {
	f, diags := Parse(strings.NewReader("x = )\ny = 1\n"), "t.py", token.V37)
	assert.NotEmpty(t, diags)
	// parsing should still pick up trailing valid statements after the error.
	var sawY bool
	for _, s := range f.Statements {
		if s.Kind == SAssign && len(s.Targets) == 1 && s.Targets[0].Kind == EName && s.Targets[0].Name == "y" {
			sawY = true
		}
	}
	assert.True(t, sawY)
}
