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

// TestDiamondInheritanceLinearizesMRO mirrors the spec's S3 acceptance case:
// six classes F, E, D, C(D,F), B(D,E), A(B,C), producing MRO(A) =
// [A, B, C, D, E, F]. No implicit object class is modeled, so object does
// not appear at the end of the MRO.
func TestDiamondInheritanceLinearizesMRO(t *testing.T) {
	src := strings.Join([]string{
		"class F: pass",
		"class E: pass",
		"class D: pass",
		"class C(D, F): pass",
		"class B(D, E): pass",
		"class A(B, C): pass",
		"",
	}, "\n")
	f, diags := ast.Parse(strings.NewReader(src), "m.py", token.V37)
	require.Empty(t, diags)

	ip := New(value.DefaultBudgets())
	s := ip.InterpretModule("m", f)
	require.Empty(t, ip.Diagnostics)

	vi, _, ok := s.Lookup("A")
	require.True(t, ok)
	cls := vi.Value.Values()[0].(*value.Class)
	names := make([]string, len(cls.MRO))
	for i, k := range cls.MRO {
		names[i] = k.Name
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, names)
}

// TestInconsistentBaseOrderReportsInvalidMRO covers the companion S3 case:
// swapping the base order so C3 can't find a consistent linearization.
func TestInconsistentBaseOrderReportsInvalidMRO(t *testing.T) {
	src := strings.Join([]string{
		"class X: pass",
		"class Y: pass",
		"class A(X, Y): pass",
		"class B(Y, X): pass",
		"class C(A, B): pass",
		"",
	}, "\n")
	f, diags := ast.Parse(strings.NewReader(src), "m.py", token.V37)
	require.Empty(t, diags)

	ip := New(value.DefaultBudgets())
	ip.InterpretModule("m", f)

	require.NotEmpty(t, ip.Diagnostics)
	assert.Equal(t, "invalid-mro", ip.Diagnostics[0].Code)
}

func TestNotCallableDiagnosticOnCallingAPrimitive(t *testing.T) {
	f, diags := ast.Parse(strings.NewReader("x = 1\ny = x()\n"), "m.py", token.V37)
	require.Empty(t, diags)

	ip := New(value.DefaultBudgets())
	ip.InterpretModule("m", f)

	require.NotEmpty(t, ip.Diagnostics)
	assert.Equal(t, "not-callable", ip.Diagnostics[0].Code)
}
