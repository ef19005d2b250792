package query

import (
	"strings"
	"testing"

	"github.com/sourcegraph/go-lsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyanalyze/pyanalyze/ast"
	"github.com/pyanalyze/pyanalyze/interp"
	"github.com/pyanalyze/pyanalyze/token"
	"github.com/pyanalyze/pyanalyze/value"
)

func mustSnapshot(t *testing.T, src string) *Snapshot {
	t.Helper()
	file, diags := ast.Parse(strings.NewReader(src), "m.py", token.V37)
	require.Empty(t, diags)
	ip := interp.New(value.Budgets{})
	root := ip.InterpretModule("m", file)
	return &Snapshot{
		Module: "m",
		File:   token.NewFile("m.py", []byte(src)),
		AST:    file,
		Root:   root,
		Interp: ip,
	}
}

func TestTypeOfResolvesInnermostExpression(t *testing.T) {
	src := "x = 1\ny = x\n"
	snap := mustSnapshot(t, src)
	// "x" on the right-hand side of "y = x" is at line 2 (0-based line 1).
	out, ok := snap.TypeOf(lsp.Position{Line: 1, Character: 4})
	require.True(t, ok)
	assert.Equal(t, 1, out.Len())
}

func TestDefinitionOfFindsAssignmentSite(t *testing.T) {
	src := "x = 1\ny = x\n"
	snap := mustSnapshot(t, src)
	locs := snap.DefinitionOf(lsp.Position{Line: 1, Character: 4})
	require.NotEmpty(t, locs)
}

func TestReferencesOfFindsReadSite(t *testing.T) {
	src := "x = 1\ny = x\nz = x\n"
	snap := mustSnapshot(t, src)
	refs := snap.ReferencesOf(lsp.Position{Line: 1, Character: 4}, false)
	assert.Len(t, refs, 2)
}

func TestDiagnosticsOfReportsUndefinedVariable(t *testing.T) {
	src := "y = x\n"
	snap := mustSnapshot(t, src)
	diags := snap.DiagnosticsOf(nil)
	require.NotEmpty(t, diags)
	assert.Equal(t, "undefined-variable", diags[0].Code)
}

func TestMembersOfCollectsClassMembers(t *testing.T) {
	src := "class A:\n    def f(self):\n        pass\n"
	snap := mustSnapshot(t, src)
	out, _, ok := snap.Root.Lookup("A")
	require.True(t, ok)
	members := MembersOf(out.Value)
	assert.Contains(t, members, "f")
}
