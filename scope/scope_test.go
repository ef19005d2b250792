package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pyanalyze/pyanalyze/value"
)

func TestLookupLocalBeforeEnclosing(t *testing.T) {
	mod := New()
	mod.Define("x", 0, value.NewSet(value.Constant{TypeName: "int", Literal: 1}), value.DefaultBudgets())

	fn := mod.NewChild(Function, "")
	fn.Define("x", 1, value.NewSet(value.Constant{TypeName: "str", Literal: "a"}), value.DefaultBudgets())

	vi, owner, ok := fn.Lookup("x")
	assert.True(t, ok)
	assert.Same(t, fn, owner)
	assert.Equal(t, 1, vi.Value.Len())
}

func TestLookupFallsThroughToModuleScope(t *testing.T) {
	mod := New()
	mod.Define("y", 0, value.NewSet(value.Constant{TypeName: "int", Literal: 2}), value.DefaultBudgets())
	fn := mod.NewChild(Function, "")

	_, owner, ok := fn.Lookup("y")
	assert.True(t, ok)
	assert.Same(t, mod, owner)
}

func TestMethodScopeSkipsClassBodyForClosures(t *testing.T) {
	mod := New()
	cls := mod.NewChild(Class, "Foo")
	cls.Define("helper", 0, value.NewSet(value.Constant{TypeName: "int", Literal: 1}), value.DefaultBudgets())
	method := cls.NewChild(Function, "")

	_, _, ok := method.Lookup("helper")
	assert.False(t, ok, "class body locals must not be visible to nested method closures")
}

func TestNameManglingInsideClass(t *testing.T) {
	assert.Equal(t, "_Foo__secret", MangleName("__secret", "Foo"))
	assert.Equal(t, "__dunder__", MangleName("__dunder__", "Foo"))
	assert.Equal(t, "plain", MangleName("plain", "Foo"))
	assert.Equal(t, "__secret", MangleName("__secret", ""))
}

func TestDefineAppliesManglingInsideClassScope(t *testing.T) {
	mod := New()
	cls := mod.NewChild(Class, "Foo")
	method := cls.NewChild(Function, "")
	method.Define("__secret", 0, value.NewSet(value.Any), value.DefaultBudgets())

	_, ok := method.getLocal("_Foo__secret")
	assert.True(t, ok)
}

func TestForceGlobalRedirectsToModuleScope(t *testing.T) {
	mod := New()
	fn := mod.NewChild(Function, "")
	fn.ForceGlobal("g")
	fn.Define("g", 0, value.NewSet(value.Constant{TypeName: "int", Literal: 5}), value.DefaultBudgets())

	_, ok := mod.getLocal("g")
	assert.True(t, ok, "global declaration should write through to module scope")
}

func TestForceNonlocalRedirectsToEnclosingFunction(t *testing.T) {
	mod := New()
	outer := mod.NewChild(Function, "")
	inner := outer.NewChild(Function, "")
	ok := inner.ForceNonlocal("n")
	assert.True(t, ok)
	inner.Define("n", 0, value.NewSet(value.Any), value.DefaultBudgets())

	_, ok = outer.getLocal("n")
	assert.True(t, ok)
}

func TestForceNonlocalAtModuleLevelFails(t *testing.T) {
	mod := New()
	ok := mod.ForceNonlocal("n")
	assert.False(t, ok)
}

func TestNarrowFiltersByType(t *testing.T) {
	mod := New()
	intVal := value.Constant{TypeName: "int", Literal: 1}
	strVal := value.Constant{TypeName: "str", Literal: "a"}
	mod.Define("x", 0, value.NewSet(intVal, strVal), value.DefaultBudgets())

	narrowed := mod.Narrow("x", "int")
	vi, ok := narrowed.getLocal("x")
	assert.True(t, ok)
	assert.Equal(t, 1, vi.Value.Len())

	complement := mod.NarrowComplement("x", "int")
	vi2, ok := complement.getLocal("x")
	assert.True(t, ok)
	assert.Equal(t, 1, vi2.Value.Len())
}

func TestJoinBackMergesNarrowedValueIntoParent(t *testing.T) {
	mod := New()
	mod.Define("x", 0, value.NewSet(value.Constant{TypeName: "int", Literal: 1}, value.Constant{TypeName: "str", Literal: "a"}), value.DefaultBudgets())
	narrowed := mod.Narrow("x", "int")
	mod.JoinBack(narrowed, "x", value.DefaultBudgets())

	vi, _, ok := mod.Lookup("x")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, vi.Value.Len(), 1)
}
