package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAddDedup(t *testing.T) {
	s := NewSet(Primitive{TypeName: "int"})
	s = s.Add(Primitive{TypeName: "int"}, 10)
	assert.Equal(t, 1, s.Len())
}

func TestJoinWidensConstantsFirst(t *testing.T) {
	var s Set
	for i := 0; i < 12; i++ {
		s = s.Add(Constant{TypeName: "int", Literal: i}, 10)
	}
	assert.LessOrEqual(t, s.Len(), 10)
	found := false
	for _, v := range s.Values() {
		if p, ok := v.(Primitive); ok && p.TypeName == "int" {
			found = true
		}
	}
	assert.True(t, found, "widening should collapse constants into a type-erased primitive")
}

func TestJoinWidensToAnyWhenStillTooLarge(t *testing.T) {
	budgets := DefaultBudgets()
	var s Set
	classes := make([]*Class, 0, 20)
	for i := 0; i < 20; i++ {
		classes = append(classes, &Class{Def: DefID{Module: "m", Offset: i}, Name: "C"})
	}
	for _, c := range classes {
		s = s.Add(&Instance{Class: c}, budgets.Assignment)
	}
	assert.Equal(t, 1, s.Len())
	_, isAny := s.Values()[0].(AnyValue)
	assert.True(t, isAny)
}

func TestIsTruthyRequiresUnanimity(t *testing.T) {
	s := NewSet(Constant{TypeName: "bool", Literal: true})
	truthy, known := s.IsTruthy()
	assert.True(t, known)
	assert.True(t, truthy)

	s = s.Add(Constant{TypeName: "bool", Literal: false}, 10)
	_, known = s.IsTruthy()
	assert.False(t, known)
}

func TestInternerHandlesSelfReferentialList(t *testing.T) {
	in := NewInterner()
	anyIdx := in.Intern(Set{})
	list := Sequence{SeqKind: SeqList, Interner: in, KnownLength: -1, AnyIndex: anyIdx}
	// x = []; x.append(x)
	list.SetIndex(nil, NewSet(list))
	elems := list.ElementSet(DefaultBudgets())
	assert.Equal(t, 1, elems.Len())
	assert.True(t, in.EqualHandles(anyIdx, anyIdx))
}

func TestInstanceAttrsAccumulateUnderSelfAttributeBudget(t *testing.T) {
	budgets := DefaultBudgets()
	cls := &Class{Def: DefID{Module: "m", Offset: 1}, Name: "Point"}
	inst := &Instance{Class: cls}
	for i := 0; i < 60; i++ {
		inst.SetAttr("x", NewSet(Constant{TypeName: "int", Literal: i}), budgets)
	}
	assert.LessOrEqual(t, inst.Attrs["x"].Len(), budgets.SelfAttribute)
}

func TestClassPropertyWalksMRO(t *testing.T) {
	base := &Class{Name: "Base", Members: map[string]Set{"greet": NewSet(Function{Name: "greet"})}}
	derived := &Class{Name: "Derived", Members: map[string]Set{}}
	derived.MRO = []*Class{derived, base}
	s, ok := derived.Property("greet")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestInstancePropertyBindsMethodsAsBoundMethod(t *testing.T) {
	cls := &Class{Name: "Foo", Members: map[string]Set{"bar": NewSet(Function{Name: "bar"})}}
	cls.MRO = []*Class{cls}
	inst := &Instance{Class: cls}
	s, ok := inst.Property("bar")
	assert.True(t, ok)
	_, isBound := s.Values()[0].(BoundMethod)
	assert.True(t, isBound)
}
