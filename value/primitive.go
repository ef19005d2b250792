package value

import "fmt"

// Primitive is "an unspecified instance of" a builtin type: int, str,
// unicode/bytes, float, long, complex, bool, none, ellipsis (spec §3
// "Primitive instance").
type Primitive struct {
	base
	TypeName string
}

func (p Primitive) Kind() Kind   { return KPrimitive }
func (p Primitive) Type() string { return p.TypeName }

func (p Primitive) Equal(other Value) bool {
	o, ok := other.(Primitive)
	return ok && o.TypeName == p.TypeName
}

func (p Primitive) fingerprint() uint64 { return stringFingerprint("primitive", p.TypeName) }

func (p Primitive) IsTruthy() (bool, bool) {
	if p.TypeName == "NoneType" {
		return false, true
	}
	return false, false
}

func (p Primitive) Operator(op string, other Value) Set {
	if numericTypes[p.TypeName] {
		if o, ok := other.(Primitive); ok && numericTypes[o.TypeName] {
			return NewSet(Primitive{TypeName: widenNumeric(p.TypeName, o.TypeName)})
		}
		if _, ok := other.(Constant); ok {
			return NewSet(Primitive{TypeName: p.TypeName})
		}
	}
	if comparisonOps[op] {
		return NewSet(Primitive{TypeName: "bool"})
	}
	return Set{}
}

func (p Primitive) GetIter() Set {
	if p.TypeName == "str" || p.TypeName == "unicode" || p.TypeName == "bytes" {
		return NewSet(Primitive{TypeName: p.TypeName})
	}
	return Set{}
}

func (p Primitive) GetIndex(Value) Set {
	if p.TypeName == "str" || p.TypeName == "unicode" || p.TypeName == "bytes" {
		return NewSet(Primitive{TypeName: p.TypeName})
	}
	return Set{}
}

var numericTypes = map[string]bool{"int": true, "long": true, "float": true, "complex": true, "bool": true}
var comparisonOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true, "in": true, "not in": true, "is": true, "is not": true}

// widenNumeric implements Python's numeric-tower promotion: int+bool stays
// int, anything with float becomes float, complex dominates both.
func widenNumeric(a, b string) string {
	rank := func(t string) int {
		switch t {
		case "bool":
			return 0
		case "int":
			return 1
		case "long":
			return 2
		case "float":
			return 3
		case "complex":
			return 4
		}
		return -1
	}
	if rank(a) >= rank(b) {
		if a == "bool" {
			return "int"
		}
		return a
	}
	return b
}

// Constant is a Primitive instance tagged with a literal value (spec §3
// "Constant"). Joining two constants of the same type but different literal
// collapses to the type-erased Primitive (see Set.widen / collapseConstants).
type Constant struct {
	base
	TypeName string
	Literal  interface{}
}

func (c Constant) Kind() Kind   { return KConstant }
func (c Constant) Type() string { return c.TypeName }

func (c Constant) Equal(other Value) bool {
	o, ok := other.(Constant)
	return ok && o.TypeName == c.TypeName && o.Literal == c.Literal
}

func (c Constant) fingerprint() uint64 {
	return stringFingerprint("constant", c.TypeName, fmt.Sprintf("%v", c.Literal))
}

func (c Constant) IsTruthy() (bool, bool) {
	switch c.TypeName {
	case "NoneType":
		return false, true
	case "bool":
		return c.Literal == true, true
	case "int", "long", "float":
		return c.Literal != 0, true
	case "str", "unicode", "bytes":
		if s, ok := c.Literal.(string); ok {
			return s != "", true
		}
	}
	return false, false
}

func (c Constant) Operator(op string, other Value) Set {
	return Primitive{TypeName: c.TypeName}.Operator(op, other)
}

func (c Constant) GetIter() Set { return Primitive{TypeName: c.TypeName}.GetIter() }
func (c Constant) GetIndex(v Value) Set { return Primitive{TypeName: c.TypeName}.GetIndex(v) }

var _ Value = Primitive{}
var _ Value = Constant{}
