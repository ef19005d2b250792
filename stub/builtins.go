// Package stub implements the builtin/stub loader (spec §4.H): precomputed
// module summaries presented as fully-populated value.Module values, plus
// the curated list of special builtin functions the analyzer recognizes
// natively rather than by walking a body.
package stub

import (
	"github.com/pyanalyze/pyanalyze/value"
)

// Table maps a builtin name to its native implementation, mirroring the
// teacher's registerBuiltins' name -> nativeFunc association in
// src/parse/asp/builtins.go (there mapping BUILD-language builtins to Go
// functions; here mapping Python's curated builtin set).
type Table map[string]value.Builtin

// NewTable builds the full curated builtin table (spec §4.H "Special
// built-in recognition").
func NewTable() Table {
	t := Table{}
	reg := func(name string, fn func(args []value.Set, kwargs map[string]value.Set) value.Set) {
		t[name] = value.Builtin{Name: name, Fn: fn}
	}

	reg("len", builtinLen)
	reg("abs", builtinAbs)
	reg("range", builtinRange)
	reg("xrange", builtinRange)
	reg("open", builtinOpen)
	reg("iter", builtinIter)
	reg("next", builtinNext)
	reg("getattr", builtinGetattr)
	reg("setattr", builtinSetattr)
	reg("vars", builtinVars)
	reg("dir", builtinDir)
	reg("sorted", builtinSorted)
	reg("list", builtinListCtor)
	reg("tuple", builtinTupleCtor)
	reg("set", builtinSetCtor)
	reg("frozenset", builtinSetCtor)
	reg("dict", builtinDictCtor)
	reg("super", builtinSuper)
	reg("isinstance", builtinIsinstance)
	reg("issubclass", builtinIssubclass)
	reg("staticmethod", builtinDescriptor(value.DescStatic))
	reg("classmethod", builtinDescriptor(value.DescClass))
	reg("property", builtinDescriptor(value.DescProperty))

	return t
}

// Module builds the implicit "builtins" module: a value.Module whose
// Members is exactly this table, the form in which interp's scope.Builtins
// fallback (spec §4.D "builtin" as the final name-resolution tier) expects
// to find them.
func (t Table) Module() value.Module {
	members := make(map[string]value.Set, len(t))
	for name, fn := range t {
		members[name] = value.NewSet(fn)
	}
	return value.Module{Name: "builtins", Members: members}
}

func intPrimitive() value.Set { return value.NewSet(value.Primitive{TypeName: "int"}) }
func boolPrimitive() value.Set { return value.NewSet(value.Primitive{TypeName: "bool"}) }
func strPrimitive() value.Set { return value.NewSet(value.Primitive{TypeName: "str"}) }

func sequenceOf(kind value.SequenceKind, elems value.Set) value.Set {
	in := value.NewInterner()
	h := in.Intern(elems)
	return value.NewSet(value.Sequence{SeqKind: kind, Interner: in, KnownLength: -1, AnyIndex: h})
}

func firstArg(args []value.Set) value.Set {
	if len(args) == 0 {
		return value.Set{}
	}
	return args[0]
}

// builtinLen: `len(x)` always returns int (spec §4.H).
func builtinLen(args []value.Set, kwargs map[string]value.Set) value.Set { return intPrimitive() }

// builtinAbs: `abs(x)` returns the same numeric type as its argument; the
// lattice doesn't distinguish int/float precision finely enough to do
// better than returning int, matching the teacher's own min-information
// native builtins (e.g. asp's lenFunc always returns pyInt regardless of
// input shape).
func builtinAbs(args []value.Set, kwargs map[string]value.Set) value.Set { return intPrimitive() }

func builtinRange(args []value.Set, kwargs map[string]value.Set) value.Set {
	return sequenceOf(value.SeqList, intPrimitive())
}

func builtinOpen(args []value.Set, kwargs map[string]value.Set) value.Set {
	mode := "r"
	if len(args) > 1 {
		for _, v := range args[1].Values() {
			if c, ok := v.(value.Constant); ok {
				if s, ok := c.Literal.(string); ok {
					mode = s
				}
			}
		}
	}
	typeName := "TextIOWrapper"
	for _, r := range mode {
		if r == 'b' {
			typeName = "BufferedIOBase"
		}
	}
	return value.NewSet(value.Primitive{TypeName: typeName})
}

func builtinIter(args []value.Set, kwargs map[string]value.Set) value.Set {
	return firstArg(args).GetIter(value.DefaultBudgets())
}

func builtinNext(args []value.Set, kwargs map[string]value.Set) value.Set {
	if len(args) > 1 {
		return value.Join(firstArg(args), args[1], value.DefaultBudgets().Assignment)
	}
	return firstArg(args)
}

// builtinGetattr: "returns the requested attribute's value set, or the
// default's set if provided" (spec §4.H).
func builtinGetattr(args []value.Set, kwargs map[string]value.Set) value.Set {
	if len(args) < 2 {
		return value.NewSet(value.Any)
	}
	var attrName string
	for _, v := range args[1].Values() {
		if c, ok := v.(value.Constant); ok {
			if s, ok := c.Literal.(string); ok {
				attrName = s
			}
		}
	}
	var out value.Set
	found := false
	for _, v := range args[0].Values() {
		if s, ok := v.Property(attrName); ok {
			out = value.Join(out, s, value.DefaultBudgets().Assignment)
			found = true
		}
	}
	if !found {
		if len(args) > 2 {
			return args[2]
		}
		return value.NewSet(value.Any)
	}
	return out
}

func builtinSetattr(args []value.Set, kwargs map[string]value.Set) value.Set {
	if len(args) < 3 {
		return value.Set{}
	}
	var attrName string
	for _, v := range args[1].Values() {
		if c, ok := v.(value.Constant); ok {
			if s, ok := c.Literal.(string); ok {
				attrName = s
			}
		}
	}
	for _, v := range args[0].Values() {
		if inst, ok := v.(*value.Instance); ok {
			inst.SetAttr(attrName, args[2], value.DefaultBudgets())
		}
	}
	return value.NewSet(value.Constant{TypeName: "NoneType", Literal: nil})
}

func builtinVars(args []value.Set, kwargs map[string]value.Set) value.Set {
	in := value.NewInterner()
	return value.NewSet(value.Dictionary{
		Interner:  in,
		KeysAny:   in.Intern(strPrimitive()),
		ValuesAny: in.Intern(value.NewSet(value.Any)),
	})
}

func builtinDir(args []value.Set, kwargs map[string]value.Set) value.Set {
	return sequenceOf(value.SeqList, strPrimitive())
}

func builtinSorted(args []value.Set, kwargs map[string]value.Set) value.Set {
	elems := firstArg(args).GetIter(value.DefaultBudgets())
	return sequenceOf(value.SeqList, elems)
}

func builtinListCtor(args []value.Set, kwargs map[string]value.Set) value.Set {
	if len(args) == 0 {
		return sequenceOf(value.SeqList, value.Set{})
	}
	return sequenceOf(value.SeqList, firstArg(args).GetIter(value.DefaultBudgets()))
}

func builtinTupleCtor(args []value.Set, kwargs map[string]value.Set) value.Set {
	if len(args) == 0 {
		return sequenceOf(value.SeqTuple, value.Set{})
	}
	return sequenceOf(value.SeqTuple, firstArg(args).GetIter(value.DefaultBudgets()))
}

func builtinSetCtor(args []value.Set, kwargs map[string]value.Set) value.Set {
	if len(args) == 0 {
		return sequenceOf(value.SeqSet, value.Set{})
	}
	return sequenceOf(value.SeqSet, firstArg(args).GetIter(value.DefaultBudgets()))
}

func builtinDictCtor(args []value.Set, kwargs map[string]value.Set) value.Set {
	in := value.NewInterner()
	var keys, vals value.Set
	if len(args) > 0 {
		for _, v := range args[0].Values() {
			if d, ok := v.(value.Dictionary); ok {
				keys = value.Join(keys, d.Interner.Resolve(d.KeysAny), value.DefaultBudgets().Assignment)
				vals = value.Join(vals, d.Interner.Resolve(d.ValuesAny), value.DefaultBudgets().Assignment)
			}
		}
	}
	for k, v := range kwargs {
		keys = value.Join(keys, value.NewSet(value.Constant{TypeName: "str", Literal: k}), value.DefaultBudgets().Assignment)
		vals = value.Join(vals, v, value.DefaultBudgets().Assignment)
	}
	return value.NewSet(value.Dictionary{Interner: in, KeysAny: in.Intern(keys), ValuesAny: in.Intern(vals)})
}

// builtinSuper returns a marker whose attribute access searches the MRO
// starting after the given class (spec §4.H). Without a concrete class
// argument to anchor on, it degrades to Any — the session/interp layer that
// knows the enclosing class substitutes a precise Super value instead when
// it can.
func builtinSuper(args []value.Set, kwargs map[string]value.Set) value.Set {
	if len(args) == 0 {
		return value.NewSet(value.Any)
	}
	for _, v := range args[0].Values() {
		if cls, ok := v.(*value.Class); ok {
			return value.NewSet(value.Super{Class: cls})
		}
	}
	return value.NewSet(value.Any)
}

func builtinIsinstance(args []value.Set, kwargs map[string]value.Set) value.Set { return boolPrimitive() }
func builtinIssubclass(args []value.Set, kwargs map[string]value.Set) value.Set { return boolPrimitive() }

// FunctoolsModule builds the curated `functools`/`_functools` module (spec
// §4.H: "functools.partial (produces a callable whose argument prefix is
// bound), functools.wraps (transparent wrapper preserving name/doc)"),
// presented the same way NewTable().Module() presents the implicit builtins
// module — a value.Module whose Members is the curated native-function
// table, rather than anything walked from a parsed stub file.
func FunctoolsModule() value.Module {
	return value.Module{
		Name: "functools",
		Members: map[string]value.Set{
			"partial": value.NewSet(value.Builtin{Name: "functools.partial", Fn: builtinPartial}),
			"wraps":   value.NewSet(value.Builtin{Name: "functools.wraps", Fn: builtinWraps}),
		},
	}
}

// builtinPartial implements `functools.partial(fn, *bound_args,
// **bound_kwargs)`: a callable whose argument prefix is already bound (spec
// §4.H, §9 "Cartesian Product Algorithm"). Actually invoking the result
// still walks a wrapped value.Function's body under a freshly-derived
// CallContext — handled by interp's call dispatch unwrapping value.Partial,
// not by value.Partial.Call itself (see value/partial.go).
func builtinPartial(args []value.Set, kwargs map[string]value.Set) value.Set {
	if len(args) == 0 {
		return value.NewSet(value.Any)
	}
	bound := append([]value.Set{}, args[1:]...)
	var out value.Set
	for _, fn := range args[0].Values() {
		out = value.Join(out, value.NewSet(value.Partial{Func: fn, BoundArgs: bound, BoundKwargs: kwargs}), value.DefaultBudgets().Assignment)
	}
	return out
}

// builtinWraps implements `functools.wraps(original)`: returns a decorator
// that is transparent for the wrapped function's observable value (spec
// §4.F "Decorator" — "functools.wraps ... the wrapping is transparent for
// docstring and name"). The decorator it returns simply hands back whatever
// it's applied to.
func builtinWraps(args []value.Set, kwargs map[string]value.Set) value.Set {
	return value.NewSet(value.Builtin{Name: "functools.wraps.<locals>.decorator", Fn: identityDecorator})
}

func identityDecorator(args []value.Set, kwargs map[string]value.Set) value.Set {
	return firstArg(args)
}

// builtinDescriptor returns the native implementation of `staticmethod`,
// `classmethod`, and `property`: each wraps its one argument in a
// value.Descriptor tagged with kind, which Instance.Property (spec §4.F
// "Attribute access") later applies the matching descriptor-protocol rule
// to rather than the default bind-as-BoundMethod behavior.
func builtinDescriptor(kind value.DescriptorKind) func([]value.Set, map[string]value.Set) value.Set {
	return func(args []value.Set, kwargs map[string]value.Set) value.Set {
		if len(args) == 0 {
			return value.NewSet(value.Any)
		}
		var out value.Set
		for _, fn := range args[0].Values() {
			out = value.Join(out, value.NewSet(value.Descriptor{DKind: kind, Wrapped: fn}), value.DefaultBudgets().Assignment)
		}
		return out
	}
}
