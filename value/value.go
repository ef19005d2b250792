// Package value implements the abstract-value lattice: the tagged union of
// runtime value shapes the interpreter tracks, plus the join/widen algebra
// over small value sets. It mirrors the teacher's pyObject design (a small,
// closed interface every concrete variant implements) generalized from BUILD
// values to the full Python runtime-value domain.
package value

import (
	"github.com/cespare/xxhash/v2"
)

// Kind tags which concrete variant a Value is, letting join/equality code
// switch on a cheap int instead of a type assertion chain.
type Kind int

const (
	KPrimitive Kind = iota
	KConstant
	KSequence
	KDictionary
	KGenerator
	KFunction
	KBoundMethod
	KClass
	KInstance
	KModule
	KProtocol
	KAny
	KBuiltin
	KPartial
	KDescriptor
)

func (k Kind) String() string {
	switch k {
	case KPrimitive:
		return "primitive"
	case KConstant:
		return "constant"
	case KSequence:
		return "sequence"
	case KDictionary:
		return "dictionary"
	case KGenerator:
		return "generator"
	case KFunction:
		return "function"
	case KBoundMethod:
		return "bound-method"
	case KClass:
		return "class"
	case KInstance:
		return "instance"
	case KModule:
		return "module"
	case KProtocol:
		return "protocol"
	case KAny:
		return "any"
	case KBuiltin:
		return "builtin"
	case KPartial:
		return "partial"
	case KDescriptor:
		return "descriptor"
	}
	return "unknown"
}

// A Value is one concrete abstract runtime value, per spec §3 "Value". Every
// variant implements the full interface; variants for which an operation is
// meaningless return a false/empty result rather than erroring, matching
// §3's "defaults fall through to protocol/structural rules".
type Value interface {
	Kind() Kind
	Type() string
	// IsTruthy reports the value's boolishness and whether that's statically
	// knowable at all (a bare "int instance" isn't; the constant 0 is).
	IsTruthy() (truthy bool, known bool)
	Property(name string) (Set, bool)
	Operator(op string, other Value) Set
	Call(args []Set, kwargs map[string]Set, ctx CallContext) Set
	GetIndex(index Value) Set
	SetIndex(index Value, val Set)
	GetIter() Set
	// Equal implements variant-specific equality per §4.C "Join": two
	// instances of the same class are equal, two functions are equal iff
	// same def node (the call context is not compared), etc.
	Equal(other Value) bool
	// fingerprint seeds structural-equality memoization and cross-module
	// output fingerprinting (queue.Unit); cheap and stable, not necessarily
	// collision-free.
	fingerprint() uint64
}

// Fingerprint exposes the package-private fingerprint hook for callers
// outside value (queue output fingerprints, interner dedup keys).
func Fingerprint(v Value) uint64 { return v.fingerprint() }

func stringFingerprint(parts ...string) uint64 {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// base provides the shared no-op implementations most variants don't
// override: Go doesn't have inheritance, but embedding base keeps each
// variant's file focused on what actually differs from the structural
// default, the way objects.go leans on shared helpers (defaultArg,
// validateType) rather than repeating boilerplate per pyObject.
type base struct{}

func (base) Property(string) (Set, bool)                        { return Set{}, false }
func (base) Operator(string, Value) Set                         { return Set{} }
func (base) Call([]Set, map[string]Set, CallContext) Set        { return Set{} }
func (base) GetIndex(Value) Set                                 { return Set{} }
func (base) SetIndex(Value, Set)                                {}
func (base) GetIter() Set                                       { return Set{} }
func (base) IsTruthy() (bool, bool)                              { return false, false }

// AnyValue is the widened "any object" marker variant (§4.C widening step 3).
type AnyValue struct{ base }

func (AnyValue) Kind() Kind                     { return KAny }
func (AnyValue) Type() string                   { return "Any" }
func (AnyValue) Equal(other Value) bool         { _, ok := other.(AnyValue); return ok }
func (AnyValue) fingerprint() uint64            { return stringFingerprint("any") }
func (AnyValue) IsTruthy() (bool, bool)          { return false, false }
func (a AnyValue) Property(string) (Set, bool)  { return NewSet(a), true }
func (a AnyValue) Operator(string, Value) Set   { return NewSet(a) }
func (a AnyValue) Call([]Set, map[string]Set, CallContext) Set {
	return NewSet(a)
}
func (a AnyValue) GetIndex(Value) Set { return NewSet(a) }
func (a AnyValue) GetIter() Set       { return NewSet(a) }

var _ Value = AnyValue{}

// Any is the singleton "any object" value.
var Any = AnyValue{}
