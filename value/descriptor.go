package value

// DescriptorKind classifies which of the three natively-recognized
// decorators (spec §4.F "Decorator", §4.H) a Descriptor wraps.
type DescriptorKind int

const (
	DescStatic DescriptorKind = iota
	DescClass
	DescProperty
)

func (k DescriptorKind) String() string {
	switch k {
	case DescStatic:
		return "staticmethod"
	case DescClass:
		return "classmethod"
	case DescProperty:
		return "property"
	}
	return "descriptor"
}

// Descriptor is the value `staticmethod(f)`, `classmethod(f)`, or
// `property(f)` produces: a marker that flips how attribute lookup treats
// the wrapped function once it becomes a class member (spec §3 "Class" —
// "descriptor protocol marker"; §4.F "the property marker flips the
// attribute's descriptor behavior"). Instance.Property (class_instance.go)
// special-cases Descriptor instead of the default bind-as-BoundMethod rule:
// DescStatic returns Wrapped unbound, DescClass binds the owning Class
// instead of the instance, and DescProperty yields a PropertyResult whose
// Invoke calls Wrapped against the instance, rather than the function itself.
type Descriptor struct {
	base
	DKind   DescriptorKind
	Wrapped Value
}

func (d Descriptor) Kind() Kind   { return KDescriptor }
func (d Descriptor) Type() string { return d.DKind.String() }

func (d Descriptor) Equal(other Value) bool {
	o, ok := other.(Descriptor)
	if !ok || d.Wrapped == nil || o.Wrapped == nil {
		return false
	}
	return o.DKind == d.DKind && o.Wrapped.Equal(d.Wrapped)
}

func (d Descriptor) fingerprint() uint64 {
	if d.Wrapped == nil {
		return stringFingerprint("descriptor", d.DKind.String())
	}
	return stringFingerprint("descriptor", d.DKind.String()) ^ Fingerprint(d.Wrapped)
}

func (d Descriptor) IsTruthy() (bool, bool) { return true, true }

// Call forwards to Wrapped, matching the descriptor's own callable surface
// (a classmethod/staticmethod is still directly invocable as
// `Class.method(...)`).
func (d Descriptor) Call(args []Set, kwargs map[string]Set, ctx CallContext) Set {
	if d.Wrapped == nil {
		return Set{}
	}
	return d.Wrapped.Call(args, kwargs, ctx)
}

func (d Descriptor) Property(name string) (Set, bool) {
	if d.Wrapped == nil {
		return Set{}, false
	}
	return d.Wrapped.Property(name)
}

var _ Value = Descriptor{}
