package value

// Generator models a generator/coroutine value: what it yields, what it
// returns on exhaustion (PEP 380 `return` inside a generator, observable via
// `yield from`), and what `.send(x)` feeds back in (spec §3 "Generator").
type Generator struct {
	base
	Yields Set
	Return Set
	Send   Set
}

func (g Generator) Kind() Kind   { return KGenerator }
func (g Generator) Type() string { return "generator" }

func (g Generator) Equal(other Value) bool {
	_, ok := other.(Generator)
	return ok // generators are compared by shape, not by contents, to keep join cheap
}

func (g Generator) fingerprint() uint64 { return stringFingerprint("generator") }

func (g Generator) IsTruthy() (bool, bool) { return true, true }

func (g Generator) GetIter() Set { return g.Yields }

func (g Generator) Property(name string) (Set, bool) {
	switch name {
	case "send":
		return NewSet(nativeFunction{name: "send", result: g.Yields}), true
	case "throw", "close":
		return NewSet(nativeFunction{name: name, result: g.Return}), true
	}
	return Set{}, false
}

var _ Value = Generator{}

// nativeFunction is a minimal Callable used for generator methods and other
// places where the interpreter needs to hand back "calling this yields X"
// without reifying a full Function value (no def node, no closure scope).
type nativeFunction struct {
	base
	name   string
	result Set
}

func (n nativeFunction) Kind() Kind   { return KProtocol }
func (n nativeFunction) Type() string { return "builtin_function_or_method" }
func (n nativeFunction) Equal(other Value) bool {
	o, ok := other.(nativeFunction)
	return ok && o.name == n.name
}
func (n nativeFunction) fingerprint() uint64 { return stringFingerprint("native-fn", n.name) }
func (n nativeFunction) IsTruthy() (bool, bool) { return true, true }
func (n nativeFunction) Call([]Set, map[string]Set, CallContext) Set { return n.result }

var _ Value = nativeFunction{}
