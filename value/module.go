package value

// Module is a reference to a Module Entry (owned by the resolve/session
// packages), exposing its top-level scope as a member dictionary (spec §3
// "Module"). value stays decoupled from resolve's Module Entry type by
// keying on the dotted module name and holding a direct snapshot of its
// exported members, refreshed by the interpreter whenever the module's
// top-level unit re-analyzes.
type Module struct {
	base
	Name    string
	Members map[string]Set
}

func (m Module) Kind() Kind   { return KModule }
func (m Module) Type() string { return "module" }

func (m Module) Equal(other Value) bool {
	o, ok := other.(Module)
	return ok && o.Name == m.Name
}

func (m Module) fingerprint() uint64 { return stringFingerprint("module", m.Name) }

func (m Module) IsTruthy() (bool, bool) { return true, true }

func (m Module) Property(name string) (Set, bool) {
	s, ok := m.Members[name]
	return s, ok
}

var _ Value = Module{}

// Protocol is a structural marker capturing only a capability set — e.g.
// "callable returning X", "iterable over Y" — used when the analyzer can't
// reify a concrete variant (spec §3 "Protocol").
type Protocol struct {
	base
	Capability string // "callable" | "iterable" | "indexable" | ...
	Result     Set    // what invoking the capability yields
}

func (p Protocol) Kind() Kind   { return KProtocol }
func (p Protocol) Type() string { return "Protocol[" + p.Capability + "]" }

func (p Protocol) Equal(other Value) bool {
	o, ok := other.(Protocol)
	return ok && o.Capability == p.Capability
}

func (p Protocol) fingerprint() uint64 { return stringFingerprint("protocol", p.Capability) }

func (p Protocol) IsTruthy() (bool, bool) { return false, false }

func (p Protocol) Call([]Set, map[string]Set, CallContext) Set {
	if p.Capability == "callable" {
		return p.Result
	}
	return Set{}
}

func (p Protocol) GetIter() Set {
	if p.Capability == "iterable" {
		return p.Result
	}
	return Set{}
}

func (p Protocol) GetIndex(Value) Set {
	if p.Capability == "indexable" {
		return p.Result
	}
	return Set{}
}

var _ Value = Protocol{}
