package value

// Super is the value `super(Class, obj)` produces: attribute access
// searches the MRO starting immediately after Class rather than at its own
// head (spec §4.H "super... returns a marker whose attribute access
// searches the MRO starting after the given class").
type Super struct {
	base
	Class *Class
}

func (Super) Kind() Kind   { return KProtocol }
func (Super) Type() string { return "super" }

func (s Super) Equal(other Value) bool {
	o, ok := other.(Super)
	return ok && o.Class == s.Class
}

func (s Super) fingerprint() uint64 {
	if s.Class == nil {
		return stringFingerprint("super", "")
	}
	return stringFingerprint("super", s.Class.Def.Module, s.Class.Name)
}

func (s Super) IsTruthy() (bool, bool) { return true, true }

// Property walks the MRO starting after s.Class, the whole point of super().
func (s Super) Property(name string) (Set, bool) {
	if s.Class == nil {
		return Set{}, false
	}
	skipping := true
	for _, k := range s.Class.MRO {
		if skipping {
			if k == s.Class {
				skipping = false
			}
			continue
		}
		if k == nil {
			continue
		}
		if m, ok := k.Members[name]; ok {
			return m, true
		}
	}
	return Set{}, false
}

var _ Value = Super{}
