package value

import "github.com/cespare/xxhash/v2"

// CallContext is the opaque token keying the Cartesian Product Algorithm's
// per-call-context parameter bindings (spec §3 "Call Context", §4.F). Two
// calls whose argument-summary tokens match share bindings; Depth grows by
// one per nested call and forces a context-insensitive fallback once it
// exceeds Budgets.CallContextDepth.
type CallContext struct {
	token uint64
	Depth int
}

// RootCallContext is the zero-depth, unconditioned context used for
// module-toplevel and other non-call units.
var RootCallContext = CallContext{token: 0, Depth: 0}

// NewCallContext derives a context for a call whose positional and keyword
// argument sets are summarized by their fingerprints, nested one level under
// parent.
func NewCallContext(parent CallContext, args []Set, kwargs map[string]Set) CallContext {
	h := xxhash.New()
	var buf [8]byte
	writeUint64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	writeUint64(parent.token)
	for _, a := range args {
		writeUint64(setFingerprint(a))
	}
	for _, name := range sortedKeys(kwargs) {
		_, _ = h.WriteString(name)
		writeUint64(setFingerprint(kwargs[name]))
	}
	return CallContext{token: h.Sum64(), Depth: parent.Depth + 1}
}

// Token exposes the context's opaque identity for callers outside value that
// need to key their own memoization off it (interp's direct function-body
// invocation, ahead of the queue package's formal per-context Unit scheduling).
func (c CallContext) Token() uint64 { return c.token }

// Insensitive reports whether ctx has exceeded the configured call-context
// depth and should collapse to a single shared (context-insensitive)
// binding, per §3 "Depth-bounded to prevent runaway context explosion".
func (c CallContext) Insensitive(budgets Budgets) bool {
	return c.Depth > budgets.CallContextDepth
}

func setFingerprint(s Set) uint64 {
	h := xxhash.New()
	for _, v := range s.Values() {
		var buf [8]byte
		fp := Fingerprint(v)
		for i := 0; i < 8; i++ {
			buf[i] = byte(fp >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func sortedKeys(m map[string]Set) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Simple insertion sort: call-context keying only ever sees a handful of
	// keyword arguments per call site.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
