// Package queue implements the dependency queue described in §4.G: a work
// queue of analysis units with an associated dependency graph, re-enqueuing
// units whose inputs change and force-widening toward termination.
package queue

import (
	"github.com/cespare/xxhash/v2"

	"github.com/pyanalyze/pyanalyze/scope"
	"github.com/pyanalyze/pyanalyze/value"
)

// Binding names a single (scope, name) pair a unit can read or write.
type Binding struct {
	Scope *scope.Scope
	Name  string
}

func (b Binding) key() uint64 {
	h := xxhash.New()
	h.Write([]byte(b.Name))
	if b.Scope != nil {
		var id [8]byte
		putUint64(id[:], b.Scope.ID)
		h.Write(id[:])
	}
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Kind is a unit's re-analysis granularity (spec §3 "Unit").
type Kind int

const (
	KindModule Kind = iota
	KindFunctionBody
	KindClassBody
	KindGeneratorBody
)

// Run is the function a Unit invokes to (re-)perform its analysis. It
// returns the set of bindings it wrote; the queue diffs this against the
// unit's previous output fingerprint to decide whether to re-enqueue
// dependents.
type Run func() (writes map[Binding]value.Set)

// Unit is the smallest re-analyzable work item (spec §3 "Unit").
type Unit struct {
	ID    string
	Kind  Kind
	Run   Run
	Reads map[Binding]bool

	fingerprint   uint64
	reanalyses    int
	maxReanalyses int
	stabilized    bool
	lastWrites    map[Binding]value.Set
}

func newUnit(id string, kind Kind, run Run, maxReanalyses int) *Unit {
	return &Unit{
		ID:            id,
		Kind:          kind,
		Run:           run,
		Reads:         map[Binding]bool{},
		maxReanalyses: maxReanalyses,
	}
}

// NewUnit builds a Unit for a caller outside this package (session's
// module-level units, spec §4.G). maxReanalyses of 0 defers to the owning
// Queue's Config default for the unit's Kind, same as a zero-value Unit
// enqueued directly.
func NewUnit(id string, kind Kind, run Run) *Unit {
	return newUnit(id, kind, run, 0)
}

// fingerprintWrites hashes a canonical serialization of the written value
// sets (spec §3 "output fingerprint (hash of value sets it produced for its
// writes)"), ordering by binding key so the hash doesn't depend on Go's
// randomized map iteration.
func fingerprintWrites(writes map[Binding]value.Set) uint64 {
	keys := make([]uint64, 0, len(writes))
	byKey := map[uint64]value.Set{}
	for b, v := range writes {
		k := b.key()
		keys = append(keys, k)
		byKey[k] = v
	}
	sortUint64s(keys)
	h := xxhash.New()
	for _, k := range keys {
		var buf [8]byte
		putUint64(buf[:], k)
		h.Write(buf[:])
		s := byKey[k]
		var lenBuf [8]byte
		putUint64(lenBuf[:], uint64(s.Len()))
		h.Write(lenBuf[:])
		for _, v := range s.Values() {
			var fpBuf [8]byte
			putUint64(fpBuf[:], value.Fingerprint(v))
			h.Write(fpBuf[:])
		}
	}
	return h.Sum64()
}

func sortUint64s(a []uint64) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j-1] > a[j]; j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
}
