package value

import (
	"sync"

	"github.com/pyanalyze/pyanalyze/cmap"
)

// A Handle is an indirect reference to a Set stored in an Interner: sequences
// and dictionaries hold Handles for their element value sets rather than
// inline Sets, so a self-referential structure (`x = []; x.append(x)`) is
// representable without an infinite literal expansion (spec §4.C "Cycles").
type Handle uint32

// Interner owns the backing storage Handles point into. Each container or
// function value is created with its own Interner; there is no
// package-level singleton.
type Interner struct {
	mu      sync.RWMutex
	sets    []Set
	visited *cmap.Map[visitedPair, bool]
}

type visitedPair struct{ a, b Handle }

func visitedPairHasher(p visitedPair) uint64 { return uint64(p.a)<<32 | uint64(p.b) }

// NewInterner creates an empty Interner.
func NewInterner() *Interner {
	return &Interner{visited: cmap.New[visitedPair, bool](8, visitedPairHasher)}
}

// Intern stores s and returns a Handle for later retrieval, appending rather
// than deduplicating: callers that want dedup should compare fingerprints
// themselves before interning (interning every write would defeat the
// point of cheap mutation during widening).
func (in *Interner) Intern(s Set) Handle {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.sets = append(in.sets, s)
	return Handle(len(in.sets) - 1)
}

// Resolve returns the Set a Handle points to.
func (in *Interner) Resolve(h Handle) Set {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(h) >= len(in.sets) {
		return Set{}
	}
	return in.sets[h]
}

// Update replaces the Set stored at h in place, which is how a mutable
// container (list.append, dict.__setitem__) grows its value set without
// re-interning every referrer.
func (in *Interner) Update(h Handle, s Set) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if int(h) < len(in.sets) {
		in.sets[h] = s
	}
}

// EqualHandles reports whether two handles denote structurally equal sets,
// short-circuiting on identity and guarding recursive comparisons with a
// visited-pair set so a self-referential list compares equal to itself in
// finite time (§4.C "On equality, sets are compared by identity first, then
// structurally with a visited-pair set").
func (in *Interner) EqualHandles(a, b Handle) bool {
	if a == b {
		return true
	}
	pair := visitedPair{a, b}
	if v, _ := in.visited.Get(pair); v {
		return true // assume equal to break the cycle; already comparing this pair
	}
	in.visited.Set(pair, true)
	defer in.visited.Delete(pair)

	sa, sb := in.Resolve(a), in.Resolve(b)
	if sa.Len() != sb.Len() {
		return false
	}
	for _, va := range sa.Values() {
		match := false
		for _, vb := range sb.Values() {
			if va.Equal(vb) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}
