// Package cmap implements a sharded concurrent map used wherever the module
// needs many goroutines reading/writing a keyed table without a single global
// lock: the module registry (resolve), the value interner's visited-pair
// cycle guard (value), and the stub-parse cache (stub) all embed one.
package cmap

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Hasher produces a shard index for a key.
type Hasher[K any] func(K) uint64

// Map is a sharded map of K to V, safe for concurrent use. Unlike a plain
// sync.Map, shards keep ordinary Go maps under per-shard mutexes, which is
// both faster and easier to reason about for the read-mostly workloads here.
type Map[K comparable, V any] struct {
	shards []*shard[K, V]
	hasher Hasher[K]
}

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// New creates a Map with shardCount shards (rounded up to a power of two is
// not required, but picking shardCount as the expected concurrency level
// avoids contention). hasher maps a key to a shard-selecting uint64; pass nil
// to use StringHasher for string-keyed maps.
func New[K comparable, V any](shardCount int, hasher Hasher[K]) *Map[K, V] {
	if shardCount < 1 {
		shardCount = 1
	}
	if hasher == nil {
		if _, ok := any(*new(K)).(string); ok {
			hasher = func(k K) uint64 { return StringHasher(any(k).(string)) }
		}
	}
	m := &Map[K, V]{shards: make([]*shard[K, V], shardCount), hasher: hasher}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{m: make(map[K]V)}
	}
	return m
}

// StringHasher hashes a string key with xxhash; the module's default choice
// for module-path and cache keys.
func StringHasher(s string) uint64 { return xxhash.Sum64String(s) }

func (m *Map[K, V]) shardFor(k K) *shard[K, V] {
	var h uint64
	if m.hasher != nil {
		h = m.hasher(k)
	}
	return m.shards[h%uint64(len(m.shards))]
}

// Get returns the value for k and whether it was present.
func (m *Map[K, V]) Get(k K) (V, bool) {
	s := m.shardFor(k)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[k]
	return v, ok
}

// Set stores v under k, overwriting any existing entry.
func (m *Map[K, V]) Set(k K, v V) {
	s := m.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = v
}

// GetOrSet returns the existing value for k if present, otherwise stores and
// returns create().
func (m *Map[K, V]) GetOrSet(k K, create func() V) V {
	s := m.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.m[k]; ok {
		return v
	}
	v := create()
	s.m[k] = v
	return v
}

// Delete removes k if present.
func (m *Map[K, V]) Delete(k K) {
	s := m.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, k)
}

// Len returns the total number of entries across all shards. It is a
// point-in-time estimate under concurrent mutation.
func (m *Map[K, V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Values returns a snapshot of every value currently stored.
func (m *Map[K, V]) Values() []V {
	var out []V
	for _, s := range m.shards {
		s.mu.RLock()
		for _, v := range s.m {
			out = append(out, v)
		}
		s.mu.RUnlock()
	}
	return out
}

// Range calls f for every entry in an unspecified order, stopping early if f
// returns false. f must not call back into the Map for the same shard.
func (m *Map[K, V]) Range(f func(K, V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.m {
			if !f(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// awaitable wraps a value that may still be in flight: Wait is closed once
// Val/Err are final. Used by ErrMap so concurrent callers resolving the same
// key (e.g. two units importing the same module) block on one computation
// rather than racing to duplicate it.
type awaitable[V any] struct {
	Val  V
	Err  error
	Wait chan struct{}
}

// ErrMap is a sharded concurrent map keyed by string, where each entry is
// computed at most once even under concurrent first access — the pattern the
// module registry (resolve) and stub-parse cache (stub) both need, adapted
// from the teacher's subinclude/AST cache.
type ErrMap[V any] struct {
	inner *Map[string, *awaitable[V]]
}

// NewErrMap creates an ErrMap with shardCount shards.
func NewErrMap[V any](shardCount int) *ErrMap[V] {
	return &ErrMap[V]{inner: New[string, *awaitable[V]](shardCount, StringHasher)}
}

// GetOrCompute returns the cached (value, error) for key, computing it via
// compute exactly once across all concurrent callers.
func (m *ErrMap[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	entry, first := m.startOrJoin(key)
	if first {
		entry.Val, entry.Err = compute()
		close(entry.Wait)
	} else {
		<-entry.Wait
	}
	return entry.Val, entry.Err
}

func (m *ErrMap[V]) startOrJoin(key string) (*awaitable[V], bool) {
	var first bool
	entry := m.inner.GetOrSet(key, func() *awaitable[V] {
		first = true
		return &awaitable[V]{Wait: make(chan struct{})}
	})
	return entry, first
}

// Forget evicts key, forcing the next GetOrCompute to recompute — used when a
// module's source changes and its cached parse/resolution is stale.
func (m *ErrMap[V]) Forget(key string) { m.inner.Delete(key) }
