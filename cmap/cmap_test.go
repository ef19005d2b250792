package cmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSetGet(t *testing.T) {
	m := New[string, int](4, StringHasher)
	m.Set("a", 1)
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMapGetOrSetConcurrent(t *testing.T) {
	m := New[string, int](4, StringHasher)
	var wg sync.WaitGroup
	calls := 0
	var mu sync.Mutex
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.GetOrSet("k", func() int {
				mu.Lock()
				calls++
				mu.Unlock()
				return 42
			})
		}()
	}
	wg.Wait()
	v, ok := m.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestErrMapComputesOnce(t *testing.T) {
	m := NewErrMap[int](4)
	var wg sync.WaitGroup
	calls := 0
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.GetOrCompute("mod", func() (int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return 7, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestErrMapForget(t *testing.T) {
	m := NewErrMap[int](2)
	calls := 0
	m.GetOrCompute("x", func() (int, error) { calls++; return 1, nil })
	m.Forget("x")
	m.GetOrCompute("x", func() (int, error) { calls++; return 2, nil })
	assert.Equal(t, 2, calls)
}
