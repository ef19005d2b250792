package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyanalyze/pyanalyze/scope"
	"github.com/pyanalyze/pyanalyze/value"
)

func drainResults(q *Queue) []*Result {
	var out []*Result
	for r := range q.Results {
		out = append(out, r)
	}
	return out
}

func TestQueueRunsSingleUnitToCompletion(t *testing.T) {
	q := New(DefaultConfig(), 16)
	ran := 0
	u := newUnit("u1", KindModule, func() map[Binding]value.Set {
		ran++
		return map[Binding]value.Set{}
	}, 0)
	q.Enqueue(u)

	done := make(chan []*Result, 1)
	go func() { done <- drainResults(q) }()

	require.NoError(t, q.Drain(context.Background()))
	results := <-done
	require.Len(t, results, 1)
	assert.Equal(t, 1, ran)
}

func TestQueueReenqueuesDependentsOnChangedOutput(t *testing.T) {
	q := New(DefaultConfig(), 16)
	s := scope.New()
	b := Binding{Scope: s, Name: "x"}

	writer := newUnit("writer", KindModule, func() map[Binding]value.Set {
		return map[Binding]value.Set{b: value.NewSet(value.Constant{TypeName: "int", Literal: 1})}
	}, 0)

	readCount := 0
	reader := newUnit("reader", KindFunctionBody, func() map[Binding]value.Set {
		readCount++
		return map[Binding]value.Set{}
	}, 0)
	reader.Reads[b] = true

	done := make(chan []*Result, 1)
	go func() { done <- drainResults(q) }()

	q.Enqueue(reader)
	q.Enqueue(writer)

	require.NoError(t, q.Drain(context.Background()))
	<-done
	assert.GreaterOrEqual(t, readCount, 1)
}

func TestQueueForceWidensAfterReanalysisBudgetExhausted(t *testing.T) {
	q := New(Config{MaxReanalyses: 2, MaxModuleReanalyses: 2, Workers: 1}, 16)
	s := scope.New()
	b := Binding{Scope: s, Name: "x"}
	n := 0
	u := newUnit("churner", KindFunctionBody, func() map[Binding]value.Set {
		n++
		return map[Binding]value.Set{b: value.NewSet(value.Constant{TypeName: "int", Literal: n})}
	}, 0)
	u.Reads[b] = true

	var results []*Result
	done := make(chan bool, 1)
	go func() {
		for r := range q.Results {
			results = append(results, r)
		}
		done <- true
	}()

	q.Enqueue(u)
	require.NoError(t, q.Drain(context.Background()))
	<-done

	var sawWiden bool
	for _, r := range results {
		if r.Widened {
			sawWiden = true
		}
	}
	assert.True(t, sawWiden, "expected a widened result after exhausting the re-analysis budget")
}

func TestQueueCancellationTerminatesDrainWithoutHanging(t *testing.T) {
	q := New(DefaultConfig(), 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := newUnit("u1", KindModule, func() map[Binding]value.Set {
		return map[Binding]value.Set{}
	}, 0)
	q.Enqueue(u)

	done := make(chan []*Result, 1)
	go func() { done <- drainResults(q) }()

	require.NoError(t, q.Drain(ctx))
	<-done
}
