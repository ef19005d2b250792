package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/op/go-logging.v1"

	"github.com/pyanalyze/pyanalyze/value"
)

var log = logging.MustGetLogger("queue")

// Config governs queue behaviour; all fields have defaults matching the
// reference serial model (spec §5 "the reference model is serial").
type Config struct {
	// MaxReanalyses bounds how many times a non-module unit may be
	// re-enqueued before its outputs are force-widened (§4.G, default 4).
	MaxReanalyses int
	// MaxModuleReanalyses is the higher bound applied to module-toplevel
	// units (§4.G "higher for the module top-level").
	MaxModuleReanalyses int
	// Workers enables optional multi-worker parallelism when > 1 (§5);
	// 0 or 1 keeps the cooperative single-threaded reference behaviour.
	Workers int
}

// DefaultConfig mirrors the teacher's NewBuildState defaults of "one
// thread unless told otherwise".
func DefaultConfig() Config {
	return Config{MaxReanalyses: 4, MaxModuleReanalyses: 16, Workers: 1}
}

// Result reports the outcome of processing a single unit, the queue's
// analogue of the teacher's BuildResult.
type Result struct {
	UnitID   string
	Widened  bool
	Writes   map[Binding]value.Set
}

// Queue is a work queue of analysis Units with a dependency graph over
// (scope, name) bindings (spec §4.G). A single Queue belongs to one
// session; it is not a package-level singleton.
type Queue struct {
	cfg Config

	mu          sync.Mutex
	pending     chan *Unit
	units       map[string]*Unit
	dependents  map[uint64][]*Unit // binding key -> units that read it
	scopeLocks  map[uint64]*sync.Mutex

	Results chan *Result

	numPending int
	numDone    int

	errs *multierror.Error

	cancelled bool
}

// New creates a Queue. bufSize bounds the pending-unit channel, mirroring
// the teacher's per-thread channel buffering in NewBuildState.
func New(cfg Config, bufSize int) *Queue {
	if cfg.MaxReanalyses <= 0 {
		cfg.MaxReanalyses = DefaultConfig().MaxReanalyses
	}
	if cfg.MaxModuleReanalyses <= 0 {
		cfg.MaxModuleReanalyses = DefaultConfig().MaxModuleReanalyses
	}
	if bufSize <= 0 {
		bufSize = 1024
	}
	return &Queue{
		cfg:        cfg,
		pending:    make(chan *Unit, bufSize),
		units:      map[string]*Unit{},
		dependents: map[uint64][]*Unit{},
		scopeLocks: map[uint64]*sync.Mutex{},
		Results:    make(chan *Result, bufSize),
	}
}

// Enqueue registers a unit (if not already known) and schedules it for
// analysis.
func (q *Queue) Enqueue(u *Unit) {
	q.mu.Lock()
	if u.maxReanalyses == 0 {
		if u.Kind == KindModule {
			u.maxReanalyses = q.cfg.MaxModuleReanalyses
		} else {
			u.maxReanalyses = q.cfg.MaxReanalyses
		}
	}
	q.units[u.ID] = u
	for b := range u.Reads {
		k := b.key()
		q.dependents[k] = append(q.dependents[k], u)
	}
	q.numPending++
	q.mu.Unlock()
	q.pending <- u
}

func (q *Queue) scopeLock(u *Unit) *sync.Mutex {
	if q.cfg.Workers <= 1 {
		return nil
	}
	// Serialize units that write into the same scope when running with
	// multiple workers (§5 "units that mutate the same scope are
	// serialized (scope-level lock)"). Keyed by the first read binding's
	// scope as a stand-in for "the scope this unit mutates" — callers
	// that need finer granularity can subdivide units further.
	for b := range u.Reads {
		if b.Scope == nil {
			continue
		}
		q.mu.Lock()
		m, ok := q.scopeLocks[b.Scope.ID]
		if !ok {
			m = &sync.Mutex{}
			q.scopeLocks[b.Scope.ID] = m
		}
		q.mu.Unlock()
		return m
	}
	return nil
}

// Drain runs the queue to a fixed point: units are processed until no
// pending work remains and no unit's outputs changed during the final pass
// (spec §4.G "terminates when no unit's outputs change for a full pass").
// ctx supports cooperative cancellation (§5 "Cancellation"): checked at
// each unit dequeue; an in-flight unit always completes.
func (q *Queue) Drain(ctx context.Context) error {
	var wg sync.WaitGroup
	workers := q.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go q.worker(ctx, &wg)
	}
	wg.Wait()
	close(q.Results)
	if q.errs != nil {
		return q.errs.ErrorOrNil()
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.cancelled = true
			q.mu.Unlock()
			return
		case u, ok := <-q.pending:
			if !ok {
				return
			}
			q.mu.Lock()
			cancelled := q.cancelled
			q.mu.Unlock()
			if cancelled {
				// Subsequent units are dropped once cancellation fires
				// (§4.G "subsequent units are dropped").
				q.finishOne()
				continue
			}
			q.process(u)
			q.finishOne()
		}
		q.mu.Lock()
		empty := q.numPending == 0
		q.mu.Unlock()
		if empty {
			return
		}
	}
}

func (q *Queue) finishOne() {
	q.mu.Lock()
	q.numPending--
	q.numDone++
	q.mu.Unlock()
}

func (q *Queue) process(u *Unit) {
	if lock := q.scopeLock(u); lock != nil {
		lock.Lock()
		defer lock.Unlock()
	}

	if u.stabilized {
		// Already force-widened to Any, a fixed point: further writes can
		// only join into Any, which is already Any. Nothing left to learn.
		q.Results <- &Result{UnitID: u.ID, Widened: true, Writes: u.lastWrites}
		return
	}

	writes := func() (w map[Binding]value.Set) {
		defer func() {
			if r := recover(); r != nil {
				// Local recovery is preferred (spec §7): one unit's panic
				// doesn't abort the rest of the pass.
				q.mu.Lock()
				q.errs = multierror.Append(q.errs, fmt.Errorf("unit %s: %v", u.ID, r))
				q.mu.Unlock()
				w = nil
			}
		}()
		return u.Run()
	}()

	fp := fingerprintWrites(writes)
	changed := fp != u.fingerprint
	widened := false
	if changed {
		u.reanalyses++
		if u.reanalyses > u.maxReanalyses {
			widened = true
			writes = widenAll(writes)
			fp = fingerprintWrites(writes)
			u.stabilized = true
		}
		u.fingerprint = fp
		u.lastWrites = writes
		q.reenqueueDependents(writes)
	}

	q.Results <- &Result{UnitID: u.ID, Widened: widened, Writes: writes}
	if widened {
		log.Debug("unit %s force-widened after %d re-analyses", u.ID, u.reanalyses)
	}
}

// widenAll collapses every written value set to value.Any, the force-widen
// outcome of exhausting a unit's re-analysis budget (§4.G) or of its
// per-unit analysis timeout firing (§5 "Timeout on a unit force-widens its
// outputs to any and continues").
func widenAll(writes map[Binding]value.Set) map[Binding]value.Set {
	out := make(map[Binding]value.Set, len(writes))
	for b := range writes {
		out[b] = value.NewSet(value.Any)
	}
	return out
}

// reenqueueDependents re-schedules every unit whose input set intersects
// the bindings that just changed (§4.G's core invariant).
func (q *Queue) reenqueueDependents(writes map[Binding]value.Set) {
	seen := map[string]bool{}
	q.mu.Lock()
	var toEnqueue []*Unit
	for b := range writes {
		for _, dep := range q.dependents[b.key()] {
			if !seen[dep.ID] {
				seen[dep.ID] = true
				toEnqueue = append(toEnqueue, dep)
			}
		}
	}
	q.numPending += len(toEnqueue)
	q.mu.Unlock()
	for _, dep := range toEnqueue {
		q.pending <- dep
	}
}
