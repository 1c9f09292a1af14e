package reactive

import (
	"log/slog"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
)

// Computed is a signal whose value is derived from other signals. The
// derivation runs once eagerly at construction and again whenever any
// dependency of the previous run changes. Dependencies are re-collected on
// every run, so conditional reads track exactly the branch taken.
//
// A derivation that panics is logged and the panic re-raised to whatever
// triggered the run; the dependency wiring from before the failed run stays
// installed. A panicking computed can therefore abort the flush of an
// enclosing batch.
type Computed[T any] struct {
	Signal[T]

	// compute derives the value. It must not write signals it reads.
	compute func() T

	// deps is the dependency set of the last completed run.
	deps mapset.Set[source]

	// untrack holds the unsubscribe function per dependency.
	untrack map[source]func()

	// evaluating guards against a re-trigger while the derivation itself
	// is still on the call stack.
	evaluating atomic.Bool

	disposed atomic.Bool
}

// NewComputed creates a computed signal and evaluates it once. A panic from
// the first evaluation propagates to the caller.
func NewComputed[T any](compute func() T) *Computed[T] {
	return NewComputedNamed("", compute)
}

// NewComputedNamed is NewComputed with a display name, set before the first
// evaluation so cycle errors and traces can identify the node.
func NewComputedNamed[T any](name string, compute func() T) *Computed[T] {
	c := &Computed[T]{
		Signal:  newCell[T](name),
		compute: compute,
		deps:    mapset.NewSet[source](),
		untrack: make(map[source]func()),
	}
	c.run()
	return c
}

// run re-evaluates the derivation, publishes the result and rewires the
// dependency subscriptions to match what was actually read.
func (c *Computed[T]) run() {
	if c.disposed.Load() {
		return
	}
	// A notification arriving while the derivation itself is still running
	// is dropped; the run in progress will pick up the current values.
	if c.evaluating.Load() {
		return
	}

	tc := track()
	if tc.onStack(c.id) {
		panic(tc.cycle(displayName(c.name)))
	}

	// The node stays on the compute stack through publication, so a
	// notification cascade that loops back here is caught as a cycle.
	tc.push(c.id, displayName(c.name))
	defer tc.pop()

	next, deps, failure := c.evaluate(tc)
	if failure != nil {
		slog.Error("computed evaluation panicked",
			"name", displayName(c.name), "panic", failure)
		panic(failure)
	}

	debugf("computed %s recalculated", displayName(c.name))
	c.Signal.Set(next)
	c.rewire(deps)
}

// evaluate invokes the derivation inside a fresh collection window. The
// window and the evaluation guard are torn down even on panic; the panic
// value is returned rather than propagated so run can log it first.
func (c *Computed[T]) evaluate(tc *trackingContext) (next T, deps mapset.Set[source], failure any) {
	prev := tc.beginCollect()
	c.evaluating.Store(true)
	defer func() {
		deps = tc.endCollect(prev)
		c.evaluating.Store(false)
		if r := recover(); r != nil {
			failure = r
		}
	}()
	next = c.compute()
	return
}

// rewire diffs the freshly collected dependency set against the previous
// one, dropping subscriptions no longer read and installing the new ones.
func (c *Computed[T]) rewire(deps mapset.Set[source]) {
	if c.disposed.Load() {
		return
	}
	for _, dep := range c.deps.Difference(deps).ToSlice() {
		if stop := c.untrack[dep]; stop != nil {
			stop()
		}
		delete(c.untrack, dep)
	}
	for _, dep := range deps.Difference(c.deps).ToSlice() {
		if dep.sourceID() == c.id {
			continue // reading the previous value is not a dependency
		}
		c.untrack[dep] = dep.track(c.run)
	}
	c.deps = deps
}

// Dispose unsubscribes from every dependency. The node stops reacting but
// Get and Peek keep returning the last computed value.
func (c *Computed[T]) Dispose() {
	if c.disposed.Swap(true) {
		return
	}
	for _, stop := range c.untrack {
		stop()
	}
	c.untrack = map[source]func(){}
	c.deps = mapset.NewSet[source]()
	debugf("computed %s disposed", displayName(c.name))
}
