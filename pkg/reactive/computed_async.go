package reactive

import (
	"context"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
)

// Status is the lifecycle state of an AsyncComputed value.
type Status uint8

const (
	StatusPending Status = iota
	StatusResolved
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// AsyncState is the value published by an AsyncComputed. Data survives both
// a refresh (pending keeps showing the previous result) and a failure (error
// state keeps the last resolved value for graceful degradation).
type AsyncState[T any] struct {
	Status  Status
	Data    T
	Err     error
	Loading bool
}

// AsyncComputed is a computed whose derivation is asynchronous. Each run
// executes on its own goroutine; starting a new run cancels the context of
// the previous one. Cancellation is cooperative: the derivation should bail
// out when its context is done, but even if it ignores the context, a
// superseded run's result is discarded at the publish boundary, so only the
// most recently started live run ever publishes.
type AsyncComputed[T any] struct {
	Signal[AsyncState[T]]

	compute func(ctx context.Context) (T, error)

	deps    mapset.Set[source]
	untrack map[source]func()

	// mu guards cancel; generation orders runs for the publish gate.
	mu         sync.Mutex
	cancel     context.CancelFunc
	generation atomic.Uint64

	disposed atomic.Bool
}

// NewAsyncComputed creates an async computed and starts its first run. The
// initial published state is pending.
func NewAsyncComputed[T any](compute func(ctx context.Context) (T, error)) *AsyncComputed[T] {
	return NewAsyncComputedNamed("", compute)
}

// NewAsyncComputedNamed is NewAsyncComputed with a display name.
func NewAsyncComputedNamed[T any](name string, compute func(ctx context.Context) (T, error)) *AsyncComputed[T] {
	a := &AsyncComputed[T]{
		Signal:  newCell[AsyncState[T]](name),
		compute: compute,
		deps:    mapset.NewSet[source](),
		untrack: make(map[source]func()),
	}
	a.value = AsyncState[T]{Status: StatusPending, Loading: true}
	a.run()
	return a
}

// run cancels any in-flight derivation, publishes the pending state and
// starts a fresh run.
func (a *AsyncComputed[T]) run() {
	if a.disposed.Load() {
		return
	}

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	gen := a.generation.Add(1)
	a.mu.Unlock()

	prev := a.Peek()
	debugf("async %s -> pending", displayName(a.name))
	a.Signal.Set(AsyncState[T]{Status: StatusPending, Data: prev.Data, Loading: true})

	go a.execute(ctx, gen)
}

// execute runs the derivation on its own goroutine. The goroutine gets a
// dedicated tracking context for the whole call, so reads performed after a
// blocking operation still collect as dependencies.
func (a *AsyncComputed[T]) execute(ctx context.Context, gen uint64) {
	tc := track()
	defer release()
	prevSet := tc.beginCollect()

	value, err := func() (v T, e error) {
		defer func() {
			if r := recover(); r != nil {
				e = recoveredError(r)
			}
		}()
		return a.compute(ctx)
	}()

	deps := tc.endCollect(prevSet)

	// Publish gate: a run that was superseded or cancelled publishes
	// nothing, whatever it produced.
	if ctx.Err() != nil || gen != a.generation.Load() || a.disposed.Load() {
		debugf("async %s run superseded, result discarded", displayName(a.name))
		return
	}

	if err != nil {
		cur := a.Peek()
		debugf("async %s -> error: %v", displayName(a.name), err)
		a.Signal.Set(AsyncState[T]{Status: StatusError, Data: cur.Data, Err: err, Loading: false})
		return
	}

	debugf("async %s -> resolved", displayName(a.name))
	a.Signal.Set(AsyncState[T]{Status: StatusResolved, Data: value, Loading: false})
	a.rewire(deps)
}

func (a *AsyncComputed[T]) rewire(deps mapset.Set[source]) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed.Load() {
		return
	}
	for _, dep := range a.deps.Difference(deps).ToSlice() {
		if stop := a.untrack[dep]; stop != nil {
			stop()
		}
		delete(a.untrack, dep)
	}
	for _, dep := range deps.Difference(a.deps).ToSlice() {
		if dep.sourceID() == a.id {
			continue
		}
		a.untrack[dep] = dep.track(a.run)
	}
	a.deps = deps
}

// Dispose cancels the in-flight run, if any, and tears down the dependency
// wiring. Further triggers are inert; Get and Peek keep returning the last
// published state.
func (a *AsyncComputed[T]) Dispose() {
	if a.disposed.Swap(true) {
		return
	}
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	for _, stop := range a.untrack {
		stop()
	}
	a.untrack = map[source]func(){}
	a.deps = mapset.NewSet[source]()
	a.mu.Unlock()
	debugf("async %s disposed", displayName(a.name))
}
