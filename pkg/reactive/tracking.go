package reactive

import (
	"runtime"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// source is a reactive node a computed can depend on. Both signals and the
// inner cell of a computed implement it.
type source interface {
	// sourceID is the node's unique ID, used to filter self-dependencies.
	sourceID() uint64

	// label is the node's display name for traces and cycle errors.
	label() string

	// track installs a non-notifying subscription that fires on every
	// change. It returns the matching unsubscribe function.
	track(fn func()) (untrack func())
}

// trackingContext holds the reactive bookkeeping for one goroutine: the
// active dependency-collection set, the stack of in-progress computed
// evaluations, and the batch queue.
//
// Keeping this per goroutine is the thread-local rendition of the single
// global context pointer the model calls for. Within one goroutine the
// usual save/restore stack discipline applies.
type trackingContext struct {
	// collecting is the active dependency-collection set. nil means reads
	// are not being tracked.
	collecting mapset.Set[source]

	// computeStack is the chain of computed nodes currently evaluating (or
	// still notifying), used for cycle detection.
	computeStack []stackEntry

	// batchDepth counts nested Batch calls. While > 0, notifications are
	// queued instead of fired.
	batchDepth int

	// pending is the batch queue, in first-enqueued order.
	pending []*notifier

	// pendingSet dedupes the batch queue by notifier identity.
	pendingSet map[*notifier]struct{}
}

type stackEntry struct {
	id   uint64
	name string
}

// contexts stores the per-goroutine tracking contexts.
var contexts sync.Map

// goroutineID extracts the current goroutine's ID from its stack header
// ("goroutine <id> ..."). Implementation detail, never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n && buf[i] != ' '; i++ {
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// track returns the tracking context for the current goroutine, creating it
// on first use.
func track() *trackingContext {
	gid := goroutineID()
	if tc, ok := contexts.Load(gid); ok {
		return tc.(*trackingContext)
	}
	tc := &trackingContext{}
	contexts.Store(gid, tc)
	return tc
}

// release drops the current goroutine's tracking context. Called by worker
// goroutines before exiting so the context map does not grow unbounded.
func release() {
	contexts.Delete(goroutineID())
}

// beginCollect installs a fresh collection set and returns the previous one
// so it can be restored. Collection nests: a computed read during another
// computed's evaluation collects into its own set.
func (tc *trackingContext) beginCollect() mapset.Set[source] {
	prev := tc.collecting
	tc.collecting = mapset.NewSet[source]()
	return prev
}

// endCollect restores prev and returns the set that was collected since the
// matching beginCollect. Must be called even when the computation panics.
func (tc *trackingContext) endCollect(prev mapset.Set[source]) mapset.Set[source] {
	got := tc.collecting
	tc.collecting = prev
	return got
}

// collect records a read of src into the active collection set, if any.
func (tc *trackingContext) collect(src source) {
	if tc.collecting != nil {
		tc.collecting.Add(src)
	}
}

func (tc *trackingContext) onStack(id uint64) bool {
	for _, e := range tc.computeStack {
		if e.id == id {
			return true
		}
	}
	return false
}

func (tc *trackingContext) push(id uint64, name string) {
	tc.computeStack = append(tc.computeStack, stackEntry{id: id, name: name})
}

func (tc *trackingContext) pop() {
	tc.computeStack = tc.computeStack[:len(tc.computeStack)-1]
}

// cycle builds the CycleError for re-entering the node with the given name.
func (tc *trackingContext) cycle(name string) *CycleError {
	chain := make([]string, 0, len(tc.computeStack)+1)
	for _, e := range tc.computeStack {
		chain = append(chain, e.name)
	}
	chain = append(chain, name)
	return &CycleError{Chain: chain}
}

// enqueue adds a notifier to the batch queue. Re-adding the same notifier is
// a no-op, so a subscriber fires at most once per batch.
func (tc *trackingContext) enqueue(n *notifier) {
	if tc.pendingSet == nil {
		tc.pendingSet = make(map[*notifier]struct{})
	}
	if _, queued := tc.pendingSet[n]; queued {
		return
	}
	tc.pendingSet[n] = struct{}{}
	tc.pending = append(tc.pending, n)
}

// flush fires every queued notifier once, in first-enqueued order. The queue
// is snapshotted first: writes performed by a firing notifier happen outside
// any batch and notify synchronously on their own.
func (tc *trackingContext) flush() {
	queue := tc.pending
	tc.pending = nil
	tc.pendingSet = nil
	for _, n := range queue {
		n.fire()
	}
}
