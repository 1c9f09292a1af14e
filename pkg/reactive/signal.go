package reactive

import (
	"reflect"
	"sync"

	orderedmap "github.com/elliotchance/orderedmap/v2"
)

// Signal is a reactive value container. Reading it with Get during a
// computed evaluation records it as a dependency of that computed. Writing
// it with Set notifies subscribers, unless the equality function reports the
// value unchanged.
type Signal[T any] struct {
	id   uint64
	name string

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal decides whether a write changed the value. nil selects
	// defaultEquals.
	equal func(T, T) bool

	// subs holds subscribers keyed by subscription ID, in subscription
	// order. Order matters: synchronous notification follows it.
	subs *orderedmap.OrderedMap[uint64, func(T)]

	// notifiers memoizes one batch notifier per subscription, so repeated
	// batched writes reuse a single queue entry per subscriber.
	notifiers map[uint64]*notifier

	// subMu protects subs and notifiers.
	subMu sync.Mutex
}

// notifier is a queued "read the latest value and notify one subscriber"
// callback. Identity is what the batch queue dedupes on.
type notifier struct {
	fire func()
}

// NewSignal creates a signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	s := &Signal[T]{}
	*s = newCell[T]("")
	s.value = initial
	return s
}

// newCell builds the embedded cell used by Signal, Computed and
// AsyncComputed constructors.
func newCell[T any](name string) Signal[T] {
	return Signal[T]{
		id:   nextID(),
		name: name,
		subs: orderedmap.NewOrderedMap[uint64, func(T)](),
	}
}

// WithEquals configures a custom equality function and returns the signal.
// Two values the function considers equal suppress notification on Set.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// WithName gives the signal a display name for debug traces and cycle
// errors, and returns the signal.
func (s *Signal[T]) WithName(name string) *Signal[T] {
	s.name = name
	return s
}

// Name returns the display name set with WithName, or "".
func (s *Signal[T]) Name() string {
	return s.name
}

// Get returns the current value. When called during a computed evaluation it
// also records this signal as a dependency.
func (s *Signal[T]) Get() T {
	track().collect(s)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Peek returns the current value without recording a dependency.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set writes a new value. If the equality function reports it equal to the
// current value this is a no-op. Otherwise subscribers are notified: inside
// a batch each subscriber is queued once and fired with the value current at
// flush time; outside a batch every subscriber present at the start of
// notification is called synchronously, in subscription order.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	debugf("signal %s updated", displayName(s.name))
	s.notify(value)
}

// Update applies fn to the current value and writes the result.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.Peek()))
}

// Subscribe registers fn and immediately invokes it once, synchronously,
// with the current value. It returns an unsubscribe function; calling it
// more than once is harmless.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	unsub := s.subscribeInternal(fn)
	fn(s.Peek())
	return unsub
}

// Once is Subscribe that removes itself after the first invocation, which is
// the immediate synchronous one.
func (s *Signal[T]) Once(fn func(T)) func() {
	fired := false
	var unsub func()
	unsub = s.Subscribe(func(v T) {
		if fired {
			return
		}
		fired = true
		fn(v)
		if unsub != nil {
			unsub()
		}
	})
	if fired {
		unsub()
	}
	return unsub
}

// subscribeInternal registers fn without the immediate initial call. The
// dependency-tracking machinery uses it to avoid a wasted first invocation.
func (s *Signal[T]) subscribeInternal(fn func(T)) func() {
	id := nextID()
	s.subMu.Lock()
	s.subs.Set(id, fn)
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		s.subs.Delete(id)
		delete(s.notifiers, id)
		s.subMu.Unlock()
	}
}

func (s *Signal[T]) notify(value T) {
	tc := track()
	if tc.batchDepth > 0 {
		s.subMu.Lock()
		for el := s.subs.Front(); el != nil; el = el.Next() {
			tc.enqueue(s.notifierLocked(el.Key, el.Value))
		}
		s.subMu.Unlock()
		return
	}

	// Snapshot so subscribers added during notification are not called for
	// this write.
	s.subMu.Lock()
	snapshot := make([]func(T), 0, s.subs.Len())
	for el := s.subs.Front(); el != nil; el = el.Next() {
		snapshot = append(snapshot, el.Value)
	}
	s.subMu.Unlock()

	for _, fn := range snapshot {
		fn(value)
	}
}

// notifierLocked returns the memoized batch notifier for one subscription.
// Caller holds subMu. The notifier re-checks membership at fire time so a
// subscriber removed mid-batch is not called.
func (s *Signal[T]) notifierLocked(id uint64, fn func(T)) *notifier {
	if n, ok := s.notifiers[id]; ok {
		return n
	}
	n := &notifier{fire: func() {
		s.subMu.Lock()
		_, live := s.subs.Get(id)
		s.subMu.Unlock()
		if live {
			fn(s.Peek())
		}
	}}
	if s.notifiers == nil {
		s.notifiers = make(map[uint64]*notifier)
	}
	s.notifiers[id] = n
	return n
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for the common scalar kinds and reflect.DeepEqual
// for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	case nil:
		return any(b) == nil
	default:
		return reflect.DeepEqual(a, b)
	}
}

// source implementation, so a signal can appear in a computed's dependency
// set.

func (s *Signal[T]) sourceID() uint64 { return s.id }
func (s *Signal[T]) label() string    { return displayName(s.name) }

func (s *Signal[T]) track(fn func()) func() {
	return s.subscribeInternal(func(T) { fn() })
}
