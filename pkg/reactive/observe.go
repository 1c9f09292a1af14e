package reactive

// Observable is the type-erased view of a signal. The binding layer works
// against it so one scanner can serve signals of any element type.
type Observable interface {
	// Observe behaves like Subscribe: immediate synchronous first call,
	// returns an unsubscribe function.
	Observe(fn func(any)) (unsubscribe func())

	// Value returns the current value without recording a dependency.
	Value() any
}

// Settable is the type-erased write side, used for two-way bindings.
type Settable interface {
	SetValue(v any)
}

// Disposable is implemented by Computed and AsyncComputed; owners call
// Dispose during teardown.
type Disposable interface {
	Dispose()
}

// Observe implements Observable.
func (s *Signal[T]) Observe(fn func(any)) func() {
	return s.Subscribe(func(v T) { fn(v) })
}

// Value implements Observable.
func (s *Signal[T]) Value() any {
	return s.Peek()
}

// SetValue implements Settable. A value of the wrong dynamic type is
// dropped; the mismatch is traced in debug mode.
func (s *Signal[T]) SetValue(v any) {
	tv, ok := v.(T)
	if !ok {
		debugf("signal %s dropped write of mismatched type %T", displayName(s.name), v)
		return
	}
	s.Set(tv)
}
