package reactive

import "testing"

func TestBatchCoalescesWrites(t *testing.T) {
	count := NewSignal(0)

	var calls []int
	unsub := count.Subscribe(func(v int) { calls = append(calls, v) })
	defer unsub()

	Batch(func() {
		count.Set(1)
		count.Set(2)
		count.Set(3)
	})

	// One immediate call at subscribe, then exactly one batched call
	// carrying the final value.
	if len(calls) != 2 || calls[0] != 0 || calls[1] != 3 {
		t.Errorf("calls = %v, want [0 3]", calls)
	}
}

func TestBatchMultipleSignalsOneSubscriberEach(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)

	aCalls, bCalls := 0, 0
	a.subscribeInternal(func(int) { aCalls++ })
	b.subscribeInternal(func(int) { bCalls++ })

	Batch(func() {
		a.Set(1)
		a.Set(2)
		b.Set(1)
	})

	if aCalls != 1 || bCalls != 1 {
		t.Errorf("expected one call per subscriber, got a=%d b=%d", aCalls, bCalls)
	}
}

func TestBatchNestedDoesNotFlushEarly(t *testing.T) {
	s := NewSignal(0)

	var seen []int
	s.subscribeInternal(func(v int) { seen = append(seen, v) })

	Batch(func() {
		s.Set(1)
		Batch(func() {
			s.Set(2)
		})
		// The inner batch has exited; nothing may have flushed yet.
		if len(seen) != 0 {
			t.Errorf("inner batch flushed early: %v", seen)
		}
		s.Set(3)
	})

	if len(seen) != 1 || seen[0] != 3 {
		t.Errorf("seen = %v, want [3]", seen)
	}
}

func TestBatchNotificationOrderIsFirstEnqueued(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)

	var order []string
	a.subscribeInternal(func(int) { order = append(order, "a") })
	b.subscribeInternal(func(int) { order = append(order, "b") })

	Batch(func() {
		b.Set(1) // b enqueued first
		a.Set(1)
		b.Set(2) // already queued, no reordering
	})

	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Errorf("order = %v, want [b a]", order)
	}
}

func TestBatchUnsubscribeDuringBatch(t *testing.T) {
	s := NewSignal(0)
	calls := 0
	unsub := s.subscribeInternal(func(int) { calls++ })

	Batch(func() {
		s.Set(1)
		unsub()
	})

	if calls != 0 {
		t.Errorf("subscriber removed before flush must not fire, got %d", calls)
	}
}

func TestBatchWithComputed(t *testing.T) {
	first := NewSignal("Ada")
	last := NewSignal("Lovelace")
	full := NewComputed(func() string { return first.Get() + " " + last.Get() })

	var got []string
	full.subscribeInternal(func(v string) { got = append(got, v) })

	Batch(func() {
		first.Set("Grace")
		last.Set("Hopper")
	})

	if full.Get() != "Grace Hopper" {
		t.Errorf("full = %q", full.Get())
	}
	if len(got) == 0 || got[len(got)-1] != "Grace Hopper" {
		t.Errorf("subscriber saw %v, want final Grace Hopper", got)
	}
}

func TestEffectAlias(t *testing.T) {
	s := NewSignal(0)
	calls := 0
	s.subscribeInternal(func(int) { calls++ })

	Effect(func() {
		s.Set(1)
		s.Set(2)
	})

	if calls != 1 {
		t.Errorf("effect must batch, got %d calls", calls)
	}
}

func TestUntracked(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)

	runs := 0
	c := NewComputed(func() int {
		runs++
		var hidden int
		Untracked(func() { hidden = b.Get() })
		return a.Get() + hidden
	})

	if c.Get() != 3 {
		t.Fatalf("expected 3, got %d", c.Get())
	}
	b.Set(10)
	if runs != 1 {
		t.Errorf("untracked read must not create a dependency, ran %d times", runs)
	}
	a.Set(5)
	if c.Get() != 15 {
		t.Errorf("expected 15, got %d", c.Get())
	}
}
