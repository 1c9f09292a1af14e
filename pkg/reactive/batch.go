package reactive

// Batch runs fn with notification batching enabled. Every signal write
// inside fn queues at most one notification per subscriber; the queue is
// flushed once when the outermost batch exits, and each subscriber sees the
// value current at flush time.
//
// Batches nest by depth counting, so an inner Batch never flushes the queue
// of an outer one.
func Batch(fn func()) {
	tc := track()
	tc.batchDepth++
	defer func() {
		tc.batchDepth--
		if tc.batchDepth == 0 {
			tc.flush()
		}
	}()
	fn()
}

// Effect is an alias for Batch, matching the name event-handler code tends
// to reach for.
func Effect(fn func()) {
	Batch(fn)
}

// Untracked runs fn with dependency collection suspended, so signal reads
// inside it do not register as dependencies of an enclosing computed. For a
// single read, Peek is clearer.
func Untracked(fn func()) {
	tc := track()
	prev := tc.collecting
	tc.collecting = nil
	defer func() { tc.collecting = prev }()
	fn()
}
