// Package reactive implements the fine-grained reactivity core used by the
// binding and component layers.
//
// The primitives are:
//
//   - Signal: a mutable value cell with equality-gated change notification.
//   - Computed: a derived value that re-runs automatically when any signal it
//     read during its last evaluation changes.
//   - AsyncComputed: like Computed but with an asynchronous derivation whose
//     published value carries pending/resolved/error state, with cooperative
//     cancellation of superseded runs.
//   - Batch: coalesces any number of signal writes into a single notification
//     per subscriber.
//
// Dependency tracking is automatic: reading a signal with Get during a
// computed evaluation records it as a dependency, so conditional reads work
// as expected. Use Peek to read without tracking.
//
// The tracking state is kept per goroutine. Signals themselves are safe for
// concurrent use, but the intended model is single-goroutine cooperative
// scheduling with asynchronous computeds as the only concurrency source.
package reactive
