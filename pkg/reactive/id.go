package reactive

import "sync/atomic"

// idCounter is the source of unique IDs for signals and subscriptions.
var idCounter atomic.Uint64

// nextID returns the next unique ID. IDs are never reused.
func nextID() uint64 {
	return idCounter.Add(1)
}
