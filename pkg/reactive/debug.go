package reactive

import "fmt"

// DebugMode enables tracing of signal writes, computed re-evaluations and
// async state transitions. Lines are tagged [Reactive] and include the node
// name when one was set. Intended to be flipped at startup.
var DebugMode bool

func debugf(format string, args ...any) {
	if DebugMode {
		fmt.Printf("[Reactive] "+format+"\n", args...)
	}
}

// anonymous is the display name for unnamed nodes in traces and cycle errors.
const anonymous = "anonymous"

func displayName(name string) string {
	if name == "" {
		return anonymous
	}
	return name
}
