package reactive

import (
	"fmt"
	"strings"
)

// CycleError is the panic value raised when evaluating a computed would
// re-enter a node that is already being evaluated, i.e. the dependency graph
// contains a cycle. Chain holds the display names of the nodes along the
// cycle, ending with the node that was re-entered.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "reactive: circular dependency detected: " + strings.Join(e.Chain, " -> ")
}

// recoveredError normalizes a recovered panic value from an async derivation
// into an error for the published state.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("async computed panicked: %v", r)
}
