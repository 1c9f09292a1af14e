// Package css generates scoped CSS class names. Each distinct rule block is
// hashed, registered once in a process-wide stylesheet and addressed by a
// generated class name, so components can ship styles without colliding.
package css

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// classPrefix namespaces generated class names.
const classPrefix = "mt-"

var (
	mu sync.Mutex

	// classes memoizes rule content hash -> class name.
	classes = map[uint64]string{}

	// rules holds the registered blocks in insertion order.
	rules []string
)

// Class registers a CSS declaration block and returns its scoped class name.
// The same content always yields the same class and is injected only once.
//
//	name := css.Class("color: red; padding: 4px;")
//	// name == "mt-<hash>", stylesheet gains ".mt-<hash> { ... }"
func Class(block string) string {
	block = strings.TrimSpace(block)
	sum := xxhash.Sum64String(block)

	mu.Lock()
	defer mu.Unlock()

	if name, ok := classes[sum]; ok {
		return name
	}
	name := fmt.Sprintf("%s%x", classPrefix, sum)
	classes[sum] = name
	rules = append(rules, fmt.Sprintf(".%s { %s }", name, block))
	return name
}

// StyleSheet returns all registered rules as one stylesheet, in registration
// order.
func StyleSheet() string {
	mu.Lock()
	defer mu.Unlock()
	return strings.Join(rules, "\n")
}

// Reset drops every registered rule. Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	classes = map[uint64]string{}
	rules = nil
}
