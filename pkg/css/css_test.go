package css

import (
	"strings"
	"testing"
)

func TestClassMemoization(t *testing.T) {
	Reset()

	a := Class("color: red;")
	b := Class("color: red;")
	if a != b {
		t.Errorf("same content must yield same class: %q vs %q", a, b)
	}
	if n := strings.Count(StyleSheet(), a); n != 1 {
		t.Errorf("rule injected %d times, want 1", n)
	}
}

func TestClassDistinctContent(t *testing.T) {
	Reset()

	a := Class("color: red;")
	b := Class("color: blue;")
	if a == b {
		t.Error("distinct content must yield distinct classes")
	}

	sheet := StyleSheet()
	if !strings.Contains(sheet, "."+a+" { color: red; }") {
		t.Errorf("missing rule for %q in %q", a, sheet)
	}
	if !strings.Contains(sheet, "."+b+" { color: blue; }") {
		t.Errorf("missing rule for %q in %q", b, sheet)
	}
}

func TestClassPrefixAndTrim(t *testing.T) {
	Reset()

	name := Class("  margin: 0;  ")
	if !strings.HasPrefix(name, "mt-") {
		t.Errorf("class %q missing prefix", name)
	}
	if name != Class("margin: 0;") {
		t.Error("surrounding whitespace must not change the class")
	}
}

func TestReset(t *testing.T) {
	Class("padding: 1px;")
	Reset()
	if StyleSheet() != "" {
		t.Errorf("stylesheet not empty after reset: %q", StyleSheet())
	}
}
