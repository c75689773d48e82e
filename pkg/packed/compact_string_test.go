package packed

import (
	"strings"
	"testing"
)

func TestCompactStringStaysInlineForShortNames(t *testing.T) {
	cs := NewCompactString("handleRequest")
	if !cs.IsInline() {
		t.Fatal("expected inline storage for a short identifier")
	}
	if cs.String() != "handleRequest" {
		t.Fatalf("got %q", cs.String())
	}
}

func TestCompactStringSpillsToHeapForLongNames(t *testing.T) {
	long := strings.Repeat("a", 50)
	cs := NewCompactString(long)
	if cs.IsInline() {
		t.Fatal("expected heap storage for a long identifier")
	}
	if cs.String() != long {
		t.Fatal("heap string mismatch")
	}
	if cs.Len() != 50 {
		t.Fatalf("expected length 50, got %d", cs.Len())
	}
}

func TestCompactStringEmpty(t *testing.T) {
	cs := NewCompactString("")
	if !cs.IsEmpty() {
		t.Fatal("expected empty string")
	}
}
