package packed

// inlineCap is the longest identifier CompactString stores inline. Most
// function, struct, and variable names in real codebases fit comfortably
// under this; anything longer falls back to a normal heap string.
const inlineCap = 23

// CompactString stores short identifiers inline in a fixed-size array
// instead of a separate heap allocation, and only spills to the heap
// field for names longer than inlineCap. A package or symbol name table
// with millions of entries spends most of its bytes on identifiers, so
// avoiding a pointer chase for the common short case matters.
type CompactString struct {
	inline [inlineCap]byte
	n      uint8
	heap   string
}

// NewCompactString builds a CompactString from s, choosing the inline or
// heap representation based on length.
func NewCompactString(s string) CompactString {
	if len(s) <= inlineCap {
		var cs CompactString
		copy(cs.inline[:], s)
		cs.n = uint8(len(s))
		return cs
	}
	return CompactString{n: inlineCap + 1, heap: s}
}

// String returns the represented string.
func (c CompactString) String() string {
	if c.n > inlineCap {
		return c.heap
	}
	return string(c.inline[:c.n])
}

// Len returns the string's length in bytes.
func (c CompactString) Len() int {
	if c.n > inlineCap {
		return len(c.heap)
	}
	return int(c.n)
}

// IsEmpty reports whether the string is empty.
func (c CompactString) IsEmpty() bool { return c.Len() == 0 }

// IsInline reports whether the value is stored without a heap allocation.
func (c CompactString) IsInline() bool { return c.n <= inlineCap }
