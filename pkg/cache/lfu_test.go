package cache

import "testing"

func TestLFUEvictsLeastFrequentlyUsed(t *testing.T) {
	c := NewLFU[string, int](2, 0)
	c.Put("a", 1)
	c.Put("b", 2)

	// access a repeatedly so it is clearly the hotter entry
	c.Get("a")
	c.Get("a")
	c.Get("a")

	c.Put("c", 3) // should evict b (frequency 1) over a (frequency 4)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b, the coldest entry, to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a, the hottest entry, to survive")
	}
}

func TestLFURemove(t *testing.T) {
	c := NewLFU[string, int](10, 0)
	c.Put("a", 1)
	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be removed")
	}
}
