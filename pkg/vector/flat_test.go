package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatIndexSearchReturnsClosestFirst(t *testing.T) {
	idx := newFlatIndex()
	idx.add(idFor("near"), []float32{1, 0, 0})
	idx.add(idFor("far"), []float32{0, 1, 0})
	idx.add(idFor("mid"), []float32{0.7, 0.7, 0})

	results := idx.search([]float32{1, 0, 0}, 3, 1.0)
	require.Len(t, results, 3)
	assert.Equal(t, idFor("near"), results[0].id)
	assert.Equal(t, idFor("far"), results[2].id)
}

func TestFlatIndexSearchRespectsK(t *testing.T) {
	idx := newFlatIndex()
	for _, n := range []string{"a", "b", "c", "d"} {
		idx.add(idFor(n), []float32{1, 0, 0})
	}
	results := idx.search([]float32{1, 0, 0}, 2, 1.0)
	assert.Len(t, results, 2)
}

func TestFlatIndexRemove(t *testing.T) {
	idx := newFlatIndex()
	idx.add(idFor("a"), []float32{1, 0, 0})
	idx.remove(idFor("a"))
	assert.Equal(t, 0, idx.size())
}

func TestFlatIndexSizeTracksAdds(t *testing.T) {
	idx := newFlatIndex()
	assert.Equal(t, 0, idx.size())
	idx.add(idFor("a"), []float32{1, 0, 0})
	idx.add(idFor("b"), []float32{0, 1, 0})
	assert.Equal(t, 2, idx.size())
}
