package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIVFSearchFindsClosestCluster(t *testing.T) {
	idx := newIVFIndex(0.9)
	idx.add(idFor("a"), []float32{1, 0, 0})
	idx.add(idFor("b"), []float32{0.98, 0.02, 0})
	idx.add(idFor("c"), []float32{0, 1, 0})

	results := idx.search([]float32{1, 0, 0}, 2, 1.0)
	require.NotEmpty(t, results)
	assert.Equal(t, idFor("a"), results[0].id)
}

func TestIVFNprobeForScalesWithTradeoff(t *testing.T) {
	idx := newIVFIndex(0.99)
	for _, n := range []string{"a", "b", "c", "d"} {
		idx.add(idFor(n), []float32{float32(len(n)), 0, float32(n[0])})
	}
	full := idx.nprobeFor(1.0)
	partial := idx.nprobeFor(0.0)
	assert.GreaterOrEqual(t, full, partial)
	assert.Equal(t, len(idx.clusters.clusters), full)
}

func TestIVFNprobeForEmptyIndex(t *testing.T) {
	idx := newIVFIndex(0.7)
	assert.Equal(t, 0, idx.nprobeFor(1.0))
	assert.Nil(t, idx.search([]float32{1, 0, 0}, 5, 1.0))
}

func TestIVFRemove(t *testing.T) {
	idx := newIVFIndex(0.7)
	idx.add(idFor("a"), []float32{1, 0, 0})
	idx.remove(idFor("a"))
	assert.Equal(t, 0, idx.size())
}
