package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLSHSignatureIsDeterministic(t *testing.T) {
	idx := newLSHIndex(4, 8)
	vec := []float32{1, 2, 3, 4}
	assert.Equal(t, idx.signature(vec), idx.signature(vec))
}

func TestLSHAddAndSearchFindsSelf(t *testing.T) {
	idx := newLSHIndex(3, 16)
	id := idFor("a")
	vec := []float32{1, 0, 0}
	idx.add(id, vec)

	results := idx.search(vec, 1, 1.0)
	assert.NotEmpty(t, results)
	assert.Equal(t, id, results[0].id)
}

func TestLSHHammingRadiusForScalesWithTradeoff(t *testing.T) {
	idx := newLSHIndex(3, 16)
	assert.Equal(t, 0, idx.hammingRadiusFor(0.0))
	assert.Equal(t, 1, idx.hammingRadiusFor(0.25))
	assert.Equal(t, 2, idx.hammingRadiusFor(0.75))
}

func TestLSHRemoveDropsFromBucket(t *testing.T) {
	idx := newLSHIndex(3, 16)
	id := idFor("a")
	vec := []float32{1, 0, 0}
	idx.add(id, vec)
	idx.remove(id)
	assert.Equal(t, 0, idx.size())
}

func TestLSHBucketsWithinRadiusGrowsWithRadius(t *testing.T) {
	idx := newLSHIndex(3, 8)
	r0 := idx.bucketsWithinRadius(0, 0)
	r1 := idx.bucketsWithinRadius(0, 1)
	r2 := idx.bucketsWithinRadius(0, 2)
	assert.Less(t, len(r0), len(r1))
	assert.Less(t, len(r1), len(r2))
}
