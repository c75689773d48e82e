package vector

import (
	"sort"
	"sync"

	"github.com/graphloom/codegraph/pkg/types"
)

// neighbor is one ANN candidate before structural rescoring.
type neighbor struct {
	id    types.NodeId
	score float64
}

// annIndex is the structure-specific half of Index: it knows how to
// store normalized vectors and answer a k-NN query at a given
// precision/recall tradeoff. Store layers clustering, caching, and
// structural rescoring on top of whichever annIndex backs it.
type annIndex interface {
	add(id types.NodeId, vec []float32)
	remove(id types.NodeId)
	search(query []float32, k int, tradeoff float64) []neighbor
	size() int
}

// flatIndex is exact brute-force cosine similarity search, grounded on
// `pkg/search.VectorIndex`. It ignores tradeoff entirely — flat search
// is always exact, matching spec §4.4's PrecisionRecallTradeoff=1.0
// endpoint.
type flatIndex struct {
	mu      sync.RWMutex
	vectors map[types.NodeId][]float32
}

func newFlatIndex() *flatIndex {
	return &flatIndex{vectors: make(map[types.NodeId][]float32)}
}

func (f *flatIndex) add(id types.NodeId, vec []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors[id] = normalize(vec)
}

func (f *flatIndex) remove(id types.NodeId) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vectors, id)
}

func (f *flatIndex) search(query []float32, k int, _ float64) []neighbor {
	f.mu.RLock()
	defer f.mu.RUnlock()

	q := normalize(query)
	results := make([]neighbor, 0, len(f.vectors))
	for id, vec := range f.vectors {
		results = append(results, neighbor{id: id, score: dotProduct(q, vec)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].id.String() < results[j].id.String()
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func (f *flatIndex) size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}
