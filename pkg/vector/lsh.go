package vector

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/graphloom/codegraph/pkg/types"
)

// lshIndex is random-hyperplane locality-sensitive hashing: each
// vector is reduced to an nBits-bit signature (one bit per hyperplane,
// by which side of the plane the vector falls on), and a query only
// compares against vectors sharing its bucket. This is the fastest,
// lowest-recall end of spec §4.4's precision/recall spectrum.
type lshIndex struct {
	mu         sync.RWMutex
	planes     [][]float32
	buckets    map[uint64][]types.NodeId
	vectors    map[types.NodeId][]float32
	signatures map[types.NodeId]uint64
	dim        int
	nBits      int
}

func newLSHIndex(dim, nBits int) *lshIndex {
	if nBits <= 0 || nBits > 64 {
		nBits = 16
	}
	planes := make([][]float32, nBits)
	for i := range planes {
		plane := make([]float32, dim)
		for d := range plane {
			plane[d] = float32(rand.NormFloat64())
		}
		planes[i] = normalize(plane)
	}
	return &lshIndex{
		planes:     planes,
		buckets:    make(map[uint64][]types.NodeId),
		vectors:    make(map[types.NodeId][]float32),
		signatures: make(map[types.NodeId]uint64),
		dim:        dim,
		nBits:      nBits,
	}
}

func (lx *lshIndex) signature(vec []float32) uint64 {
	var sig uint64
	for i, plane := range lx.planes {
		if dotProduct(vec, plane) >= 0 {
			sig |= 1 << uint(i)
		}
	}
	return sig
}

func (lx *lshIndex) add(id types.NodeId, vec []float32) {
	normalized := normalize(vec)
	sig := lx.signature(normalized)

	lx.mu.Lock()
	defer lx.mu.Unlock()
	lx.vectors[id] = normalized
	lx.signatures[id] = sig
	lx.buckets[sig] = append(lx.buckets[sig], id)
}

func (lx *lshIndex) remove(id types.NodeId) {
	lx.mu.Lock()
	defer lx.mu.Unlock()
	sig, ok := lx.signatures[id]
	if !ok {
		return
	}
	delete(lx.vectors, id)
	delete(lx.signatures, id)
	members := lx.buckets[sig]
	for i, m := range members {
		if m == id {
			lx.buckets[sig] = append(members[:i], members[i+1:]...)
			break
		}
	}
}

// hammingRadiusFor widens the bucket search to neighboring buckets as
// tradeoff climbs toward 1.0, trading LSH's O(1) bucket lookup for
// higher recall by also checking buckets within a small Hamming
// distance of the query's own signature.
func (lx *lshIndex) hammingRadiusFor(tradeoff float64) int {
	switch {
	case tradeoff >= 0.75:
		return 2
	case tradeoff >= 0.25:
		return 1
	default:
		return 0
	}
}

func (lx *lshIndex) search(query []float32, k int, tradeoff float64) []neighbor {
	lx.mu.RLock()
	defer lx.mu.RUnlock()

	q := normalize(query)
	sig := lx.signature(q)
	radius := lx.hammingRadiusFor(tradeoff)

	candidateIds := map[types.NodeId]bool{}
	for _, bucketSig := range lx.bucketsWithinRadius(sig, radius) {
		for _, id := range lx.buckets[bucketSig] {
			candidateIds[id] = true
		}
	}

	results := make([]neighbor, 0, len(candidateIds))
	for id := range candidateIds {
		results = append(results, neighbor{id: id, score: dotProduct(q, lx.vectors[id])})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// bucketsWithinRadius enumerates every signature within Hamming
// distance radius of sig by flipping every combination of up to
// radius bits — fine for the small radii (0-2) this index ever uses.
func (lx *lshIndex) bucketsWithinRadius(sig uint64, radius int) []uint64 {
	out := []uint64{sig}
	if radius == 0 {
		return out
	}
	for i := 0; i < lx.nBits; i++ {
		out = append(out, sig^(1<<uint(i)))
	}
	if radius == 1 {
		return out
	}
	for i := 0; i < lx.nBits; i++ {
		for j := i + 1; j < lx.nBits; j++ {
			out = append(out, sig^(1<<uint(i))^(1<<uint(j)))
		}
	}
	return out
}

func (lx *lshIndex) size() int {
	lx.mu.RLock()
	defer lx.mu.RUnlock()
	return len(lx.vectors)
}
