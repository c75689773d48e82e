package vector

import (
	"sort"
	"sync"

	"github.com/graphloom/codegraph/pkg/types"
)

// ivfIndex is an inverted-file ANN index: vectors are coarse-quantized
// into clusters via the same single-pass cosine-threshold clusterer
// used for spec §4.4's advisory clustering, and a query only scans the
// nprobe closest clusters instead of the whole vector set.
type ivfIndex struct {
	mu        sync.RWMutex
	threshold float64
	clusters  *clusterer
	vectors   map[types.NodeId][]float32
	clusterOf map[types.NodeId]int
}

func newIVFIndex(clusterThreshold float64) *ivfIndex {
	if clusterThreshold <= 0 {
		clusterThreshold = 0.7
	}
	return &ivfIndex{
		threshold: clusterThreshold,
		clusters:  newClusterer(clusterThreshold),
		vectors:   make(map[types.NodeId][]float32),
		clusterOf: make(map[types.NodeId]int),
	}
}

func (ix *ivfIndex) add(id types.NodeId, vec []float32) {
	normalized := normalize(vec)
	ix.mu.Lock()
	ix.vectors[id] = normalized
	ix.mu.Unlock()

	clusterID := ix.clusters.assign(id, normalized)
	ix.mu.Lock()
	ix.clusterOf[id] = clusterID
	ix.mu.Unlock()
}

func (ix *ivfIndex) remove(id types.NodeId) {
	ix.mu.Lock()
	vec := ix.vectors[id]
	delete(ix.vectors, id)
	delete(ix.clusterOf, id)
	ix.mu.Unlock()
	if vec != nil {
		ix.clusters.remove(id, vec)
	}
}

// nprobeFor scales how many of the nearest coarse clusters a query
// scans: 1.0 (near-exact) probes every cluster, 0.0 probes only the
// single closest one.
func (ix *ivfIndex) nprobeFor(tradeoff float64) int {
	n := len(ix.clusters.clusters)
	if n == 0 {
		return 0
	}
	if tradeoff >= 1 {
		return n
	}
	probes := 1 + int(tradeoff*float64(n-1))
	if probes < 1 {
		probes = 1
	}
	return probes
}

func (ix *ivfIndex) search(query []float32, k int, tradeoff float64) []neighbor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	q := normalize(query)
	nprobe := ix.nprobeFor(tradeoff)
	if nprobe == 0 {
		return nil
	}

	type clusterDist struct {
		id   int
		dist float64
	}
	dists := make([]clusterDist, len(ix.clusters.clusters))
	for i, cl := range ix.clusters.clusters {
		dists[i] = clusterDist{id: cl.id, dist: dotProduct(q, cl.centroid())}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].dist > dists[j].dist })
	if len(dists) > nprobe {
		dists = dists[:nprobe]
	}

	probe := make(map[int]bool, len(dists))
	for _, d := range dists {
		probe[d.id] = true
	}

	var results []neighbor
	for id, clusterID := range ix.clusterOf {
		if !probe[clusterID] {
			continue
		}
		results = append(results, neighbor{id: id, score: dotProduct(q, ix.vectors[id])})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func (ix *ivfIndex) size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}
