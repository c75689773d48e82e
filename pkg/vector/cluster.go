package vector

import (
	"sync"

	"github.com/graphloom/codegraph/pkg/types"
)

// cluster tracks membership via a running vector sum so its centroid
// can be renormalized cheaply at query time instead of being
// recomputed from every member (spec §4.4: "centroids are maintained
// as running sums and normalized on query").
type cluster struct {
	id      int
	sum     []float32
	count   int
	members []types.NodeId
}

func (c *cluster) centroid() []float32 {
	if c.count == 0 {
		return c.sum
	}
	avg := make([]float32, len(c.sum))
	for i, v := range c.sum {
		avg[i] = v / float32(c.count)
	}
	return normalize(avg)
}

// clusterer performs single-pass agglomerative clustering by cosine
// threshold: a vector joins the cluster whose centroid is most similar
// to it, provided that similarity is at least threshold, else it seeds
// a new cluster. Clusters are advisory only — Store never filters search results by
// cluster membership (spec §4.4).
type clusterer struct {
	mu        sync.RWMutex
	threshold float64
	clusters  []*cluster
}

func newClusterer(threshold float64) *clusterer {
	return &clusterer{threshold: threshold}
}

// assign adds vec (assumed already normalized) to the best-matching
// cluster, creating a new one if none is within threshold, and returns
// the cluster id.
func (c *clusterer) assign(id types.NodeId, vec []float32) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	best := -1
	bestSim := c.threshold
	for i, cl := range c.clusters {
		sim := cosineSimilarity(vec, cl.centroid())
		if sim >= bestSim {
			bestSim = sim
			best = i
		}
	}

	if best == -1 {
		cl := &cluster{id: len(c.clusters), sum: append([]float32(nil), vec...), count: 1, members: []types.NodeId{id}}
		c.clusters = append(c.clusters, cl)
		return cl.id
	}

	cl := c.clusters[best]
	for i, v := range vec {
		cl.sum[i] += v
	}
	cl.count++
	cl.members = append(cl.members, id)
	return cl.id
}

// remove drops id from whichever cluster holds it, deducting it from
// the running sum. A no-op if id was never assigned.
func (c *clusterer) remove(id types.NodeId, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cl := range c.clusters {
		for i, m := range cl.members {
			if m != id {
				continue
			}
			cl.members = append(cl.members[:i], cl.members[i+1:]...)
			cl.count--
			for d, v := range vec {
				cl.sum[d] -= v
			}
			return
		}
	}
}

func (c *clusterer) centroidOf(clusterID int) []float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if clusterID < 0 || clusterID >= len(c.clusters) {
		return nil
	}
	return c.clusters[clusterID].centroid()
}

func (c *clusterer) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clusters = nil
}
