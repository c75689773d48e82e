package vector

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/graphloom/codegraph/pkg/types"
)

// hnswConfig mirrors `pkg/search.HNSWConfig`; EfSearch is the ceiling
// scaled down by a query's precision/recall tradeoff rather than used
// directly, so one built index serves the whole tradeoff spectrum.
type hnswConfig struct {
	M               int
	EfConstruction  int
	EfSearch        int
	LevelMultiplier float64
}

func defaultHNSWConfig() hnswConfig {
	return hnswConfig{M: 16, EfConstruction: 200, EfSearch: 200, LevelMultiplier: 1.0 / math.Log(16.0)}
}

type hnswNode struct {
	id        types.NodeId
	vector    []float32
	level     int
	neighbors [][]types.NodeId
	mu        sync.RWMutex
}

// hnswIndex is the Hierarchical Navigable Small World ANN structure,
// adapted from `pkg/search.HNSWIndex` to key nodes by types.NodeId and
// to derive EfSearch from a per-query tradeoff instead of a fixed
// config value.
type hnswIndex struct {
	config     hnswConfig
	mu         sync.RWMutex
	nodes      map[types.NodeId]*hnswNode
	entryPoint types.NodeId
	hasEntry   bool
	maxLevel   int
}

func newHNSWIndex(config hnswConfig) *hnswIndex {
	if config.M == 0 {
		config = defaultHNSWConfig()
	}
	return &hnswIndex{config: config, nodes: make(map[types.NodeId]*hnswNode)}
}

func (h *hnswIndex) add(id types.NodeId, vec []float32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	normalized := normalize(vec)
	level := h.randomLevel()

	node := &hnswNode{id: id, vector: normalized, level: level, neighbors: make([][]types.NodeId, level+1)}
	for i := range node.neighbors {
		node.neighbors[i] = make([]types.NodeId, 0, h.config.M)
	}
	h.nodes[id] = node

	if !h.hasEntry {
		h.entryPoint = id
		h.hasEntry = true
		h.maxLevel = level
		return
	}

	ep := h.entryPoint
	epLevel := h.nodes[ep].level

	for l := epLevel; l > level; l-- {
		ep = h.searchLayerSingle(normalized, ep, l)
	}

	for l := min(level, epLevel); l >= 0; l-- {
		candidates := h.searchLayer(normalized, ep, h.config.EfConstruction, l)
		neighbors := h.selectNeighbors(normalized, candidates, h.config.M)
		node.neighbors[l] = neighbors

		for _, neighborID := range neighbors {
			neighbor := h.nodes[neighborID]
			neighbor.mu.Lock()
			if len(neighbor.neighbors) > l {
				if len(neighbor.neighbors[l]) < h.config.M {
					neighbor.neighbors[l] = append(neighbor.neighbors[l], id)
				} else {
					all := append(append([]types.NodeId(nil), neighbor.neighbors[l]...), id)
					neighbor.neighbors[l] = h.selectNeighbors(neighbor.vector, all, h.config.M)
				}
			}
			neighbor.mu.Unlock()
		}

		if len(candidates) > 0 {
			ep = candidates[0]
		}
	}

	if level > h.maxLevel {
		h.entryPoint = id
		h.maxLevel = level
	}
}

func (h *hnswIndex) remove(id types.NodeId) {
	h.mu.Lock()
	defer h.mu.Unlock()

	node, exists := h.nodes[id]
	if !exists {
		return
	}
	for l := 0; l <= node.level; l++ {
		for _, neighborID := range node.neighbors[l] {
			neighbor, ok := h.nodes[neighborID]
			if !ok {
				continue
			}
			neighbor.mu.Lock()
			if len(neighbor.neighbors) > l {
				kept := make([]types.NodeId, 0, len(neighbor.neighbors[l]))
				for _, nid := range neighbor.neighbors[l] {
					if nid != id {
						kept = append(kept, nid)
					}
				}
				neighbor.neighbors[l] = kept
			}
			neighbor.mu.Unlock()
		}
	}
	delete(h.nodes, id)

	if h.entryPoint == id {
		h.hasEntry = false
		h.maxLevel = 0
		for nid, n := range h.nodes {
			if !h.hasEntry || n.level > h.maxLevel {
				h.maxLevel = n.level
				h.entryPoint = nid
				h.hasEntry = true
			}
		}
	}
}

// efSearchFor scales the construction-time ceiling by tradeoff: 1.0
// searches the full candidate list (closest to exact), 0.0 floors at k
// (spec §4.4's "0.0 = fastest ANN settings").
func (h *hnswIndex) efSearchFor(tradeoff float64, k int) int {
	if tradeoff < 0 {
		tradeoff = 0
	}
	if tradeoff > 1 {
		tradeoff = 1
	}
	ef := k + int(tradeoff*float64(h.config.EfSearch-k))
	if ef < k {
		ef = k
	}
	return ef
}

func (h *hnswIndex) search(query []float32, k int, tradeoff float64) []neighbor {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.hasEntry {
		return nil
	}

	normalized := normalize(query)
	ep := h.entryPoint
	for l := h.maxLevel; l > 0; l-- {
		ep = h.searchLayerSingle(normalized, ep, l)
	}

	ef := h.efSearchFor(tradeoff, k)
	candidates := h.searchLayer(normalized, ep, ef, 0)

	results := make([]neighbor, 0, len(candidates))
	for _, id := range candidates {
		results = append(results, neighbor{id: id, score: dotProduct(normalized, h.nodes[id].vector)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func (h *hnswIndex) size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes)
}

func (h *hnswIndex) searchLayerSingle(query []float32, entryID types.NodeId, level int) types.NodeId {
	current := entryID
	currentDist := 1.0 - dotProduct(query, h.nodes[current].vector)

	for {
		changed := false
		node := h.nodes[current]
		node.mu.RLock()
		neighbors := node.neighbors[level]
		node.mu.RUnlock()

		for _, neighborID := range neighbors {
			neighbor := h.nodes[neighborID]
			dist := 1.0 - dotProduct(query, neighbor.vector)
			if dist < currentDist {
				current = neighborID
				currentDist = dist
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return current
}

func (h *hnswIndex) searchLayer(query []float32, entryID types.NodeId, ef int, level int) []types.NodeId {
	visited := map[types.NodeId]bool{entryID: true}

	candidates := &hnswDistHeap{}
	heap.Init(candidates)
	results := &hnswDistHeap{}
	heap.Init(results)

	entryDist := 1.0 - dotProduct(query, h.nodes[entryID].vector)
	heap.Push(candidates, hnswDistItem{id: entryID, dist: entryDist, isMax: false})
	heap.Push(results, hnswDistItem{id: entryID, dist: entryDist, isMax: true})

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(hnswDistItem)

		if results.Len() >= ef {
			furthest := (*results)[0]
			if closest.dist > furthest.dist {
				break
			}
		}

		node := h.nodes[closest.id]
		node.mu.RLock()
		neighbors := node.neighbors[level]
		node.mu.RUnlock()

		for _, neighborID := range neighbors {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			neighbor := h.nodes[neighborID]
			dist := 1.0 - dotProduct(query, neighbor.vector)

			if results.Len() < ef || dist < (*results)[0].dist {
				heap.Push(candidates, hnswDistItem{id: neighborID, dist: dist, isMax: false})
				heap.Push(results, hnswDistItem{id: neighborID, dist: dist, isMax: true})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]types.NodeId, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(hnswDistItem).id
	}
	return out
}

func (h *hnswIndex) selectNeighbors(query []float32, candidates []types.NodeId, m int) []types.NodeId {
	if len(candidates) <= m {
		return candidates
	}
	type distNode struct {
		id   types.NodeId
		dist float64
	}
	dists := make([]distNode, len(candidates))
	for i, cid := range candidates {
		dists[i] = distNode{id: cid, dist: 1.0 - dotProduct(query, h.nodes[cid].vector)}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })

	out := make([]types.NodeId, m)
	for i := 0; i < m; i++ {
		out[i] = dists[i].id
	}
	return out
}

func (h *hnswIndex) randomLevel() int {
	r := rand.Float64()
	return int(-math.Log(r) * h.config.LevelMultiplier)
}

type hnswDistItem struct {
	id    types.NodeId
	dist  float64
	isMax bool
}

type hnswDistHeap []hnswDistItem

func (dh hnswDistHeap) Len() int { return len(dh) }
func (dh hnswDistHeap) Less(i, j int) bool {
	if dh[i].isMax {
		return dh[i].dist > dh[j].dist
	}
	return dh[i].dist < dh[j].dist
}
func (dh hnswDistHeap) Swap(i, j int) { dh[i], dh[j] = dh[j], dh[i] }
func (dh *hnswDistHeap) Push(x interface{}) {
	*dh = append(*dh, x.(hnswDistItem))
}
func (dh *hnswDistHeap) Pop() interface{} {
	old := *dh
	n := len(old)
	x := old[n-1]
	*dh = old[:n-1]
	return x
}
