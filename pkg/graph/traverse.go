package graph

import (
	"container/heap"
	"sort"

	"github.com/graphloom/codegraph/pkg/types"
)

// Neighbors returns the distinct set of nodes directly reachable from id
// via an outgoing edge, sorted by NodeId for deterministic iteration.
// Results are served from the neighbor cache when present; every hop of
// ShortestPath and AStar calls this, so a cache hit here saves a
// kv.PrefixIterate per hop.
func (s *Store) Neighbors(id types.NodeId) ([]types.NodeId, error) {
	if cached, ok := s.neighborCache.Get(id); ok {
		return cached, nil
	}

	edges, err := s.GetOutgoingEdges(id)
	if err != nil {
		return nil, err
	}
	seen := make(map[types.NodeId]struct{}, len(edges))
	out := make([]types.NodeId, 0, len(edges))
	for _, e := range edges {
		if e.To.Weak {
			continue
		}
		if _, dup := seen[e.To.Resolved]; dup {
			continue
		}
		seen[e.To.Resolved] = struct{}{}
		out = append(out, e.To.Resolved)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	s.neighborCache.Put(id, out)
	return out, nil
}

// ShortestPath finds a minimum-hop path from -> to using breadth-first
// search. When multiple nodes at the same BFS frontier could extend a
// path, the lexicographically smaller NodeId is preferred, so the result
// is stable across runs even when the graph itself has no inherent
// ordering (spec §4.1's determinism requirement). It returns (nil, nil)
// when to is unreachable from from — both nodes exist, there simply is
// no path between them, which is not the same as either one being
// absent.
func (s *Store) ShortestPath(from, to types.NodeId) ([]types.NodeId, error) {
	if from == to {
		return []types.NodeId{from}, nil
	}

	pathKey := s.pathCache.Key(from, to)
	if cached, ok := s.pathCache.Get(pathKey); ok {
		return cached, nil
	}

	visited := map[types.NodeId]bool{from: true}
	parent := map[types.NodeId]types.NodeId{}
	frontier := []types.NodeId{from}

	for len(frontier) > 0 {
		sort.Slice(frontier, func(i, j int) bool { return frontier[i].Less(frontier[j]) })
		var next []types.NodeId
		for _, node := range frontier {
			neighbors, err := s.Neighbors(node)
			if err != nil {
				return nil, err
			}
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				parent[n] = node
				if n == to {
					path := reconstructPath(parent, from, to)
					s.pathCache.Put(pathKey, path)
					return path, nil
				}
				next = append(next, n)
			}
		}
		frontier = next
	}
	// cache the negative result too: an unreachable pair stays
	// unreachable until the next adjacency-changing write invalidates it.
	s.pathCache.Put(pathKey, nil)
	return nil, nil
}

func reconstructPath(parent map[types.NodeId]types.NodeId, from, to types.NodeId) []types.NodeId {
	path := []types.NodeId{to}
	for cur := to; cur != from; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Heuristic estimates the remaining cost from a node to the A* search
// target. It must be admissible (never overestimate) for the result to
// be a true shortest path; a heuristic that always returns 0 degrades
// A* to plain BFS/Dijkstra over unit edge weights.
type Heuristic func(node types.NodeId) float64

type aStarItem struct {
	node     types.NodeId
	priority float64
	index    int
}

type aStarQueue []*aStarItem

func (q aStarQueue) Len() int { return len(q) }
func (q aStarQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].node.Less(q[j].node)
}
func (q aStarQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *aStarQueue) Push(x any) {
	item := x.(*aStarItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *aStarQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// AStar finds a shortest path from -> to using unit edge weights and the
// supplied heuristic to prioritize expansion, falling back to exhaustive
// BFS-equivalent behavior when heuristic is nil.
func (s *Store) AStar(from, to types.NodeId, heuristic Heuristic) ([]types.NodeId, error) {
	if heuristic == nil {
		heuristic = func(types.NodeId) float64 { return 0 }
	}
	if from == to {
		return []types.NodeId{from}, nil
	}

	gScore := map[types.NodeId]float64{from: 0}
	parent := map[types.NodeId]types.NodeId{}
	open := &aStarQueue{{node: from, priority: heuristic(from)}}
	heap.Init(open)
	closed := map[types.NodeId]bool{}

	for open.Len() > 0 {
		current := heap.Pop(open).(*aStarItem).node
		if current == to {
			return reconstructPath(parent, from, to), nil
		}
		if closed[current] {
			continue
		}
		closed[current] = true

		neighbors, err := s.Neighbors(current)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			tentative := gScore[current] + 1
			if existing, ok := gScore[n]; ok && tentative >= existing {
				continue
			}
			gScore[n] = tentative
			parent[n] = current
			heap.Push(open, &aStarItem{node: n, priority: tentative + heuristic(n)})
		}
	}
	return nil, types.New(types.KindNotFound, "no path from %s to %s", from, to)
}
