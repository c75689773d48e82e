// Package analysis provides the graph-analysis primitives of spec §4.6:
// transitive/reverse dependency traversal, circular-dependency
// detection, call-chain tracing, coupling metrics, and hub detection.
// Every primitive is a pure read-only query over a graphSource snapshot
// and consumes NodeIds resolved from a prior semantic search; none use
// heuristics over node content.
package analysis

import (
	"github.com/graphloom/codegraph/pkg/types"
)

// graphSource is the slice of pkg/graph.Store's edge API this package
// needs. Depending on the interface rather than *graph.Store directly
// keeps the traversal/SCC/coupling logic testable without a real KV
// store, matching the teacher's own small-interface-at-the-boundary
// style (e.g. `pkg/linkpredict`'s storage.Engine parameter).
type graphSource interface {
	GetOutgoingEdges(id types.NodeId) ([]types.EdgeRelationship, error)
	GetIncomingEdges(id types.NodeId) ([]types.EdgeRelationship, error)
}

const (
	DefaultTraversalDepth = 3
	MaxTraversalDepth     = 10
	DefaultCallChainDepth = 5
	MaxCallChainDepth     = 10
)

// DependencyHit is one node reached by a transitive/reverse dependency
// traversal, at the depth it was first reached.
type DependencyHit struct {
	NodeId types.NodeId
	Depth  int
}

func clampDepth(depth, def, max int) int {
	if depth < 0 {
		return def
	}
	if depth > max {
		return max
	}
	return depth
}

// bfsDependencies runs a breadth-first traversal from start, following
// edges of edgeType via neighborsOf, up to depth hops. A node already
// visited at an earlier (smaller) depth is not revisited, matching
// spec §4.6's "a node is visited at its minimum depth"; cycles are
// tolerated by the visited set, not treated as an error.
func bfsDependencies(start types.NodeId, depth int, neighborsOf func(types.NodeId) ([]types.NodeId, error)) ([]DependencyHit, error) {
	visited := map[types.NodeId]int{start: 0}
	frontier := []types.NodeId{start}
	var hits []DependencyHit

	for d := 1; d <= depth && len(frontier) > 0; d++ {
		var next []types.NodeId
		for _, id := range frontier {
			neighbors, err := neighborsOf(id)
			if err != nil {
				return nil, err
			}
			for _, n := range neighbors {
				if _, seen := visited[n]; seen {
					continue
				}
				visited[n] = d
				hits = append(hits, DependencyHit{NodeId: n, Depth: d})
				next = append(next, n)
			}
		}
		frontier = next
	}
	return hits, nil
}

func edgeTargets(rels []types.EdgeRelationship, edgeType types.EdgeType) []types.NodeId {
	var out []types.NodeId
	for _, rel := range rels {
		if rel.EdgeType != edgeType {
			continue
		}
		if rel.To.Weak {
			continue
		}
		out = append(out, rel.To.Resolved)
	}
	return out
}

func edgeSources(rels []types.EdgeRelationship, edgeType types.EdgeType) []types.NodeId {
	var out []types.NodeId
	for _, rel := range rels {
		if rel.EdgeType != edgeType {
			continue
		}
		out = append(out, rel.From)
	}
	return out
}

// TransitiveDependencies runs a forward BFS from nodeID along edgeType
// up to depth hops (max 10; a negative depth uses the default of 3).
// Depth 0 reaches only the origin, which is never listed, so it yields
// no hits.
func TransitiveDependencies(g graphSource, nodeID types.NodeId, edgeType types.EdgeType, depth int) ([]DependencyHit, error) {
	depth = clampDepth(depth, DefaultTraversalDepth, MaxTraversalDepth)
	return bfsDependencies(nodeID, depth, func(id types.NodeId) ([]types.NodeId, error) {
		rels, err := g.GetOutgoingEdges(id)
		if err != nil {
			return nil, err
		}
		return edgeTargets(rels, edgeType), nil
	})
}

// ReverseDependencies is TransitiveDependencies's symmetric twin over
// edges_in: a forward BFS in the reversed graph.
func ReverseDependencies(g graphSource, nodeID types.NodeId, edgeType types.EdgeType, depth int) ([]DependencyHit, error) {
	depth = clampDepth(depth, DefaultTraversalDepth, MaxTraversalDepth)
	return bfsDependencies(nodeID, depth, func(id types.NodeId) ([]types.NodeId, error) {
		rels, err := g.GetIncomingEdges(id)
		if err != nil {
			return nil, err
		}
		return edgeSources(rels, edgeType), nil
	})
}

// CallChainHit is one node reached by a call-chain trace, carrying the
// caller it was reached through. The origin itself is never emitted, so
// CalledBy is always set.
type CallChainHit struct {
	NodeId   types.NodeId
	Depth    int
	CalledBy *types.NodeId
}

// TraceCallChain runs a BFS on Calls edges from fromNode up to maxDepth
// hops (max 10; a negative maxDepth uses the default of 5, and 0 yields
// no hits), recording which caller first reached each node.
func TraceCallChain(g graphSource, fromNode types.NodeId, maxDepth int) ([]CallChainHit, error) {
	maxDepth = clampDepth(maxDepth, DefaultCallChainDepth, MaxCallChainDepth)

	visited := map[types.NodeId]bool{fromNode: true}
	frontier := []types.NodeId{fromNode}
	var hits []CallChainHit

	for d := 1; d <= maxDepth && len(frontier) > 0; d++ {
		var next []types.NodeId
		for _, caller := range frontier {
			rels, err := g.GetOutgoingEdges(caller)
			if err != nil {
				return nil, err
			}
			for _, callee := range edgeTargets(rels, types.Calls) {
				if visited[callee] {
					continue
				}
				visited[callee] = true
				c := caller
				hits = append(hits, CallChainHit{NodeId: callee, Depth: d, CalledBy: &c})
				next = append(next, callee)
			}
		}
		frontier = next
	}
	return hits, nil
}
