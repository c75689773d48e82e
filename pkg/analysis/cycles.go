package analysis

import (
	"github.com/graphloom/codegraph/pkg/types"
)

// Cycle is one strongly connected component of size >= 2 along a given
// edge type, plus a shortest witness cycle through it.
type Cycle struct {
	Nodes   []types.NodeId
	Witness []types.NodeId
}

// tarjanState is iterative Tarjan's SCC algorithm, avoiding recursion
// so it doesn't blow the goroutine stack on large call graphs — new
// code for this package (the teacher has no SCC implementation), but
// it walks the same adjacency shape as `pkg/linkpredict`'s Graph/NodeSet.
type tarjanState struct {
	g        graphSource
	edgeType types.EdgeType
	index    map[types.NodeId]int
	lowlink  map[types.NodeId]int
	onStack  map[types.NodeId]bool
	stack    []types.NodeId
	counter  int
	sccs     [][]types.NodeId
}

type tarjanFrame struct {
	node     types.NodeId
	children []types.NodeId
	ci       int
}

// DetectCircularDependencies finds every strongly connected component
// of size >= 2 reachable from the given starting nodes along edgeType,
// using Tarjan's algorithm, and returns each with a shortest cycle
// witness through it.
func DetectCircularDependencies(g graphSource, edgeType types.EdgeType, startNodes []types.NodeId) ([]Cycle, error) {
	st := &tarjanState{
		g:        g,
		edgeType: edgeType,
		index:    make(map[types.NodeId]int),
		lowlink:  make(map[types.NodeId]int),
		onStack:  make(map[types.NodeId]bool),
	}

	for _, start := range startNodes {
		if _, visited := st.index[start]; visited {
			continue
		}
		if err := st.strongConnect(start); err != nil {
			return nil, err
		}
	}

	var cycles []Cycle
	for _, scc := range st.sccs {
		if len(scc) < 2 {
			continue
		}
		witness, err := shortestCycleWitness(g, edgeType, scc)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, Cycle{Nodes: scc, Witness: witness})
	}
	return cycles, nil
}

// strongConnect runs Tarjan's DFS iteratively: an explicit frame stack
// replaces the call stack, so depth is bounded by heap, not goroutine
// stack size.
func (st *tarjanState) strongConnect(root types.NodeId) error {
	frames := []*tarjanFrame{{node: root}}
	st.visit(root)

	for len(frames) > 0 {
		top := frames[len(frames)-1]

		if top.ci == 0 {
			rels, err := st.g.GetOutgoingEdges(top.node)
			if err != nil {
				return err
			}
			top.children = edgeTargets(rels, st.edgeType)
		}

		advanced := false
		for top.ci < len(top.children) {
			child := top.children[top.ci]
			top.ci++

			if _, visited := st.index[child]; !visited {
				st.visit(child)
				frames = append(frames, &tarjanFrame{node: child})
				advanced = true
				break
			}
			if st.onStack[child] {
				if st.index[child] < st.lowlink[top.node] {
					st.lowlink[top.node] = st.index[child]
				}
			}
		}
		if advanced {
			continue
		}

		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := frames[len(frames)-1]
			if st.lowlink[top.node] < st.lowlink[parent.node] {
				st.lowlink[parent.node] = st.lowlink[top.node]
			}
		}

		if st.lowlink[top.node] == st.index[top.node] {
			var scc []types.NodeId
			for {
				n := st.stack[len(st.stack)-1]
				st.stack = st.stack[:len(st.stack)-1]
				st.onStack[n] = false
				scc = append(scc, n)
				if n == top.node {
					break
				}
			}
			st.sccs = append(st.sccs, scc)
		}
	}
	return nil
}

func (st *tarjanState) visit(id types.NodeId) {
	st.index[id] = st.counter
	st.lowlink[id] = st.counter
	st.counter++
	st.stack = append(st.stack, id)
	st.onStack[id] = true
}

// shortestCycleWitness BFS-searches for the shortest path from an
// arbitrary member of scc back to itself, restricted to edges that
// stay within the component (any path leaving the component can't be
// part of a cycle confined to it).
func shortestCycleWitness(g graphSource, edgeType types.EdgeType, scc []types.NodeId) ([]types.NodeId, error) {
	if len(scc) == 0 {
		return nil, nil
	}
	inSCC := make(map[types.NodeId]bool, len(scc))
	for _, n := range scc {
		inSCC[n] = true
	}

	start := scc[0]
	parent := map[types.NodeId]types.NodeId{}
	visited := map[types.NodeId]bool{start: true}
	queue := []types.NodeId{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		rels, err := g.GetOutgoingEdges(cur)
		if err != nil {
			return nil, err
		}
		for _, next := range edgeTargets(rels, edgeType) {
			if !inSCC[next] {
				continue
			}
			if next == start {
				path := append(reconstructWitness(parent, start, cur), start)
				return path, nil
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	return []types.NodeId{start}, nil
}

// reconstructWitness walks parent pointers from end back to root, then
// appends root, returning the nodes in root-to-end order: [root, ...,
// end]. When end == root (a direct self-loop) it returns [root].
func reconstructWitness(parent map[types.NodeId]types.NodeId, root, end types.NodeId) []types.NodeId {
	if end == root {
		return []types.NodeId{root}
	}
	var rev []types.NodeId
	cur := end
	for cur != root {
		rev = append(rev, cur)
		p, ok := parent[cur]
		if !ok {
			break
		}
		cur = p
	}
	rev = append(rev, root)
	out := make([]types.NodeId, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out
}
