package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphloom/codegraph/pkg/types"
)

func nid(n string) types.NodeId {
	return types.NewNodeId(n, types.Location{FilePath: "a.go"}, "")
}

// memGraph is an in-memory graphSource/allNodesSource test double, a
// thin substitute for pkg/graph.Store so traversal logic can be
// exercised without a KV store.
type memGraph struct {
	out map[types.NodeId][]types.EdgeRelationship
	in  map[types.NodeId][]types.EdgeRelationship
}

func newMemGraph() *memGraph {
	return &memGraph{out: map[types.NodeId][]types.EdgeRelationship{}, in: map[types.NodeId][]types.EdgeRelationship{}}
}

func (m *memGraph) addEdge(from types.NodeId, et types.EdgeType, to types.NodeId) {
	rel := types.EdgeRelationship{From: from, EdgeType: et, To: types.EdgeTarget{Resolved: to}}
	m.out[from] = append(m.out[from], rel)
	m.in[to] = append(m.in[to], rel)
}

func (m *memGraph) GetOutgoingEdges(id types.NodeId) ([]types.EdgeRelationship, error) { return m.out[id], nil }
func (m *memGraph) GetIncomingEdges(id types.NodeId) ([]types.EdgeRelationship, error) { return m.in[id], nil }

func (m *memGraph) AllNodeIds() ([]types.NodeId, error) {
	seen := map[types.NodeId]bool{}
	var ids []types.NodeId
	for id := range m.out {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range m.in {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func TestTransitiveDependenciesBFSOrdersByDepth(t *testing.T) {
	g := newMemGraph()
	a, b, c := nid("a"), nid("b"), nid("c")
	g.addEdge(a, types.Imports, b)
	g.addEdge(b, types.Imports, c)

	hits, err := TransitiveDependencies(g, a, types.Imports, 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, b, hits[0].NodeId)
	assert.Equal(t, 1, hits[0].Depth)
	assert.Equal(t, c, hits[1].NodeId)
	assert.Equal(t, 2, hits[1].Depth)
}

func TestTransitiveDependenciesVisitsAtMinimumDepth(t *testing.T) {
	g := newMemGraph()
	a, b, c, d := nid("a"), nid("b"), nid("c"), nid("d")
	g.addEdge(a, types.Imports, b)
	g.addEdge(a, types.Imports, c)
	g.addEdge(b, types.Imports, d)
	g.addEdge(c, types.Imports, d)

	hits, err := TransitiveDependencies(g, a, types.Imports, 3)
	require.NoError(t, err)
	depths := map[types.NodeId]int{}
	for _, h := range hits {
		depths[h.NodeId] = h.Depth
	}
	assert.Equal(t, 2, depths[d], "d should be recorded at its minimum reachable depth")
}

func TestTransitiveDependenciesToleratesCycles(t *testing.T) {
	g := newMemGraph()
	a, b, c := nid("a"), nid("b"), nid("c")
	g.addEdge(a, types.Calls, b)
	g.addEdge(b, types.Calls, c)
	g.addEdge(c, types.Calls, a)

	hits, err := TransitiveDependencies(g, a, types.Calls, 5)
	require.NoError(t, err)
	assert.Len(t, hits, 2, "a cycle shouldn't revisit the origin or loop forever")
}

func TestTransitiveDependenciesDepthZeroReturnsOnlyOrigin(t *testing.T) {
	g := newMemGraph()
	a, b := nid("a"), nid("b")
	g.addEdge(a, types.Imports, b)

	hits, err := TransitiveDependencies(g, a, types.Imports, 0)
	require.NoError(t, err)
	assert.Empty(t, hits, "depth 0 reaches only the origin, which is never listed among the hits")
}

func TestTransitiveDependenciesClampsExcessiveDepth(t *testing.T) {
	g := newMemGraph()
	assert.Equal(t, MaxTraversalDepth, clampDepth(1000, DefaultTraversalDepth, MaxTraversalDepth))
	_ = g
}

func TestReverseDependenciesIsSymmetric(t *testing.T) {
	g := newMemGraph()
	a, b := nid("a"), nid("b")
	g.addEdge(a, types.Imports, b)

	hits, err := ReverseDependencies(g, b, types.Imports, 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a, hits[0].NodeId)
}

func TestTraceCallChainRecordsCaller(t *testing.T) {
	g := newMemGraph()
	a, b, c := nid("a"), nid("b"), nid("c")
	g.addEdge(a, types.Calls, b)
	g.addEdge(b, types.Calls, c)

	hits, err := TraceCallChain(g, a, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, a, *hits[0].CalledBy)
	assert.Equal(t, b, *hits[1].CalledBy)
}

func TestTraceCallChainIgnoresNonCallsEdges(t *testing.T) {
	g := newMemGraph()
	a, b := nid("a"), nid("b")
	g.addEdge(a, types.Imports, b)

	hits, err := TraceCallChain(g, a, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDetectCircularDependenciesFindsSingleComponent(t *testing.T) {
	g := newMemGraph()
	a, b, c := nid("a"), nid("b"), nid("c")
	g.addEdge(a, types.Calls, b)
	g.addEdge(b, types.Calls, c)
	g.addEdge(c, types.Calls, a)

	cycles, err := DetectCircularDependencies(g, types.Calls, []types.NodeId{a})
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []types.NodeId{a, b, c}, cycles[0].Nodes)
	assert.Equal(t, 4, len(cycles[0].Witness), "a 3-node cycle witness returns to its start")
	assert.Equal(t, cycles[0].Witness[0], cycles[0].Witness[len(cycles[0].Witness)-1])
}

func TestDetectCircularDependenciesIgnoresAcyclicComponents(t *testing.T) {
	g := newMemGraph()
	a, b := nid("a"), nid("b")
	g.addEdge(a, types.Calls, b)

	cycles, err := DetectCircularDependencies(g, types.Calls, []types.NodeId{a})
	require.NoError(t, err)
	assert.Empty(t, cycles)
}

func TestDetectCircularDependenciesSelfLoop(t *testing.T) {
	g := newMemGraph()
	a := nid("a")
	g.addEdge(a, types.Calls, a)

	cycles, err := DetectCircularDependencies(g, types.Calls, []types.NodeId{a})
	require.NoError(t, err)
	assert.Empty(t, cycles, "a self-loop is a size-1 component, below the size-2 cutoff")
}

func TestCalculateCouplingMetricsMatchesSpecExample(t *testing.T) {
	g := newMemGraph()
	x := nid("x")
	for i := 0; i < 15; i++ {
		g.addEdge(nid(string(rune('a'+i))), types.Uses, x)
	}
	for i := 0; i < 8; i++ {
		g.addEdge(x, types.Uses, nid(string(rune('A'+i))))
	}

	metrics, dependents, dependencies, err := CalculateCouplingMetrics(g, x)
	require.NoError(t, err)
	assert.Equal(t, 15, metrics.Ca)
	assert.Equal(t, 8, metrics.Ce)
	assert.InDelta(t, 0.3478, metrics.I, 0.001)
	assert.Equal(t, Balanced, metrics.Category)
	assert.Len(t, dependents, 15)
	assert.Len(t, dependencies, 8)
}

func TestCalculateCouplingMetricsZeroDegreeIsBalanced(t *testing.T) {
	g := newMemGraph()
	x := nid("x")
	metrics, dependents, dependencies, err := CalculateCouplingMetrics(g, x)
	require.NoError(t, err)
	assert.Equal(t, CouplingMetrics{Ca: 0, Ce: 0, I: 0, Category: Balanced}, metrics)
	assert.Empty(t, dependents)
	assert.Empty(t, dependencies)
}

func TestCalculateCouplingMetricsCategorizesStableAndUnstable(t *testing.T) {
	assert.Equal(t, Stable, categorize(0.1))
	assert.Equal(t, Unstable, categorize(0.9))
	assert.Equal(t, Balanced, categorize(0.5))
}

func TestGetHubNodesFiltersAndSortsByDegree(t *testing.T) {
	g := newMemGraph()
	n1, n2, n3 := nid("n1"), nid("n2"), nid("n3")
	for i := 0; i < 12; i++ {
		g.addEdge(nid(string(rune('a'+i))), types.Uses, n1)
	}
	for i := 0; i < 7; i++ {
		g.addEdge(nid(string(rune('A'+i))), types.Uses, n2)
	}
	for i := 0; i < 3; i++ {
		g.addEdge(nid(string(rune('p'+i))), types.Uses, n3)
	}

	hubs, err := GetHubNodes(g, 5)
	require.NoError(t, err)
	require.Len(t, hubs, 2)
	assert.Equal(t, n1, hubs[0].NodeId)
	assert.Equal(t, 12, hubs[0].TotalDegree)
	assert.Equal(t, n2, hubs[1].NodeId)
	assert.Equal(t, 7, hubs[1].TotalDegree)
}

func TestGetHubNodesEmptyGraphReturnsEmpty(t *testing.T) {
	g := newMemGraph()
	hubs, err := GetHubNodes(g, 1)
	require.NoError(t, err)
	assert.Empty(t, hubs)
}
