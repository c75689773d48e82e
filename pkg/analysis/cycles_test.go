package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphloom/codegraph/pkg/types"
)

func TestReconstructWitnessExcludesRootUntilFinalAppend(t *testing.T) {
	a, b, c := nid("a"), nid("b"), nid("c")
	parent := map[types.NodeId]types.NodeId{b: a, c: b}

	path := reconstructWitness(parent, a, c)
	assert.Equal(t, []types.NodeId{a, b, c}, path, "root appears once, at the head")
}

func TestReconstructWitnessSelfLoop(t *testing.T) {
	a := nid("a")
	path := reconstructWitness(map[types.NodeId]types.NodeId{}, a, a)
	assert.Equal(t, []types.NodeId{a}, path)
}

func TestShortestCycleWitnessNoDuplicateLeadingNode(t *testing.T) {
	g := newMemGraph()
	a, b, c := nid("a"), nid("b"), nid("c")
	g.addEdge(a, types.Calls, b)
	g.addEdge(b, types.Calls, c)
	g.addEdge(c, types.Calls, a)

	witness, err := shortestCycleWitness(g, types.Calls, []types.NodeId{a, b, c})
	require.NoError(t, err)
	require.Len(t, witness, 4)
	assert.Equal(t, witness[0], witness[3], "cycle returns to its start exactly once")
	assert.NotEqual(t, witness[0], witness[1], "start must not appear twice in a row")
	assert.ElementsMatch(t, []types.NodeId{a, b, c}, witness[:3])
}

func TestDetectCircularDependenciesMultipleComponents(t *testing.T) {
	g := newMemGraph()
	a, b, c, d, e := nid("a"), nid("b"), nid("c"), nid("d"), nid("e")
	g.addEdge(a, types.Calls, b)
	g.addEdge(b, types.Calls, a)
	g.addEdge(c, types.Calls, d)
	g.addEdge(d, types.Calls, e)
	g.addEdge(e, types.Calls, c)

	cycles, err := DetectCircularDependencies(g, types.Calls, []types.NodeId{a, c})
	require.NoError(t, err)
	require.Len(t, cycles, 2)

	var sizes []int
	for _, cyc := range cycles {
		sizes = append(sizes, len(cyc.Nodes))
	}
	assert.ElementsMatch(t, []int{2, 3}, sizes)
}

func TestDetectCircularDependenciesFiltersByEdgeType(t *testing.T) {
	g := newMemGraph()
	a, b := nid("a"), nid("b")
	g.addEdge(a, types.Calls, b)
	g.addEdge(b, types.Imports, a)

	cycles, err := DetectCircularDependencies(g, types.Calls, []types.NodeId{a})
	require.NoError(t, err)
	assert.Empty(t, cycles, "a cycle split across two edge types isn't a cycle in either type alone")
}
