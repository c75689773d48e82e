package analysis

import (
	"sort"

	"github.com/graphloom/codegraph/pkg/types"
)

// Stability categorizes a node's instability metric per spec §4.6.
type Stability string

const (
	Stable   Stability = "stable"
	Unstable Stability = "unstable"
	Balanced Stability = "balanced"
)

// CouplingMetrics reports afferent/efferent coupling and the derived
// instability metric for one node.
type CouplingMetrics struct {
	Ca       int
	Ce       int
	I        float64
	Category Stability
}

func categorize(instability float64) Stability {
	switch {
	case instability < 0.3:
		return Stable
	case instability > 0.7:
		return Unstable
	default:
		return Balanced
	}
}

// CalculateCouplingMetrics computes Ca = |incoming neighbors|, Ce =
// |outgoing neighbors|, I = Ce / (Ca + Ce) (0 when the denominator is
// 0), and its stability category, plus the raw dependent/dependency
// node lists the public query surface exposes alongside the metrics.
func CalculateCouplingMetrics(g graphSource, nodeID types.NodeId) (CouplingMetrics, []types.NodeId, []types.NodeId, error) {
	incoming, err := g.GetIncomingEdges(nodeID)
	if err != nil {
		return CouplingMetrics{}, nil, nil, err
	}
	outgoing, err := g.GetOutgoingEdges(nodeID)
	if err != nil {
		return CouplingMetrics{}, nil, nil, err
	}

	dependents := make([]types.NodeId, len(incoming))
	for i, rel := range incoming {
		dependents[i] = rel.From
	}
	var dependencies []types.NodeId
	for _, rel := range outgoing {
		if rel.To.Weak {
			continue
		}
		dependencies = append(dependencies, rel.To.Resolved)
	}

	ca, ce := len(dependents), len(dependencies)
	var instability float64
	if ca+ce > 0 {
		instability = float64(ce) / float64(ca+ce)
	}

	metrics := CouplingMetrics{Ca: ca, Ce: ce, I: instability, Category: categorize(instability)}
	return metrics, dependents, dependencies, nil
}

// HubNode is one result of GetHubNodes: a node whose total degree meets
// the configured threshold, with a per-edge-type degree breakdown.
type HubNode struct {
	NodeId      types.NodeId
	TotalDegree int
	InByType    map[string]int
	OutByType   map[string]int
}

// allNodesSource is the wider interface GetHubNodes needs beyond
// graphSource: it must enumerate every node in the graph, which
// per-node traversal primitives never require.
type allNodesSource interface {
	graphSource
	AllNodeIds() ([]types.NodeId, error)
}

// GetHubNodes returns every node with Ca + Ce >= minDegree, sorted by
// total degree descending, each with its per-edge-type in/out degree
// breakdown (spec §4.6 and the get_hub_nodes query surface in §6).
func GetHubNodes(g allNodesSource, minDegree int) ([]HubNode, error) {
	ids, err := g.AllNodeIds()
	if err != nil {
		return nil, err
	}

	var hubs []HubNode
	for _, id := range ids {
		incoming, err := g.GetIncomingEdges(id)
		if err != nil {
			return nil, err
		}
		outgoing, err := g.GetOutgoingEdges(id)
		if err != nil {
			return nil, err
		}
		total := len(incoming) + len(outgoing)
		if total < minDegree {
			continue
		}

		inByType := map[string]int{}
		for _, rel := range incoming {
			inByType[rel.EdgeType.String()]++
		}
		outByType := map[string]int{}
		for _, rel := range outgoing {
			outByType[rel.EdgeType.String()]++
		}
		hubs = append(hubs, HubNode{NodeId: id, TotalDegree: total, InByType: inByType, OutByType: outByType})
	}

	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].TotalDegree != hubs[j].TotalDegree {
			return hubs[i].TotalDegree > hubs[j].TotalDegree
		}
		return hubs[i].NodeId.String() < hubs[j].NodeId.String()
	})
	return hubs, nil
}
