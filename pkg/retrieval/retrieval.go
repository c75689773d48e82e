// Package retrieval composes pkg/vector's semantic search and reranker
// with pkg/analysis's graph-analysis primitives into the public query
// surface of spec §6, plus the context builder of spec §4.5/SPEC_FULL
// §4.9 that packs a composed result into a single bounded string for a
// downstream LLM.
package retrieval

import (
	"context"
	"sort"

	"github.com/graphloom/codegraph/pkg/analysis"
	"github.com/graphloom/codegraph/pkg/types"
	"github.com/graphloom/codegraph/pkg/vector"
)

// GraphStore is the slice of pkg/graph.Store's API the retrieval layer
// needs: node hydration for query results plus every edge accessor
// pkg/analysis's graphSource/allNodesSource interfaces require.
type GraphStore interface {
	GetNode(id types.NodeId) (types.CodeNode, error)
	GetOutgoingEdges(id types.NodeId) ([]types.EdgeRelationship, error)
	GetIncomingEdges(id types.NodeId) ([]types.EdgeRelationship, error)
	AllNodeIds() ([]types.NodeId, error)
}

// VectorStore is the slice of pkg/vector.Store's API the retrieval
// layer needs for semantic search.
type VectorStore interface {
	SearchByText(ctx context.Context, text string, k int) ([]vector.ScoredResult, error)
}

// Engine composes the graph store, vector store, and reranker into the
// transport-agnostic public query surface of spec §6.
type Engine struct {
	graph    GraphStore
	vecs     VectorStore
	reranker *vector.Reranker
}

// New builds an Engine. reranker may be nil, in which case
// SemanticCodeSearch and AnswerQuestion skip reranking and return the
// vector store's raw ranking.
func New(graph GraphStore, vecs VectorStore, reranker *vector.Reranker) *Engine {
	return &Engine{graph: graph, vecs: vecs, reranker: reranker}
}

// NodeInfo is the hydrated node shape every query-surface operation
// returns alongside its own result fields (spec §6's "node_info").
type NodeInfo struct {
	Id       types.NodeId
	Name     string
	NodeType string
	Language string
	FilePath string
	Line     uint32
}

func nodeInfo(n types.CodeNode) NodeInfo {
	return NodeInfo{
		Id:       n.Id,
		Name:     n.Name,
		NodeType: n.NodeType.String(),
		Language: n.Language.String(),
		FilePath: n.Location.FilePath,
		Line:     n.Location.Line,
	}
}

func (e *Engine) hydrate(id types.NodeId) (NodeInfo, error) {
	node, err := e.graph.GetNode(id)
	if err != nil {
		return NodeInfo{}, err
	}
	return nodeInfo(node), nil
}

// SearchHit is one result of SemanticCodeSearch: a hydrated node plus
// its similarity score.
type SearchHit struct {
	Node       NodeInfo
	Similarity float64
}

// SemanticCodeSearch runs query through the vector store and hydrates
// the top results against the graph store (spec §6's
// `semantic_code_search`). limit and threshold bound and filter the
// raw ANN results; threshold <= 0 disables filtering.
func (e *Engine) SemanticCodeSearch(ctx context.Context, query string, limit int, threshold float64) ([]SearchHit, error) {
	raw, err := e.vecs.SearchByText(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, 0, len(raw))
	for _, r := range raw {
		if threshold > 0 && r.FinalScore < threshold {
			continue
		}
		info, err := e.hydrate(r.NodeId)
		if err != nil {
			continue
		}
		hits = append(hits, SearchHit{Node: info, Similarity: r.FinalScore})
	}
	return hits, nil
}

// AnswerQuestion runs SemanticCodeSearch, hydrates full candidate nodes,
// and reranks them through the Engine's Reranker, returning the
// reranked results ready for a context builder. It is a no-op pass
// through to plain similarity order when the Engine has no reranker.
func (e *Engine) AnswerQuestion(ctx context.Context, question string, candidateLimit int) ([]vector.RerankedResult, vector.ReRankingMetrics, error) {
	raw, err := e.vecs.SearchByText(ctx, question, candidateLimit)
	if err != nil {
		return nil, vector.ReRankingMetrics{}, err
	}
	nodes := make([]types.CodeNode, 0, len(raw))
	for _, r := range raw {
		node, err := e.graph.GetNode(r.NodeId)
		if err != nil {
			continue
		}
		nodes = append(nodes, node)
	}
	if e.reranker == nil {
		results := make([]vector.RerankedResult, len(nodes))
		for i, n := range nodes {
			node := n
			results[i] = vector.RerankedResult{NodeId: n.Id, Node: &node, OriginalRank: i, RerankedPosition: i}
		}
		return results, vector.ReRankingMetrics{TotalCandidates: len(nodes)}, nil
	}
	return e.reranker.Rerank(ctx, question, nodes)
}

// DependencyResult is one hit of GetTransitiveDependencies/
// GetReverseDependencies.
type DependencyResult struct {
	Node  NodeInfo
	Depth int
}

// GetTransitiveDependencies wraps pkg/analysis.TransitiveDependencies,
// hydrating each hit's node info (spec §6).
func (e *Engine) GetTransitiveDependencies(nodeID types.NodeId, edgeType types.EdgeType, depth int) ([]DependencyResult, error) {
	hits, err := analysis.TransitiveDependencies(e.graph, nodeID, edgeType, depth)
	if err != nil {
		return nil, err
	}
	return e.hydrateDependencyHits(hits)
}

// GetReverseDependencies wraps pkg/analysis.ReverseDependencies.
func (e *Engine) GetReverseDependencies(nodeID types.NodeId, edgeType types.EdgeType, depth int) ([]DependencyResult, error) {
	hits, err := analysis.ReverseDependencies(e.graph, nodeID, edgeType, depth)
	if err != nil {
		return nil, err
	}
	return e.hydrateDependencyHits(hits)
}

func (e *Engine) hydrateDependencyHits(hits []analysis.DependencyHit) ([]DependencyResult, error) {
	out := make([]DependencyResult, 0, len(hits))
	for _, h := range hits {
		info, err := e.hydrate(h.NodeId)
		if err != nil {
			return nil, err
		}
		out = append(out, DependencyResult{Node: info, Depth: h.Depth})
	}
	return out, nil
}

// CycleResult is one detected cycle, its members hydrated in witness
// order.
type CycleResult struct {
	Nodes []NodeInfo
}

// DetectCircularDependencies wraps pkg/analysis.DetectCircularDependencies
// over every node currently in the graph, hydrating each cycle's witness
// path.
func (e *Engine) DetectCircularDependencies(edgeType types.EdgeType) ([]CycleResult, error) {
	ids, err := e.graph.AllNodeIds()
	if err != nil {
		return nil, err
	}
	cycles, err := analysis.DetectCircularDependencies(e.graph, edgeType, ids)
	if err != nil {
		return nil, err
	}
	out := make([]CycleResult, 0, len(cycles))
	for _, c := range cycles {
		nodes := make([]NodeInfo, 0, len(c.Witness))
		for _, id := range c.Witness {
			info, err := e.hydrate(id)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, info)
		}
		out = append(out, CycleResult{Nodes: nodes})
	}
	return out, nil
}

// CallChainResult is one hit of TraceCallChain, with the calling node
// hydrated when present.
type CallChainResult struct {
	Node     NodeInfo
	Depth    int
	CalledBy *NodeInfo
}

// TraceCallChain wraps pkg/analysis.TraceCallChain.
func (e *Engine) TraceCallChain(fromNode types.NodeId, maxDepth int) ([]CallChainResult, error) {
	hits, err := analysis.TraceCallChain(e.graph, fromNode, maxDepth)
	if err != nil {
		return nil, err
	}
	out := make([]CallChainResult, 0, len(hits))
	for _, h := range hits {
		info, err := e.hydrate(h.NodeId)
		if err != nil {
			return nil, err
		}
		res := CallChainResult{Node: info, Depth: h.Depth}
		if h.CalledBy != nil {
			callerInfo, err := e.hydrate(*h.CalledBy)
			if err != nil {
				return nil, err
			}
			res.CalledBy = &callerInfo
		}
		out = append(out, res)
	}
	return out, nil
}

// CouplingResult is calculate_coupling_metrics's output shape.
type CouplingResult struct {
	Node         NodeInfo
	Metrics      analysis.CouplingMetrics
	Dependents   []NodeInfo
	Dependencies []NodeInfo
}

// CalculateCouplingMetrics wraps pkg/analysis.CalculateCouplingMetrics.
func (e *Engine) CalculateCouplingMetrics(nodeID types.NodeId) (CouplingResult, error) {
	metrics, dependents, dependencies, err := analysis.CalculateCouplingMetrics(e.graph, nodeID)
	if err != nil {
		return CouplingResult{}, err
	}
	node, err := e.hydrate(nodeID)
	if err != nil {
		return CouplingResult{}, err
	}
	depNodes, err := e.hydrateAll(dependents)
	if err != nil {
		return CouplingResult{}, err
	}
	useNodes, err := e.hydrateAll(dependencies)
	if err != nil {
		return CouplingResult{}, err
	}
	return CouplingResult{Node: node, Metrics: metrics, Dependents: depNodes, Dependencies: useNodes}, nil
}

func (e *Engine) hydrateAll(ids []types.NodeId) ([]NodeInfo, error) {
	out := make([]NodeInfo, 0, len(ids))
	for _, id := range ids {
		info, err := e.hydrate(id)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// HubResult is get_hub_nodes's output shape.
type HubResult struct {
	Node        NodeInfo
	TotalDegree int
	InByType    map[string]int
	OutByType   map[string]int
}

// GetHubNodes wraps pkg/analysis.GetHubNodes.
func (e *Engine) GetHubNodes(minDegree int) ([]HubResult, error) {
	hubs, err := analysis.GetHubNodes(e.graph, minDegree)
	if err != nil {
		return nil, err
	}
	out := make([]HubResult, 0, len(hubs))
	for _, h := range hubs {
		info, err := e.hydrate(h.NodeId)
		if err != nil {
			return nil, err
		}
		out = append(out, HubResult{Node: info, TotalDegree: h.TotalDegree, InByType: h.InByType, OutByType: h.OutByType})
	}
	// GetHubNodes already sorts by degree; re-sorting here would be
	// redundant, but hydration preserves order since it's a 1:1 map.
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalDegree > out[j].TotalDegree })
	return out, nil
}
