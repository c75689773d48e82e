package cache

import (
	"time"

	"github.com/graphloom/codegraph/pkg/types"
)

// Default sizes and TTLs follow the teacher's GlobalQueryCache default
// (1000 entries, 5 minute TTL); each specialized cache below keeps that
// shape but is sized to its own access pattern.

// NeighborCache memoizes a node's direct neighbors, the single hottest
// lookup in any traversal-heavy workload (shortest path, transitive
// deps, and hub detection all re-fetch neighbor sets repeatedly).
type NeighborCache struct {
	*LRU[types.NodeId, []types.NodeId]
}

func NewNeighborCache(maxSize int) *NeighborCache {
	return &NeighborCache{LRU: NewLRU[types.NodeId, []types.NodeId](maxSize, 5*time.Minute)}
}

// pathKey identifies a cached shortest/A* path by its endpoints.
type pathKey struct {
	From, To types.NodeId
}

// PathCache memoizes shortest-path results between two nodes.
type PathCache struct {
	*LRU[pathKey, []types.NodeId]
}

func NewPathCache(maxSize int) *PathCache {
	return &PathCache{LRU: NewLRU[pathKey, []types.NodeId](maxSize, 5*time.Minute)}
}

func (c *PathCache) Key(from, to types.NodeId) pathKey { return pathKey{From: from, To: to} }

// traversalKey identifies a cached multi-hop traversal result (e.g.
// transitive dependency closure) by its root, depth and edge type.
type traversalKey struct {
	Root  types.NodeId
	Depth int
	Edge  types.EdgeType
}

// TraversalCache memoizes bounded-depth traversal results such as
// transitive dependency sets and reverse-dependency sets.
type TraversalCache struct {
	*LRU[traversalKey, []types.NodeId]
}

func NewTraversalCache(maxSize int) *TraversalCache {
	return &TraversalCache{LRU: NewLRU[traversalKey, []types.NodeId](maxSize, 2*time.Minute)}
}

func (c *TraversalCache) Key(root types.NodeId, depth int, edge types.EdgeType) traversalKey {
	return traversalKey{Root: root, Depth: depth, Edge: edge}
}

// EmbeddingCache memoizes a node's embedding vector by its content hash,
// since re-embedding unchanged content on every ingest run is the single
// most expensive avoidable cost in the pipeline (a network round trip or
// GPU inference per node). Its entries live longer (30-minute TTL) than
// the graph caches' since embeddings are the entries worth keeping
// longest; its size is whatever the caller passes.
type EmbeddingCache struct {
	*LRU[types.NodeId, []float32]
}

func NewEmbeddingCache(maxSize int) *EmbeddingCache {
	return &EmbeddingCache{LRU: NewLRU[types.NodeId, []float32](maxSize, 30*time.Minute)}
}

// QueryResult is the cached shape of a completed retrieval query: the
// ranked node ids and the score that produced that ranking, cheap enough
// to keep many of even when individual searches are expensive.
type QueryResult struct {
	NodeIds []types.NodeId
	Scores  []float32
}

// QueryResultCache memoizes full search/retrieval results keyed by a
// caller-supplied cache key (typically a hash of the query text plus its
// filter parameters — see pkg/packed.CompactCacheKey).
type QueryResultCache struct {
	*LRU[uint64, QueryResult]
}

func NewQueryResultCache(maxSize int) *QueryResultCache {
	return &QueryResultCache{LRU: NewLRU[uint64, QueryResult](maxSize, 5*time.Minute)}
}
