package graph

import (
	"github.com/graphloom/codegraph/pkg/cache"
	"github.com/graphloom/codegraph/pkg/kv"
	"github.com/graphloom/codegraph/pkg/types"
)

// defaultTraversalCacheSize follows the teacher's GlobalQueryCache
// default of 1000 entries (see pkg/cache's specialized caches).
const defaultTraversalCacheSize = 1000

// Store is the versioned, transactional code graph: node/edge storage
// backed by pkg/kv, plus the version/branch/tag metadata layered on top
// of it. It corresponds to nornicdb's db.go facade, narrowed to the
// graph-store concerns the spec names (query planning, Cypher, and
// transport all live in collaborators the graph package doesn't know
// about). neighbors and paths are memoized in front of the kv lookups
// they would otherwise repeat on every hop of a traversal.
type Store struct {
	kv *kv.Store

	neighborCache *cache.NeighborCache
	pathCache     *cache.PathCache
}

// Open wraps an already-open kv.Store as a graph Store.
func Open(store *kv.Store) *Store {
	return &Store{
		kv:            store,
		neighborCache: cache.NewNeighborCache(defaultTraversalCacheSize),
		pathCache:     cache.NewPathCache(defaultTraversalCacheSize),
	}
}

// Close releases the underlying kv.Store.
func (s *Store) Close() error { return s.kv.Close() }

// CacheStats reports the neighbor and path cache hit ratios, for
// callers wiring this into observability.
func (s *Store) CacheStats() (neighbors, paths cache.Stats) {
	return s.neighborCache.Stats(), s.pathCache.Stats()
}

// invalidateAdjacency drops id's cached neighbor set and the entire
// path cache: a single edge or node mutation can change which nodes lie
// on any previously-cached shortest path, so path entries are
// invalidated coarsely rather than tracked per affected pair.
func (s *Store) invalidateAdjacency(id types.NodeId) {
	s.neighborCache.Remove(id)
	s.pathCache.Clear()
}
