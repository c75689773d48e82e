package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/graphloom/codegraph/pkg/cache"
	"github.com/graphloom/codegraph/pkg/embedding"
	"github.com/graphloom/codegraph/pkg/packed"
	"github.com/graphloom/codegraph/pkg/types"
)

// Store is the public vector-index surface of spec §4.4: it owns the
// dense vector matrix, the chosen ANN structure, advisory clustering,
// and the query-result cache sitting in front of all of it.
type Store struct {
	mu       sync.RWMutex
	kind     Kind
	dim      int
	index    annIndex
	clusters *clusterer
	nodes    map[types.NodeId]types.CodeNode
	cache    *cache.QueryResultCache
	embedder embedding.Provider
}

// NewStore constructs an empty Store of the given ANN kind and
// dimensionality. embedder may be nil if SearchByText will never be
// called.
func NewStore(kind Kind, dim int, embedder embedding.Provider) *Store {
	return &Store{
		kind:     kind,
		dim:      dim,
		index:    newANNIndex(kind, dim),
		clusters: newClusterer(DefaultSearchConfig().ClusterThreshold),
		nodes:    make(map[types.NodeId]types.CodeNode),
		cache:    cache.NewQueryResultCache(1024),
		embedder: embedder,
	}
}

func newANNIndex(kind Kind, dim int) annIndex {
	switch kind {
	case KindHNSW:
		return newHNSWIndex(defaultHNSWConfig())
	case KindIVF:
		return newIVFIndex(0.7)
	case KindLSH:
		return newLSHIndex(dim, 16)
	default:
		return newFlatIndex()
	}
}

// BuildIndices populates the dense vector matrix and ANN structure
// from scratch, discarding whatever was indexed before. Per spec
// §4.4's caching rule, a rebuild invalidates the query-result cache.
func (s *Store) BuildIndices(nodes []types.CodeNode, embeddings map[types.NodeId][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = newANNIndex(s.kind, s.dim)
	s.clusters.reset()
	s.nodes = make(map[types.NodeId]types.CodeNode, len(nodes))
	s.cache.Clear()

	for _, n := range nodes {
		s.nodes[n.Id] = n
		vec, ok := embeddings[n.Id]
		if !ok {
			continue
		}
		s.index.add(n.Id, vec)
		s.clusters.assign(n.Id, normalize(vec))
	}
	return nil
}

// AddNode indexes a single node's embedding, for incremental ingestion
// without a full rebuild. The query cache is left alone: a cache hit
// still reflects an older index state until the caller rebuilds, per
// spec §4.4 ("invalidated on index rebuild" — not on incremental add).
func (s *Store) AddNode(node types.CodeNode, vec []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.Id] = node
	s.index.add(node.Id, vec)
	s.clusters.assign(node.Id, normalize(vec))
}

func (s *Store) RemoveNode(id types.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
	s.index.remove(id)
}

// queryHash implements spec §4.4's QueryHash(embedding, k, config).
func queryHash(vec []float32, cfg SearchConfig) uint64 {
	buf := make([]byte, 0, len(vec)*4+32)
	for _, v := range vec {
		bits := math.Float32bits(v)
		buf = append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	buf = appendFloat(buf, float64(cfg.K))
	buf = appendFloat(buf, cfg.PrecisionRecallTradeoff)
	buf = appendFloat(buf, cfg.ContextWeight)
	buf = appendFloat(buf, cfg.LanguageBoost)
	buf = appendFloat(buf, cfg.TypeBoost)
	if cfg.EnableClustering {
		buf = append(buf, 1)
	}
	return packed.NewCompactCacheKey(buf, packed.CacheQuery).Hash
}

// SingleSimilaritySearch runs one query against the index, consulting
// the query-result cache first (spec §4.4).
func (s *Store) SingleSimilaritySearch(ctx context.Context, query []float32, cfg SearchConfig) ([]ScoredResult, error) {
	if cfg.K == 0 {
		return nil, nil
	}
	if cfg.K < 0 {
		cfg.K = DefaultSearchConfig().K
	}
	key := queryHash(query, cfg)

	s.mu.RLock()
	if cached, ok := s.cache.Get(key); ok {
		results := s.rehydrate(cached, cfg)
		s.mu.RUnlock()
		return results, nil
	}
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	raw := s.index.search(query, cfg.K, cfg.PrecisionRecallTradeoff)
	results := make([]ScoredResult, 0, len(raw))
	for _, n := range raw {
		node, ok := s.nodes[n.id]
		cand := candidateContext{}
		if ok {
			cand = candidateContext{language: node.Language, nodeType: node.NodeType}
		}
		score := finalScore(n.score, n.id, cand, cfg)
		var clusterID *int
		if cfg.EnableClustering {
			if id, ok := s.clusterIDOf(n.id); ok {
				clusterID = &id
			}
		}
		results = append(results, ScoredResult{NodeId: n.id, FinalScore: score, RawDistance: 1 - n.score, ClusterId: clusterID})
	}
	s.mu.RUnlock()

	sortResults(results)
	s.cacheResults(key, results)
	return results, nil
}

func (s *Store) clusterIDOf(id types.NodeId) (int, bool) {
	s.clusters.mu.RLock()
	defer s.clusters.mu.RUnlock()
	for _, cl := range s.clusters.clusters {
		for _, m := range cl.members {
			if m == id {
				return cl.id, true
			}
		}
	}
	return 0, false
}

func (s *Store) cacheResults(key uint64, results []ScoredResult) {
	ids := make([]types.NodeId, len(results))
	scores := make([]float32, len(results))
	for i, r := range results {
		ids[i] = r.NodeId
		scores[i] = float32(r.FinalScore)
	}
	s.cache.Put(key, cache.QueryResult{NodeIds: ids, Scores: scores})
}

// rehydrate turns a cached (NodeId, score) pair list back into
// ScoredResults using current node metadata, per spec §4.4.
func (s *Store) rehydrate(cached cache.QueryResult, cfg SearchConfig) []ScoredResult {
	results := make([]ScoredResult, 0, len(cached.NodeIds))
	for i, id := range cached.NodeIds {
		if _, ok := s.nodes[id]; !ok {
			continue
		}
		var clusterID *int
		if cfg.EnableClustering {
			if cid, ok := s.clusterIDOf(id); ok {
				clusterID = &cid
			}
		}
		results = append(results, ScoredResult{NodeId: id, FinalScore: float64(cached.Scores[i]), ClusterId: clusterID})
	}
	return results
}

func sortResults(results []ScoredResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].NodeId.String() < results[j].NodeId.String()
	})
}

// ParallelSimilaritySearch runs queries concurrently, bounded by
// cfg.MaxParallelQueries, preserving per-query result order (spec
// §4.4).
func (s *Store) ParallelSimilaritySearch(ctx context.Context, queries [][]float32, cfg SearchConfig) ([][]ScoredResult, error) {
	cfgs := make([]SearchConfig, len(queries))
	for i := range cfgs {
		cfgs[i] = cfg
	}
	return s.parallelSearchWithConfigs(ctx, queries, cfgs)
}

// BatchSearchSimilarFunctions uses each node's own embedding as the
// query, filtered to Function node_type, per spec §4.4. Each query
// inherits its source node's language/type so language_boost/type_boost
// reward candidates that match the function being searched from.
func (s *Store) BatchSearchSimilarFunctions(ctx context.Context, nodes []types.CodeNode, embeddings map[types.NodeId][]float32, cfg SearchConfig) ([][]ScoredResult, error) {
	var queries [][]float32
	var cfgs []SearchConfig
	for _, n := range nodes {
		if n.NodeType != types.FunctionNode {
			continue
		}
		vec, ok := embeddings[n.Id]
		if !ok {
			continue
		}
		queryCfg := cfg
		queryCfg.QueryLanguage = n.Language
		queryCfg.HasQueryLanguage = true
		queryCfg.QueryNodeType = n.NodeType
		queryCfg.HasQueryNodeType = true
		queries = append(queries, vec)
		cfgs = append(cfgs, queryCfg)
	}
	return s.parallelSearchWithConfigs(ctx, queries, cfgs)
}

// parallelSearchWithConfigs bounds concurrent ANN queries with a
// weighted semaphore and joins them with an errgroup, per spec §5's
// "parallel search join": the group cancels every in-flight query's
// shared context as soon as one fails, rather than draining a channel
// of already-started results.
func (s *Store) parallelSearchWithConfigs(ctx context.Context, queries [][]float32, cfgs []SearchConfig) ([][]ScoredResult, error) {
	limit := int64(DefaultSearchConfig().MaxParallelQueries)
	if len(cfgs) > 0 && cfgs[0].MaxParallelQueries > 0 {
		limit = int64(cfgs[0].MaxParallelQueries)
	}

	results := make([][]ScoredResult, len(queries))
	sem := semaphore.NewWeighted(limit)
	g, gctx := errgroup.WithContext(ctx)

	for i, q := range queries {
		i, q, cfg := i, q, cfgs[i]
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			r, err := s.SingleSimilaritySearch(gctx, q, cfg)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *Store) SearchByEmbedding(ctx context.Context, vec []float32, k int) ([]ScoredResult, error) {
	cfg := DefaultSearchConfig()
	cfg.K = k
	return s.SingleSimilaritySearch(ctx, vec, cfg)
}

// SearchByText embeds text with s.embedder, then searches. Requires a
// non-nil embedder.
func (s *Store) SearchByText(ctx context.Context, text string, k int) ([]ScoredResult, error) {
	if s.embedder == nil {
		return nil, types.New(types.KindInvalidArgument, "vector store has no embedding provider configured for text search")
	}
	node := types.CodeNode{Content: &text}
	vec, err := s.embedder.GenerateEmbedding(ctx, node)
	if err != nil {
		return nil, err
	}
	return s.SearchByEmbedding(ctx, vec, k)
}

func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.size()
}

// CacheStats reports the query-result cache's hit ratio, for callers
// wiring cache-hit-ratio metrics (spec §2's observability surface).
func (s *Store) CacheStats() cache.Stats {
	return s.cache.Stats()
}
