// Package codeintel is codegraph's top-level embedded API: it wires
// pkg/kv, pkg/graph, pkg/embedding, pkg/vector, pkg/enrich, and
// pkg/retrieval into one Engine, mirroring the teacher's
// `pkg/nornicdb.DB` facade (a single `Config`/`Open`/`Close` entry
// point coordinating storage, decay, inference, and search) generalized
// to codegraph's ingestion-plus-query shape instead of nornicdb's
// memory-store-plus-decay shape.
package codeintel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/graphloom/codegraph/internal/obslog"
	"github.com/graphloom/codegraph/pkg/embedding"
	"github.com/graphloom/codegraph/pkg/enrich"
	"github.com/graphloom/codegraph/pkg/graph"
	"github.com/graphloom/codegraph/pkg/kv"
	"github.com/graphloom/codegraph/pkg/retrieval"
	"github.com/graphloom/codegraph/pkg/types"
	"github.com/graphloom/codegraph/pkg/vector"
)

// Engine is a thread-safe, opened codegraph instance. All methods are
// safe for concurrent use, matching the teacher's `DB` contract.
type Engine struct {
	mu     sync.RWMutex
	closed bool

	cfg Config
	log *obslog.Logger

	kvStore *kv.Store
	graph   *graph.Store
	vecs    *vector.Store
	embed   embedding.Provider

	reranker  *vector.Reranker
	retrieval *retrieval.Engine

	metrics *metrics
}

// Open builds every component named in cfg and returns a ready-to-use
// Engine. The initialization order mirrors `nornicdb.Open`: storage
// first, then the components layered on top of it.
func Open(cfg Config) (*Engine, error) {
	logger := obslog.New("codeintel")

	kvStore, err := openKV(cfg)
	if err != nil {
		return nil, types.Wrap(types.KindUnavailable, err, "open kv store")
	}

	graphStore := graph.Open(kvStore)

	provider, err := buildEmbeddingProvider(cfg)
	if err != nil {
		kvStore.Close()
		return nil, err
	}

	dim := cfg.VectorDimension
	if dim == 0 {
		dim = provider.EmbeddingDimension()
	}
	vecs := vector.NewStore(vectorKind(cfg.VectorIndexKind), dim, provider)
	reranker := vector.NewReranker(cfg.Reranker, provider)
	retrievalEngine := retrieval.New(graphStore, vecs, reranker)

	e := &Engine{
		cfg:       cfg,
		log:       logger,
		kvStore:   kvStore,
		graph:     graphStore,
		vecs:      vecs,
		embed:     provider,
		reranker:  reranker,
		retrieval: retrievalEngine,
	}

	if cfg.MetricsEnabled {
		m, err := newMetrics()
		if err != nil {
			logger.Warn("metrics disabled: %v", err)
		} else {
			if err := m.registerCacheGauge(vecs.CacheStats); err != nil {
				logger.Warn("cache hit ratio gauge disabled: %v", err)
			}
			e.metrics = m
		}
	}

	logger.Info("opened (data_dir=%q, embedding=%s, vector_index=%s)", cfg.DataDir, provider.Name(), cfg.VectorIndexKind)
	return e, nil
}

func openKV(cfg Config) (*kv.Store, error) {
	if cfg.InMemory || cfg.DataDir == "" {
		return kv.OpenInMemory()
	}
	return kv.Open(kv.Options{DataDir: cfg.DataDir})
}

func vectorKind(kind string) vector.Kind {
	switch kind {
	case string(vector.KindHNSW):
		return vector.KindHNSW
	case string(vector.KindIVF):
		return vector.KindIVF
	case string(vector.KindLSH):
		return vector.KindLSH
	default:
		return vector.KindFlat
	}
}

func buildEmbeddingProvider(cfg Config) (embedding.Provider, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		return embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:  cfg.OpenAIConfig.APIKey,
			BaseURL: cfg.OpenAIConfig.BaseURL,
			Model:   cfg.OpenAIConfig.Model,
		})
	case "hybrid":
		ollama := embedding.NewOllamaProvider(embedding.OllamaConfig{
			BaseURL:    cfg.OllamaConfig.BaseURL,
			Model:      cfg.OllamaConfig.Model,
			Dimensions: cfg.OllamaConfig.Dimensions,
		})
		openai, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:  cfg.OpenAIConfig.APIKey,
			BaseURL: cfg.OpenAIConfig.BaseURL,
			Model:   cfg.OpenAIConfig.Model,
		})
		if err != nil {
			return embedding.NewHybrid(embedding.Sequential, ollama), nil
		}
		strategy := embedding.Sequential
		if cfg.HybridStrategy == "fastest_first" {
			strategy = embedding.FastestFirst
		}
		return embedding.NewHybrid(strategy, ollama, openai), nil
	default:
		return embedding.NewOllamaProvider(embedding.OllamaConfig{
			BaseURL:    cfg.OllamaConfig.BaseURL,
			Model:      cfg.OllamaConfig.Model,
			Dimensions: cfg.OllamaConfig.Dimensions,
		}), nil
	}
}

// Close releases every underlying resource. Safe to call once; a
// second call is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	if e.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.metrics.shutdown(ctx); err != nil {
			e.log.Warn("metrics shutdown: %v", err)
		}
	}
	return e.graph.Close()
}

// Retrieval exposes the composed query surface of spec §6 directly,
// for callers that need more than the convenience wrappers below.
func (e *Engine) Retrieval() *retrieval.Engine { return e.retrieval }

// Graph exposes the underlying versioned graph store for callers that
// need direct CRUD/traversal/version access beyond Ingest.
func (e *Engine) Graph() *graph.Store { return e.graph }

// IngestStats summarizes one Ingest call: how many nodes/edges landed,
// the embedding batch's throughput, and the enrichment pass's findings
// (spec §4.7's "ingestion stats" signal).
type IngestStats struct {
	CorrelationID string
	NodesIngested int
	EdgesIngested int
	Embedding     embedding.Metrics
	Enrich        enrich.Stats
}

// Ingest realizes spec.md's data flow end to end: extractor output
// (nodes plus edges, already produced by an external extractor per
// spec §6's "consumed, not implemented" contract) lands in the graph
// store, gets embedded, is indexed for vector search, and finally runs
// through the enrichment pass.
func (e *Engine) Ingest(ctx context.Context, nodes []types.CodeNode, edges []types.EdgeRelationship) (IngestStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return IngestStats{}, types.New(types.KindInvalidArgument, "engine is closed")
	}

	correlationID := uuid.NewString()
	stats := IngestStats{CorrelationID: correlationID}

	ids := make([]types.NodeId, 0, len(nodes))
	for _, n := range nodes {
		if err := e.graph.CreateNode(n); err != nil {
			if types.KindOf(err) != types.KindConflict {
				return stats, wrapIngest(err, correlationID, "create node %s", n.Id)
			}
			if err := e.graph.UpdateNode(n); err != nil {
				return stats, wrapIngest(err, correlationID, "update node %s", n.Id)
			}
		}
		ids = append(ids, n.Id)
		stats.NodesIngested++
	}

	if len(edges) > 0 {
		if err := e.graph.CreateEdges(edges); err != nil {
			return stats, wrapIngest(err, correlationID, "create edges")
		}
		stats.EdgesIngested = len(edges)
	}

	if len(nodes) > 0 {
		embedCtx, cancel := context.WithTimeout(ctx, e.batchTimeout())
		defer cancel()

		vecs, embedMetrics, err := e.embed.GenerateEmbeddingsWithConfig(embedCtx, nodes, embedding.DefaultBatchConfig())
		if err != nil {
			return stats, wrapIngest(err, correlationID, "generate embeddings")
		}
		stats.Embedding = embedMetrics
		e.metrics.recordEmbeddingThroughput(ctx, embedMetrics.Throughput)

		embeddings := make(map[types.NodeId][]float32, len(vecs))
		for i, n := range nodes {
			if i >= len(vecs) || vecs[i] == nil {
				continue
			}
			n.Embedding = vecs[i]
			embeddings[n.Id] = vecs[i]
			if err := e.graph.UpdateNode(n); err != nil {
				return stats, wrapIngest(err, correlationID, "attach embedding to node %s", n.Id)
			}
		}
		if err := e.vecs.BuildIndices(nodes, embeddings); err != nil {
			return stats, wrapIngest(err, correlationID, "build vector indices")
		}
	}

	enrichStats, err := enrich.Enrich(e.graph, ids)
	if err != nil {
		return stats, wrapIngest(err, correlationID, "enrichment pass")
	}
	stats.Enrich = enrichStats

	e.log.Info("ingest %s: %d nodes, %d edges, %d docs attached, %d package SCCs",
		correlationID, stats.NodesIngested, stats.EdgesIngested, enrichStats.DocsAttached, enrichStats.PackageSCCs)
	return stats, nil
}

func (e *Engine) batchTimeout() time.Duration {
	if e.cfg.BatchTimeout > 0 {
		return e.cfg.BatchTimeout
	}
	return 2 * time.Minute
}

func wrapIngest(err error, correlationID, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	wrapped := types.Wrap(types.KindOf(err), err, "%s", msg)
	return wrapped.WithCorrelationID(correlationID)
}
