// Package embedding generates dense vector embeddings for code nodes,
// polymorphic over local and remote providers, with token-budget
// chunking and a hybrid fallback pipeline layered on top.
package embedding

import (
	"context"
	"time"

	"github.com/graphloom/codegraph/pkg/types"
)

// Characteristics describes a provider's operating profile, used by
// provider-selection heuristics in Hybrid and by callers deciding batch
// sizes. Grounded on `pkg/embed/auto_embed.go`'s AutoEmbedConfig sizing
// knobs, generalized into a per-provider self-description instead of a
// single global worker-pool config.
type Characteristics struct {
	SupportsBatch bool
	MaxBatchSize  int
	AvgLatencyMs  int64
}

// BatchConfig bounds a single embedding request: how many chunks may be
// sent in one call, and how large the text fed to the provider per
// chunk may get before the chunker splits it further.
type BatchConfig struct {
	MaxBatchSize        int
	MaxTokensPerRequest int
}

// DefaultBatchConfig mirrors the teacher's Ollama default batch size of
// 32 (`pkg/embed/auto_embed.go`'s DefaultAutoEmbedConfig), with a token
// budget generous enough for a few hundred lines of source per chunk.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{MaxBatchSize: 32, MaxTokensPerRequest: 2000}
}

// Metrics reports what one GenerateEmbeddingsWithConfig call did, fed
// back into provider-selection heuristics the way the teacher's
// AutoEmbedder.Stats() feeds manual tuning.
type Metrics struct {
	ProviderName   string
	TextsProcessed int
	Duration       time.Duration
	Throughput     float64 // texts per second
}

// Provider is the polymorphic embedding capability set: implementations
// back local ONNX-style models, Ollama, OpenAI, OpenAI-compatible
// endpoints, or a Hybrid pipeline over several of the above.
// Implementations must be safe for concurrent use, matching
// `pkg/embed.Embedder`'s contract.
type Provider interface {
	GenerateEmbedding(ctx context.Context, node types.CodeNode) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, nodes []types.CodeNode) ([][]float32, error)
	GenerateEmbeddingsWithConfig(ctx context.Context, nodes []types.CodeNode, cfg BatchConfig) ([][]float32, Metrics, error)
	EmbeddingDimension() int
	IsAvailable(ctx context.Context) bool
	Characteristics() Characteristics
	Name() string
}
