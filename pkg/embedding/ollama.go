package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/graphloom/codegraph/pkg/types"
)

// OllamaConfig configures a local Ollama embedding endpoint. Defaults
// mirror `pkg/embed.DefaultOllamaConfig`, swapped to nomic-embed-code
// per `original_source/ollama_embedding_provider.rs`'s code-specialized
// default model.
type OllamaConfig struct {
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
	BatchSize  int

	// RequestsPerSecond bounds how often embedTexts may hit the
	// endpoint, per spec §5's backpressure requirement. Zero selects
	// the default rate; a negative value disables limiting.
	RequestsPerSecond float64
}

// DefaultOllamaConfig returns the nomic-embed-code-over-localhost
// configuration used when no override is supplied.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL:           "http://localhost:11434",
		Model:             "nomic-embed-code",
		Dimensions:        1024,
		Timeout:           60 * time.Second,
		BatchSize:         32,
		RequestsPerSecond: 10,
	}
}

// OllamaProvider embeds code nodes via a local Ollama server's /api/embed
// endpoint, grounded on `pkg/embed.OllamaEmbedder` and the batch-request
// shape from `original_source/ollama_embedding_provider.rs`.
type OllamaProvider struct {
	config  OllamaConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewOllamaProvider constructs a provider against cfg, applying
// DefaultOllamaConfig for any zero-valued fields.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaConfig().BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaConfig().Model
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultOllamaConfig().Dimensions
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOllamaConfig().Timeout
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultOllamaConfig().BatchSize
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultOllamaConfig().RequestsPerSecond
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &OllamaProvider{config: cfg, client: &http.Client{Timeout: cfg.Timeout}, limiter: limiter}
}

func (p *OllamaProvider) Name() string { return "ollama:" + p.config.Model }

func (p *OllamaProvider) EmbeddingDimension() int { return p.config.Dimensions }

func (p *OllamaProvider) Characteristics() Characteristics {
	return Characteristics{SupportsBatch: true, MaxBatchSize: p.config.BatchSize, AvgLatencyMs: 200}
}

// IsAvailable probes Ollama's /api/tags endpoint and checks the
// configured model is installed, per the health-probe requirement of
// spec §4.3 (providers must refuse to be used when unavailable).
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var body struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	want := strings.ToLower(p.config.Model)
	for _, m := range body.Models {
		name := strings.ToLower(m.Name)
		if name == want || strings.Contains(name, want) {
			return true
		}
	}
	return false
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *OllamaProvider) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, types.Wrap(types.KindCancelled, err, "rate limit wait")
		}
	}
	body, err := json.Marshal(ollamaEmbedRequest{Model: p.config.Model, Input: texts})
	if err != nil {
		return nil, types.Wrap(types.KindInvalidArgument, err, "encode ollama embed request")
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + "/api/embed"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "build ollama embed request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.Wrap(types.KindUnavailable, err, "ollama embed request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, types.New(types.KindUnavailable, "ollama returned %d: %s", resp.StatusCode, errBody)
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.Wrap(types.KindInternal, err, "decode ollama embed response")
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, types.New(types.KindInternal, "ollama returned %d embeddings for %d inputs", len(parsed.Embeddings), len(texts))
	}
	return parsed.Embeddings, nil
}

func (p *OllamaProvider) GenerateEmbedding(ctx context.Context, node types.CodeNode) ([]float32, error) {
	vecs, _, err := p.GenerateEmbeddingsWithConfig(ctx, []types.CodeNode{node}, DefaultBatchConfig())
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, types.New(types.KindInternal, "no embedding produced")
	}
	return vecs[0], nil
}

func (p *OllamaProvider) GenerateEmbeddings(ctx context.Context, nodes []types.CodeNode) ([][]float32, error) {
	vecs, _, err := p.GenerateEmbeddingsWithConfig(ctx, nodes, BatchConfig{MaxBatchSize: p.config.BatchSize, MaxTokensPerRequest: DefaultBatchConfig().MaxTokensPerRequest})
	return vecs, err
}

func (p *OllamaProvider) GenerateEmbeddingsWithConfig(ctx context.Context, nodes []types.CodeNode, cfg BatchConfig) ([][]float32, Metrics, error) {
	return generateWithConfig(ctx, p.Name(), nodes, cfg, p.embedTexts)
}

// generateWithConfig is the shared chunk/batch/reassemble driver behind
// every HTTP-backed provider: plan per-node chunks, submit them to
// embed in provider-sized batches, then fold the flat results back into
// one vector per input node.
func generateWithConfig(
	ctx context.Context,
	providerName string,
	nodes []types.CodeNode,
	cfg BatchConfig,
	embedTexts func(context.Context, []string) ([][]float32, error),
) ([][]float32, Metrics, error) {
	start := time.Now()
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultBatchConfig().MaxBatchSize
	}
	if cfg.MaxTokensPerRequest <= 0 {
		cfg.MaxTokensPerRequest = DefaultBatchConfig().MaxTokensPerRequest
	}

	plans, flatTexts, flatPlan := planChunks(nodes, cfg.MaxTokensPerRequest)

	flatEmbeddings := make([][]float32, 0, len(flatTexts))
	for i := 0; i < len(flatTexts); i += cfg.MaxBatchSize {
		end := i + cfg.MaxBatchSize
		if end > len(flatTexts) {
			end = len(flatTexts)
		}
		batch, err := embedTexts(ctx, flatTexts[i:end])
		if err != nil {
			return nil, Metrics{}, err
		}
		flatEmbeddings = append(flatEmbeddings, batch...)
	}

	elapsed := time.Since(start)
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(len(nodes)) / elapsed.Seconds()
	}
	metrics := Metrics{
		ProviderName:   providerName,
		TextsProcessed: len(nodes),
		Duration:       elapsed,
		Throughput:     throughput,
	}
	return assembleFromFlat(plans, flatPlan, flatEmbeddings), metrics, nil
}
