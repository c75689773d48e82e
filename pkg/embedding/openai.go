package embedding

import (
	"context"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"golang.org/x/time/rate"

	"github.com/graphloom/codegraph/pkg/types"
)

// OpenAIConfig configures an OpenAI or OpenAI-compatible embeddings
// endpoint. An empty BaseURL uses OpenAI's own API; pointing it
// elsewhere (Azure OpenAI, a self-hosted OpenAI-compatible gateway)
// covers the "OpenAI-compatible endpoints" provider variant of
// spec §4.3 without a separate implementation.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// RequestsPerSecond bounds how often embedTexts may call the
	// endpoint, per spec §5's backpressure requirement. Zero selects
	// the default rate; a negative value disables limiting.
	RequestsPerSecond float64
}

// DefaultOpenAIConfig targets text-embedding-3-small, matching
// `pkg/embed.DefaultOpenAIConfig`.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:            apiKey,
		Model:             oai.EmbeddingModelTextEmbedding3Small,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 20,
	}
}

// OpenAIProvider embeds code nodes via the typed openai-go client,
// grounded on the embeddings provider in
// `MrWong99-glyphoxa/pkg/provider/embeddings/openai/openai.go`.
type OpenAIProvider struct {
	client  oai.Client
	config  OpenAIConfig
	limiter *rate.Limiter
}

// NewOpenAIProvider constructs a provider from cfg. An empty APIKey is
// a configuration error since OpenAI always requires authentication.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, types.New(types.KindInvalidArgument, "openai embedding provider requires an API key")
	}
	if cfg.Model == "" {
		cfg.Model = oai.EmbeddingModelTextEmbedding3Small
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultOpenAIConfig("").RequestsPerSecond
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &OpenAIProvider{client: oai.NewClient(opts...), config: cfg, limiter: limiter}, nil
}

func (p *OpenAIProvider) Name() string { return "openai:" + p.config.Model }

func (p *OpenAIProvider) EmbeddingDimension() int { return openAIModelDimensions(p.config.Model) }

func (p *OpenAIProvider) Characteristics() Characteristics {
	return Characteristics{SupportsBatch: true, MaxBatchSize: 2048, AvgLatencyMs: 250}
}

// IsAvailable makes a minimal single-text embedding call, the cheapest
// request the API offers, as the health probe required by spec §4.3.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := p.embedTexts(ctx, []string{"ping"})
	return err == nil
}

func (p *OpenAIProvider) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, types.Wrap(types.KindCancelled, err, "rate limit wait")
		}
	}
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var input oai.EmbeddingNewParamsInputUnion
	if len(texts) == 1 {
		input = oai.EmbeddingNewParamsInputUnion{OfString: param.NewOpt(texts[0])}
	} else {
		input = oai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts}
	}

	resp, err := p.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Model: p.config.Model,
		Input: input,
	})
	if err != nil {
		return nil, types.Wrap(types.KindUnavailable, err, "openai embeddings request")
	}
	if len(resp.Data) != len(texts) {
		return nil, types.New(types.KindInternal, "openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if int(d.Index) >= len(texts) {
			return nil, types.New(types.KindInternal, "openai returned out-of-range index %d", d.Index)
		}
		out[d.Index] = float64ToFloat32(d.Embedding)
	}
	return out, nil
}

func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, node types.CodeNode) ([]float32, error) {
	vecs, _, err := p.GenerateEmbeddingsWithConfig(ctx, []types.CodeNode{node}, DefaultBatchConfig())
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, types.New(types.KindInternal, "no embedding produced")
	}
	return vecs[0], nil
}

func (p *OpenAIProvider) GenerateEmbeddings(ctx context.Context, nodes []types.CodeNode) ([][]float32, error) {
	vecs, _, err := p.GenerateEmbeddingsWithConfig(ctx, nodes, BatchConfig{MaxBatchSize: 2048, MaxTokensPerRequest: DefaultBatchConfig().MaxTokensPerRequest})
	return vecs, err
}

func (p *OpenAIProvider) GenerateEmbeddingsWithConfig(ctx context.Context, nodes []types.CodeNode, cfg BatchConfig) ([][]float32, Metrics, error) {
	return generateWithConfig(ctx, p.Name(), nodes, cfg, p.embedTexts)
}

func openAIModelDimensions(model string) int {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "text-embedding-3-large"):
		return 3072
	case strings.Contains(lower, "text-embedding-3-small"):
		return 1536
	case strings.Contains(lower, "ada-002"):
		return 1536
	default:
		return 1536
	}
}

func float64ToFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
