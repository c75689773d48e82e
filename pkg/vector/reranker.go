package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/graphloom/codegraph/pkg/embedding"
	"github.com/graphloom/codegraph/pkg/types"
)

// RerankerConfig tunes the three-stage reranking pipeline of spec §4.5:
// a fast embedding filter, an optional cross-encoder pass, and an
// optional LLM insights stage over whatever survives.
type RerankerConfig struct {
	// Stage 1: embedding-based filter.
	EmbeddingTopK      int
	EmbeddingThreshold float32

	// Stage 2: cross-encoder rerank.
	EnableCrossEncoder    bool
	CrossEncoderTopK      int
	CrossEncoderThreshold float32
	CrossEncoderAPIURL    string
	CrossEncoderAPIKey    string
	CrossEncoderModel     string
	CrossEncoderTimeout   time.Duration

	// Stage 3: LLM insights, off by default for latency.
	EnableLLMInsights bool
	LLMTopK           int

	MaxConcurrentRequests int
}

// DefaultRerankerConfig mirrors the original pipeline's defaults:
// filter to 100 candidates above a 0.3 cosine floor, optionally narrow
// to 20 via cross-encoder above 0.5, and never spend an LLM call unless
// the caller opts in.
func DefaultRerankerConfig() RerankerConfig {
	return RerankerConfig{
		EmbeddingTopK:         100,
		EmbeddingThreshold:    0.3,
		EnableCrossEncoder:    true,
		CrossEncoderTopK:      20,
		CrossEncoderThreshold: 0.5,
		CrossEncoderModel:     "cross-encoder/ms-marco-MiniLM-L-6-v2",
		CrossEncoderTimeout:   30 * time.Second,
		EnableLLMInsights:     false,
		LLMTopK:               10,
		MaxConcurrentRequests: 4,
	}
}

// RerankedResult is one hit out of the pipeline, carrying enough of the
// original node to render a context snippet without a second lookup.
type RerankedResult struct {
	NodeId           types.NodeId
	Node             *types.CodeNode
	RelevanceScore   float32
	OriginalRank     int
	RerankedPosition int
	ContextSnippet   string
}

// ReRankingMetrics reports per-stage timing and reduction, for callers
// that want to surface pipeline health without re-deriving it.
type ReRankingMetrics struct {
	TotalCandidates int
	Stage1Passed    int
	Stage2Passed    int
	LLMProcessed    int
	Stage1Duration  time.Duration
	Stage2Duration  time.Duration
	TotalDuration   time.Duration
	ReductionRatio  float64
}

type scoredCandidate struct {
	id    types.NodeId
	score float32
}

// Reranker runs candidates already retrieved by a Store through the
// embedding and (optionally) cross-encoder stages of spec §4.5.
type Reranker struct {
	cfg      RerankerConfig
	embedder embedding.Provider
	client   *http.Client
}

// NewReranker builds a Reranker. embedder is required for stage 1;
// stage 2 is only reached if cfg.EnableCrossEncoder is set.
func NewReranker(cfg RerankerConfig, embedder embedding.Provider) *Reranker {
	timeout := cfg.CrossEncoderTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Reranker{
		cfg:      cfg,
		embedder: embedder,
		client:   &http.Client{Timeout: timeout},
	}
}

// Rerank runs query against candidates through the pipeline, returning
// the survivors ordered by relevance plus metrics describing how each
// stage narrowed the set.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []types.CodeNode) ([]RerankedResult, ReRankingMetrics, error) {
	metrics := ReRankingMetrics{TotalCandidates: len(candidates)}
	totalStart := time.Now()

	if len(candidates) == 0 {
		return nil, metrics, nil
	}

	byID := make(map[types.NodeId]types.CodeNode, len(candidates))
	originalRank := make(map[types.NodeId]int, len(candidates))
	for i, c := range candidates {
		byID[c.Id] = c
		originalRank[c.Id] = i
	}

	stage1Start := time.Now()
	stage1, err := r.embeddingStage(ctx, query, candidates)
	if err != nil {
		return nil, metrics, fmt.Errorf("embedding rerank stage: %w", err)
	}
	metrics.Stage1Duration = time.Since(stage1Start)
	metrics.Stage1Passed = len(stage1)

	final := stage1
	if r.cfg.EnableCrossEncoder && len(stage1) > 0 {
		stage2Start := time.Now()
		texts := make(map[types.NodeId]string, len(stage1))
		for _, c := range stage1 {
			node := byID[c.id]
			texts[c.id] = rerankText(node)
		}
		stage2, err := r.crossEncoderStage(ctx, query, stage1, texts)
		if err != nil {
			// Fall back to the embedding-stage ranking rather than failing
			// the whole query when the cross-encoder service is down.
			stage2 = stage1
		}
		metrics.Stage2Duration = time.Since(stage2Start)
		metrics.Stage2Passed = len(stage2)
		final = stage2
	}

	results := make([]RerankedResult, 0, len(final))
	for pos, c := range final {
		node, ok := byID[c.id]
		if !ok {
			continue
		}
		nodeCopy := node
		results = append(results, RerankedResult{
			NodeId:           c.id,
			Node:             &nodeCopy,
			RelevanceScore:   c.score,
			OriginalRank:     originalRank[c.id],
			RerankedPosition: pos,
			ContextSnippet:   contextSnippet(node, 200),
		})
	}

	metrics.TotalDuration = time.Since(totalStart)
	if metrics.TotalCandidates > 0 {
		metrics.ReductionRatio = float64(len(results)) / float64(metrics.TotalCandidates)
	}
	return results, metrics, nil
}

// LLMCandidates returns the slice of results eligible for the optional
// stage 3, respecting EnableLLMInsights and LLMTopK. The LLM call
// itself is the caller's concern (spec §4.5 leaves the prompt/model
// choice to the retrieval layer composing this pipeline).
func (r *Reranker) LLMCandidates(results []RerankedResult) []RerankedResult {
	if !r.cfg.EnableLLMInsights {
		return nil
	}
	topK := r.cfg.LLMTopK
	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

func (r *Reranker) embeddingStage(ctx context.Context, query string, candidates []types.CodeNode) ([]scoredCandidate, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("reranker has no embedding provider for stage 1")
	}
	queryNode := types.CodeNode{Content: &query}
	queryVec, err := r.embedder.GenerateEmbedding(ctx, queryNode)
	if err != nil {
		return nil, err
	}
	queryVec = normalize(queryVec)

	texts := make([]types.CodeNode, len(candidates))
	for i, c := range candidates {
		text := rerankText(c)
		texts[i] = types.CodeNode{Content: &text}
	}
	vecs, err := r.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for i, c := range candidates {
		if i >= len(vecs) {
			break
		}
		sim := float32(cosineSimilarity(queryVec, normalize(vecs[i])))
		if sim < r.cfg.EmbeddingThreshold {
			continue
		}
		scored = append(scored, scoredCandidate{id: c.Id, score: sim})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	topK := r.cfg.EmbeddingTopK
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// crossEncoderStage calls out to an external cross-encoder service,
// grounded on the teacher's CrossEncoder HTTP client: the same
// Cohere/HuggingFace-TEI/simple response shapes, the same
// fall-back-to-input-order behavior on error.
func (r *Reranker) crossEncoderStage(ctx context.Context, query string, stage1 []scoredCandidate, texts map[types.NodeId]string) ([]scoredCandidate, error) {
	if r.cfg.CrossEncoderAPIURL == "" {
		return stage1, nil
	}

	documents := make([]string, len(stage1))
	for i, c := range stage1 {
		documents[i] = texts[c.id]
	}

	reqBody := map[string]interface{}{
		"query":     query,
		"documents": documents,
		"model":     r.cfg.CrossEncoderModel,
		"top_n":     len(documents),
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal cross-encoder request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.CrossEncoderAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build cross-encoder request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.CrossEncoderAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.CrossEncoderAPIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cross-encoder API returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Results []struct {
			Index          int     `json:"index"`
			RelevanceScore float32 `json:"relevance_score"`
		} `json:"results"`
		Scores   []float32 `json:"scores"`
		Rankings []struct {
			Index int     `json:"index"`
			Score float32 `json:"score"`
		} `json:"rankings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse cross-encoder response: %w", err)
	}

	scores := make([]float32, len(stage1))
	switch {
	case len(parsed.Results) > 0:
		for _, res := range parsed.Results {
			if res.Index < len(scores) {
				scores[res.Index] = res.RelevanceScore
			}
		}
	case len(parsed.Scores) > 0:
		copy(scores, parsed.Scores)
	case len(parsed.Rankings) > 0:
		for _, rk := range parsed.Rankings {
			if rk.Index < len(scores) {
				scores[rk.Index] = rk.Score
			}
		}
	default:
		return nil, fmt.Errorf("cross-encoder response had no recognizable result field")
	}

	rescored := make([]scoredCandidate, 0, len(stage1))
	for i, c := range stage1 {
		if scores[i] < r.cfg.CrossEncoderThreshold {
			continue
		}
		rescored = append(rescored, scoredCandidate{id: c.id, score: scores[i]})
	}
	sort.Slice(rescored, func(i, j int) bool { return rescored[i].score > rescored[j].score })

	topK := r.cfg.CrossEncoderTopK
	if topK > 0 && len(rescored) > topK {
		rescored = rescored[:topK]
	}
	return rescored, nil
}

func rerankText(n types.CodeNode) string {
	content := ""
	if n.Content != nil {
		content = *n.Content
	}
	return strings.Join([]string{n.Name, content, n.Location.FilePath}, " ")
}

func contextSnippet(n types.CodeNode, maxRunes int) string {
	text := n.Name
	if n.Content != nil && *n.Content != "" {
		text = *n.Content
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}
