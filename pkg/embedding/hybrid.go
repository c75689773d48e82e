package embedding

import (
	"context"
	"sync"

	"github.com/graphloom/codegraph/pkg/types"
)

// Strategy selects how Hybrid falls back across its configured
// providers, per spec §4.3.
type Strategy int

const (
	// Sequential tries the primary provider, then each fallback in
	// order, stopping at the first success.
	Sequential Strategy = iota
	// FastestFirst runs every available provider concurrently and
	// returns whichever succeeds first; the rest are cancelled.
	FastestFirst
)

// Hybrid composes a primary provider with ordered fallbacks, grounded
// on `pkg/embed/auto_embed.go`'s worker-pool/semaphore concurrency
// shape, generalized from "fan out identical work" to "race distinct
// providers for the first success."
type Hybrid struct {
	Primary   Provider
	Fallbacks []Provider
	Strategy  Strategy
}

// NewHybrid constructs a Hybrid pipeline over primary and its ordered
// fallbacks.
func NewHybrid(strategy Strategy, primary Provider, fallbacks ...Provider) *Hybrid {
	return &Hybrid{Primary: primary, Fallbacks: fallbacks, Strategy: strategy}
}

func (h *Hybrid) providers() []Provider {
	return append([]Provider{h.Primary}, h.Fallbacks...)
}

func (h *Hybrid) Name() string { return "hybrid:" + h.Primary.Name() }

func (h *Hybrid) EmbeddingDimension() int { return h.Primary.EmbeddingDimension() }

func (h *Hybrid) Characteristics() Characteristics {
	return h.Primary.Characteristics()
}

// IsAvailable reports whether at least one provider in the pipeline is
// available; the pipeline as a whole refuses to start only when every
// provider is down, per spec §4.3's availability rule.
func (h *Hybrid) IsAvailable(ctx context.Context) bool {
	for _, p := range h.providers() {
		if p.IsAvailable(ctx) {
			return true
		}
	}
	return false
}

func (h *Hybrid) GenerateEmbedding(ctx context.Context, node types.CodeNode) ([]float32, error) {
	vecs, _, err := h.GenerateEmbeddingsWithConfig(ctx, []types.CodeNode{node}, DefaultBatchConfig())
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, types.New(types.KindInternal, "no embedding produced")
	}
	return vecs[0], nil
}

func (h *Hybrid) GenerateEmbeddings(ctx context.Context, nodes []types.CodeNode) ([][]float32, error) {
	vecs, _, err := h.GenerateEmbeddingsWithConfig(ctx, nodes, DefaultBatchConfig())
	return vecs, err
}

func (h *Hybrid) GenerateEmbeddingsWithConfig(ctx context.Context, nodes []types.CodeNode, cfg BatchConfig) ([][]float32, Metrics, error) {
	switch h.Strategy {
	case FastestFirst:
		return h.fastestFirst(ctx, nodes, cfg)
	default:
		return h.sequential(ctx, nodes, cfg)
	}
}

// sequential tries each provider in order, stopping at the first
// success. Each attempt gets the full context; a provider's own
// per-request timeout (if any) bounds how long a failing provider can
// block the next attempt.
func (h *Hybrid) sequential(ctx context.Context, nodes []types.CodeNode, cfg BatchConfig) ([][]float32, Metrics, error) {
	var lastErr error
	for _, p := range h.providers() {
		if !p.IsAvailable(ctx) {
			continue
		}
		vecs, metrics, err := p.GenerateEmbeddingsWithConfig(ctx, nodes, cfg)
		if err == nil {
			return vecs, metrics, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, Metrics{}, types.ErrNoProvider
	}
	return nil, Metrics{}, types.Wrap(types.KindUnavailable, lastErr, "all embedding providers failed")
}

type hybridResult struct {
	vecs    [][]float32
	metrics Metrics
	err     error
}

// fastestFirst races every available provider concurrently and commits
// to the first success, cancelling the rest cooperatively at their next
// request-boundary check (spec §4.3: "cancellation is cooperative at
// the request boundary").
func (h *Hybrid) fastestFirst(parent context.Context, nodes []types.CodeNode, cfg BatchConfig) ([][]float32, Metrics, error) {
	available := make([]Provider, 0, len(h.providers()))
	for _, p := range h.providers() {
		if p.IsAvailable(parent) {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		return nil, Metrics{}, types.ErrNoProvider
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	results := make(chan hybridResult, len(available))
	var wg sync.WaitGroup
	for _, p := range available {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			vecs, metrics, err := p.GenerateEmbeddingsWithConfig(ctx, nodes, cfg)
			select {
			case results <- hybridResult{vecs: vecs, metrics: metrics, err: err}:
			case <-ctx.Done():
			}
		}(p)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for r := range results {
		if r.err == nil {
			cancel()
			return r.vecs, r.metrics, nil
		}
		lastErr = r.err
	}
	if lastErr == nil {
		lastErr = types.ErrNoProvider
	}
	return nil, Metrics{}, types.Wrap(types.KindUnavailable, lastErr, "all embedding providers failed")
}
