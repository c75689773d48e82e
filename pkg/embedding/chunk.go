package embedding

import (
	"math"
	"strings"

	"github.com/graphloom/codegraph/pkg/types"
)

// chunkText splits text into whitespace-bounded chunks no longer than
// maxTokens, where a token is approximated as one whitespace-delimited
// word. No tokenizer library appears anywhere in the corpus (see
// DESIGN.md), so this heuristic stands in for a real BPE/WordPiece
// count; it only needs to keep individual requests under a provider's
// input limit, not match token counts exactly.
func chunkText(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	for start := 0; start < len(words); start += maxTokens {
		end := start + maxTokens
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// reassemble combines a node's per-chunk embeddings into one vector by
// length-weighted average (chunks contribute proportionally to their
// word count) followed by L2 normalization, per spec §4.3.
func reassemble(embeddings [][]float32, weights []int) []float32 {
	if len(embeddings) == 0 {
		return nil
	}
	if len(embeddings) == 1 {
		return l2Normalize(embeddings[0])
	}

	dims := len(embeddings[0])
	out := make([]float32, dims)
	totalWeight := 0.0
	for i, emb := range embeddings {
		w := float64(weights[i])
		if w <= 0 {
			w = 1
		}
		totalWeight += w
		for d := 0; d < dims && d < len(emb); d++ {
			out[d] += float32(w) * emb[d]
		}
	}
	if totalWeight > 0 {
		for d := range out {
			out[d] = out[d] / float32(totalWeight)
		}
	}
	return l2Normalize(out)
}

func l2Normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSquares))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// chunkPlan is one node's ingestion text broken into provider-sized
// pieces, retaining enough bookkeeping to reassemble the per-node
// embedding once every chunk across every node has been embedded.
type chunkPlan struct {
	node    int // index into the original nodes slice
	chunks  []string
	weights []int
}

// planChunks builds a chunkPlan per node and returns the flattened list
// of chunk texts in submission order alongside an index telling which
// plan each flattened entry belongs to (a plan's chunks appear in
// order).
func planChunks(nodes []types.CodeNode, maxTokensPerRequest int) ([]chunkPlan, []string, []int) {
	plans := make([]chunkPlan, len(nodes))
	var flatTexts []string
	var flatPlan []int

	for i, n := range nodes {
		text := n.IngestionText()
		chunks := chunkText(text, maxTokensPerRequest)
		weights := make([]int, len(chunks))
		for j, c := range chunks {
			weights[j] = len(strings.Fields(c))
		}
		plans[i] = chunkPlan{node: i, chunks: chunks, weights: weights}
		for _, c := range chunks {
			flatTexts = append(flatTexts, c)
			flatPlan = append(flatPlan, i)
		}
	}
	return plans, flatTexts, flatPlan
}

// assembleFromFlat reassembles per-node embeddings from a flat list of
// chunk embeddings produced in the same order planChunks emitted their
// texts.
func assembleFromFlat(plans []chunkPlan, flatPlan []int, flatEmbeddings [][]float32) [][]float32 {
	perNode := make([][][]float32, len(plans))
	for i, planIdx := range flatPlan {
		perNode[planIdx] = append(perNode[planIdx], flatEmbeddings[i])
	}

	out := make([][]float32, len(plans))
	for i, plan := range plans {
		out[i] = reassemble(perNode[i], plan.weights)
	}
	return out
}
