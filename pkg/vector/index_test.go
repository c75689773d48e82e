package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphloom/codegraph/pkg/embedding"
	"github.com/graphloom/codegraph/pkg/types"
)

// fakeEmbedder is a deterministic, network-free embedding.Provider
// stand-in: every node's vector is derived from the byte length of its
// content so distinct texts embed distinctly.
type fakeEmbedder struct {
	dim int
}

func (f *fakeEmbedder) Name() string           { return "fake" }
func (f *fakeEmbedder) EmbeddingDimension() int { return f.dim }
func (f *fakeEmbedder) IsAvailable(context.Context) bool { return true }
func (f *fakeEmbedder) Characteristics() embedding.Characteristics {
	return embedding.Characteristics{SupportsBatch: true, MaxBatchSize: 32}
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, node types.CodeNode) ([]float32, error) {
	text := node.Name
	if node.Content != nil {
		text = *node.Content
	}
	vec := make([]float32, f.dim)
	vec[0] = float32(len(text) + 1)
	return vec, nil
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, nodes []types.CodeNode) ([][]float32, error) {
	out := make([][]float32, len(nodes))
	for i, n := range nodes {
		v, err := f.GenerateEmbedding(ctx, n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) GenerateEmbeddingsWithConfig(ctx context.Context, nodes []types.CodeNode, _ embedding.BatchConfig) ([][]float32, embedding.Metrics, error) {
	vecs, err := f.GenerateEmbeddings(ctx, nodes)
	return vecs, embedding.Metrics{}, err
}

func nodeFor(name string, lang types.Language, nt types.NodeType) types.CodeNode {
	return types.CodeNode{
		Id:       idFor(name),
		Name:     name,
		Language: lang,
		NodeType: nt,
		Location: types.Location{FilePath: name + ".go"},
	}
}

func TestStoreBuildIndicesAndSearch(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	nodes := []types.CodeNode{
		nodeFor("alpha", types.GoLang, types.FunctionNode),
		nodeFor("beta", types.Rust, types.StructNode),
	}
	embeddings := map[types.NodeId][]float32{
		nodes[0].Id: {1, 0, 0},
		nodes[1].Id: {0, 1, 0},
	}
	require.NoError(t, s.BuildIndices(nodes, embeddings))

	results, err := s.SingleSimilaritySearch(context.Background(), []float32{1, 0, 0}, DefaultSearchConfig())
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, nodes[0].Id, results[0].NodeId)
}

func TestStoreSearchWithZeroKReturnsEmptyWithoutConsultingIndex(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	node := nodeFor("alpha", types.GoLang, types.FunctionNode)
	require.NoError(t, s.BuildIndices([]types.CodeNode{node}, map[types.NodeId][]float32{node.Id: {1, 0, 0}}))

	cfg := DefaultSearchConfig()
	cfg.K = 0
	results, err := s.SingleSimilaritySearch(context.Background(), []float32{1, 0, 0}, cfg)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStoreSearchAppliesLanguageBoost(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	nodes := []types.CodeNode{
		nodeFor("go-fn", types.GoLang, types.FunctionNode),
		nodeFor("rust-fn", types.Rust, types.FunctionNode),
	}
	embeddings := map[types.NodeId][]float32{
		nodes[0].Id: {1, 0, 0},
		nodes[1].Id: {1, 0.001, 0},
	}
	require.NoError(t, s.BuildIndices(nodes, embeddings))

	cfg := DefaultSearchConfig()
	cfg.QueryLanguage = types.Rust
	cfg.HasQueryLanguage = true
	cfg.LanguageBoost = 10.0

	results, err := s.SingleSimilaritySearch(context.Background(), []float32{1, 0, 0}, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, nodes[1].Id, results[0].NodeId, "rust candidate should outrank a closer but non-matching-language candidate")
}

func TestStoreSearchCachesResults(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	node := nodeFor("alpha", types.GoLang, types.FunctionNode)
	require.NoError(t, s.BuildIndices([]types.CodeNode{node}, map[types.NodeId][]float32{node.Id: {1, 0, 0}}))

	cfg := DefaultSearchConfig()
	first, err := s.SingleSimilaritySearch(context.Background(), []float32{1, 0, 0}, cfg)
	require.NoError(t, err)

	key := queryHash([]float32{1, 0, 0}, cfg)
	_, ok := s.cache.Get(key)
	assert.True(t, ok, "search should populate the query cache")

	second, err := s.SingleSimilaritySearch(context.Background(), []float32{1, 0, 0}, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStoreBuildIndicesInvalidatesCache(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	node := nodeFor("alpha", types.GoLang, types.FunctionNode)
	require.NoError(t, s.BuildIndices([]types.CodeNode{node}, map[types.NodeId][]float32{node.Id: {1, 0, 0}}))

	cfg := DefaultSearchConfig()
	_, err := s.SingleSimilaritySearch(context.Background(), []float32{1, 0, 0}, cfg)
	require.NoError(t, err)

	require.NoError(t, s.BuildIndices([]types.CodeNode{node}, map[types.NodeId][]float32{node.Id: {1, 0, 0}}))
	key := queryHash([]float32{1, 0, 0}, cfg)
	_, ok := s.cache.Get(key)
	assert.False(t, ok, "a rebuild should clear the query cache")
}

func TestStoreAddNodeDoesNotInvalidateCache(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	node := nodeFor("alpha", types.GoLang, types.FunctionNode)
	require.NoError(t, s.BuildIndices([]types.CodeNode{node}, map[types.NodeId][]float32{node.Id: {1, 0, 0}}))

	cfg := DefaultSearchConfig()
	_, err := s.SingleSimilaritySearch(context.Background(), []float32{1, 0, 0}, cfg)
	require.NoError(t, err)

	s.AddNode(nodeFor("beta", types.GoLang, types.FunctionNode), []float32{0, 1, 0})

	key := queryHash([]float32{1, 0, 0}, cfg)
	_, ok := s.cache.Get(key)
	assert.True(t, ok, "incremental AddNode should leave the query cache untouched")
}

func TestStoreRemoveNode(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	node := nodeFor("alpha", types.GoLang, types.FunctionNode)
	require.NoError(t, s.BuildIndices([]types.CodeNode{node}, map[types.NodeId][]float32{node.Id: {1, 0, 0}}))
	s.RemoveNode(node.Id)
	assert.Equal(t, 0, s.Size())
}

func TestStoreParallelSimilaritySearchPreservesOrder(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	a := nodeFor("a", types.GoLang, types.FunctionNode)
	b := nodeFor("b", types.GoLang, types.FunctionNode)
	require.NoError(t, s.BuildIndices([]types.CodeNode{a, b}, map[types.NodeId][]float32{
		a.Id: {1, 0, 0},
		b.Id: {0, 1, 0},
	}))

	queries := [][]float32{{1, 0, 0}, {0, 1, 0}}
	results, err := s.ParallelSimilaritySearch(context.Background(), queries, DefaultSearchConfig())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, a.Id, results[0][0].NodeId)
	assert.Equal(t, b.Id, results[1][0].NodeId)
}

func TestStoreBatchSearchSimilarFunctionsFiltersByNodeType(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	fn := nodeFor("fn", types.GoLang, types.FunctionNode)
	st := nodeFor("st", types.GoLang, types.StructNode)
	embeddings := map[types.NodeId][]float32{
		fn.Id: {1, 0, 0},
		st.Id: {0, 1, 0},
	}
	require.NoError(t, s.BuildIndices([]types.CodeNode{fn, st}, embeddings))

	results, err := s.BatchSearchSimilarFunctions(context.Background(), []types.CodeNode{fn, st}, embeddings, DefaultSearchConfig())
	require.NoError(t, err)
	assert.Len(t, results, 1, "only the function node should seed a query")
}

func TestStoreSearchByTextRequiresEmbedder(t *testing.T) {
	s := NewStore(KindFlat, 3, nil)
	_, err := s.SearchByText(context.Background(), "hello", 5)
	assert.Error(t, err)
}

func TestStoreSearchByTextUsesEmbedder(t *testing.T) {
	s := NewStore(KindFlat, 3, &fakeEmbedder{dim: 3})
	node := nodeFor("alpha", types.GoLang, types.FunctionNode)
	content := "hi"
	node.Content = &content
	vec, err := (&fakeEmbedder{dim: 3}).GenerateEmbedding(context.Background(), node)
	require.NoError(t, err)
	require.NoError(t, s.BuildIndices([]types.CodeNode{node}, map[types.NodeId][]float32{node.Id: vec}))

	results, err := s.SearchByText(context.Background(), "hi", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, node.Id, results[0].NodeId)
}
