package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphloom/codegraph/pkg/types"
)

func enrichID(n string) types.NodeId {
	return types.NewNodeId(n, types.Location{FilePath: "a.go"}, n)
}

// fakeStore is an in-memory Store test double.
type fakeStore struct {
	nodes map[types.NodeId]types.CodeNode
	out   map[types.NodeId][]types.EdgeRelationship
	in    map[types.NodeId][]types.EdgeRelationship
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nodes: map[types.NodeId]types.CodeNode{},
		out:   map[types.NodeId][]types.EdgeRelationship{},
		in:    map[types.NodeId][]types.EdgeRelationship{},
	}
}

func (f *fakeStore) put(n types.CodeNode) { f.nodes[n.Id] = n }

func (f *fakeStore) GetNode(id types.NodeId) (types.CodeNode, error) {
	n, ok := f.nodes[id]
	if !ok {
		return types.CodeNode{}, types.New(types.KindNotFound, "no node %s", id)
	}
	return n, nil
}

func (f *fakeStore) UpdateNode(node types.CodeNode) error {
	f.nodes[node.Id] = node
	return nil
}

func (f *fakeStore) GetOutgoingEdges(id types.NodeId) ([]types.EdgeRelationship, error) {
	return f.out[id], nil
}

func (f *fakeStore) GetIncomingEdges(id types.NodeId) ([]types.EdgeRelationship, error) {
	return f.in[id], nil
}

func (f *fakeStore) addEdge(rel types.EdgeRelationship) {
	f.out[rel.From] = append(f.out[rel.From], rel)
	f.in[rel.To.Resolved] = append(f.in[rel.To.Resolved], rel)
}

func (f *fakeStore) CreateEdge(rel types.EdgeRelationship) error {
	f.addEdge(rel)
	return nil
}

func (f *fakeStore) DeleteEdge(from types.NodeId, edgeType types.EdgeType, to types.NodeId) error {
	filter := func(rels []types.EdgeRelationship) []types.EdgeRelationship {
		var kept []types.EdgeRelationship
		for _, r := range rels {
			if r.From == from && r.EdgeType == edgeType && !r.To.Weak && r.To.Resolved == to {
				continue
			}
			kept = append(kept, r)
		}
		return kept
	}
	f.out[from] = filter(f.out[from])
	f.in[to] = filter(f.in[to])
	return nil
}

func strPtr(s string) *string { return &s }

func TestEnrichAttachesDocFromLeadingComment(t *testing.T) {
	store := newFakeStore()
	id := enrichID("DoThing")
	content := "// DoThing performs the thing.\n// It is idempotent.\nfunc DoThing() {}"
	store.put(types.CodeNode{Id: id, Name: "DoThing", NodeType: types.FunctionNode, Language: types.GoLang, Content: strPtr(content)})

	stats, err := Enrich(store, []types.NodeId{id})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocsAttached)

	node, _ := store.GetNode(id)
	doc, ok := node.Metadata.Attr("doc")
	require.True(t, ok)
	assert.Equal(t, "DoThing performs the thing.\nIt is idempotent.", doc)
}

func TestEnrichSkipsDocForNonDocumentableType(t *testing.T) {
	store := newFakeStore()
	id := enrichID("x")
	store.put(types.CodeNode{Id: id, Name: "x", NodeType: types.VariableNode, Language: types.GoLang, Content: strPtr("// comment\nvar x int")})

	stats, err := Enrich(store, []types.NodeId{id})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocsAttached)
}

func TestEnrichTagsGoVisibilityByCapitalization(t *testing.T) {
	store := newFakeStore()
	pub, priv := enrichID("Public"), enrichID("private")
	store.put(types.CodeNode{Id: pub, Name: "Public", NodeType: types.FunctionNode, Language: types.GoLang})
	store.put(types.CodeNode{Id: priv, Name: "private", NodeType: types.FunctionNode, Language: types.GoLang})

	_, err := Enrich(store, []types.NodeId{pub, priv})
	require.NoError(t, err)

	pubNode, _ := store.GetNode(pub)
	v, _ := pubNode.Metadata.Attr("api_visibility")
	assert.Equal(t, visibilityPublic, v)

	privNode, _ := store.GetNode(priv)
	v, _ = privNode.Metadata.Attr("api_visibility")
	assert.Equal(t, visibilityPrivate, v)
}

func TestEnrichAddsExportsEdgeForPublicPackageMember(t *testing.T) {
	store := newFakeStore()
	pkg, fn := enrichID("pkg"), enrichID("Exported")
	store.put(types.CodeNode{Id: pkg, Name: "pkg", NodeType: types.ModuleNode, Language: types.GoLang})
	store.put(types.CodeNode{Id: fn, Name: "Exported", NodeType: types.FunctionNode, Language: types.GoLang})
	store.addEdge(types.EdgeRelationship{From: pkg, To: types.ResolvedTarget(fn), EdgeType: types.Contains})

	stats, err := Enrich(store, []types.NodeId{fn})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ExportsEdgesAdded)

	out, _ := store.GetOutgoingEdges(pkg)
	require.Len(t, out, 2) // the original Contains edge plus the new exports edge
	found := false
	for _, rel := range out {
		if tag, ok := rel.EdgeType.IsOther(); ok && tag == "exports" {
			found = true
			assert.Equal(t, fn, rel.To.Resolved)
		}
	}
	assert.True(t, found)
}

func TestEnrichDoesNotDuplicateExportsEdge(t *testing.T) {
	store := newFakeStore()
	pkg, fn := enrichID("pkg"), enrichID("Exported")
	store.put(types.CodeNode{Id: pkg, Name: "pkg", NodeType: types.ModuleNode, Language: types.GoLang})
	store.put(types.CodeNode{Id: fn, Name: "Exported", NodeType: types.FunctionNode, Language: types.GoLang})
	store.addEdge(types.EdgeRelationship{From: pkg, To: types.ResolvedTarget(fn), EdgeType: types.Contains})
	store.addEdge(types.EdgeRelationship{From: pkg, To: types.ResolvedTarget(fn), EdgeType: types.OtherEdgeType("exports")})

	stats, err := Enrich(store, []types.NodeId{fn})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ExportsEdgesAdded)
}

func TestEnrichPromotesConfirmedReferenceToUses(t *testing.T) {
	store := newFakeStore()
	a, b := enrichID("a"), enrichID("b")
	store.put(types.CodeNode{Id: a, Name: "a", NodeType: types.FunctionNode, Language: types.GoLang})
	store.put(types.CodeNode{Id: b, Name: "b", NodeType: types.FunctionNode, Language: types.GoLang})
	store.addEdge(types.EdgeRelationship{From: a, To: types.ResolvedTarget(b), EdgeType: types.References, Metadata: map[string]string{"resolves_definition": "true"}})

	stats, err := Enrich(store, []types.NodeId{a})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ReferencesPromoted)

	out, _ := store.GetOutgoingEdges(a)
	require.Len(t, out, 1)
	assert.Equal(t, types.Uses, out[0].EdgeType)
}

func TestEnrichLeavesUnconfirmedReferenceAlone(t *testing.T) {
	store := newFakeStore()
	a, b := enrichID("a"), enrichID("b")
	store.put(types.CodeNode{Id: a, Name: "a", NodeType: types.FunctionNode, Language: types.GoLang})
	store.put(types.CodeNode{Id: b, Name: "b", NodeType: types.FunctionNode, Language: types.GoLang})
	store.addEdge(types.EdgeRelationship{From: a, To: types.ResolvedTarget(b), EdgeType: types.References})

	stats, err := Enrich(store, []types.NodeId{a})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ReferencesPromoted)

	out, _ := store.GetOutgoingEdges(a)
	require.Len(t, out, 1)
	assert.Equal(t, types.References, out[0].EdgeType)
}

func TestEnrichCountsPackageLevelSCC(t *testing.T) {
	store := newFakeStore()
	pkgA, pkgB := enrichID("pkgA"), enrichID("pkgB")
	fnA, fnB := enrichID("fnA"), enrichID("fnB")
	store.put(types.CodeNode{Id: pkgA, Name: "pkgA", NodeType: types.ModuleNode, Language: types.GoLang})
	store.put(types.CodeNode{Id: pkgB, Name: "pkgB", NodeType: types.ModuleNode, Language: types.GoLang})
	store.put(types.CodeNode{Id: fnA, Name: "FnA", NodeType: types.FunctionNode, Language: types.GoLang})
	store.put(types.CodeNode{Id: fnB, Name: "FnB", NodeType: types.FunctionNode, Language: types.GoLang})
	store.addEdge(types.EdgeRelationship{From: pkgA, To: types.ResolvedTarget(fnA), EdgeType: types.Contains})
	store.addEdge(types.EdgeRelationship{From: pkgB, To: types.ResolvedTarget(fnB), EdgeType: types.Contains})
	store.addEdge(types.EdgeRelationship{From: fnA, To: types.ResolvedTarget(fnB), EdgeType: types.Calls})
	store.addEdge(types.EdgeRelationship{From: fnB, To: types.ResolvedTarget(fnA), EdgeType: types.Calls})

	stats, err := Enrich(store, []types.NodeId{fnA, fnB})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PackageSCCs)
}

func TestClassifyVisibilityHonorsRawExtractorCue(t *testing.T) {
	node := types.CodeNode{Name: "anything", Language: types.Rust, Metadata: types.NodeMetadata{Attributes: map[string]string{"visibility": "pub"}}}
	assert.Equal(t, visibilityPublic, classifyVisibility(node))

	node.Metadata.Attributes["visibility"] = "private"
	assert.Equal(t, visibilityPrivate, classifyVisibility(node))
}

func TestClassifyVisibilityPythonUnderscoreConvention(t *testing.T) {
	assert.Equal(t, visibilityPrivate, classifyVisibility(types.CodeNode{Name: "_hidden", Language: types.Python}))
	assert.Equal(t, visibilityPublic, classifyVisibility(types.CodeNode{Name: "visible", Language: types.Python}))
}

func TestExtractDocStopsAtFirstNonCommentLine(t *testing.T) {
	content := "// first\n// second\n\nfunc F() {}"
	doc, ok := extractDoc(content, "Go")
	require.True(t, ok)
	assert.Equal(t, "first\nsecond", doc)
}

func TestExtractDocReturnsFalseWithoutLeadingComment(t *testing.T) {
	_, ok := extractDoc("func F() {}", "Go")
	assert.False(t, ok)
}

func TestExtractBlockDocSingleLine(t *testing.T) {
	content := "/** Does a thing. */\nvoid f() {}"
	doc, ok := extractDoc(content, "Cpp")
	require.True(t, ok)
	assert.Equal(t, "Does a thing.", doc)
}

func TestExtractBlockDocMultiLine(t *testing.T) {
	content := "/**\n * Does a thing.\n * Twice.\n */\nvoid f() {}"
	doc, ok := extractDoc(content, "Cpp")
	require.True(t, ok)
	assert.Equal(t, "Does a thing.\nTwice.", doc)
}
