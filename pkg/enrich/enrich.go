// Package enrich runs the post-extraction enrichment pass of spec §4.7:
// it attaches doc comments and visibility tags to nodes, links public
// symbols to their owning package, promotes confirmed References edges
// to Uses, and counts package-level strongly connected components as an
// ingestion-stats signal. It never changes node identity and runs once
// per ingestion batch, after the extractor's nodes and edges have
// already landed in the graph store.
//
// Grounded on `pkg/inference`'s role as the teacher's own
// post-ingestion enrichment pass (it also runs "once you have a node,
// derive more structure from it"): this package keeps that same
// single-entrypoint, stats-returning shape (`EdgeSuggestion` there,
// `Stats` here) but replaces similarity/co-access/temporal heuristics
// with the deterministic rules spec §4.7 requires.
package enrich

import (
	"time"

	"github.com/graphloom/codegraph/pkg/analysis"
	"github.com/graphloom/codegraph/pkg/types"
)

// Store is the slice of pkg/graph.Store's API this pass needs.
type Store interface {
	GetNode(id types.NodeId) (types.CodeNode, error)
	UpdateNode(node types.CodeNode) error
	GetOutgoingEdges(id types.NodeId) ([]types.EdgeRelationship, error)
	GetIncomingEdges(id types.NodeId) ([]types.EdgeRelationship, error)
	CreateEdge(rel types.EdgeRelationship) error
	DeleteEdge(from types.NodeId, edgeType types.EdgeType, to types.NodeId) error
}

// Stats summarizes one enrichment pass, surfaced in ingestion stats.
type Stats struct {
	DocsAttached       int
	VisibilityTagged   int
	ExportsEdgesAdded  int
	ReferencesPromoted int
	PackageSCCs        int
}

const (
	attrDoc            = "doc"
	attrVisibility     = "api_visibility"
	visibilityPublic   = "public"
	visibilityPrivate  = "private"
	exportsEdgeTag     = "exports"
	metaResolvesDefKey = "resolves_definition"
)

var documentableTypes = map[string]bool{
	types.FunctionNode.String(): true,
	types.ClassNode.String():    true,
	types.StructNode.String():   true,
}

// Enrich runs the full pass over the given set of freshly-ingested node
// ids, mutating the store in place, and returns a summary of what it
// did.
func Enrich(store Store, nodeIDs []types.NodeId) (Stats, error) {
	var stats Stats
	packageOf := make(map[types.NodeId]types.NodeId, len(nodeIDs))

	for _, id := range nodeIDs {
		node, err := store.GetNode(id)
		if err != nil {
			return stats, err
		}

		changed := false
		if documentableTypes[node.NodeType.String()] && node.Content != nil {
			if doc, ok := extractDoc(*node.Content, node.Language.String()); ok {
				setAttr(&node, attrDoc, doc)
				changed = true
				stats.DocsAttached++
			}
		}

		visibility := classifyVisibility(node)
		if cur, _ := node.Metadata.Attr(attrVisibility); cur != visibility {
			setAttr(&node, attrVisibility, visibility)
			changed = true
			stats.VisibilityTagged++
		}

		if changed {
			node.Metadata.UpdatedAt = time.Now()
			if err := store.UpdateNode(node); err != nil {
				return stats, err
			}
		}

		pkg, err := packageNode(store, id)
		if err != nil {
			return stats, err
		}
		if !pkg.IsNil() {
			packageOf[id] = pkg
			if visibility == visibilityPublic {
				added, err := addExportsEdge(store, pkg, id)
				if err != nil {
					return stats, err
				}
				if added {
					stats.ExportsEdgesAdded++
				}
			}
		}

		promoted, err := promoteReferences(store, id)
		if err != nil {
			return stats, err
		}
		stats.ReferencesPromoted += promoted
	}

	sccs, err := countPackageSCCs(store, packageOf)
	if err != nil {
		return stats, err
	}
	stats.PackageSCCs = sccs

	return stats, nil
}

func setAttr(node *types.CodeNode, key, value string) {
	if node.Metadata.Attributes == nil {
		node.Metadata.Attributes = map[string]string{}
	}
	node.Metadata.Attributes[key] = value
}

// packageNode finds id's owning package/module via an incoming Contains
// edge — the extractor links a module node to its members with Contains
// (spec §3's edge type table), so the Contains predecessor is id's
// package.
func packageNode(store Store, id types.NodeId) (types.NodeId, error) {
	incoming, err := store.GetIncomingEdges(id)
	if err != nil {
		return types.NilNodeId, err
	}
	for _, rel := range incoming {
		if rel.EdgeType == types.Contains {
			return rel.From, nil
		}
	}
	return types.NilNodeId, nil
}

// addExportsEdge adds Other("exports") from pkg to id unless it already
// exists, returning whether it added one.
func addExportsEdge(store Store, pkg, id types.NodeId) (bool, error) {
	existing, err := store.GetOutgoingEdges(pkg)
	if err != nil {
		return false, err
	}
	exportsType := types.OtherEdgeType(exportsEdgeTag)
	for _, rel := range existing {
		if rel.EdgeType == exportsType && !rel.To.Weak && rel.To.Resolved == id {
			return false, nil
		}
	}
	rel := types.EdgeRelationship{From: pkg, To: types.ResolvedTarget(id), EdgeType: exportsType}
	if err := store.CreateEdge(rel); err != nil {
		return false, err
	}
	return true, nil
}

// promoteReferences upgrades id's outgoing References edges to Uses
// when the extractor's edge metadata confirms the reference resolves
// to a definition (spec §4.7).
func promoteReferences(store Store, id types.NodeId) (int, error) {
	outgoing, err := store.GetOutgoingEdges(id)
	if err != nil {
		return 0, err
	}
	promoted := 0
	for _, rel := range outgoing {
		if rel.EdgeType != types.References {
			continue
		}
		if rel.Metadata[metaResolvesDefKey] != "true" {
			continue
		}
		if rel.To.Weak {
			continue
		}
		if err := store.DeleteEdge(rel.From, rel.EdgeType, rel.To.Resolved); err != nil {
			return promoted, err
		}
		rel.EdgeType = types.Uses
		if err := store.CreateEdge(rel); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

// countPackageSCCs projects member-level edges up to the package graph
// (an edge between any two members of different packages becomes an
// edge between those packages) and counts strongly connected components
// of size >= 2 in it, reusing pkg/analysis's Tarjan implementation
// rather than a second one scoped to this package.
func countPackageSCCs(store Store, packageOf map[types.NodeId]types.NodeId) (int, error) {
	if len(packageOf) == 0 {
		return 0, nil
	}

	pg := newPackageGraph()
	seen := map[types.NodeId]bool{}
	var roots []types.NodeId

	for member, pkg := range packageOf {
		if !seen[pkg] {
			seen[pkg] = true
			roots = append(roots, pkg)
		}
		outgoing, err := store.GetOutgoingEdges(member)
		if err != nil {
			return 0, err
		}
		for _, rel := range outgoing {
			if rel.To.Weak {
				continue
			}
			otherPkg, ok := packageOf[rel.To.Resolved]
			if !ok || otherPkg == pkg {
				continue
			}
			pg.addEdge(pkg, otherPkg)
		}
	}

	cycles, err := analysis.DetectCircularDependencies(pg, packageEdgeType, roots)
	if err != nil {
		return 0, err
	}
	return len(cycles), nil
}

var packageEdgeType = types.Imports

type packageGraph struct {
	out map[types.NodeId][]types.EdgeRelationship
}

func newPackageGraph() *packageGraph {
	return &packageGraph{out: map[types.NodeId][]types.EdgeRelationship{}}
}

func (p *packageGraph) addEdge(from, to types.NodeId) {
	for _, rel := range p.out[from] {
		if !rel.To.Weak && rel.To.Resolved == to {
			return
		}
	}
	p.out[from] = append(p.out[from], types.EdgeRelationship{From: from, EdgeType: packageEdgeType, To: types.ResolvedTarget(to)})
}

func (p *packageGraph) GetOutgoingEdges(id types.NodeId) ([]types.EdgeRelationship, error) {
	return p.out[id], nil
}

func (p *packageGraph) GetIncomingEdges(id types.NodeId) ([]types.EdgeRelationship, error) {
	var in []types.EdgeRelationship
	for _, rels := range p.out {
		for _, rel := range rels {
			if !rel.To.Weak && rel.To.Resolved == id {
				in = append(in, rel)
			}
		}
	}
	return in, nil
}
