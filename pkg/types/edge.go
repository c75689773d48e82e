package types

import "strings"

// EdgeType is the closed-with-open-extension set of relationship kinds
// between two nodes (spec §3).
type EdgeType struct {
	kind edgeTypeKind
	tag  string
}

type edgeTypeKind uint8

const (
	EdgeCalls edgeTypeKind = iota
	EdgeImports
	EdgeUses
	EdgeExtends
	EdgeImplements
	EdgeReferences
	EdgeContains
	EdgeDefines
	edgeOther
)

var edgeTypeNames = map[edgeTypeKind]string{
	EdgeCalls:      "Calls",
	EdgeImports:    "Imports",
	EdgeUses:       "Uses",
	EdgeExtends:    "Extends",
	EdgeImplements: "Implements",
	EdgeReferences: "References",
	EdgeContains:   "Contains",
	EdgeDefines:    "Defines",
}

func newEdgeType(k edgeTypeKind) EdgeType { return EdgeType{kind: k} }

var (
	Calls      = newEdgeType(EdgeCalls)
	Imports    = newEdgeType(EdgeImports)
	Uses       = newEdgeType(EdgeUses)
	Extends    = newEdgeType(EdgeExtends)
	Implements = newEdgeType(EdgeImplements)
	References = newEdgeType(EdgeReferences)
	Contains   = newEdgeType(EdgeContains)
	Defines    = newEdgeType(EdgeDefines)
)

// OtherEdgeType constructs the open-extension variant, e.g. the
// enrichment pass's Other("exports") edge (spec §4.7).
func OtherEdgeType(tag string) EdgeType { return EdgeType{kind: edgeOther, tag: tag} }

func (t EdgeType) String() string {
	if t.kind == edgeOther {
		return "Other(" + t.tag + ")"
	}
	return edgeTypeNames[t.kind]
}

// Byte returns a single-byte discriminant suitable for KV key packing
// (edges_out/edges_in column families key on (node, edge type, node)).
// Other variants all pack to the same byte; the graph store's edge keys
// still disambiguate them by appending the tag after the packed triple,
// since Other edge types are expected to be rare extension points
// rather than a hot path.
func (t EdgeType) Byte() byte {
	if t.kind == edgeOther {
		return 0xFF
	}
	return byte(t.kind)
}

func (t EdgeType) IsOther() (string, bool) { return t.tag, t.kind == edgeOther }

// MarshalText renders EdgeType as its String() form for JSON round-trips.
func (t EdgeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText parses EdgeType's String() form back into a value.
func (t *EdgeType) UnmarshalText(text []byte) error {
	s := string(text)
	for k, name := range edgeTypeNames {
		if name == s {
			*t = EdgeType{kind: k}
			return nil
		}
	}
	if tag, ok := strings.CutPrefix(s, "Other("); ok {
		*t = OtherEdgeType(strings.TrimSuffix(tag, ")"))
		return nil
	}
	*t = OtherEdgeType(s)
	return nil
}

// EdgeTarget is either a resolved NodeId (a "strong" edge) or an
// unresolved symbolic name pending link resolution (a "weak" edge),
// per spec §3.
type EdgeTarget struct {
	Resolved NodeId
	Symbol   string
	Weak     bool
}

// ResolvedTarget wraps a known NodeId as a strong edge target.
func ResolvedTarget(id NodeId) EdgeTarget { return EdgeTarget{Resolved: id} }

// SymbolicTarget wraps an unresolved symbol name as a weak edge target.
func SymbolicTarget(symbol string) EdgeTarget { return EdgeTarget{Symbol: symbol, Weak: true} }

// EdgeRelationship is a directed, typed connection between two nodes,
// optionally carrying the source span where it was observed.
type EdgeRelationship struct {
	From     NodeId            `json:"from"`
	To       EdgeTarget        `json:"to"`
	EdgeType EdgeType          `json:"edgeType"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Span     *Location         `json:"span,omitempty"`
}
