// Package graph implements the versioned, transactional code graph store:
// node and edge CRUD, neighbor and path queries, branches/tags/merge, and
// multi-operation transactions with configurable isolation.
package graph

import "github.com/graphloom/codegraph/pkg/types"

// edgeKey packs (from, edgeType, to) into a sortable key for
// kv.CFEdgesOut, mirroring nornicdb's outgoingIndexKey shape
// (nodeID + separator + edgeID) but keying directly on the triple
// instead of a synthetic edge id, since codegraph edges have no
// identity beyond their endpoints and type.
//
// EdgeType.Byte() collapses every Other(tag) variant onto 0xFF, so a
// bare (from, 0xFF, to) key would let two differently-tagged Other
// edges between the same pair of nodes overwrite each other. The tag is
// appended as a trailing, 0x00-separated suffix to keep those keys
// distinct; closed-set edge types never carry a suffix.
func edgeKey(from types.NodeId, edgeType types.EdgeType, to types.NodeId) []byte {
	key := make([]byte, 0, 16+1+16)
	key = append(key, from[:]...)
	key = append(key, edgeType.Byte())
	key = append(key, to[:]...)
	if tag, ok := edgeType.IsOther(); ok {
		key = append(key, 0x00)
		key = append(key, tag...)
	}
	return key
}

// outPrefix returns the CFEdgesOut prefix for all edges leaving from.
func outPrefix(from types.NodeId) []byte { return from[:] }

// inEdgeKey packs (to, edgeType, from) for kv.CFEdgesIn, the reverse
// index used by incoming-edge and reverse-dependency queries.
func inEdgeKey(to types.NodeId, edgeType types.EdgeType, from types.NodeId) []byte {
	key := make([]byte, 0, 16+1+16)
	key = append(key, to[:]...)
	key = append(key, edgeType.Byte())
	key = append(key, from[:]...)
	if tag, ok := edgeType.IsOther(); ok {
		key = append(key, 0x00)
		key = append(key, tag...)
	}
	return key
}

func inPrefix(to types.NodeId) []byte { return to[:] }

// splitEdgeKey parses the (typeByte, other, tag) suffix of an edge key
// as returned by Store.PrefixIterate(CFEdgesOut/CFEdgesIn, ...): the
// first 16 bytes are the query's own node id (already known by the
// caller), byte 16 is the edge type discriminant, the next 16 bytes are
// the node at the other end, and anything past that is an Other tag.
func splitEdgeKey(key []byte) (edgeTypeByte byte, other types.NodeId, tag string) {
	edgeTypeByte = key[16]
	copy(other[:], key[17:33])
	if len(key) > 34 {
		tag = string(key[34:])
	}
	return edgeTypeByte, other, tag
}
