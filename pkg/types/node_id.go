package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NodeId is a 128-bit opaque identifier for a code entity. It is
// globally unique and, for a given extractor output, stable across
// re-runs: two ingestions of the same (name, location, content) derive
// the same id (spec §3 Invariants).
//
// NodeId deliberately has no internal structure callers may rely on —
// treat it as an opaque 16-byte value, comparable and orderable only
// for deterministic tie-breaking (spec §3's "lower NodeId" rule).
type NodeId [16]byte

// NilNodeId is the zero value, never assigned to a real node.
var NilNodeId NodeId

// NewNodeId derives a stable NodeId from a node's content-hash inputs:
// name, location, and (optional) source content. Two calls with the
// same inputs always produce the same id.
func NewNodeId(name string, loc Location, content string) NodeId {
	h := sha256.New()
	h.Write([]byte(loc.FilePath))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(encodeUint32(loc.Line))
	h.Write(encodeUint32(loc.Column))
	h.Write([]byte{0})
	h.Write([]byte(content))
	sum := h.Sum(nil)
	var id NodeId
	copy(id[:], sum[:16])
	return id
}

func encodeUint32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// String renders the id as lowercase hex, e.g. for logs and cache keys.
func (id NodeId) String() string { return hex.EncodeToString(id[:]) }

// IsNil reports whether id is the zero value.
func (id NodeId) IsNil() bool { return id == NilNodeId }

// Less provides the deterministic ordering spec §3/§4.1 rely on to
// break ties ("lower NodeId") during BFS frontier expansion.
func (id NodeId) Less(other NodeId) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// ParseNodeId parses a hex-encoded NodeId produced by String.
func ParseNodeId(s string) (NodeId, error) {
	var id NodeId
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 16 {
		return id, New(KindInvalidArgument, "invalid node id %q", s)
	}
	copy(id[:], b)
	return id, nil
}

// MarshalText implements encoding.TextMarshaler so NodeId round-trips
// through JSON as a hex string rather than a byte array.
func (id NodeId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *NodeId) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeId(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// VersionId, SnapshotId and TransactionId reuse NodeId's shape: they
// are all content- or randomly-derived 128-bit identifiers in the same
// id space, per spec §3's Version/Transaction records.
type (
	VersionId     = NodeId
	SnapshotId    = NodeId
	TransactionId = NodeId
)

// fmtID is a small helper for error messages that want a short id
// prefix rather than the full 32 hex characters.
func fmtID(id NodeId) string {
	s := id.String()
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

var _ fmt.Stringer = NodeId{}
