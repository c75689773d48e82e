package packed

import (
	"hash/maphash"

	"github.com/graphloom/codegraph/pkg/types"
)

// CacheType distinguishes what a CompactCacheKey names, so a single cache
// implementation can be shared across node, embedding, query, metadata,
// and path lookups without their keys colliding.
type CacheType uint8

const (
	CacheNode CacheType = iota
	CacheEmbedding
	CacheQuery
	CacheMetadata
	CachePath
)

func (t CacheType) String() string {
	switch t {
	case CacheNode:
		return "node"
	case CacheEmbedding:
		return "embedding"
	case CacheQuery:
		return "query"
	case CacheMetadata:
		return "metadata"
	case CachePath:
		return "path"
	default:
		return "unknown"
	}
}

var keySeed = maphash.MakeSeed()

// CompactCacheKey is a precomputed-hash cache key: 9 bytes (a uint64 hash
// plus a type tag) instead of carrying the original string or NodeId
// around, so cache maps keyed on it compare in O(1) and cost far less per
// entry than a string-keyed map under the same load.
type CompactCacheKey struct {
	Hash uint64
	Type CacheType
}

// NewCompactCacheKey hashes data under cacheType.
func NewCompactCacheKey(data []byte, cacheType CacheType) CompactCacheKey {
	var h maphash.Hash
	h.SetSeed(keySeed)
	h.Write(data)
	return CompactCacheKey{Hash: h.Sum64(), Type: cacheType}
}

// CacheKeyFromString hashes a string key under cacheType.
func CacheKeyFromString(s string, cacheType CacheType) CompactCacheKey {
	return NewCompactCacheKey([]byte(s), cacheType)
}

// CacheKeyFromNodeId hashes a NodeId under cacheType.
func CacheKeyFromNodeId(id types.NodeId, cacheType CacheType) CompactCacheKey {
	return NewCompactCacheKey(id[:], cacheType)
}

// KeyFootprint is the logical size in bytes of a compact key: an 8-byte
// hash plus a 1-byte type tag, versus 32+ bytes for a string key.
const KeyFootprint = 9
