package graph

import (
	"encoding/json"

	"github.com/graphloom/codegraph/pkg/kv"
	"github.com/graphloom/codegraph/pkg/types"
)

// CreateNode inserts a new node, failing if one with the same id exists
// already (use UpdateNode to overwrite).
func (s *Store) CreateNode(node types.CodeNode) error {
	if _, err := s.GetNode(node.Id); err == nil {
		return types.New(types.KindConflict, "node %s already exists", node.Id)
	} else if !types.IsNotFound(err) {
		return err
	}
	return s.putNode(node)
}

// UpdateNode replaces an existing node's fields, failing if it does not
// exist.
func (s *Store) UpdateNode(node types.CodeNode) error {
	if _, err := s.GetNode(node.Id); err != nil {
		return err
	}
	return s.putNode(node)
}

func (s *Store) putNode(node types.CodeNode) error {
	data, err := json.Marshal(node)
	if err != nil {
		return types.Wrap(types.KindInvalidArgument, err, "encode node %s", node.Id)
	}
	return s.kv.Put(kv.CFNodes, node.Id[:], data, 0)
}

// GetNode fetches a node by id, returning a NotFound error if absent.
func (s *Store) GetNode(id types.NodeId) (types.CodeNode, error) {
	data, err := s.kv.Get(kv.CFNodes, id[:])
	if err != nil {
		return types.CodeNode{}, err
	}
	var node types.CodeNode
	if err := json.Unmarshal(data, &node); err != nil {
		return types.CodeNode{}, types.Wrap(types.KindCorruption, err, "decode node %s", id)
	}
	return node, nil
}

// DeleteNode removes a node and every edge touching it, keeping the
// adjacency indexes consistent (spec §3: deleting a node must not leave
// dangling edges).
func (s *Store) DeleteNode(id types.NodeId) error {
	if _, err := s.GetNode(id); err != nil {
		return err
	}

	batch := s.kv.NewBatch()
	batch.Delete(kv.CFNodes, id[:])

	var affected []types.NodeId
	err := s.kv.PrefixIterate(kv.CFEdgesOut, outPrefix(id), func(key, _ []byte) (bool, error) {
		edgeTypeByte, to, tag := splitEdgeKey(key)
		et := edgeTypeFromByte(edgeTypeByte, tag)
		batch.Delete(kv.CFEdgesOut, edgeKey(id, et, to))
		batch.Delete(kv.CFEdgesIn, inEdgeKey(to, et, id))
		return true, nil
	})
	if err != nil {
		return err
	}

	err = s.kv.PrefixIterate(kv.CFEdgesIn, inPrefix(id), func(key, _ []byte) (bool, error) {
		edgeTypeByte, from, tag := splitEdgeKey(key)
		et := edgeTypeFromByte(edgeTypeByte, tag)
		batch.Delete(kv.CFEdgesIn, inEdgeKey(id, et, from))
		batch.Delete(kv.CFEdgesOut, edgeKey(from, et, id))
		affected = append(affected, from)
		return true, nil
	})
	if err != nil {
		return err
	}

	if err := batch.Commit(); err != nil {
		return err
	}

	s.invalidateAdjacency(id)
	for _, from := range affected {
		s.invalidateAdjacency(from)
	}
	return nil
}

// NodeCount returns the total number of nodes currently stored.
func (s *Store) NodeCount() (int, error) {
	count := 0
	err := s.kv.PrefixIterate(kv.CFNodes, nil, func(_, _ []byte) (bool, error) {
		count++
		return true, nil
	})
	return count, err
}

// AllNodeIds enumerates every node currently stored, for callers that
// need a full-graph scan (e.g. hub detection's degree threshold).
func (s *Store) AllNodeIds() ([]types.NodeId, error) {
	var ids []types.NodeId
	err := s.kv.PrefixIterate(kv.CFNodes, nil, func(key, _ []byte) (bool, error) {
		var id types.NodeId
		copy(id[:], key)
		ids = append(ids, id)
		return true, nil
	})
	return ids, err
}
