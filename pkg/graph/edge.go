package graph

import (
	"encoding/json"

	"github.com/graphloom/codegraph/pkg/kv"
	"github.com/graphloom/codegraph/pkg/types"
)

var closedEdgeTypes = []types.EdgeType{
	types.Calls, types.Imports, types.Uses, types.Extends,
	types.Implements, types.References, types.Contains, types.Defines,
}

func edgeTypeFromByte(b byte, tag string) types.EdgeType {
	if b == 0xFF {
		return types.OtherEdgeType(tag)
	}
	for _, et := range closedEdgeTypes {
		if et.Byte() == b {
			return et
		}
	}
	return types.OtherEdgeType(tag)
}

// CreateEdge inserts a directed, typed edge between two existing nodes.
// Both endpoints must already be present (spec §3: edges never dangle).
func (s *Store) CreateEdge(rel types.EdgeRelationship) error {
	if rel.To.Weak {
		return types.New(types.KindInvalidArgument, "cannot persist a weak edge target %q; resolve it first", rel.To.Symbol)
	}
	to := rel.To.Resolved
	if _, err := s.GetNode(rel.From); err != nil {
		return err
	}
	if _, err := s.GetNode(to); err != nil {
		return err
	}
	if err := s.putEdge(rel); err != nil {
		return err
	}
	s.invalidateAdjacency(rel.From)
	return nil
}

func (s *Store) putEdge(rel types.EdgeRelationship) error {
	to := rel.To.Resolved
	data, err := json.Marshal(rel)
	if err != nil {
		return types.Wrap(types.KindInvalidArgument, err, "encode edge %s -[%s]-> %s", rel.From, rel.EdgeType, to)
	}
	batch := s.kv.NewBatch()
	batch.Put(kv.CFEdgesOut, edgeKey(rel.From, rel.EdgeType, to), data)
	batch.Put(kv.CFEdgesIn, inEdgeKey(to, rel.EdgeType, rel.From), data)
	return batch.Commit()
}

// CreateEdges inserts many edges as a single atomic batch, for bulk
// ingestion where per-edge round trips would dominate runtime.
func (s *Store) CreateEdges(rels []types.EdgeRelationship) error {
	batch := s.kv.NewBatch()
	for _, rel := range rels {
		if rel.To.Weak {
			return types.New(types.KindInvalidArgument, "cannot persist a weak edge target %q; resolve it first", rel.To.Symbol)
		}
		data, err := json.Marshal(rel)
		if err != nil {
			return types.Wrap(types.KindInvalidArgument, err, "encode edge %s", rel.From)
		}
		to := rel.To.Resolved
		batch.Put(kv.CFEdgesOut, edgeKey(rel.From, rel.EdgeType, to), data)
		batch.Put(kv.CFEdgesIn, inEdgeKey(to, rel.EdgeType, rel.From), data)
	}
	if err := batch.Commit(); err != nil {
		return err
	}
	for _, rel := range rels {
		s.invalidateAdjacency(rel.From)
	}
	return nil
}

// DeleteEdge removes a single (from, edgeType, to) edge from both
// indexes.
func (s *Store) DeleteEdge(from types.NodeId, edgeType types.EdgeType, to types.NodeId) error {
	batch := s.kv.NewBatch()
	batch.Delete(kv.CFEdgesOut, edgeKey(from, edgeType, to))
	batch.Delete(kv.CFEdgesIn, inEdgeKey(to, edgeType, from))
	if err := batch.Commit(); err != nil {
		return err
	}
	s.invalidateAdjacency(from)
	return nil
}

// GetOutgoingEdges returns every edge leaving id.
func (s *Store) GetOutgoingEdges(id types.NodeId) ([]types.EdgeRelationship, error) {
	var rels []types.EdgeRelationship
	err := s.kv.PrefixIterate(kv.CFEdgesOut, outPrefix(id), func(_, value []byte) (bool, error) {
		var rel types.EdgeRelationship
		if err := json.Unmarshal(value, &rel); err != nil {
			return false, types.Wrap(types.KindCorruption, err, "decode outgoing edge of %s", id)
		}
		rels = append(rels, rel)
		return true, nil
	})
	return rels, err
}

// GetIncomingEdges returns every edge arriving at id.
func (s *Store) GetIncomingEdges(id types.NodeId) ([]types.EdgeRelationship, error) {
	var rels []types.EdgeRelationship
	err := s.kv.PrefixIterate(kv.CFEdgesIn, inPrefix(id), func(_, value []byte) (bool, error) {
		var rel types.EdgeRelationship
		if err := json.Unmarshal(value, &rel); err != nil {
			return false, types.Wrap(types.KindCorruption, err, "decode incoming edge of %s", id)
		}
		rels = append(rels, rel)
		return true, nil
	})
	return rels, err
}

// GetEdgesBetween returns every edge directed from -> to, across all
// edge types.
func (s *Store) GetEdgesBetween(from, to types.NodeId) ([]types.EdgeRelationship, error) {
	out, err := s.GetOutgoingEdges(from)
	if err != nil {
		return nil, err
	}
	var rels []types.EdgeRelationship
	for _, rel := range out {
		if !rel.To.Weak && rel.To.Resolved == to {
			rels = append(rels, rel)
		}
	}
	return rels, nil
}

// OutDegree returns the number of outgoing edges from id, across all
// edge types (spec §4.6's coupling metrics).
func (s *Store) OutDegree(id types.NodeId) (int, error) {
	edges, err := s.GetOutgoingEdges(id)
	return len(edges), err
}

// InDegree returns the number of incoming edges to id.
func (s *Store) InDegree(id types.NodeId) (int, error) {
	edges, err := s.GetIncomingEdges(id)
	return len(edges), err
}

// EdgeCount returns the total number of edges currently stored.
func (s *Store) EdgeCount() (int, error) {
	count := 0
	err := s.kv.PrefixIterate(kv.CFEdgesOut, nil, func(_, _ []byte) (bool, error) {
		count++
		return true, nil
	})
	return count, err
}
