package graph

import (
	"time"

	"github.com/graphloom/codegraph/pkg/types"
)

// MergeBase finds the nearest common ancestor of two versions by
// walking first-parent history from each and intersecting the two
// ancestor sets. Real merge commits (multiple parents) only contribute
// their first parent to this walk, matching the simplification already
// used by Diff.
func (s *Store) MergeBase(a, b types.VersionId) (types.VersionId, error) {
	ancestorsOfA, err := s.firstParentAncestors(a)
	if err != nil {
		return types.VersionId{}, err
	}
	cur := b
	for {
		if _, ok := ancestorsOfA[cur]; ok {
			return cur, nil
		}
		v, err := s.GetVersion(cur)
		if err != nil {
			return types.VersionId{}, types.Wrap(types.KindInvalidArgument, err, "walk merge base ancestry")
		}
		if len(v.ParentVersions) == 0 {
			return types.VersionId{}, types.New(types.KindNotFound, "no common ancestor between %s and %s", a, b)
		}
		cur = v.ParentVersions[0]
	}
}

func (s *Store) firstParentAncestors(start types.VersionId) (map[types.VersionId]struct{}, error) {
	ancestors := map[types.VersionId]struct{}{start: {}}
	cur := start
	for {
		v, err := s.GetVersion(cur)
		if err != nil {
			return nil, types.Wrap(types.KindInvalidArgument, err, "walk ancestry of %s", start)
		}
		if len(v.ParentVersions) == 0 {
			return ancestors, nil
		}
		cur = v.ParentVersions[0]
		ancestors[cur] = struct{}{}
	}
}

// Merge reconciles ours and theirs against their common ancestor base
// and, if they touched no node in conflicting ways, records a new
// version joining both histories with ParentVersions = [ours, theirs].
//
// There is only one live copy of the graph behind a Store (spec §3:
// versions are a changelog over one mutable keyspace, not per-branch
// snapshots), so by the time Merge runs, both ours's and theirs's
// writes already landed in the store — disjoint writes coexist
// normally, and a node edited on both sides already reflects whichever
// commit applied second (last-write-wins). Merge therefore never
// replays CreateNode/UpdateNode/DeleteNode itself; its job is to
// surface the conflicts that last-write-wins silently papered over, so
// the caller knows the live state needs a manual follow-up commit
// before trusting it, and to otherwise fold the two histories into one
// version record. A node changed identically on both sides (including
// two adds of content with the same hash) is not a conflict: the
// original spec treats identical-hash adds as compatible rather than
// flagging false conflicts from, e.g., two branches independently
// re-deriving the same generated node.
func (s *Store) Merge(ours, theirs types.VersionId, meta CommitMeta) (types.MergeResult, error) {
	base, err := s.MergeBase(ours, theirs)
	if err != nil {
		return types.MergeResult{}, err
	}

	oursDiff, err := s.Diff(base, ours)
	if err != nil {
		return types.MergeResult{}, err
	}
	theirsDiff, err := s.Diff(base, theirs)
	if err != nil {
		return types.MergeResult{}, err
	}

	merged := make(map[types.NodeId]types.ChangeSet, len(oursDiff.NodeChanges)+len(theirsDiff.NodeChanges))
	var conflicts []types.MergeConflict

	for id, change := range oursDiff.NodeChanges {
		merged[id] = change
	}
	for id, theirChange := range theirsDiff.NodeChanges {
		ourChange, touchedByUs := merged[id]
		if !touchedByUs {
			merged[id] = theirChange
			continue
		}
		if changesAreEquivalent(ourChange, theirChange) {
			continue
		}
		conflicts = append(conflicts, types.MergeConflict{NodeId: id, Kind: conflictKind(ourChange, theirChange)})
	}

	if len(conflicts) > 0 {
		return types.MergeResult{Conflicts: conflicts, Clean: false}, nil
	}

	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}
	version := types.Version{
		Id:             types.NewNodeId(meta.Name, types.Location{}, meta.Description),
		Name:           meta.Name,
		Description:    meta.Description,
		Author:         meta.Author,
		CreatedAt:      meta.CreatedAt,
		ParentVersions: []types.VersionId{ours, theirs},
	}
	if err := s.putVersion(version, merged); err != nil {
		return types.MergeResult{}, err
	}
	if meta.Branch != "" {
		if err := s.moveBranch(meta.Branch, version.Id); err != nil {
			return types.MergeResult{}, err
		}
	}
	return types.MergeResult{Version: &version, Clean: true}, nil
}

func changesAreEquivalent(a, b types.ChangeSet) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == types.ChangeDeleted {
		return true
	}
	if a.After == nil || b.After == nil {
		return a.After == nil && b.After == nil
	}
	return a.After.ContentHash() == b.After.ContentHash()
}

func conflictKind(ours, theirs types.ChangeSet) types.MergeConflictKind {
	switch {
	case ours.Kind == types.ChangeDeleted && theirs.Kind != types.ChangeDeleted:
		return types.ConflictDeletedByUs
	case theirs.Kind == types.ChangeDeleted && ours.Kind != types.ChangeDeleted:
		return types.ConflictDeletedByThem
	default:
		return types.ConflictContentMismatch
	}
}
