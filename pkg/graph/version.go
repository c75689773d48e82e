package graph

import (
	"encoding/json"

	"github.com/graphloom/codegraph/pkg/kv"
	"github.com/graphloom/codegraph/pkg/types"
)

// storedVersion pairs a Version with the ChangeSet it produced, so
// GetVersionDiff and Merge can walk history without replaying every
// node's full state at every commit.
type storedVersion struct {
	Version types.Version                    `json:"version"`
	Changes map[types.NodeId]types.ChangeSet `json:"changes"`
}

func (s *Store) putVersion(v types.Version, changes map[types.NodeId]types.ChangeSet) error {
	data, err := json.Marshal(storedVersion{Version: v, Changes: changes})
	if err != nil {
		return types.Wrap(types.KindInvalidArgument, err, "encode version %s", v.Id)
	}
	return s.kv.Put(kv.CFVersions, v.Id[:], data, 0)
}

// GetVersion fetches a version's metadata by id.
func (s *Store) GetVersion(id types.VersionId) (types.Version, error) {
	sv, err := s.getStoredVersion(id)
	if err != nil {
		return types.Version{}, err
	}
	return sv.Version, nil
}

func (s *Store) getStoredVersion(id types.VersionId) (storedVersion, error) {
	data, err := s.kv.Get(kv.CFVersions, id[:])
	if err != nil {
		return storedVersion{}, err
	}
	var sv storedVersion
	if err := json.Unmarshal(data, &sv); err != nil {
		return storedVersion{}, types.Wrap(types.KindCorruption, err, "decode version %s", id)
	}
	return sv, nil
}

// ListVersions enumerates every version currently stored, for callers
// walking history without a known starting VersionId.
func (s *Store) ListVersions() ([]types.Version, error) {
	var versions []types.Version
	err := s.kv.PrefixIterate(kv.CFVersions, nil, func(_, value []byte) (bool, error) {
		var sv storedVersion
		if err := json.Unmarshal(value, &sv); err != nil {
			return false, types.Wrap(types.KindCorruption, err, "decode version")
		}
		versions = append(versions, sv.Version)
		return true, nil
	})
	return versions, err
}

// ListBranches enumerates every named branch currently stored.
func (s *Store) ListBranches() ([]types.Branch, error) {
	var branches []types.Branch
	err := s.kv.PrefixIterate(kv.CFBranches, nil, func(_, value []byte) (bool, error) {
		var b types.Branch
		if err := json.Unmarshal(value, &b); err != nil {
			return false, types.Wrap(types.KindCorruption, err, "decode branch")
		}
		branches = append(branches, b)
		return true, nil
	})
	return branches, err
}

// DeleteBranch removes a named branch pointer, failing with NotFound if
// it does not exist. The versions it pointed to are untouched; only the
// mutable name -> head mapping is removed.
func (s *Store) DeleteBranch(name string) error {
	if _, err := s.GetBranch(name); err != nil {
		return err
	}
	return s.kv.Delete(kv.CFBranches, []byte(name))
}

// CreateBranch points a new named branch at head.
func (s *Store) CreateBranch(branch types.Branch) error {
	if _, err := s.GetBranch(branch.Name); err == nil {
		return types.New(types.KindConflict, "branch %q already exists", branch.Name)
	} else if !types.IsNotFound(err) {
		return err
	}
	return s.putBranch(branch)
}

func (s *Store) putBranch(branch types.Branch) error {
	data, err := json.Marshal(branch)
	if err != nil {
		return types.Wrap(types.KindInvalidArgument, err, "encode branch %q", branch.Name)
	}
	return s.kv.Put(kv.CFBranches, []byte(branch.Name), data, 0)
}

// GetBranch fetches a branch by name.
func (s *Store) GetBranch(name string) (types.Branch, error) {
	data, err := s.kv.Get(kv.CFBranches, []byte(name))
	if err != nil {
		return types.Branch{}, err
	}
	var b types.Branch
	if err := json.Unmarshal(data, &b); err != nil {
		return types.Branch{}, types.Wrap(types.KindCorruption, err, "decode branch %q", name)
	}
	return b, nil
}

func (s *Store) moveBranch(name string, head types.VersionId) error {
	branch, err := s.GetBranch(name)
	if types.IsNotFound(err) {
		branch = types.Branch{Name: name}
	} else if err != nil {
		return err
	}
	branch.Head = head
	return s.putBranch(branch)
}

// CreateTag creates an immutable named pointer to a version.
func (s *Store) CreateTag(tag types.Tag) error {
	if _, err := s.kv.Get(kv.CFTags, []byte(tag.Name)); err == nil {
		return types.New(types.KindConflict, "tag %q already exists", tag.Name)
	} else if !types.IsNotFound(err) {
		return err
	}
	data, err := json.Marshal(tag)
	if err != nil {
		return types.Wrap(types.KindInvalidArgument, err, "encode tag %q", tag.Name)
	}
	return s.kv.Put(kv.CFTags, []byte(tag.Name), data, 0)
}

// GetTag fetches a tag by name.
func (s *Store) GetTag(name string) (types.Tag, error) {
	data, err := s.kv.Get(kv.CFTags, []byte(name))
	if err != nil {
		return types.Tag{}, err
	}
	var tag types.Tag
	if err := json.Unmarshal(data, &tag); err != nil {
		return types.Tag{}, types.Wrap(types.KindCorruption, err, "decode tag %q", name)
	}
	return tag, nil
}

// Diff walks from's ancestry forward to to (to must be a descendant of
// from through single-parent history) and aggregates every version's
// recorded ChangeSet into one VersionDiff. History with merge commits
// (multiple parents) is only followed through the first parent, which
// is enough for the spec's linear-history diff use case; a full
// multi-parent diff would need a DAG walk this package does not need
// yet.
func (s *Store) Diff(from, to types.VersionId) (types.VersionDiff, error) {
	diff := types.VersionDiff{NodeChanges: map[types.NodeId]types.ChangeSet{}}

	chain, err := s.versionChain(from, to)
	if err != nil {
		return types.VersionDiff{}, err
	}
	for _, v := range chain {
		sv, err := s.getStoredVersion(v)
		if err != nil {
			return types.VersionDiff{}, err
		}
		for id, change := range sv.Changes {
			if existing, ok := diff.NodeChanges[id]; ok {
				diff.NodeChanges[id] = mergeChangeAcrossVersions(existing, change)
			} else {
				diff.NodeChanges[id] = change
			}
		}
	}
	for id, change := range diff.NodeChanges {
		switch change.Kind {
		case types.ChangeAdded:
			diff.AddedNodes = append(diff.AddedNodes, id)
		case types.ChangeDeleted:
			diff.DeletedNodes = append(diff.DeletedNodes, id)
		case types.ChangeModified:
			diff.ModifiedNodes = append(diff.ModifiedNodes, id)
		}
	}
	return diff, nil
}

// mergeChangeAcrossVersions collapses two sequential changes to the same
// node into the net effect: add-then-modify is still an add, any-then-
// delete is a delete, and so on.
func mergeChangeAcrossVersions(first, second types.ChangeSet) types.ChangeSet {
	switch {
	case second.Kind == types.ChangeDeleted:
		return types.ChangeSet{Kind: types.ChangeDeleted, Before: first.Before}
	case first.Kind == types.ChangeAdded:
		return types.ChangeSet{Kind: types.ChangeAdded, After: second.After}
	default:
		return types.ChangeSet{Kind: types.ChangeModified, Before: first.Before, After: second.After}
	}
}

// versionChain returns the versions strictly after from up to and
// including to, following first-parent ancestry from to back to from.
func (s *Store) versionChain(from, to types.VersionId) ([]types.VersionId, error) {
	var chain []types.VersionId
	cur := to
	for cur != from {
		v, err := s.GetVersion(cur)
		if err != nil {
			return nil, types.Wrap(types.KindInvalidArgument, err, "walk version history from %s", cur)
		}
		chain = append(chain, cur)
		if len(v.ParentVersions) == 0 {
			return nil, types.New(types.KindInvalidArgument, "version %s is not a descendant of %s", to, from)
		}
		cur = v.ParentVersions[0]
	}
	// reverse into chronological order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
