package graph

import (
	"testing"

	"github.com/graphloom/codegraph/pkg/types"
)

func TestMergeBaseFindsCommonAncestor(t *testing.T) {
	s := newTestStore(t)
	root := commitNode(t, s, node("A"), "root")
	ours := commitNode(t, s, node("B"), "ours adds B", root.Id)
	theirs := commitNode(t, s, node("C"), "theirs adds C", root.Id)

	base, err := s.MergeBase(ours.Id, theirs.Id)
	if err != nil {
		t.Fatal(err)
	}
	if base != root.Id {
		t.Fatalf("merge base = %s, want %s", base, root.Id)
	}
}

func TestMergeCleanWhenDisjoint(t *testing.T) {
	s := newTestStore(t)
	root := commitNode(t, s, node("A"), "root")
	ours := commitNode(t, s, node("B"), "ours adds B", root.Id)
	theirs := commitNode(t, s, node("C"), "theirs adds C", root.Id)

	result, err := s.Merge(ours.Id, theirs.Id, CommitMeta{Name: "merge"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Clean {
		t.Fatalf("expected clean merge, got conflicts %v", result.Conflicts)
	}

	if _, err := s.GetNode(types.NewNodeId("B", types.Location{FilePath: "a.go", Line: 1}, "")); err != nil {
		t.Fatalf("expected B present after merge: %v", err)
	}
	if _, err := s.GetNode(types.NewNodeId("C", types.Location{FilePath: "a.go", Line: 1}, "")); err != nil {
		t.Fatalf("expected C present after merge: %v", err)
	}
}

func TestMergeConflictsOnDivergentEdits(t *testing.T) {
	s := newTestStore(t)
	a := node("A")
	root := commitNode(t, s, a, "root")

	ourEdit := a
	ourContent := "ours"
	ourEdit.Content = &ourContent
	txOurs := s.BeginTransaction(types.ReadCommitted)
	if err := txOurs.UpdateNode(ourEdit); err != nil {
		t.Fatal(err)
	}
	ours, err := txOurs.Commit(CommitMeta{Name: "ours edits A", Parents: []types.VersionId{root.Id}})
	if err != nil {
		t.Fatal(err)
	}

	theirEdit := a
	theirContent := "theirs"
	theirEdit.Content = &theirContent
	txTheirs := s.BeginTransaction(types.ReadCommitted)
	if err := txTheirs.UpdateNode(theirEdit); err != nil {
		t.Fatal(err)
	}
	theirs, err := txTheirs.Commit(CommitMeta{Name: "theirs edits A", Parents: []types.VersionId{root.Id}})
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Merge(ours.Id, theirs.Id, CommitMeta{Name: "merge"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Clean {
		t.Fatalf("expected conflict, got clean merge")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].NodeId != a.Id {
		t.Fatalf("expected one conflict on A, got %v", result.Conflicts)
	}
	if result.Conflicts[0].Kind != types.ConflictContentMismatch {
		t.Fatalf("expected content mismatch, got %s", result.Conflicts[0].Kind)
	}
}

func TestMergeIdenticalEditsIsNotAConflict(t *testing.T) {
	s := newTestStore(t)
	a := node("A")
	root := commitNode(t, s, a, "root")

	edited := a
	content := "same on both sides"
	edited.Content = &content

	txOurs := s.BeginTransaction(types.ReadCommitted)
	txOurs.UpdateNode(edited)
	ours, err := txOurs.Commit(CommitMeta{Name: "ours", Parents: []types.VersionId{root.Id}})
	if err != nil {
		t.Fatal(err)
	}

	txTheirs := s.BeginTransaction(types.ReadCommitted)
	txTheirs.UpdateNode(edited)
	theirs, err := txTheirs.Commit(CommitMeta{Name: "theirs", Parents: []types.VersionId{root.Id}})
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Merge(ours.Id, theirs.Id, CommitMeta{Name: "merge"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Clean {
		t.Fatalf("expected identical-content edits to merge cleanly, got conflicts %v", result.Conflicts)
	}
}
