package kv

import "testing"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put(CFNodes, []byte("a"), []byte("node-a"), 0); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(CFNodes, []byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "node-a" {
		t.Fatalf("got %q", got)
	}
}

func TestGetMissingKeyIsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(CFNodes, []byte("missing"))
	if err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestColumnFamiliesDoNotCollide(t *testing.T) {
	s := openTestStore(t)
	s.Put(CFNodes, []byte("x"), []byte("node-x"), 0)
	s.Put(CFEdgesOut, []byte("x"), []byte("edge-x"), 0)

	nodeVal, _ := s.Get(CFNodes, []byte("x"))
	edgeVal, _ := s.Get(CFEdgesOut, []byte("x"))
	if string(nodeVal) == string(edgeVal) {
		t.Fatal("expected distinct values across column families for the same key")
	}
}

func TestPrefixIterateVisitsInOrderAndStopsEarly(t *testing.T) {
	s := openTestStore(t)
	for _, k := range []string{"a1", "a2", "a3", "b1"} {
		s.Put(CFLabelIndex, []byte(k), []byte("v"), 0)
	}

	var visited []string
	err := s.PrefixIterate(CFLabelIndex, []byte("a"), func(key, _ []byte) (bool, error) {
		visited = append(visited, string(key))
		return len(visited) < 2, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(visited) != 2 || visited[0] != "a1" || visited[1] != "a2" {
		t.Fatalf("unexpected visit order: %v", visited)
	}
}

func TestBatchCommitIsAtomic(t *testing.T) {
	s := openTestStore(t)
	b := s.NewBatch().
		Put(CFNodes, []byte("n1"), []byte("v1")).
		Put(CFNodes, []byte("n2"), []byte("v2")).
		Delete(CFNodes, []byte("stale"))

	if err := b.Commit(); err != nil {
		t.Fatal(err)
	}
	v1, err := s.Get(CFNodes, []byte("n1"))
	if err != nil || string(v1) != "v1" {
		t.Fatalf("n1 missing after batch commit: %v %v", v1, err)
	}
}

func TestSnapshotReadsPinnedState(t *testing.T) {
	s := openTestStore(t)
	s.Put(CFMeta, []byte("k"), []byte("v1"), 0)

	snap := s.Snapshot()
	defer snap.Discard()

	s.Put(CFMeta, []byte("k"), []byte("v2"), 0)

	got, err := snap.Get(CFMeta, []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Fatalf("expected snapshot to see pre-update value v1, got %q", got)
	}
}
