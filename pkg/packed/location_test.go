package packed

import "testing"

func TestLocationRoundTrips(t *testing.T) {
	loc := NewLocation(1000, 42, 45, 10, 15)
	if loc.FileID() != 1000 {
		t.Fatalf("file id: got %d", loc.FileID())
	}
	if loc.StartLine() != 42 || loc.EndLine() != 45 {
		t.Fatalf("lines: got %d/%d", loc.StartLine(), loc.EndLine())
	}
	if loc.StartCol() != 10 || loc.EndCol() != 15 {
		t.Fatalf("cols: got %d/%d", loc.StartCol(), loc.EndCol())
	}
}

func TestLocationFootprintIsOneWord(t *testing.T) {
	if Footprint != 8 {
		t.Fatalf("expected 8-byte footprint, got %d", Footprint)
	}
}
