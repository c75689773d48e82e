package packed

import "testing"

func TestEmbeddingPoolReusesReleasedBuffers(t *testing.T) {
	p := NewEmbeddingPool(128)
	v1 := p.Acquire()
	if v1.Cap() != 128 {
		t.Fatalf("expected capacity 128, got %d", v1.Cap())
	}
	v1.Append(1.0)
	p.Release(v1)

	v2 := p.Acquire()
	if v2.Len() != 0 {
		t.Fatal("released buffer should come back reset")
	}
	if p.EfficiencyRatio() <= 0 {
		t.Fatal("expected a positive reuse ratio after a release")
	}
}

func TestEmbeddingPoolDropsMismatchedCapacity(t *testing.T) {
	p := NewEmbeddingPool(64)
	foreign := &AlignedVec{data: make([]float32, 0, 32)}
	p.Release(foreign) // should be silently dropped, not pooled

	v := p.Acquire()
	if v.Cap() != 64 {
		t.Fatalf("expected a fresh 64-capacity buffer, got %d", v.Cap())
	}
}

func TestAlignedVecAppendRespectsCapacity(t *testing.T) {
	v := &AlignedVec{data: make([]float32, 0, 2)}
	if !v.Append(1) || !v.Append(2) {
		t.Fatal("expected first two appends to succeed")
	}
	if v.Append(3) {
		t.Fatal("expected append beyond capacity to fail")
	}
}
