package vector

import (
	"encoding/binary"
	"math"
)

// normalize and cosineSimilarity are grounded on
// `pkg/math/vector.Normalize`/`DotProduct`, copied in rather than
// imported since this package's vectors are keyed by types.NodeId and
// the teacher's vector package has no dependency on pkg/types to build
// against.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return append([]float32(nil), v...)
	}
	norm := math.Sqrt(sumSquares)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// cosineSimilarity assumes unit-length inputs, where it reduces to a
// dot product; callers that can't guarantee normalization should
// normalize first.
func cosineSimilarity(a, b []float32) float64 {
	return dotProduct(a, b)
}

func appendFloat(buf []byte, v float64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...)
}
