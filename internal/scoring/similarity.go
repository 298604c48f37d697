package scoring

import "math"

// snapEpsilon absorbs floating-point noise for near-identical vectors.
const snapEpsilon = 1e-12

// Cosine returns the cosine similarity of a and b. It returns 0 when either
// vector is empty, the lengths differ or either norm is zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return 0
	}

	res := dot / denom
	if math.Abs(res-1) < snapEpsilon {
		return 1
	}
	return res
}
