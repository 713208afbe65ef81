// Package vectormath provides the numeric primitives for speaker embedding
// comparison: cosine similarity and the running-average profile update.
package vectormath

import "math"

// CosineSimilarity returns the cosine of the angle between a and b.
//
// Vectors of unequal length are compared over the shorter prefix; callers are
// expected to supply equal dimensions, but a mismatch must not panic. A
// zero-magnitude input (including an empty one) yields exactly 0.0 rather
// than an error - zero vectors stand in for missing embeddings and must not
// abort matching. The result is mathematically in [-1, 1] but floating point
// rounding may exceed the bound by an ulp; clamp if exactness matters.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RunningAverage folds next into the running mean old over oldCount samples
// and returns the updated mean plus the new sample count.
//
// oldCount == 0 is the first-observation bootstrap: next is copied and
// returned with a count of 1. That branch is deliberate, not an incidental
// consequence of the update formula.
func RunningAverage(old []float32, oldCount int, next []float32) ([]float32, int) {
	if oldCount == 0 {
		out := make([]float32, len(next))
		copy(out, next)
		return out, 1
	}

	n := len(old)
	if len(next) < n {
		n = len(next)
	}

	out := make([]float32, n)
	c := float64(oldCount)
	for i := 0; i < n; i++ {
		out[i] = float32((float64(old[i])*c + float64(next[i])) / (c + 1))
	}
	return out, oldCount + 1
}
