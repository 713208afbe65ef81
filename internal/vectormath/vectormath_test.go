package vectormath

import (
	"math"
	"testing"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.5, -0.25, 3.75},
		{1e-3, 1e-3, 1e-3, 1e-3},
	}

	for _, v := range vectors {
		sim := CosineSimilarity(v, v)
		if math.Abs(sim-1.0) > 1e-9 {
			t.Errorf("CosineSimilarity(%v, same) = %v, want 1.0", v, sim)
		}
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"zero first", []float32{0, 0, 0}, []float32{1, 2, 3}},
		{"zero second", []float32{1, 2, 3}, []float32{0, 0, 0}},
		{"both zero", []float32{0, 0}, []float32{0, 0}},
		{"empty first", nil, []float32{1, 2}},
		{"both empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if sim := CosineSimilarity(tt.a, tt.b); sim != 0.0 {
				t.Errorf("expected exactly 0.0, got %v", sim)
			}
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}

	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Errorf("similarity is not symmetric: %v vs %v",
			CosineSimilarity(a, b), CosineSimilarity(b, a))
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	sim := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if sim != 0.0 {
		t.Errorf("orthogonal vectors: expected 0.0, got %v", sim)
	}
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	sim := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	if math.Abs(sim-(-1.0)) > 1e-9 {
		t.Errorf("opposite vectors: expected -1.0, got %v", sim)
	}
}

func TestCosineSimilarity_MismatchedLengths(t *testing.T) {
	// Truncates to the shorter prefix rather than erroring.
	sim := CosineSimilarity([]float32{1, 0, 99, 99}, []float32{1, 0})
	if math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("expected prefix similarity 1.0, got %v", sim)
	}
}

func TestRunningAverage_Bootstrap(t *testing.T) {
	next := []float32{0.1, 0.2, 0.3}

	avg, count := RunningAverage(nil, 0, next)

	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
	if len(avg) != len(next) {
		t.Fatalf("expected %d elements, got %d", len(next), len(avg))
	}
	for i := range next {
		if avg[i] != next[i] {
			t.Errorf("element %d: expected %v, got %v", i, next[i], avg[i])
		}
	}

	// Bootstrap must copy, not alias the caller's slice.
	avg[0] = 42
	if next[0] == 42 {
		t.Error("bootstrap result aliases the input vector")
	}
}

func TestRunningAverage_Update(t *testing.T) {
	old := []float32{1, 0, 0}
	next := []float32{0, 3, 0}

	avg, count := RunningAverage(old, 2, next)

	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	want := []float32{float32(2.0 / 3.0), 1.0, 0.0}
	for i := range want {
		if math.Abs(float64(avg[i]-want[i])) > 1e-6 {
			t.Errorf("element %d: expected %v, got %v", i, want[i], avg[i])
		}
	}
}

func TestRunningAverage_IdenticalVectorUnchanged(t *testing.T) {
	v := []float32{1, 0, 0}

	avg, count := RunningAverage(v, 1, v)

	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
	for i := range v {
		if avg[i] != v[i] {
			t.Errorf("averaging identical vectors changed element %d: %v", i, avg[i])
		}
	}
}
