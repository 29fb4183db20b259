package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	invSqrt2 := float32(1 / math.Sqrt2)

	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"Identical unit vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"Identical non-unit vectors", []float32{3, 4}, []float32{3, 4}, 1.0},
		{"Orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"Diagonal", []float32{1, 0}, []float32{invSqrt2, invSqrt2}, 1 / math.Sqrt2},
		{"Scaled operands", []float32{2, 0}, []float32{5, 0}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-6)
		})
	}
}

func TestCosineSimilaritySelf(t *testing.T) {
	// similarity(v, v) == 1 for any nonzero vector.
	vectors := [][]float32{
		{1},
		{0.25, -0.5, 0.75},
		{1e-3, 1e-3, 1e-3, 1e-3},
		{-7, 13, 0.5, -0.25, 42},
	}
	for _, v := range vectors {
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)
	}
}

func TestCosineSimilarityInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"Empty", []float32{}, []float32{}},
		{"Mismatched lengths", []float32{1, 2}, []float32{1, 2, 3}},
		{"Zero vector left", []float32{0, 0}, []float32{1, 0}},
		{"Zero vector right", []float32{1, 0}, []float32{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Invalid input collapses to minimum similarity.
			assert.Equal(t, -1.0, CosineSimilarity(tt.a, tt.b))
		})
	}
}

func TestCosineSimilarityClamped(t *testing.T) {
	// Accumulated floating point error must never push the result
	// outside [-1, 1].
	v := make([]float32, 1024)
	for i := range v {
		v[i] = 0.03125
	}
	got := CosineSimilarity(v, v)
	assert.LessOrEqual(t, got, 1.0)
	assert.InDelta(t, 1.0, got, 1e-6)
}
