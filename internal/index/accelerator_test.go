package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBruteForceAccelerator_ShortlistRanksByCosineSimilarity(t *testing.T) {
	accel := NewBruteForceAccelerator()

	probe := []float32{1, 0, 0}
	embeddings := [][]float32{
		{0, 1, 0},  // orthogonal, similarity 0
		{1, 0, 0},  // identical, similarity 1
		{0.9, 0.1, 0}, // close, similarity < 1 but > 0
	}

	shortlist := accel.Shortlist(probe, embeddings, 2)

	assert.Equal(t, []int{1, 2}, shortlist)
}

func TestBruteForceAccelerator_ShortlistCapsAtPopulationSize(t *testing.T) {
	accel := NewBruteForceAccelerator()

	probe := []float32{1, 0}
	embeddings := [][]float32{{1, 0}}

	shortlist := accel.Shortlist(probe, embeddings, 5)

	assert.Len(t, shortlist, 1)
}

func TestBruteForceAccelerator_Name(t *testing.T) {
	assert.Equal(t, "brute_force", NewBruteForceAccelerator().Name())
}
