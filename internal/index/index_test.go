package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fingerprint-id/engine/internal/models"
	"github.com/fingerprint-id/engine/internal/template"
)

func TestL2Normalize_UnitLength(t *testing.T) {
	v := []float32{3, 4}
	l2Normalize(v)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

func TestL2Normalize_ZeroVectorUnchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	l2Normalize(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestMeanDescriptor_AveragesElementwise(t *testing.T) {
	var a, b models.Descriptor
	a[0], a[1] = 2, 4
	b[0], b[1] = 4, 8

	mean := meanDescriptor([]models.Descriptor{a, b})

	assert.Equal(t, float32(3), mean[0])
	assert.Equal(t, float32(6), mean[1])
}

func TestMeanDescriptor_EmptyInputIsZero(t *testing.T) {
	mean := meanDescriptor(nil)
	assert.Equal(t, models.Descriptor{}, mean)
}

// oneHotFeatureSet builds a FeatureSet of n descriptors, every one a
// one-hot vector at dim, so the population and weight of a template is
// visible in the embedding direction it contributes.
func oneHotFeatureSet(n, dim int) *models.FeatureSet {
	fs := &models.FeatureSet{}
	for i := 0; i < n; i++ {
		var d models.Descriptor
		d[dim] = 1
		fs.Keypoints = append(fs.Keypoints, models.Keypoint{X: float32(i)})
		fs.Descriptors = append(fs.Descriptors, d)
	}
	return fs
}

// TestBuildEmployeeEntry_EmbeddingIsCountWeightedNotPerTemplateMean proves
// the aggregate embedding pools every descriptor across all of an
// employee's templates before averaging, rather than averaging each
// template's own mean equally: a template with more descriptors pulls the
// embedding further toward its own direction.
func TestBuildEmployeeEntry_EmbeddingIsCountWeightedNotPerTemplateMean(t *testing.T) {
	idx := newTestIndex(t, nil)

	smallTmpl := oneHotFeatureSet(2, 0)
	bigTmpl := oneHotFeatureSet(8, 1)

	encodedSmall, err := template.Encode(smallTmpl, "test")
	require.NoError(t, err)
	encodedBig, err := template.Encode(bigTmpl, "test")
	require.NoError(t, err)

	rec := models.EmployeeRecord{ID: "e1", Name: "Test", Active: true}
	rec.Templates[0] = encodedSmall
	rec.Templates[1] = encodedBig

	var stats models.EmployeeIndexStats
	_, embedding, ok := idx.buildEmployeeEntry(rec, &stats)
	require.True(t, ok)

	// A mean-of-per-template-means would put dim0 and dim1 at equal
	// magnitude (0.5 each pre-normalization). The count-weighted pooled
	// mean instead is 2/10 at dim0 and 8/10 at dim1 — a 1:4 ratio that
	// survives L2 normalization.
	assert.Greater(t, embedding[1], embedding[0]*3)
}
