package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify_UnbuiltIndexReturnsIndexUnavailable(t *testing.T) {
	idx := newTestIndex(t, nil)

	assert.False(t, idx.Ready())

	_, err := idx.Identify(context.Background(), uniformBrightImageBase64(t), 0, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index_unavailable")
}

func TestEmployeeCount_EmptyIndexIsZero(t *testing.T) {
	idx := newTestIndex(t, nil)
	assert.Equal(t, 0, idx.EmployeeCount())
}

func TestAcceleratorName_DefaultsToBruteForce(t *testing.T) {
	idx := newTestIndex(t, nil)
	assert.Equal(t, "brute_force", idx.AcceleratorName())
}

func TestIdentificationMargin_StepsWithPopulationSize(t *testing.T) {
	assert.Equal(t, 10, identificationMargin(1))
	assert.Equal(t, 10, identificationMargin(4))
	assert.Equal(t, 12, identificationMargin(5))
	assert.Equal(t, 12, identificationMargin(10))
	assert.Equal(t, 15, identificationMargin(11))
	assert.Equal(t, 15, identificationMargin(500))
}
