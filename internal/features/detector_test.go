package features

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() Config {
	return Config{
		MaxKeypoints:      800,
		ContrastThreshold: 0.04,
		EdgeThreshold:     10,
		Sigma:             1.6,
	}
}

// texturedImage builds a deterministically-seeded pseudo-random gray image
// with enough local contrast to exercise the DoG extrema search across
// several octaves, standing in for a conditioned fingerprint ridge image.
func texturedImage(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	rng := rand.New(rand.NewSource(42))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			ridge := math.Sin(float64(x)/4) * math.Cos(float64(y)/5)
			v := 128 + ridge*80 + float64(rng.Intn(20)-10)
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return img
}

func TestExtract_ReturnsConsistentKeypointsAndDescriptors(t *testing.T) {
	d := NewDetector(defaultConfig())
	img := texturedImage(160)

	fs := d.Extract(img)

	require.Equal(t, len(fs.Keypoints), len(fs.Descriptors))
	assert.Equal(t, 160, fs.ROIWidth)
	assert.Equal(t, 160, fs.ROIHeight)
	assert.LessOrEqual(t, fs.Count(), defaultConfig().MaxKeypoints)
}

func TestExtract_DescriptorsAreL2Normalized(t *testing.T) {
	d := NewDetector(defaultConfig())
	img := texturedImage(160)

	fs := d.Extract(img)

	for _, desc := range fs.Descriptors {
		var norm float64
		for _, v := range desc {
			norm += float64(v) * float64(v)
		}
		norm = math.Sqrt(norm)
		assert.InDelta(t, 1.0, norm, 1e-3)
	}
}

func TestExtract_RespectsMaxKeypointsCap(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxKeypoints = 5
	d := NewDetector(cfg)
	img := texturedImage(160)

	fs := d.Extract(img)

	assert.LessOrEqual(t, fs.Count(), 5)
}

func TestExtract_FlatImageYieldsNoKeypoints(t *testing.T) {
	d := NewDetector(defaultConfig())
	flat := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range flat.Pix {
		flat.Pix[i] = 128
	}

	fs := d.Extract(flat)

	assert.Equal(t, 0, fs.Count())
}
