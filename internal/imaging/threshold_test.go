package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// bimodalImage returns an image split into a dark left half and a bright
// right half — a textbook case for Otsu's method. The threshold is the top
// of the dark class: pixels at or below it form one population, pixels
// above it the other.
func bimodalImage(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(30)
			if x >= size/2 {
				v = 220
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestOtsuThreshold_SeparatesBimodalPopulations(t *testing.T) {
	img := bimodalImage(40)
	threshold := otsuThreshold(img)

	assert.Greater(t, int(threshold), 30)
	assert.Less(t, int(threshold), 220)
}

func TestApplyThreshold_InvertFlipsPolarity(t *testing.T) {
	img := bimodalImage(10)
	t_ := uint8(128)

	normal := applyThreshold(img, t_, false)
	inverted := applyThreshold(img, t_, true)

	assert.NotEqual(t, normal.GrayAt(0, 0).Y, inverted.GrayAt(0, 0).Y)
	assert.NotEqual(t, normal.GrayAt(9, 0).Y, inverted.GrayAt(9, 0).Y)
}

func TestAdaptiveGaussianThreshold_FlatImageStaysBackground(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range img.Pix {
		img.Pix[i] = 128
	}

	out := adaptiveGaussianThreshold(img, 11, 2)

	for _, v := range out.Pix {
		assert.Equal(t, uint8(0), v)
	}
}
