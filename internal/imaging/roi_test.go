package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockMask(size, minX, minY, maxX, maxY int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func TestExtractROI_FindsLargestBlobAndPads(t *testing.T) {
	mask := blockMask(100, 20, 20, 60, 60)

	rect, ok := extractROI(mask, mask.Bounds())
	require.True(t, ok)

	// padding should push the rect wider than the unpadded 40x40 block.
	assert.Greater(t, rect.Dx(), 40)
	assert.Greater(t, rect.Dy(), 40)
	assert.True(t, rect.Min.X <= 20)
	assert.True(t, rect.Max.X >= 60)
}

func TestExtractROI_RejectsBelowMinimumArea(t *testing.T) {
	mask := blockMask(100, 0, 0, 2, 2)

	_, ok := extractROI(mask, mask.Bounds())
	assert.False(t, ok)
}

func TestExtractROI_PicksLargestOfMultipleBlobs(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: 255}) // small blob, top-left
		}
	}
	for y := 40; y < 90; y++ {
		for x := 40; x < 90; x++ {
			img.SetGray(x, y, color.Gray{Y: 255}) // large blob, center
		}
	}

	rect, ok := extractROI(img, img.Bounds())
	require.True(t, ok)
	assert.True(t, rect.Min.X > 10, "expected the large center blob to win, not the small corner one")
}

func TestCropGray_ProducesExpectedDimensions(t *testing.T) {
	src := blockMask(50, 0, 0, 50, 50)
	cropped := cropGray(src, image.Rect(10, 10, 30, 25))

	assert.Equal(t, 20, cropped.Bounds().Dx())
	assert.Equal(t, 15, cropped.Bounds().Dy())
}

func TestPadRect_ClampsToOriginalBounds(t *testing.T) {
	original := image.Rect(0, 0, 100, 100)
	padded := padRect(image.Rect(95, 95, 100, 100), 0.5, original)

	assert.True(t, padded.Max.X <= 100)
	assert.True(t, padded.Max.Y <= 100)
}
