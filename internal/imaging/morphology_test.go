package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func singleWhitePixel(size, px, py int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	img.SetGray(px, py, color.Gray{Y: 255})
	return img
}

func TestErode_RemovesIsolatedSinglePixel(t *testing.T) {
	img := singleWhitePixel(10, 5, 5)
	out := erode(img)

	assert.Equal(t, uint8(0), out.GrayAt(5, 5).Y)
}

func TestDilate_GrowsIsolatedPixelIntoCross(t *testing.T) {
	img := singleWhitePixel(10, 5, 5)
	out := dilate(img)

	assert.Equal(t, uint8(255), out.GrayAt(5, 5).Y)
	assert.Equal(t, uint8(255), out.GrayAt(4, 5).Y)
	assert.Equal(t, uint8(255), out.GrayAt(6, 5).Y)
	assert.Equal(t, uint8(255), out.GrayAt(5, 4).Y)
	assert.Equal(t, uint8(255), out.GrayAt(5, 6).Y)
	// the ellipse kernel drops corners
	assert.Equal(t, uint8(0), out.GrayAt(4, 4).Y)
}

func TestMorphOpen_RemovesIsolatedNoise(t *testing.T) {
	img := singleWhitePixel(10, 5, 5)
	out := morphOpen(img)

	assert.Equal(t, uint8(0), out.GrayAt(5, 5).Y)
}

func TestMorphClose_FillsSmallGap(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 3; y <= 7; y++ {
		for x := 3; x <= 7; x++ {
			if x == 5 && y == 5 {
				continue // a single-pixel gap in an otherwise solid block
			}
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	out := morphClose(img)

	assert.Equal(t, uint8(255), out.GrayAt(5, 5).Y)
}
