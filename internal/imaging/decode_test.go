package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNGBase64(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeBase64Image_PlainBase64(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	raw := encodePNGBase64(t, src)

	out, err := DecodeBase64Image(raw)
	require.NoError(t, err)
	assert.Equal(t, 16, out.Bounds().Dx())
	assert.Equal(t, uint8(200), out.GrayAt(0, 0).Y)
}

func TestDecodeBase64Image_DataURIPrefix(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	raw := "data:image/png;base64," + encodePNGBase64(t, src)

	out, err := DecodeBase64Image(raw)
	require.NoError(t, err)
	assert.Equal(t, 8, out.Bounds().Dx())
}

func TestDecodeBase64Image_WhitespaceAndMissingPadding(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	raw := encodePNGBase64(t, src)
	withWhitespace := raw[:len(raw)/2] + "\n" + raw[len(raw)/2:]
	trimmed := withWhitespace
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == '=' {
		trimmed = trimmed[:len(trimmed)-1]
	}

	out, err := DecodeBase64Image(trimmed)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Bounds().Dx())
}

func TestDecodeBase64Image_InvalidInputErrors(t *testing.T) {
	_, err := DecodeBase64Image("not valid base64!!!")
	assert.Error(t, err)
}

func TestToGray_ConvertsColorImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		}
	}

	gray := toGray(src)
	assert.Equal(t, 4, gray.Bounds().Dx())
}
