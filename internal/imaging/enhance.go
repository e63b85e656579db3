package imaging

import (
	"image"
	"image/color"
)

// gaussianBlur5 applies a separable 5x5 Gaussian blur.
func gaussianBlur5(src *image.Gray) *image.Gray {
	weights := gaussianKernel1D(5, 1.0)
	return separableConvolve(src, weights)
}

func separableConvolve(src *image.Gray, weights []float64) *image.Gray {
	bounds := src.Bounds()
	half := len(weights) / 2

	horizontal := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sx := clampInt(x+k, bounds.Min.X, bounds.Max.X-1)
				sum += float64(src.GrayAt(sx, y).Y) * weights[k+half]
			}
			horizontal.SetGray(x, y, color.Gray{Y: clampUint8(sum)})
		}
	}

	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sy := clampInt(y+k, bounds.Min.Y, bounds.Max.Y-1)
				sum += float64(horizontal.GrayAt(x, sy).Y) * weights[k+half]
			}
			out.SetGray(x, y, color.Gray{Y: clampUint8(sum)})
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// equalizeHistogram performs global histogram equalization.
func equalizeHistogram(src *image.Gray) *image.Gray {
	var hist [256]int
	bounds := src.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return src
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}

	var cdf [256]float64
	running := 0
	for i, count := range hist {
		running += count
		cdf[i] = float64(running) / float64(total)
	}

	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := src.GrayAt(x, y).Y
			out.SetGray(x, y, color.Gray{Y: uint8(cdf[v] * 255)})
		}
	}
	return out
}

// normalizeToUint8 rescales an already-uint8 image so its min/max span the
// full 0-255 range — a contrast stretch used after Gabor filtering, whose
// raw response range can sit well inside [0,255]. A flat image is returned
// unchanged.
func normalizeToUint8(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	min, max := uint8(255), uint8(0)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := src.GrayAt(x, y).Y
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if max <= min {
		return src
	}

	scale := 255.0 / float64(max-min)
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := src.GrayAt(x, y).Y
			out.SetGray(x, y, color.Gray{Y: clampUint8(float64(v-min) * scale)})
		}
	}
	return out
}
