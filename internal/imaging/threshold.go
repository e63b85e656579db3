package imaging

import (
	"image"
	"image/color"
	"math"
)

// otsuInverseThreshold computes Otsu's threshold and binarizes the image
// with an inverted polarity (foreground = ridges = white), matching the
// professional path's cv2.THRESH_BINARY_INV | cv2.THRESH_OTSU behavior.
func otsuInverseThreshold(src *image.Gray) *image.Gray {
	t := otsuThreshold(src)
	return applyThreshold(src, t, true)
}

func otsuThreshold(src *image.Gray) uint8 {
	var hist [256]int
	bounds := src.Bounds()
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[src.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for i, count := range hist {
		sum += float64(i) * float64(count)
	}

	var sumB, wB, wF float64
	var best uint8
	var maxVariance float64

	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF = float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			best = uint8(t)
		}
	}
	return best
}

func applyThreshold(src *image.Gray, t uint8, invert bool) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := src.GrayAt(x, y).Y
			on := v <= t
			if invert {
				on = !on
			}
			if on {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// adaptiveGaussianThreshold binarizes each pixel against a Gaussian-
// weighted local mean over a blockSize window, minus constant C — the
// basic-path fallback when the professional Gabor/Otsu path is skipped.
func adaptiveGaussianThreshold(src *image.Gray, blockSize int, c int) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(bounds)
	half := blockSize / 2
	weights := gaussianKernel1D(blockSize, float64(blockSize)/6.0)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			mean := weightedLocalMean(src, x, y, half, weights)
			v := float64(src.GrayAt(x, y).Y)
			if v > mean-float64(c) {
				out.SetGray(x, y, color.Gray{Y: 0})
			} else {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

func weightedLocalMean(src *image.Gray, cx, cy, half int, weights []float64) float64 {
	bounds := src.Bounds()
	var sum, wsum float64
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			sx, sy := cx+dx, cy+dy
			if sx < bounds.Min.X || sx >= bounds.Max.X || sy < bounds.Min.Y || sy >= bounds.Max.Y {
				continue
			}
			w := weights[dy+half] * weights[dx+half]
			sum += float64(src.GrayAt(sx, sy).Y) * w
			wsum += w
		}
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

func gaussianKernel1D(size int, sigma float64) []float64 {
	k := make([]float64, size)
	half := size / 2
	var total float64
	for i := -half; i <= half; i++ {
		v := gauss1D(float64(i), sigma)
		k[i+half] = v
		total += v
	}
	for i := range k {
		k[i] /= total
	}
	return k
}

func gauss1D(x, sigma float64) float64 {
	return math.Exp(-(x * x) / (2 * sigma * sigma))
}
