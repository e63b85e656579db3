package imaging

import (
	"image"
	"image/color"
	"math"
)

// gaborBank is a small set of Gabor kernels at evenly spaced orientations,
// used to enhance ridge structure before binarization. Built once per
// Conditioner and reused across requests — kernel construction, not the
// convolution itself, is the dominant per-request allocation cost if done
// naively per call.
type gaborBank struct {
	kernels [][]float64
	size    int
}

const (
	gaborOrientations = 8
	gaborKernelSize   = 21
	gaborSigma        = 4.0
	gaborLambda       = 10.0
	gaborGamma        = 0.5
)

func newGaborBank() *gaborBank {
	bank := &gaborBank{size: gaborKernelSize}
	bank.kernels = make([][]float64, gaborOrientations)
	for i := 0; i < gaborOrientations; i++ {
		theta := math.Pi * float64(i) / float64(gaborOrientations)
		bank.kernels[i] = buildGaborKernel(gaborKernelSize, gaborSigma, theta, gaborLambda, gaborGamma)
	}
	return bank
}

func buildGaborKernel(size int, sigma, theta, lambda, gamma float64) []float64 {
	kernel := make([]float64, size*size)
	half := size / 2
	for y := -half; y <= half; y++ {
		for x := -half; x <= half; x++ {
			xr := float64(x)*math.Cos(theta) + float64(y)*math.Sin(theta)
			yr := -float64(x)*math.Sin(theta) + float64(y)*math.Cos(theta)
			envelope := math.Exp(-(xr*xr + gamma*gamma*yr*yr) / (2 * sigma * sigma))
			carrier := math.Cos(2 * math.Pi * xr / lambda)
			kernel[(y+half)*size+(x+half)] = envelope * carrier
		}
	}
	return kernel
}

// enhanceRidges applies the orientation in the bank that yields the
// strongest local response at each pixel, approximating orientation-
// adaptive Gabor ridge enhancement. Returns a new grayscale image.
func (b *gaborBank) enhanceRidges(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(bounds)
	half := b.size / 2

	responses := make([]float64, len(b.kernels))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			for k, kernel := range b.kernels {
				responses[k] = convolveAt(src, x, y, kernel, b.size, half)
			}
			best := responses[0]
			for _, r := range responses[1:] {
				if math.Abs(r) > math.Abs(best) {
					best = r
				}
			}
			out.SetGray(x, y, color.Gray{Y: toGrayValue(best)})
		}
	}
	return out
}

func convolveAt(src *image.Gray, cx, cy int, kernel []float64, size, half int) float64 {
	bounds := src.Bounds()
	var sum float64
	for ky := -half; ky <= half; ky++ {
		for kx := -half; kx <= half; kx++ {
			sx, sy := cx+kx, cy+ky
			if sx < bounds.Min.X {
				sx = bounds.Min.X
			} else if sx >= bounds.Max.X {
				sx = bounds.Max.X - 1
			}
			if sy < bounds.Min.Y {
				sy = bounds.Min.Y
			} else if sy >= bounds.Max.Y {
				sy = bounds.Max.Y - 1
			}
			v := float64(src.GrayAt(sx, sy).Y)
			sum += v * kernel[(ky+half)*size+(kx+half)]
		}
	}
	return sum
}

func toGrayValue(v float64) uint8 {
	scaled := v/8 + 128
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 255 {
		scaled = 255
	}
	return uint8(scaled)
}
