// Package features implements a scale-invariant local-feature detector in
// the spirit of SIFT: a difference-of-Gaussian scale pyramid locates
// stable blob-like keypoints, and a gradient-histogram descriptor encodes
// the patch around each one. It produces generic local features, not
// standardized fingerprint minutiae.
package features

import (
	"image"
	"math"
	"sort"

	"github.com/fingerprint-id/engine/internal/models"
)

// Config mirrors the detector's env-tunable parameters.
type Config struct {
	MaxKeypoints      int
	ContrastThreshold float64
	EdgeThreshold     float64
	Sigma             float64
}

const (
	numOctaves        = 4
	scalesPerOctave   = 3
	descriptorCells   = 4
	descriptorBins    = 8
	descriptorDim     = descriptorCells * descriptorCells * descriptorBins // 128
)

// Detector is an immutable, shared handle — construct once and reuse
// across requests, the same way the feature bank in internal/imaging is
// built once.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Extract runs keypoint detection and descriptor computation over img,
// capping at cfg.MaxKeypoints strongest keypoints (by DoG response
// magnitude) when more are found.
func (d *Detector) Extract(img *image.Gray) *models.FeatureSet {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pyramid := buildGaussianPyramid(img, w, h, d.cfg.Sigma)
	dog := buildDoGPyramid(pyramid)

	candidates := findExtrema(dog, d.cfg.ContrastThreshold, d.cfg.EdgeThreshold)

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].response > candidates[j].response
	})
	if len(candidates) > d.cfg.MaxKeypoints {
		candidates = candidates[:d.cfg.MaxKeypoints]
	}

	fs := &models.FeatureSet{
		Keypoints:   make([]models.Keypoint, 0, len(candidates)),
		Descriptors: make([]models.Descriptor, 0, len(candidates)),
		ROIWidth:    w,
		ROIHeight:   h,
	}

	base := pyramid[0].levels[0]
	for _, cand := range candidates {
		desc, ok := computeDescriptor(base, cand.x, cand.y, cand.scale, cand.angle)
		if !ok {
			continue
		}
		fs.Keypoints = append(fs.Keypoints, models.Keypoint{
			X: float32(cand.x), Y: float32(cand.y), Size: float32(cand.scale), Angle: float32(cand.angle),
		})
		fs.Descriptors = append(fs.Descriptors, desc)
	}

	return fs
}

type extremum struct {
	x, y, octave, scaleIdx int
	scale, angle, response float64
}

type octave struct {
	levels []*floatImage
	w, h   int
}

type floatImage struct {
	w, h int
	pix  []float64
}

func newFloatImage(w, h int) *floatImage {
	return &floatImage{w: w, h: h, pix: make([]float64, w*h)}
}

func (f *floatImage) at(x, y int) float64 {
	if x < 0 {
		x = 0
	}
	if x >= f.w {
		x = f.w - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= f.h {
		y = f.h - 1
	}
	return f.pix[y*f.w+x]
}

func (f *floatImage) set(x, y int, v float64) {
	f.pix[y*f.w+x] = v
}

func buildGaussianPyramid(img *image.Gray, w, h int, sigma0 float64) []octave {
	bounds := img.Bounds()
	base := newFloatImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base.set(x, y, float64(img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)/255.0)
		}
	}

	octaves := make([]octave, numOctaves)
	cur := base
	for o := 0; o < numOctaves; o++ {
		levels := make([]*floatImage, scalesPerOctave+3)
		levels[0] = cur
		sigma := sigma0
		for s := 1; s < len(levels); s++ {
			sigma *= math.Pow(2, 1.0/float64(scalesPerOctave))
			levels[s] = gaussianBlurFloat(levels[s-1], sigma)
		}
		octaves[o] = octave{levels: levels, w: cur.w, h: cur.h}
		cur = downsample(levels[scalesPerOctave])
	}
	return octaves
}

func buildDoGPyramid(pyramid []octave) []octave {
	dog := make([]octave, len(pyramid))
	for o, oct := range pyramid {
		levels := make([]*floatImage, len(oct.levels)-1)
		for s := 0; s < len(levels); s++ {
			diff := newFloatImage(oct.w, oct.h)
			a, b := oct.levels[s], oct.levels[s+1]
			for i := range diff.pix {
				diff.pix[i] = b.pix[i] - a.pix[i]
			}
			levels[s] = diff
		}
		dog[o] = octave{levels: levels, w: oct.w, h: oct.h}
	}
	return dog
}

func findExtrema(dog []octave, contrastThreshold, edgeThreshold float64) []extremum {
	var out []extremum
	edgeRatio := (edgeThreshold + 1) * (edgeThreshold + 1) / edgeThreshold

	for o, oct := range dog {
		for s := 1; s < len(oct.levels)-1; s++ {
			cur, prev, next := oct.levels[s], oct.levels[s-1], oct.levels[s+1]
			for y := 1; y < oct.h-1; y++ {
				for x := 1; x < oct.w-1; x++ {
					v := cur.at(x, y)
					if math.Abs(v) < contrastThreshold {
						continue
					}
					if !isExtremum(cur, prev, next, x, y, v) {
						continue
					}
					if isEdgeLike(cur, x, y, edgeRatio) {
						continue
					}
					scale := math.Pow(2, float64(o)) * float64(s)
					angle := dominantOrientation(cur, x, y)
					out = append(out, extremum{
						x: x * (1 << o), y: y * (1 << o),
						octave: o, scaleIdx: s,
						scale: scale, angle: angle,
						response: math.Abs(v),
					})
				}
			}
		}
	}
	return out
}

func isExtremum(cur, prev, next *floatImage, x, y int, v float64) bool {
	isMax, isMin := true, true
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			for _, layer := range [3]*floatImage{prev, cur, next} {
				if layer == cur && dx == 0 && dy == 0 {
					continue
				}
				n := layer.at(x+dx, y+dy)
				if n >= v {
					isMax = false
				}
				if n <= v {
					isMin = false
				}
			}
		}
	}
	return isMax || isMin
}

func isEdgeLike(img *floatImage, x, y int, edgeRatio float64) bool {
	dxx := img.at(x+1, y) + img.at(x-1, y) - 2*img.at(x, y)
	dyy := img.at(x, y+1) + img.at(x, y-1) - 2*img.at(x, y)
	dxy := (img.at(x+1, y+1) - img.at(x+1, y-1) - img.at(x-1, y+1) + img.at(x-1, y-1)) / 4

	trace := dxx + dyy
	det := dxx*dyy - dxy*dxy
	if det <= 0 {
		return true
	}
	return (trace*trace)/det >= edgeRatio
}

func dominantOrientation(img *floatImage, x, y int) float64 {
	gx := img.at(x+1, y) - img.at(x-1, y)
	gy := img.at(x, y+1) - img.at(x, y-1)
	return math.Atan2(gy, gx)
}

func gaussianBlurFloat(src *floatImage, sigma float64) *floatImage {
	radius := int(math.Ceil(sigma * 3))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	h := newFloatImage(src.w, src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			var s float64
			for i := -radius; i <= radius; i++ {
				s += src.at(x+i, y) * kernel[i+radius]
			}
			h.set(x, y, s)
		}
	}

	out := newFloatImage(src.w, src.h)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			var s float64
			for i := -radius; i <= radius; i++ {
				s += h.at(x, y+i) * kernel[i+radius]
			}
			out.set(x, y, s)
		}
	}
	return out
}

func downsample(src *floatImage) *floatImage {
	w, h := src.w/2, src.h/2
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := newFloatImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.set(x, y, src.at(x*2, y*2))
		}
	}
	return out
}

// computeDescriptor builds a 4x4-cell, 8-bin gradient orientation
// histogram around (cx, cy), rotated to cancel the keypoint's dominant
// orientation, then L2-normalizes it — the standard SIFT descriptor shape.
func computeDescriptor(img *floatImage, cx, cy int, scale, angle float64) (models.Descriptor, bool) {
	var desc models.Descriptor
	radius := int(scale*2) + 8
	if radius < 8 {
		radius = 8
	}

	cosA, sinA := math.Cos(-angle), math.Sin(-angle)
	cellSize := float64(2*radius) / descriptorCells

	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			x, y := cx+dx, cy+dy
			if x < 1 || y < 1 || x >= img.w-1 || y >= img.h-1 {
				continue
			}
			rx := float64(dx)*cosA - float64(dy)*sinA
			ry := float64(dx)*sinA + float64(dy)*cosA

			cellX := int((rx + float64(radius)) / cellSize)
			cellY := int((ry + float64(radius)) / cellSize)
			if cellX < 0 || cellX >= descriptorCells || cellY < 0 || cellY >= descriptorCells {
				continue
			}

			gx := img.at(x+1, y) - img.at(x-1, y)
			gy := img.at(x, y+1) - img.at(x, y-1)
			mag := math.Hypot(gx, gy)
			ori := math.Atan2(gy, gx) - angle
			for ori < 0 {
				ori += 2 * math.Pi
			}
			bin := int(ori / (2 * math.Pi / descriptorBins))
			if bin >= descriptorBins {
				bin = descriptorBins - 1
			}

			idx := (cellY*descriptorCells+cellX)*descriptorBins + bin
			desc[idx] += float32(mag)
		}
	}

	var norm float64
	for _, v := range desc {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return desc, false
	}
	for i := range desc {
		desc[i] = float32(float64(desc[i]) / norm)
	}
	return desc, true
}
