package imaging

import (
	"image"
	"image/color"

	extimaging "github.com/disintegration/imaging"
)

// roiPadding is the fraction of the bounding box size added on each side
// when cropping the region of interest.
const roiPadding = 0.08

// extractROI finds the largest connected foreground component in a binary
// mask (external-contour-equivalent: we only need the bounding box of the
// largest blob, not its outline) and returns the padded crop rectangle
// against the original image bounds. ok is false if no blob clears the
// minimum area guard.
func extractROI(mask *image.Gray, original image.Rectangle) (image.Rectangle, bool) {
	bounds := mask.Bounds()
	visited := make([]bool, bounds.Dx()*bounds.Dy())
	idx := func(x, y int) int { return (y-bounds.Min.Y)*bounds.Dx() + (x - bounds.Min.X) }

	var best image.Rectangle
	bestArea := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if visited[idx(x, y)] || mask.GrayAt(x, y).Y == 0 {
				continue
			}
			rect, area := floodFill(mask, visited, x, y, bounds)
			if area > bestArea {
				bestArea = area
				best = rect
			}
		}
	}

	minArea := (bounds.Dx() * bounds.Dy()) / 50 // at least 2% of the frame
	if bestArea < minArea {
		return image.Rectangle{}, false
	}

	padded := padRect(best, roiPadding, original)
	return padded, true
}

func floodFill(mask *image.Gray, visited []bool, sx, sy int, bounds image.Rectangle) (image.Rectangle, int) {
	idx := func(x, y int) int { return (y-bounds.Min.Y)*bounds.Dx() + (x - bounds.Min.X) }

	stack := []image.Point{{X: sx, Y: sy}}
	visited[idx(sx, sy)] = true

	minX, minY, maxX, maxY := sx, sy, sx, sy
	area := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		for _, d := range [4]image.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < bounds.Min.X || nx >= bounds.Max.X || ny < bounds.Min.Y || ny >= bounds.Max.Y {
				continue
			}
			if visited[idx(nx, ny)] || mask.GrayAt(nx, ny).Y == 0 {
				continue
			}
			visited[idx(nx, ny)] = true
			stack = append(stack, image.Point{X: nx, Y: ny})
		}
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), area
}

func padRect(r image.Rectangle, fraction float64, clamp image.Rectangle) image.Rectangle {
	padX := int(float64(r.Dx()) * fraction)
	padY := int(float64(r.Dy()) * fraction)

	out := image.Rect(r.Min.X-padX, r.Min.Y-padY, r.Max.X+padX, r.Max.Y+padY)
	return out.Intersect(clamp)
}

// cropGray crops src to rect using disintegration/imaging's Crop (it
// handles the bounds-origin bookkeeping image.Image implementations are
// easy to get subtly wrong), then flattens the result back to *image.Gray
// since every stage downstream of conditioning operates on single-channel
// images.
func cropGray(src *image.Gray, rect image.Rectangle) *image.Gray {
	rect = rect.Intersect(src.Bounds())
	cropped := extimaging.Crop(src, rect)

	out := image.NewGray(cropped.Bounds())
	for y := cropped.Bounds().Min.Y; y < cropped.Bounds().Max.Y; y++ {
		for x := cropped.Bounds().Min.X; x < cropped.Bounds().Max.X; x++ {
			out.SetGray(x, y, src.ColorModel().Convert(cropped.At(x, y)).(color.Gray))
		}
	}
	return out
}
