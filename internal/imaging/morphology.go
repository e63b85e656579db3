package imaging

import (
	"image"
	"image/color"
)

// ellipse3x3 is a 3x3 elliptical structuring element (corners dropped),
// matching the OpenCV MORPH_ELLIPSE(3,3) kernel this pipeline emulates.
var ellipse3x3 = [3][3]bool{
	{false, true, false},
	{true, true, true},
	{false, true, false},
}

func erode(src *image.Gray) *image.Gray {
	return morph(src, func(values []uint8) uint8 {
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	})
}

func dilate(src *image.Gray) *image.Gray {
	return morph(src, func(values []uint8) uint8 {
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	})
}

func morph(src *image.Gray, reduce func([]uint8) uint8) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(bounds)
	neighborhood := make([]uint8, 0, 5)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			neighborhood = neighborhood[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if !ellipse3x3[dy+1][dx+1] {
						continue
					}
					sx, sy := x+dx, y+dy
					if sx < bounds.Min.X || sx >= bounds.Max.X || sy < bounds.Min.Y || sy >= bounds.Max.Y {
						continue
					}
					neighborhood = append(neighborhood, src.GrayAt(sx, sy).Y)
				}
			}
			out.SetGray(x, y, color.Gray{Y: reduce(neighborhood)})
		}
	}
	return out
}

// morphClose is dilation followed by erosion: closes small gaps in ridges.
func morphClose(src *image.Gray) *image.Gray {
	return erode(dilate(src))
}

// morphOpen is erosion followed by dilation: removes small isolated noise.
func morphOpen(src *image.Gray) *image.Gray {
	return dilate(erode(src))
}
