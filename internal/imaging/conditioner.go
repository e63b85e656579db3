package imaging

import (
	"fmt"
	"image"
)

// Conditioner holds the reusable state (chiefly the Gabor kernel bank)
// shared across requests. Construct once at startup, as the feature
// detector is constructed once in internal/features.
type Conditioner struct {
	bank *gaborBank
}

func NewConditioner() *Conditioner {
	return &Conditioner{bank: newGaborBank()}
}

// Result is a conditioned, cropped, ROI image plus which path produced it.
type Result struct {
	ROI          *image.Gray
	Professional bool
}

// Condition runs the professional path (Gabor ridge enhancement ->
// morphological cleanup -> Otsu threshold -> ROI crop). If that path fails
// to find a usable ROI, it falls back to the basic path (adaptive Gaussian
// threshold). forceProfessional disables the fallback for callers (such as
// identify_employee) that must reject rather than silently degrade.
func (c *Conditioner) Condition(raw string, forceProfessional bool) (*Result, error) {
	gray, err := DecodeBase64Image(raw)
	if err != nil {
		return nil, err
	}

	if res, ok := c.professional(gray); ok {
		return res, nil
	}
	if forceProfessional {
		return nil, fmt.Errorf("enhancement_failed: professional conditioning produced no usable ROI")
	}

	res, ok := c.basic(gray)
	if !ok {
		return nil, fmt.Errorf("enhancement_failed: no usable ROI found in image")
	}
	return res, nil
}

func (c *Conditioner) professional(src *image.Gray) (*Result, bool) {
	enhanced := c.bank.enhanceRidges(src)
	enhanced = normalizeToUint8(enhanced)

	closed := morphClose(enhanced)
	opened := morphOpen(closed)

	equalized := equalizeHistogram(opened)
	blurred := gaussianBlur5(equalized)

	mask := otsuInverseThreshold(blurred)
	mask = morphOpen(mask)
	mask = morphClose(mask)

	rect, ok := extractROI(mask, src.Bounds())
	if !ok {
		return nil, false
	}

	return &Result{ROI: cropGray(src, rect), Professional: true}, true
}

func (c *Conditioner) basic(src *image.Gray) (*Result, bool) {
	blurred := gaussianBlur5(src)
	equalized := equalizeHistogram(blurred)

	mask := adaptiveGaussianThreshold(equalized, 11, 2)
	mask = morphOpen(mask)
	mask = morphClose(mask)
	rect, ok := extractROI(mask, src.Bounds())
	if !ok {
		return nil, false
	}

	return &Result{ROI: cropGray(src, rect), Professional: false}, true
}
