package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fingerprint-id/engine/internal/observability"
	"github.com/fingerprint-id/engine/internal/template"
	"github.com/fingerprint-id/engine/pkg/dto"
)

type ExtractHandler struct {
	deps Deps
}

func NewExtractHandler(deps Deps) *ExtractHandler {
	return &ExtractHandler{deps: deps}
}

// ExtractTemplate conditions a raw image and extracts it into a durable,
// storable template. Unlike identify_employee, it does not force the
// professional conditioning path — a caller enrolling a questionable
// sample still gets a template back, with quality flags attached so the
// caller can decide whether to re-capture.
func (h *ExtractHandler) ExtractTemplate(c *gin.Context) {
	var req dto.ExtractTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cond, err := h.deps.Conditioner.Condition(req.Image, false)
	if err != nil {
		observability.MatchesTotal.WithLabelValues("enhancement_failed").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	fs := h.deps.Detector.Extract(cond.ROI)

	encoded, err := template.Encode(fs, "sift_like_v1")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	observability.MatchesTotal.WithLabelValues("extracted").Inc()

	c.JSON(http.StatusOK, dto.ExtractTemplateResponse{
		Template:     encoded,
		Keypoints:    fs.Count(),
		QualityOK:    fs.QualityOK(h.deps.MatcherCfg.MinKeypoints),
		QualityWarn:  fs.QualityWarn(h.deps.MatcherCfg.MinKeypointsWarn),
		Professional: cond.Professional,
	})
}
