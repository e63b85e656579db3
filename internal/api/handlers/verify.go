package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fingerprint-id/engine/internal/observability"
	"github.com/fingerprint-id/engine/pkg/dto"
)

type VerifyHandler struct {
	deps Deps
}

func NewVerifyHandler(deps Deps) *VerifyHandler {
	return &VerifyHandler{deps: deps}
}

// TestTemplate validates a probe image against a probe template produced
// from a companion sample, under the strict policy. Used by enrollment
// tooling to check self-consistency before a sample is accepted.
func (h *VerifyHandler) TestTemplate(c *gin.Context) {
	var req dto.TestTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.deps.Index.TestTemplate(req.Image, req.Template)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	observability.MatchesTotal.WithLabelValues(outcomeLabel(res.Matched, res.Reason)).Inc()
	c.JSON(http.StatusOK, toMatchResponse(res.Result))
}

// MatchImage validates a probe image against a single stored template
// under the non-strict (precomputed-template leniency) policy.
func (h *VerifyHandler) MatchImage(c *gin.Context) {
	var req dto.MatchImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.deps.Index.MatchImage(req.Image, req.Template, req.ThresholdOverride)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	observability.MatchesTotal.WithLabelValues(outcomeLabel(res.Matched, res.Reason)).Inc()
	c.JSON(http.StatusOK, toMatchResponse(res.Result))
}

// MatchTemplates validates a probe image against up to four stored
// templates for one claimed identity, applying the single-template margin
// rule or multi-template corroboration voting as appropriate.
func (h *VerifyHandler) MatchTemplates(c *gin.Context) {
	var req dto.MatchTemplatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Templates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "templates must not be empty"})
		return
	}

	res, err := h.deps.Index.MatchTemplates(req.Image, req.Templates, req.ThresholdOverride)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	observability.MatchesTotal.WithLabelValues(outcomeLabel(res.Matched, res.Reason)).Inc()
	resp := toMatchResponse(res.Best.Result)
	resp.Matched = res.Matched
	resp.Reason = res.Reason
	c.JSON(http.StatusOK, resp)
}

func outcomeLabel(matched bool, reason string) string {
	if matched {
		return "matched"
	}
	if reason == "" {
		return "rejected"
	}
	return reason
}
