package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fingerprint-id/engine/internal/observability"
	"github.com/fingerprint-id/engine/pkg/dto"
)

type IdentifyHandler struct {
	deps Deps
}

func NewIdentifyHandler(deps Deps) *IdentifyHandler {
	return &IdentifyHandler{deps: deps}
}

// IdentifyEmployee runs the full open-set identification pipeline against
// the enrolled employee population and applies the multi-layer
// anti-false-positive gate before reporting a winner.
func (h *IdentifyHandler) IdentifyEmployee(c *gin.Context) {
	var req dto.IdentifyEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.deps.Index.Identify(c.Request.Context(), req.Image, req.TopK, req.ThresholdOverride)
	if err != nil {
		observability.IdentificationsTotal.WithLabelValues("index_unavailable").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	observability.IdentificationsTotal.WithLabelValues(outcomeLabel(result.Matched, result.Reason)).Inc()

	resp := dto.IdentifyEmployeeResponse{
		Matched:    result.Matched,
		Reason:     result.Reason,
		Candidates: make([]dto.IdentifyCandidate, len(result.Candidates)),
	}
	for i, cand := range result.Candidates {
		resp.Candidates[i] = dto.IdentifyCandidate{
			EmployeeID:    cand.EmployeeID,
			Name:          cand.Name,
			Score:         cand.Score,
			Confidence:    cand.Confidence,
			Matched:       cand.Matched,
			IsPrecomputed: cand.IsPrecomputed,
		}
	}
	if result.Winner != nil {
		resp.EmployeeID = result.Winner.EmployeeID
		resp.Name = result.Winner.Name
		resp.Score = result.Winner.Score
		resp.Confidence = result.Winner.Confidence
		resp.IsPrecomputed = result.Winner.IsPrecomputed
	}

	c.JSON(http.StatusOK, resp)
}
