package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fingerprint-id/engine/pkg/dto"
)

type HealthHandler struct {
	deps Deps
}

func NewHealthHandler(deps Deps) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Health reports process liveness unconditionally — it never depends on
// the employee index or the database, matching the original service's
// distinction between "the process is up" and "the process can serve".
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.deps.StartedAt).String(),
	})
}

// Ready reports whether the employee index currently holds at least one
// employee.
// Supplemented beyond the distilled spec for orchestrator readiness probes.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.deps.Index.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "employee index has not been built",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ready",
		"employee_count": h.deps.Index.EmployeeCount(),
		"accelerator":    h.deps.Index.AcceleratorName(),
	})
}

// Params reports the active matching parameters, mirroring the original
// service's /params introspection endpoint field-for-field.
func (h *HealthHandler) Params(c *gin.Context) {
	m := h.deps.MatcherCfg

	thresholdFor1000KP := m.MinBase
	if scaled := int(math.Floor(1000 * m.MinPercent)); scaled > thresholdFor1000KP {
		thresholdFor1000KP = scaled
	}

	c.JSON(http.StatusOK, dto.ParamsResponse{
		Ratio:                m.Ratio,
		MinBase:              m.MinBase,
		MinPercent:           m.MinPercent,
		ConfMin:              m.ConfMin,
		ConfHigh:             m.ConfHigh,
		MinKeypoints:         m.MinKeypoints,
		MinKeypointsWarn:     m.MinKeypointsWarn,
		HighConfKeypoints:    m.HighConfKeypoints,
		MarginBase:           m.MarginBase,
		MarginPercent:        m.MarginPercent,
		AbsMinScore:          m.AbsMinScore,
		ThresholdFor1000KP:   thresholdFor1000KP,
		AcceleratorAvailable: h.deps.Index.AcceleratorName() != "brute_force",
		SiftParams: dto.SiftParams{
			NFeatures:         h.deps.FeaturesCfg.MaxKeypoints,
			ContrastThreshold: h.deps.FeaturesCfg.ContrastThreshold,
			EdgeThreshold:     h.deps.FeaturesCfg.EdgeThreshold,
			Sigma:             h.deps.FeaturesCfg.Sigma,
		},
	})
}
