package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fingerprint-id/engine/internal/observability"
	"github.com/fingerprint-id/engine/pkg/dto"
)

type ReloadHandler struct {
	deps Deps
}

func NewReloadHandler(deps Deps) *ReloadHandler {
	return &ReloadHandler{deps: deps}
}

// ReloadIndex forces a full rescan of the employee store and rebuilds the
// in-memory snapshot. The previous snapshot keeps serving requests until
// the rebuild completes and is swapped in.
func (h *ReloadHandler) ReloadIndex(c *gin.Context) {
	if err := h.deps.Index.Build(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	observability.IndexEmployees.Set(float64(h.deps.Index.EmployeeCount()))

	c.JSON(http.StatusOK, dto.ReloadIndexResponse{
		Status:               "reloaded",
		EmployeeCount:        h.deps.Index.EmployeeCount(),
		AcceleratorAvailable: h.deps.Index.AcceleratorName() != "brute_force",
	})
}
