package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fingerprint-id/engine/pkg/dto"
)

type SyncHandler struct {
	deps Deps
}

func NewSyncHandler(deps Deps) *SyncHandler {
	return &SyncHandler{deps: deps}
}

// SyncEmployee incrementally adds a single employee to the in-memory index
// without a full rebuild, used after an enrollment event in the owning
// system. An employee already in the index is rejected; a full reload
// picks up re-enrollments.
func (h *SyncHandler) SyncEmployee(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee id is required"})
		return
	}

	if err := h.deps.Index.Add(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.SyncEmployeeResponse{Status: "synced", EmployeeID: id})
}
