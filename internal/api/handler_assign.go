package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"millline-backend/internal/model"
)

type machineIDsRequest struct {
	MachineIDs []int64 `json:"machineIds" binding:"required"`
}

type handlingRequest struct {
	MachineIDs []int64                  `json:"machineIds" binding:"required"`
	Handling   model.HandlingParameters `json:"handling"`
}

// GetAssignable handles GET /api/lines/:id/assignable.
func (h *Handler) GetAssignable(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	machines, err := h.svc.Assign.ListAssignable(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// PostAssign handles POST /api/lines/:id/assign.
func (h *Handler) PostAssign(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req machineIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Assign.Assign(c.Request.Context(), scopeOf(c), id, req.MachineIDs); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PostRelease handles POST /api/lines/:id/release.
func (h *Handler) PostRelease(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req machineIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Assign.Release(c.Request.Context(), scopeOf(c), id, req.MachineIDs); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PutHandling handles PUT /api/lines/:id/handling.
func (h *Handler) PutHandling(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req handlingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := h.svc.Assign.SetHandlingParameters(c.Request.Context(), scopeOf(c), id, req.MachineIDs, req.Handling)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
