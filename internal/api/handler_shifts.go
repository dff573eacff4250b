package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"millline-backend/internal/model"
)

// GetShifts handles GET /api/shifts.
func (h *Handler) GetShifts(c *gin.Context) {
	shifts, err := h.svc.Shifts.List(c.Request.Context(), scopeOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// PostShift handles POST /api/shifts. A body with an id updates that shift.
func (h *Handler) PostShift(c *gin.Context) {
	var req model.Shift
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	saved, err := h.svc.Shifts.Save(c.Request.Context(), scopeOf(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	c.JSON(status, saved)
}

// DeleteShift handles DELETE /api/shifts/:id.
func (h *Handler) DeleteShift(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Shifts.Delete(c.Request.Context(), scopeOf(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
