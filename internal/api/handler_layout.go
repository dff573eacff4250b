package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"millline-backend/internal/model"
)

// GetLineLayout handles GET /api/lines/:id/layout.
func (h *Handler) GetLineLayout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	graph, err := h.svc.Layouts.LoadLine(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// PutLineLayout handles PUT /api/lines/:id/layout.
func (h *Handler) PutLineLayout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var graph model.LayoutGraph
	if err := c.ShouldBindJSON(&graph); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Layouts.SaveLine(c.Request.Context(), scopeOf(c), id, graph); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFacilityLayout handles GET /api/layout.
func (h *Handler) GetFacilityLayout(c *gin.Context) {
	graph, err := h.svc.Layouts.LoadFacility(c.Request.Context(), scopeOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// PutFacilityLayout handles PUT /api/layout.
func (h *Handler) PutFacilityLayout(c *gin.Context) {
	var graph model.LayoutGraph
	if err := c.ShouldBindJSON(&graph); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Layouts.SaveFacility(c.Request.Context(), scopeOf(c), graph); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
