package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"millline-backend/internal/profile"
)

// GetProfile handles GET /api/tenant/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.svc.Profiles.Get(c.Request.Context(), scopeOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PutProfile handles PUT /api/tenant/profile.
func (h *Handler) PutProfile(c *gin.Context) {
	var req profile.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.Profiles.Update(c.Request.Context(), scopeOf(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
