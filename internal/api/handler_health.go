package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"millline-backend/internal/logs"
)

// GetHealth handles GET /healthz.
func (h *Handler) GetHealth(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		logs.Logger.WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
