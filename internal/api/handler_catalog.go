package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"millline-backend/internal/catalog"
)

// GetMachineTypes handles GET /api/machine-types.
func (h *Handler) GetMachineTypes(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Catalog.MachineTypes())
}

// GetTenantMachineTypes handles GET /api/tenant/machine-types.
func (h *Handler) GetTenantMachineTypes(c *gin.Context) {
	types, err := h.svc.Catalog.TenantMachineTypes(c.Request.Context(), scopeOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

type putMachineTypeRequest struct {
	Type    string `json:"type" binding:"required"`
	Enabled *bool  `json:"enabled" binding:"required"`
}

// PutTenantMachineType handles PUT /api/tenant/machine-types.
func (h *Handler) PutTenantMachineType(c *gin.Context) {
	var req putMachineTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Catalog.SetTenantMachineType(c.Request.Context(), scopeOf(c), req.Type, *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMachines handles GET /api/machines.
func (h *Handler) GetMachines(c *gin.Context) {
	machines, err := h.svc.Catalog.ListMachines(c.Request.Context(), scopeOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// PostMachineBatch handles POST /api/machines/batch.
func (h *Handler) PostMachineBatch(c *gin.Context) {
	var req catalog.BatchSpec
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.svc.Catalog.AddMachines(c.Request.Context(), scopeOf(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type patchMachineRequest struct {
	Name string `json:"name" binding:"required"`
}

// PatchMachine handles PATCH /api/machines/:id.
func (h *Handler) PatchMachine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req patchMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.svc.Catalog.RenameMachine(c.Request.Context(), scopeOf(c), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMachine handles DELETE /api/machines/:id.
func (h *Handler) DeleteMachine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteMachine(c.Request.Context(), scopeOf(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
