package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
)

// lineResponse is a line with its pattern flattened to type names.
type lineResponse struct {
	model.Line
	Pattern []model.MachineType `json:"pattern"`
}

func toLineResponse(l *model.Line) lineResponse {
	return lineResponse{Line: *l, Pattern: l.PatternTypes()}
}

type lineRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// GetLines handles GET /api/lines.
func (h *Handler) GetLines(c *gin.Context) {
	lines, err := h.svc.Lines.List(c.Request.Context(), scopeOf(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]lineResponse, 0, len(lines))
	for i := range lines {
		resp = append(resp, toLineResponse(&lines[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// PostLine handles POST /api/lines.
func (h *Handler) PostLine(c *gin.Context) {
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.svc.Lines.Create(c.Request.Context(), scopeOf(c), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLineResponse(l))
}

// GetLine handles GET /api/lines/:id.
func (h *Handler) GetLine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	l, err := h.svc.Lines.Get(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLineResponse(l))
}

// PatchLine handles PATCH /api/lines/:id.
func (h *Handler) PatchLine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req lineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.svc.Lines.Rename(c.Request.Context(), scopeOf(c), id, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLineResponse(l))
}

// DeleteLine handles DELETE /api/lines/:id.
func (h *Handler) DeleteLine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Lines.Delete(c.Request.Context(), scopeOf(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type patternRequest struct {
	Types []string `json:"types" binding:"required"`
}

// PutPattern handles PUT /api/lines/:id/pattern.
func (h *Handler) PutPattern(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req patternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.svc.Lines.SetPattern(c.Request.Context(), scopeOf(c), id, req.Types)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"line":       toLineResponse(result.Line),
		"ineligible": result.Ineligible,
	})
}

// GetInconsistencies handles GET /api/lines/:id/inconsistencies.
func (h *Handler) GetInconsistencies(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	machines, err := h.svc.Lines.Inconsistencies(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

type startRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp. Empty input
// yields nil.
func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.WithMetadata(apperr.CodeInvalidWindow, "invalid date", map[string]string{field: raw})
}

// PostStart handles POST /api/lines/:id/start.
func (h *Handler) PostStart(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}

	l, err := h.svc.Lifecycle.Start(c.Request.Context(), scopeOf(c), id, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLineResponse(l))
}

// PostStop handles POST /api/lines/:id/stop.
func (h *Handler) PostStop(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	l, err := h.svc.Lifecycle.Stop(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLineResponse(l))
}
