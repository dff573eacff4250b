package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"millline-backend/internal/apperr"
	"millline-backend/internal/assign"
	"millline-backend/internal/catalog"
	"millline-backend/internal/layout"
	"millline-backend/internal/line"
	"millline-backend/internal/logs"
	"millline-backend/internal/mw"
	"millline-backend/internal/profile"
	"millline-backend/internal/shift"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
)

const scopeKey = "scope"

// Services are the core operations exposed over HTTP.
type Services struct {
	Resolver  *tenancy.Resolver
	Catalog   *catalog.Service
	Lines     *line.Registry
	Lifecycle *line.Controller
	Assign    *assign.Engine
	Layouts   *layout.Store
	Shifts    *shift.Service
	Profiles  *profile.Service
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store           store.Store
	svc             Services
	principalHeader string
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, svc Services, principalHeader string) *Handler {
	return &Handler{
		store:           s,
		svc:             svc,
		principalHeader: principalHeader,
	}
}

// RequireScope resolves the principal header into the request's tenant scope.
func (h *Handler) RequireScope(c *gin.Context) {
	scope, err := h.svc.Resolver.Resolve(c.Request.Context(), c.GetHeader(h.principalHeader))
	if err != nil {
		respondError(c, err)
		c.Abort()
		return
	}
	c.Set(scopeKey, scope)
	c.Set(mw.PrincipalKey, scope.Principal)
	c.Next()
}

func scopeOf(c *gin.Context) tenancy.Scope {
	return c.MustGet(scopeKey).(tenancy.Scope)
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string            `json:"error"`
	Code    apperr.Code       `json:"code"`
	IDs     []int64           `json:"ids"`
	Details map[string]string `json:"details"`
}

func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logs.Logger.WithError(err).
			WithField("request_id", c.GetString(mw.RequestIDKey)).
			Error("unhandled error")
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   "internal error",
			Code:    apperr.CodeInternal,
			IDs:     []int64{},
			Details: map[string]string{},
		})
		return
	}

	resp := errorResponse{
		Error:   appErr.Error(),
		Code:    appErr.Code,
		IDs:     appErr.IDs,
		Details: appErr.Metadata,
	}
	if resp.IDs == nil {
		resp.IDs = []int64{}
	}
	if resp.Details == nil {
		resp.Details = map[string]string{}
	}
	c.JSON(appErr.Code.HTTPStatus(), resp)
}

func badRequest(c *gin.Context, err error) {
	respondError(c, apperr.Wrap(apperr.CodeInvalidArgument, "invalid request", err))
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.WithMetadata(apperr.CodeInvalidArgument, "invalid "+name, map[string]string{name: c.Param(name)}))
		return 0, false
	}
	return id, true
}
