package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"millline-backend/config"
	"millline-backend/internal/logs"
	"millline-backend/internal/mw"
	"millline-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, svc Services, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestID(), mw.Logger(logs.Logger), gin.Recovery())

	handler := NewHandler(s, svc, cfg.PrincipalHeader)

	// Unauthenticated traffic is limited per address, resolved callers per
	// principal as well.
	limit := rate.Limit(cfg.RateLimitPerSec)
	ipLimiter := mw.RateLimiter(limit, cfg.RateLimitBurst, mw.ByClientIP)
	principalLimiter := mw.RateLimiter(limit, cfg.RateLimitBurst, mw.ByPrincipal)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl, mw.ByURI)

	r.GET("/healthz", handler.GetHealth)

	// API group
	api := r.Group("/api")
	api.Use(ipLimiter)
	{
		// The type universe is the same for every mill.
		api.GET("/machine-types", caching, handler.GetMachineTypes)

		scoped := api.Group("", handler.RequireScope, principalLimiter)

		scoped.GET("/tenant/machine-types", handler.GetTenantMachineTypes)
		scoped.PUT("/tenant/machine-types", handler.PutTenantMachineType)
		scoped.GET("/tenant/profile", handler.GetProfile)
		scoped.PUT("/tenant/profile", handler.PutProfile)

		scoped.GET("/machines", handler.GetMachines)
		scoped.POST("/machines/batch", handler.PostMachineBatch)
		scoped.PATCH("/machines/:id", handler.PatchMachine)
		scoped.DELETE("/machines/:id", handler.DeleteMachine)

		scoped.GET("/lines", handler.GetLines)
		scoped.POST("/lines", handler.PostLine)
		scoped.GET("/lines/:id", handler.GetLine)
		scoped.PATCH("/lines/:id", handler.PatchLine)
		scoped.DELETE("/lines/:id", handler.DeleteLine)
		scoped.PUT("/lines/:id/pattern", handler.PutPattern)
		scoped.GET("/lines/:id/inconsistencies", handler.GetInconsistencies)

		scoped.GET("/lines/:id/assignable", handler.GetAssignable)
		scoped.POST("/lines/:id/assign", handler.PostAssign)
		scoped.POST("/lines/:id/release", handler.PostRelease)
		scoped.PUT("/lines/:id/handling", handler.PutHandling)

		scoped.GET("/lines/:id/layout", handler.GetLineLayout)
		scoped.PUT("/lines/:id/layout", handler.PutLineLayout)
		scoped.GET("/layout", handler.GetFacilityLayout)
		scoped.PUT("/layout", handler.PutFacilityLayout)

		scoped.POST("/lines/:id/start", handler.PostStart)
		scoped.POST("/lines/:id/stop", handler.PostStop)

		scoped.GET("/shifts", handler.GetShifts)
		scoped.POST("/shifts", handler.PostShift)
		scoped.DELETE("/shifts/:id", handler.DeleteShift)
	}

	return r
}
