package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"millline-backend/config"
	"millline-backend/internal/access"
	"millline-backend/internal/api"
	"millline-backend/internal/assign"
	"millline-backend/internal/catalog"
	"millline-backend/internal/db"
	"millline-backend/internal/layout"
	"millline-backend/internal/line"
	"millline-backend/internal/logs"
	"millline-backend/internal/profile"
	"millline-backend/internal/shift"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
)

func main() {
	logger := logs.Logger

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	if err := logs.Init(logs.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		logger.Fatalf("failed to initialize logging: %v", err)
	}
	logger.Infof("configuration loaded successfully from %s", configPath)

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Infof("database initialized successfully (driver %s)", cfg.Database.Driver)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Seed(ctx, gormDB, cfg.Bootstrap); err != nil {
		cancel()
		logger.Fatalf("failed to seed bootstrap data: %v", err)
	}
	cancel()
	logger.WithField("tenants", len(cfg.Bootstrap.Tenants)).
		WithField("principals", len(cfg.Bootstrap.Principals)).
		Info("bootstrap data applied")

	appStore := store.NewGormStore(gormDB)
	gate := access.NewStoreGate(gormDB)

	services := api.Services{
		Resolver:  tenancy.NewResolver(gormDB),
		Catalog:   catalog.NewService(appStore, gate),
		Lines:     line.NewRegistry(appStore, gate),
		Lifecycle: line.NewController(appStore, gate),
		Assign:    assign.NewEngine(appStore, gate),
		Layouts:   layout.NewStore(appStore, gate),
		Shifts:    shift.NewService(appStore, gate),
		Profiles:  profile.NewService(appStore, gate),
	}

	// Initialize router
	router := api.NewRouter(appStore, services, cfg.Server)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logger.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Server gracefully stopped")
}
