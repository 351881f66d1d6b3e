package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-reader-api/internal/config"
	"doc-reader-api/internal/handler"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wiring
	container, err := config.NewContainer(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()

	if err := container.SeedLimits(ctx); err != nil {
		container.Logger.Error("Failed to seed feature limits", err)
		_ = container.Close()
		os.Exit(1)
	}

	cfg := container.Config
	logger := container.Logger

	// Handlers
	usageHandler := handler.NewUsageHandler(container.EntitlementService, logger)
	aiHandler := handler.NewAIHandler(container.DocumentAIService, logger)
	ocrHandler := handler.NewOCRHandler(container.OCRService, cfg.GetMaxFileSize(), logger)
	adminHandler := handler.NewAdminHandler(container.EntitlementService, cfg.GetAdminSecret(), logger)
	authMiddleware := handler.NewAuthMiddleware(container.AuthService, logger)

	// Router
	router := handler.NewRouter(
		usageHandler,
		aiHandler,
		ocrHandler,
		adminHandler,
		authMiddleware.Middleware,
		handler.RouterOptions{
			AllowedOrigins: cfg.GetCORSAllowedOrigins(),
			Metrics:        container.Metrics,
			MetricsHandler: container.MetricsHandler,
			HealthChecks:   container.HealthChecks,
		},
	)

	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", err)
	}

	logger.Info("Server exited")
}
