package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eia-drafter/internal/config"
	"eia-drafter/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer func() {
		if s, ok := container.Logger.(interface{ Sync() error }); ok {
			_ = s.Sync()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := container.Generator.Ready(ctx); err != nil {
		container.Logger.Warn("Generation service not ready; runs will fail until configured", "error", err.Error())
	}
	go container.Sessions.RunSweeper(ctx, time.Minute, container.Logger)

	// Handlers
	handlers := handler.Handlers{
		Sessions: handler.NewSessionHandler(
			container.Sessions,
			container.ReportService,
			container.Config.GetMaxFileSize(),
			container.Logger,
		),
		Catalog: handler.NewCatalogHandler(container.ReportService, container.Logger),
	}
	var authMiddleware func(http.Handler) http.Handler
	if container.AuthService != nil {
		handlers.Auth = handler.NewAuthHandler()
		authMiddleware = handler.NewAuthMiddleware(container.AuthService, container.Logger).Middleware
	}

	// Router
	router := handler.NewRouter(handlers, authMiddleware, container.Config.GetCORSOrigins())

	// Generation calls can run for minutes, so only the header read is bounded.
	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	<-ctx.Done()

	container.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Graceful shutdown failed", err)
		_ = server.Close()
	}
	if err := container.Close(); err != nil {
		container.Logger.Error("Failed to close generation backend", err)
	}

	container.Logger.Info("Server exited")
}
