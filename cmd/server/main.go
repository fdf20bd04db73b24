package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/putao520/qrcodesdk/internal/backend"
	"github.com/putao520/qrcodesdk/internal/core"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	configPath := core.ConfigPath()
	config, err := core.LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}
	setupLogger(config.LogLevel)

	coreService, err := core.NewCoreService(context.Background(), config)
	if err != nil {
		slog.Error("failed to initialize core service", "error", err)
		os.Exit(1)
	}

	server := backend.NewServer()
	backend.NewAPIService(config, coreService).SetRoutes(server)

	portString := fmt.Sprintf(":%d", config.Port)

	// Start HTTP server in a goroutine to allow graceful shutdown
	go func() {
		slog.Info("starting server", "port", config.Port)
		if err := server.Start(portString); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := coreService.Close(); err != nil {
		slog.Error("core service close error", "error", err)
	}
}

func setupLogger(level string) {
	lvl, err := core.ParseLogLevel(level)
	if err != nil {
		slog.Warn("unknown log level, using info", "level", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
