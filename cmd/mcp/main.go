package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/ingredient-search/internal/adapters/mcp"
	"github.com/kirillkom/ingredient-search/internal/bootstrap"
	"github.com/kirillkom/ingredient-search/internal/config"
	"github.com/kirillkom/ingredient-search/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// stdout carries the stdio protocol, so logs go to stderr
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.WithLogger(logger))
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.SearchUC, logger)

	switch cfg.MCPTransport {
	case "http":
		httpServer := srv.StreamableHTTP()
		go func() {
			logger.Info("mcp_listening", "addr", cfg.MCPAddr)
			if err := httpServer.Start(cfg.MCPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("mcp_server_failed", "error", err)
				stop()
			}
		}()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("mcp_shutdown_failed", "error", err)
		}
	default:
		if err := srv.ServeStdio(); err != nil {
			logger.Error("mcp_stdio_failed", "error", err)
		}
	}
}
