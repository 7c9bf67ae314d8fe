package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"newsrelay/internal/config"
	"newsrelay/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		if config.MissingCredentials(err) {
			fmt.Fprintln(os.Stderr, "Please provide the DISCOVERY_API_KEY and DISCOVERY_URL environment variables to run the app.")
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := cfg.NewLogger("relay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"auth_type", cfg.AuthType,
		"environment_id", cfg.Scope.EnvironmentID,
		"collection_id", cfg.Scope.CollectionID,
	)

	queryService, err := server.SetupQueryService(cfg, logger)
	if err != nil {
		logger.Error("failed to setup query service", "error", err)
		os.Exit(1)
	}

	// API only; the console is served from elsewhere, so CORS is on
	h := server.NewHandler(queryService, server.Options{CORSOrigins: cfg.CORSOrigins}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, server.New(cfg, h), logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
