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

// webapp serves the console bundle and the relay API from one origin.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		if config.MissingCredentials(err) {
			fmt.Fprintln(os.Stderr, "Please provide the DISCOVERY_API_KEY and DISCOVERY_URL environment variables to run the app.")
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := cfg.NewLogger("webapp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if info, err := os.Stat(cfg.StaticDir); err != nil || !info.IsDir() {
		logger.Error("static directory not found", "dir", cfg.StaticDir)
		os.Exit(1)
	}

	logger.Info("webapp starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"static_dir", cfg.StaticDir,
	)

	queryService, err := server.SetupQueryService(cfg, logger)
	if err != nil {
		logger.Error("failed to setup query service", "error", err)
		os.Exit(1)
	}

	h := server.NewHandler(queryService, server.Options{StaticDir: cfg.StaticDir}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, server.New(cfg, h), logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
