package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/showseat/docs"
	"github.com/kirinyoku/showseat/internal/app"
	"github.com/kirinyoku/showseat/internal/config"
)

// @title Showseat API
// @version 1.0
// @description Seat inventory and booking for cinema showings.
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
