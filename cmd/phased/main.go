// Command phased serves the live economic-event phase over HTTP and, when
// Redis is enabled, publishes every phase transition.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"fusioncli/internal/app"
	"fusioncli/internal/config"
	"fusioncli/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $FUSION_CONFIG, ./config.yaml, ./configs/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx := context.Background()
	application, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
