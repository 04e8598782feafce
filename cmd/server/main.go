// Package main is the entry point for the videotube API server.
//
// The main package is kept minimal. Its job is to:
// 1. Read configuration (YAML file and/or environment)
// 2. Create the logger
// 3. Start the application
//
// All actual logic lives in internal/ packages.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/videotube/internal/config"
	"github.com/sakif/videotube/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// -config (or CONFIG_PATH) points at an optional YAML file. Without
	// one, every setting comes from the environment.
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	// === 2. LOGGING ===
	logger := setupLogger(cfg.Env)
	slog.SetDefault(logger)

	// === 3. DATA DIRECTORIES ===
	// os.MkdirAll is `mkdir -p`: it creates all parents and succeeds if the
	// directory already exists.
	dirs := []string{filepath.Dir(cfg.Database.Path)}
	if cfg.Media.Driver == config.MediaDriverLocal {
		dirs = append(dirs, cfg.Media.Local.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create data directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(context.Background()); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setupLogger picks handler and level by environment:
// local is human-readable text, dev and prod are JSON for log shipping.
func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
