package main

import (
	"log/slog"
	"os"

	"github.com/driftglass/narrative-trace/internal/config"
	"github.com/driftglass/narrative-trace/internal/httpserver"
	"github.com/driftglass/narrative-trace/internal/models"
	"github.com/driftglass/narrative-trace/internal/store"
)

// main boots the service: config → data dir → snapshot → HTTP server.
func main() {
	// Runtime config from environment (HOST, PORT, DATA_DIR).
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	files, err := store.NewFiles(cfg.DataDir)
	if err != nil {
		slog.Error("data dir", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}

	// A missing or corrupt snapshot is absorbed: the service starts
	// from zeroed aggregates and the append log stays authoritative.
	snap, err := files.Load()
	if err != nil {
		slog.Warn("snapshot load failed, starting fresh", "err", err)
		snap = models.NewSnapshot()
	}

	stats := store.NewStats(snap)
	router := httpserver.NewRouter(stats, files)

	slog.Info("server started", "addr", cfg.Addr(), "dataDir", cfg.DataDir)
	if err := router.Run(cfg.Addr()); err != nil {
		slog.Error("server", "err", err)
		os.Exit(1)
	}
}
