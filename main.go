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

	"printforge/internal/config"
	"printforge/internal/meshstore"
	"printforge/internal/slicer"
	"printforge/internal/webserver"
)

func main() {
	cfg, err := config.Load(os.Getenv("PRINTFORGE_CONFIG"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store := meshstore.New(time.Duration(cfg.MeshTTL))
	runner := slicer.NewRunner(cfg.EnginePath, time.Duration(cfg.SliceTimeout))

	if !runner.Available() {
		slog.Warn("Slicing engine not found, slice requests will be rejected",
			"path", cfg.EnginePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go store.Janitor(ctx, time.Minute)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: webserver.New(cfg, store, runner).Routes(),
	}

	go func() {
		slog.Info("Server started", "port", cfg.Port, "engine", cfg.EnginePath)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server startup error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}
