package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jwebster45206/statecraft-engine/internal/config"
	"github.com/jwebster45206/statecraft-engine/internal/handlers"
	"github.com/jwebster45206/statecraft-engine/internal/logger"
	"github.com/jwebster45206/statecraft-engine/internal/middleware"
	"github.com/jwebster45206/statecraft-engine/internal/session"
	"github.com/jwebster45206/statecraft-engine/internal/storage"
	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
	"github.com/jwebster45206/statecraft-engine/pkg/engine"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Statecraft Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	catalogs, err := catalog.Load(cfg.DataDir)
	if err != nil {
		log.Error("Failed to load content catalogs", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}
	if err := catalogs.Validate(); err != nil {
		log.Error("Content catalogs failed validation", "error", err)
		os.Exit(1)
	}
	log.Info("Content catalogs loaded",
		"departments", len(catalogs.Departments),
		"policies", len(catalogs.Policies),
		"events", len(catalogs.Events),
		"endings", len(catalogs.Endings))

	// Storage is optional: if Redis never comes up, the game still
	// runs and only cloud save/load is disabled.
	var store storage.Storage
	redisStore := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := redisStore.WaitForConnection(storageCtx); err != nil {
		log.Warn("Storage unreachable, cloud saves disabled", "error", err)
		if closeErr := redisStore.Close(); closeErr != nil {
			log.Warn("Error closing storage connection", "error", closeErr)
		}
	} else {
		store = redisStore
	}

	registry := session.NewRegistry()

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	gameHandler := handlers.NewGameHandler(log, catalogs, registry, store)
	if cfg.RandomSeed != "" {
		seed, err := strconv.ParseInt(cfg.RandomSeed, 10, 64)
		if err != nil {
			log.Error("Invalid RANDOM_SEED", "value", cfg.RandomSeed, "error", err)
			os.Exit(1)
		}
		var sessionCount atomic.Int64
		gameHandler.SetEngineFactory(func() *engine.Engine {
			return engine.New(catalogs, engine.NewRand(seed+sessionCount.Add(1)), nil)
		})
		log.Info("Seeded event draws enabled", "seed", seed)
	}
	mux.Handle("/v1/game", gameHandler)
	mux.Handle("/v1/game/", gameHandler)

	endingsHandler := handlers.NewEndingsHandler(log, catalogs, store)
	mux.Handle("/v1/endings", endingsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if store != nil {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
