// Package main implements the entry point for the jobvault server, a
// small HTTP service that runs registered task types as background jobs
// and persists their lifecycle through a pluggable storage backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/jobvault/internal/api"
	"github.com/phrazzld/jobvault/internal/config"
	badgerstore "github.com/phrazzld/jobvault/internal/platform/badger"
	fsstore "github.com/phrazzld/jobvault/internal/platform/fs"
	"github.com/phrazzld/jobvault/internal/platform/logger"
	"github.com/phrazzld/jobvault/internal/platform/memory"
	"github.com/phrazzld/jobvault/internal/platform/postgres"
	redisstore "github.com/phrazzld/jobvault/internal/platform/redis"
	"github.com/phrazzld/jobvault/internal/runner"
	"github.com/phrazzld/jobvault/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// run loads configuration, wires the store, runner and HTTP surface
// together, and serves until interrupted.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"storage_backend", cfg.Storage.Backend)

	jobStore, cleanup, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	defer cleanup()

	jobRunner := runner.New(jobStore, runner.Config{
		MaxConcurrent: cfg.Runner.MaxConcurrent,
		SaveRetries:   cfg.Runner.SaveRetries,
		RetryBackoff:  cfg.Runner.RetryBackoff,
	}, appLogger)

	handler := api.NewJobsHandler(jobRunner)
	registerTasks(handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, appLogger),
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("server listening", "addr", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown failed", "error", err)
	}

	// Let in-flight jobs finish and persist their terminal records before
	// the store is closed.
	jobRunner.Stop()

	return nil
}

// openStore builds the configured Store backend. The returned cleanup
// releases whatever resources the backend holds.
func openStore(ctx context.Context, cfg config.StorageConfig) (store.Store, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "memory":
		return memory.New(), noop, nil

	case "fs":
		s, err := fsstore.New(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case "badger":
		s, err := badgerstore.New(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("failed to close badger store: %v", err)
			}
		}, nil

	case "postgres":
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("failed to close postgres store: %v", err)
			}
		}, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return redisstore.New(client, cfg.RedisTTL), func() {
			if err := client.Close(); err != nil {
				log.Printf("failed to close redis client: %v", err)
			}
		}, nil

	default:
		return nil, nil, errors.New("unknown storage backend: " + cfg.Backend)
	}
}
