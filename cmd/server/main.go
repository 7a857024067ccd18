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

	"golang.org/x/sync/errgroup"

	"github.com/qepting91/reddit-grid/internal/collector"
	"github.com/qepting91/reddit-grid/internal/config"
	"github.com/qepting91/reddit-grid/internal/dashboard"
	"github.com/qepting91/reddit-grid/internal/fetcher"
	"github.com/qepting91/reddit-grid/internal/grid"
	"github.com/qepting91/reddit-grid/internal/httpserver"
	"github.com/qepting91/reddit-grid/internal/starcache"
	"github.com/qepting91/reddit-grid/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Setup
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Collaborators
	client, err := collector.NewCollector(cfg.Collector)
	if err != nil {
		return fmt.Errorf("create collector: %w", err)
	}
	logger.Info("collector initialized", "mode", cfg.Collector.Mode, "base_url", cfg.Collector.BaseURL)

	store, err := storage.NewStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create group store: %w", err)
	}
	defer store.Close()
	logger.Info("group store ready", "type", cfg.Storage.Type)

	cache := starcache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	if cfg.Cache.TTL > 0 {
		if err := starcache.StartJanitor(ctx, cache, cfg.Cache.SweepSpec, logger); err != nil {
			return err
		}
	}

	// 3. Core
	worker := fetcher.New(client, logger)
	stats := dashboard.NewStats()
	svc := grid.NewService(worker, cache, store, stats, logger)
	server := httpserver.NewServer(cfg, svc, stats.Handler(), logger)

	// 4. Run until a signal arrives or something fails
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(gctx)
	})

	g.Go(func() error {
		select {
		case <-worker.Ready():
		case <-gctx.Done():
			return nil
		}
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error shutting down http server", "error", err)
		}
		return nil
	})

	logger.Info("server started", "port", cfg.Port)
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
