// Package main provides the entry point for the storage API server.
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

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/maauso/storage-providers/internal/bootstrap"
	"github.com/maauso/storage-providers/internal/config"
	"github.com/maauso/storage-providers/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	maxDownload, err := cfg.MaxDownloadBytes()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Info("starting storage API",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("storage_backend", cfg.StorageBackend),
		slog.String("storage_bucket", cfg.StorageBucket),
		slog.String("max_upload_size", humanize.Bytes(uint64(maxUpload))),     // #nosec G115 - validated positive
		slog.String("max_download_size", humanize.Bytes(uint64(maxDownload))), // #nosec G115 - validated positive
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(context.Background(), cfg, logger, reg)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	// Initialize HTTP handlers and router
	handlers := server.NewHandlers(logger,
		server.WithMaxUploadBytes(maxUpload),
		server.WithMaxDownloadBytes(maxDownload),
	)
	routerCfg := server.DefaultConfig()
	routerCfg.Provider = deps.Provider
	routerCfg.Factory = deps.Factory
	routerCfg.Metrics = deps.Metrics
	router := server.NewRouter(handlers, logger, routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       300 * time.Second, // Allow for large uploads
		WriteTimeout:      300 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown handling
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal",
			slog.String("signal", sig.String()),
		)
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
