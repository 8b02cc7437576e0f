// Package bootstrap provides dependency initialization for the storage API.
package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maauso/storage-providers/internal/config"
	"github.com/maauso/storage-providers/internal/inject"
	"github.com/maauso/storage-providers/internal/metrics"
	"github.com/maauso/storage-providers/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	// Provider is shared by every request on the middleware routes.
	Provider storage.Provider
	// Factory builds a provider per request on the hook routes.
	Factory inject.Factory
	// Metrics serves the Prometheus registry; nil when metrics are disabled.
	Metrics http.Handler
}

// NewDependencies creates and initializes all dependencies for the application.
// Metrics are registered on reg when enabled in cfg.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*Dependencies, error) {
	settings := cfg.StorageSettings()

	if settings.Backend == storage.BackendLocal {
		if err := os.MkdirAll(settings.Bucket, 0750); err != nil {
			return nil, fmt.Errorf("create storage bucket: %w", err)
		}
	}

	provider, err := storage.New(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("create %s storage: %w", settings.Backend, err)
	}
	logStorage(logger, settings)

	factory := inject.Settings(settings)
	deps := &Dependencies{
		Provider: provider,
		Factory:  factory,
	}

	if cfg.MetricsEnabled {
		collectors := metrics.NewCollectors(reg)
		backend := string(settings.Backend)
		deps.Provider = collectors.Wrap(provider, backend)
		deps.Factory = inject.Wrap(factory, func(p storage.Provider) storage.Provider {
			return collectors.Wrap(p, backend)
		})
		deps.Metrics = metrics.Handler(reg)
	}

	return deps, nil
}

func logStorage(logger *slog.Logger, s storage.Settings) {
	switch s.Backend {
	case storage.BackendS3:
		logger.Info("S3 storage configured",
			slog.String("bucket", s.Bucket),
			slog.String("region", s.Region),
			slog.String("endpoint", s.Endpoint),
		)
	case storage.BackendMinio:
		logger.Info("MinIO storage configured",
			slog.String("bucket", s.Bucket),
			slog.String("endpoint", s.Endpoint),
			slog.Bool("ssl", s.UseSSL),
		)
	default:
		size, files := bucketUsage(s.Bucket)
		logger.Info("local storage configured",
			slog.String("bucket", s.Bucket),
			slog.Int("files", files),
			slog.String("size", humanize.Bytes(size)),
		)
	}
}

// bucketUsage sums the sizes of the regular files below dir.
// Unreadable entries are skipped.
func bucketUsage(dir string) (uint64, int) {
	var size uint64
	var files int
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += uint64(info.Size()) // #nosec G115 - file sizes are non-negative
		files++
		return nil
	})
	return size, files
}
