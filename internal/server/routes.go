package server

import (
	"log/slog"
	"net/http"

	"github.com/maauso/storage-providers/internal/inject"
	"github.com/maauso/storage-providers/internal/storage"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// Provider is injected by middleware into the /middleware/files routes.
	Provider storage.Provider
	// Factory builds a provider per request for the /hook/files routes.
	Factory inject.Factory
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
// Provider and Factory are required.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	// Provider built once, carried in the request context
	injected := inject.Middleware(cfg.Provider)
	mux.Handle("GET /middleware/files", injected(inject.Contextual(h.GetFile, h.ProviderError)))
	mux.Handle("POST /middleware/files", injected(inject.Contextual(h.SaveFile, h.ProviderError)))
	mux.Handle("DELETE /middleware/files", injected(inject.Contextual(h.DeleteFile, h.ProviderError)))

	// Provider built per request by the route hook
	mux.Handle("GET /hook/files", inject.Before(cfg.Factory, h.GetFile, h.ProviderError))
	mux.Handle("POST /hook/files", inject.Before(cfg.Factory, h.SaveFile, h.ProviderError))
	mux.Handle("DELETE /hook/files", inject.Before(cfg.Factory, h.DeleteFile, h.ProviderError))

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Apply middleware chain
	chain := ChainMiddleware(
		RequestIDMiddleware(),
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
