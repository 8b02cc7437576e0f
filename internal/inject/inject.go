// Package inject makes a storage.Provider available to HTTP handlers.
//
// Two styles are supported. Middleware is built once with a provider and
// stores it in every request context. Before is a per-route hook that
// builds a fresh provider for each request from a Factory. Handlers in
// both styles receive the provider as an explicit argument.
package inject

import (
	"context"
	"net/http"

	"github.com/maauso/storage-providers/internal/storage"
)

type contextKey struct{}

// HandlerFunc is an HTTP handler that receives its storage provider explicitly.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, p storage.Provider)

// ErrorWriter renders a provider that could not be obtained for a request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// WithProvider returns a copy of ctx carrying p.
func WithProvider(ctx context.Context, p storage.Provider) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the provider stored by Middleware.
func FromContext(ctx context.Context) (storage.Provider, bool) {
	p, ok := ctx.Value(contextKey{}).(storage.Provider)
	return p, ok && p != nil
}
