package inject

import (
	"errors"
	"net/http"

	"github.com/maauso/storage-providers/internal/storage"
)

// ErrNoProvider is reported when a handler expects an injected provider
// and none is present in the request context.
var ErrNoProvider = errors.New("no storage provider injected")

// Middleware attaches p to the context of every request.
// A nil provider is a wiring mistake and panics here, before any request
// is served.
func Middleware(p storage.Provider) func(http.Handler) http.Handler {
	if p == nil {
		panic("inject: Middleware requires a storage provider")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithProvider(r.Context(), p)))
		})
	}
}

// Contextual adapts h to read its provider from the request context set by
// Middleware. onError is called when no provider was injected.
func Contextual(h HandlerFunc, onError ErrorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			onError(w, r, ErrNoProvider)
			return
		}
		h(w, r, p)
	}
}
