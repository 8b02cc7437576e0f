package inject

import (
	"fmt"
	"net/http"

	"github.com/maauso/storage-providers/internal/storage"
)

// Factory builds a provider for a single request.
type Factory func(r *http.Request) (storage.Provider, error)

// Before wraps h with a hook that builds a provider from factory before
// every call. Factory failures are passed to onError and h is not run.
// A nil factory panics.
func Before(factory Factory, h HandlerFunc, onError ErrorWriter) http.HandlerFunc {
	if factory == nil {
		panic("inject: Before requires a provider factory")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := factory(r)
		if err != nil {
			onError(w, r, err)
			return
		}
		h(w, r, p)
	}
}

// LocalStorage returns a Factory creating a LocalProvider rooted at bucket.
func LocalStorage(bucket string) Factory {
	return func(*http.Request) (storage.Provider, error) {
		p, err := storage.NewLocalProvider(bucket)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// S3Storage returns a Factory creating an S3Provider from cfg.
func S3Storage(cfg storage.S3Config) Factory {
	return func(r *http.Request) (storage.Provider, error) {
		p, err := storage.NewS3Provider(r.Context(), cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 provider: %w", err)
		}
		return p, nil
	}
}

// Settings returns a Factory creating whichever backend s selects.
func Settings(s storage.Settings) Factory {
	return func(r *http.Request) (storage.Provider, error) {
		return storage.New(r.Context(), s)
	}
}

// Wrap returns a Factory that passes every provider built by f through
// wrap, for instance to add instrumentation.
func Wrap(f Factory, wrap func(storage.Provider) storage.Provider) Factory {
	return func(r *http.Request) (storage.Provider, error) {
		p, err := f(r)
		if err != nil {
			return nil, err
		}
		return wrap(p), nil
	}
}
