// Package storage provides pluggable file storage providers.
// It defines the Provider interface (port) shared by every backend and
// implementations for local disk, AWS S3 and S3-compatible MinIO endpoints.
package storage

import (
	"context"
	"io"
)

// Provider defines the file operations every storage backend must supply.
// Paths are relative to the provider's bucket: a directory for local storage,
// an object key for cloud storage.
type Provider interface {
	// IsFile reports whether a file exists at path.
	// Absence is never an error.
	IsFile(ctx context.Context, path string) (bool, error)

	// GetFile returns the full contents of the file at path.
	// Any failure, absence included, is returned as a storage error.
	GetFile(ctx context.Context, path string, opts ...Option) ([]byte, error)

	// SaveFile writes every byte read from contents to path and returns
	// the final path or key that was written.
	SaveFile(ctx context.Context, contents io.Reader, path string, opts ...Option) (string, error)

	// DeleteFile removes the file at path. It returns true if a file
	// existed and was removed, false if it was absent.
	DeleteFile(ctx context.Context, path string) (bool, error)
}

// Backend names a provider implementation selectable by configuration.
type Backend string

// Supported backends.
const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
	BackendMinio Backend = "minio"
)
