package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Compile-time check that LocalProvider implements Provider.
var _ Provider = (*LocalProvider)(nil)

// LocalProvider implements Provider on a local directory.
// Every path is resolved below the bucket directory.
type LocalProvider struct {
	bucket string
}

// NewLocalProvider creates a LocalProvider rooted at bucket.
// It fails immediately when the application cannot write to bucket.
func NewLocalProvider(bucket string) (*LocalProvider, error) {
	if bucket == "" {
		return nil, newError("init", bucket, "Storage bucket is not configured.", ErrInvalidPath)
	}
	bucket, err := filepath.Abs(bucket)
	if err != nil {
		return nil, newError("init", bucket, "App does not have write access to storage bucket.", err)
	}

	info, err := os.Stat(bucket)
	if err != nil {
		return nil, newError("init", bucket, "App does not have write access to storage bucket.", err)
	}
	if !info.IsDir() {
		return nil, newError("init", bucket, "App does not have write access to storage bucket.",
			fmt.Errorf("%s is not a directory: %w", bucket, ErrNotWritable))
	}
	if err := unix.Access(bucket, unix.W_OK); err != nil {
		return nil, newError("init", bucket, "App does not have write access to storage bucket.",
			errors.Join(ErrNotWritable, err))
	}

	return &LocalProvider{bucket: bucket}, nil
}

// Bucket returns the root directory of the provider.
func (p *LocalProvider) Bucket() string {
	return p.bucket
}

// IsFile reports whether a regular file exists at path.
func (p *LocalProvider) IsFile(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}

	fullPath, err := p.resolve(path)
	if err != nil {
		return false, newError("is_file", path, "Invalid file path.", err)
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return false, nil
	}
	return info.Mode().IsRegular(), nil
}

// GetFile returns the contents of the file at path. Missing files and
// unreadable files are reported the same way.
func (p *LocalProvider) GetFile(ctx context.Context, path string, opts ...Option) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	o := applyOptions(opts)
	description := fmt.Sprintf("File (%s) could not be accessed.", path)

	fullPath, err := p.resolve(path)
	if err != nil {
		return nil, newError("get_file", path, description, err)
	}

	f, err := os.Open(fullPath) // #nosec G304 - path is confined to the bucket by resolve
	if err != nil {
		return nil, newError("get_file", path, description, err)
	}
	defer func() { _ = f.Close() }()

	data, err := readAll(f, o.MaxBytes)
	if err != nil {
		return nil, newError("get_file", path, description, err)
	}
	return data, nil
}

// SaveFile copies contents to path, creating missing parent directories,
// and returns the path of the written file.
func (p *LocalProvider) SaveFile(ctx context.Context, contents io.Reader, path string, opts ...Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}
	o := applyOptions(opts)
	const description = "File could not be written."

	fullPath, err := p.resolve(path)
	if err != nil {
		return "", newError("save_file", path, description, err)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0750); err != nil {
		return "", newError("save_file", path, description, fmt.Errorf("create directory: %w", err))
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if o.Append {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := os.OpenFile(fullPath, flag, o.FileMode) // #nosec G304 - path is confined to the bucket by resolve
	if err != nil {
		return "", newError("save_file", path, description, fmt.Errorf("open file: %w", err))
	}

	if _, err := io.Copy(f, contents); err != nil {
		_ = f.Close()
		if !o.Append {
			_ = os.Remove(fullPath)
		}
		return "", newError("save_file", path, description, fmt.Errorf("write file: %w", err))
	}

	if err := f.Close(); err != nil {
		return "", newError("save_file", path, description, fmt.Errorf("close file: %w", err))
	}

	return fullPath, nil
}

// DeleteFile removes the file at path. Missing files and files the
// application may not remove both yield false.
func (p *LocalProvider) DeleteFile(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context cancelled: %w", err)
	}

	fullPath, err := p.resolve(path)
	if err != nil {
		return false, newError("delete_file", path, "Invalid file path.", err)
	}

	info, err := os.Lstat(fullPath)
	if err != nil || info.IsDir() {
		return false, nil
	}

	if err := os.Remove(fullPath); err != nil {
		return false, nil
	}
	return true, nil
}

// resolve maps path onto the bucket directory. An absolute path that already
// starts with the bucket, such as one returned by SaveFile, is kept as is.
func (p *LocalProvider) resolve(path string) (string, error) {
	if path == "" {
		return "", ErrInvalidPath
	}

	// Only absolute paths may carry the bucket prefix; relative keys always
	// live below the bucket, even when they start with its name.
	clean := filepath.Clean(path)
	fullPath := filepath.Join(p.bucket, clean)
	if filepath.IsAbs(clean) && strings.HasPrefix(clean, p.bucket+string(filepath.Separator)) {
		fullPath = clean
	}

	rel, err := filepath.Rel(p.bucket, fullPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q escapes bucket: %w", path, ErrInvalidPath)
	}
	return fullPath, nil
}
