package storage

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel errors.
var (
	// ErrStorage matches every error returned by a provider operation.
	ErrStorage = errors.New("storage error")
	// ErrInvalidPath is returned for empty paths and paths escaping the bucket.
	ErrInvalidPath = errors.New("invalid storage path")
	// ErrTooLarge is returned by GetFile when the file exceeds WithMaxBytes.
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrNotWritable is returned when the local bucket cannot be written to.
	ErrNotWritable = errors.New("storage bucket is not writable")
)

// Error describes a failed provider operation.
// Description is safe to show to HTTP clients; Err keeps the backend cause.
type Error struct {
	Op          string
	Path        string
	Description string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s %q: %s: %v", e.Op, e.Path, e.Description, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %s", e.Op, e.Path, e.Description)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every *Error match ErrStorage.
func (e *Error) Is(target error) bool {
	return target == ErrStorage
}

// Description returns the client-facing description carried by err, or a
// generic one when err is not a storage error.
func Description(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Description != "" {
		return se.Description
	}
	return "Internal storage failure."
}

func newError(op, path, description string, err error) *Error {
	return &Error{Op: op, Path: path, Description: description, Err: err}
}

// readAll reads r fully, enforcing limit when it is positive.
func readAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
