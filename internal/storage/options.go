package storage

import "os"

const defaultFileMode os.FileMode = 0640

// Options holds per-call settings. Backends ignore fields that do not apply
// to them.
type Options struct {
	// ContentType is stored as the object Content-Type by cloud backends.
	ContentType string
	// Append opens the local destination in append mode instead of truncating it.
	Append bool
	// FileMode is the permission used when the local destination is created.
	FileMode os.FileMode
	// MaxBytes limits GetFile to objects of at most this size. Zero means no limit.
	MaxBytes int64
}

// Option configures a single storage call.
type Option func(*Options)

// WithContentType sets the content type attached to an uploaded object.
func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

// WithAppend makes a local SaveFile append to an existing file.
func WithAppend() Option {
	return func(o *Options) {
		o.Append = true
	}
}

// WithFileMode sets the permission bits of files created by a local SaveFile.
func WithFileMode(mode os.FileMode) Option {
	return func(o *Options) {
		o.FileMode = mode
	}
}

// WithMaxBytes makes GetFile fail when the file is larger than n bytes.
func WithMaxBytes(n int64) Option {
	return func(o *Options) {
		o.MaxBytes = n
	}
}

func applyOptions(opts []Option) Options {
	o := Options{FileMode: defaultFileMode}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
