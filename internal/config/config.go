// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/storage-providers/internal/storage"
)

// Static errors for configuration validation.
var (
	// ErrUnsupportedBackend is returned when STORAGE_BACKEND is not local, s3 or minio.
	ErrUnsupportedBackend = errors.New("config: STORAGE_BACKEND must be one of local, s3, minio")
	// ErrBucketRequired is returned when STORAGE_BUCKET is empty.
	ErrBucketRequired = errors.New("config: STORAGE_BUCKET is required")
	// ErrCredentialsRequired is returned when a cloud backend has no static credentials.
	ErrCredentialsRequired = errors.New("config: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required for cloud storage")
	// ErrMinioEndpointRequired is returned when the minio backend has no endpoint.
	ErrMinioEndpointRequired = errors.New("config: MINIO_ENDPOINT is required for minio storage")
	// ErrInvalidPort is returned when PORT is outside 1-65535.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrInvalidMaxUploadSize is returned when MAX_UPLOAD_SIZE cannot be parsed.
	ErrInvalidMaxUploadSize = errors.New("config: MAX_UPLOAD_SIZE must be a size such as 32MB")
	// ErrInvalidMaxDownloadSize is returned when MAX_DOWNLOAD_SIZE cannot be parsed.
	ErrInvalidMaxDownloadSize = errors.New("config: MAX_DOWNLOAD_SIZE must be a size such as 32MB")
)

// DotEnvFile is loaded before the environment is read, when it exists.
// Variables already set in the environment take precedence.
const DotEnvFile = ".env"

var validate = validator.New()

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`

	// Storage settings
	StorageBackend  string `env:"STORAGE_BACKEND, default=local" json:"storage_backend" validate:"oneof=local s3 minio"`
	StorageBucket   string `env:"STORAGE_BUCKET, default=storage" json:"storage_bucket" validate:"required"`
	MaxUploadSize   string `env:"MAX_UPLOAD_SIZE, default=32MB" json:"max_upload_size"`
	MaxDownloadSize string `env:"MAX_DOWNLOAD_SIZE, default=32MB" json:"max_download_size"`

	// S3 settings
	S3Region       string `env:"S3_REGION, default=us-east-1" json:"s3_region"`
	S3Endpoint     string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE, default=false" json:"s3_use_path_style"`

	// MinIO settings
	MinioEndpoint string `env:"MINIO_ENDPOINT" json:"minio_endpoint,omitempty" validate:"required_if=StorageBackend minio"`
	MinioUseSSL   bool   `env:"MINIO_USE_SSL, default=false" json:"minio_use_ssl"`

	// Cloud credentials
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-" validate:"required_unless=StorageBackend local"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-" validate:"required_unless=StorageBackend local"` // Masked in JSON

	// Observability settings
	MetricsEnabled bool   `env:"METRICS_ENABLED, default=true" json:"metrics_enabled"`
	LogFormat      string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel       string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration describes a usable backend.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: %w", err)
		}
		// Map the first failing field to our domain errors
		switch verrs[0].Field() {
		case "Port":
			return ErrInvalidPort
		case "StorageBackend":
			return ErrUnsupportedBackend
		case "StorageBucket":
			return ErrBucketRequired
		case "MinioEndpoint":
			return ErrMinioEndpointRequired
		case "AWSAccessKeyID", "AWSSecretAccessKey":
			return ErrCredentialsRequired
		default:
			return fmt.Errorf("config: %w", err)
		}
	}

	if _, err := c.MaxUploadBytes(); err != nil {
		return err
	}
	if _, err := c.MaxDownloadBytes(); err != nil {
		return err
	}
	return nil
}

// MaxUploadBytes returns MAX_UPLOAD_SIZE in bytes.
func (c *Config) MaxUploadBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.MaxUploadSize)
	if err != nil || n == 0 {
		return 0, ErrInvalidMaxUploadSize
	}
	return int64(n), nil
}

// MaxDownloadBytes returns MAX_DOWNLOAD_SIZE in bytes.
func (c *Config) MaxDownloadBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.MaxDownloadSize)
	if err != nil || n == 0 {
		return 0, ErrInvalidMaxDownloadSize
	}
	return int64(n), nil
}

// Backend returns the configured storage backend.
func (c *Config) Backend() storage.Backend {
	return storage.Backend(c.StorageBackend)
}

// StorageSettings returns the provider settings for the configured backend.
func (c *Config) StorageSettings() storage.Settings {
	s := storage.Settings{
		Backend:         c.Backend(),
		Bucket:          c.StorageBucket,
		Region:          c.S3Region,
		Endpoint:        c.S3Endpoint,
		UsePathStyle:    c.S3UsePathStyle,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
	}
	if c.Backend() == storage.BackendMinio {
		s.Endpoint = c.MinioEndpoint
		s.UseSSL = c.MinioUseSSL
	}
	return s
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, StorageBackend: %s, StorageBucket: %s, MaxUploadSize: %s, MaxDownloadSize: %s, S3Region: %s, S3Endpoint: %s, MinioEndpoint: %s, MetricsEnabled: %t, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.StorageBackend,
		c.StorageBucket,
		c.MaxUploadSize,
		c.MaxDownloadSize,
		c.S3Region,
		c.S3Endpoint,
		c.MinioEndpoint,
		c.MetricsEnabled,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
