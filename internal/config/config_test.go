package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/storage-providers/internal/storage"
)

var envKeys = []string{
	"PORT",
	"STORAGE_BACKEND",
	"STORAGE_BUCKET",
	"MAX_UPLOAD_SIZE",
	"MAX_DOWNLOAD_SIZE",
	"S3_REGION",
	"S3_ENDPOINT",
	"S3_USE_PATH_STYLE",
	"MINIO_ENDPOINT",
	"MINIO_USE_SSL",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"METRICS_ENABLED",
	"LOG_FORMAT",
	"LOG_LEVEL",
}

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, "storage", cfg.StorageBucket)
	assert.Equal(t, "32MB", cfg.MaxUploadSize)
	assert.Equal(t, "32MB", cfg.MaxDownloadSize)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("STORAGE_BUCKET", "my-bucket")
	t.Setenv("MAX_UPLOAD_SIZE", "1GiB")
	t.Setenv("MAX_DOWNLOAD_SIZE", "2MiB")
	t.Setenv("S3_REGION", "eu-west-1")
	t.Setenv("S3_ENDPOINT", "http://localhost:4566")
	t.Setenv("AWS_ACCESS_KEY_ID", "access-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret-key")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, storage.BackendS3, cfg.Backend())
	assert.Equal(t, "my-bucket", cfg.StorageBucket)
	assert.Equal(t, "eu-west-1", cfg.S3Region)
	assert.Equal(t, "http://localhost:4566", cfg.S3Endpoint)
	assert.Equal(t, "access-key", cfg.AWSAccessKeyID)
	assert.Equal(t, "secret-key", cfg.AWSSecretAccessKey)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)

	n, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<30), n)

	n, err = cfg.MaxDownloadBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(2<<20), n)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFile),
		[]byte("STORAGE_BUCKET=from-dotenv\nPORT=9000\n"), 0600))
	t.Setenv("PORT", "9100")
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.StorageBucket)
	// The environment wins over the file
	assert.Equal(t, 9100, cfg.Port)
}

func TestLoad_InvalidInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")

	// go-envconfig returns an error when parsing fails
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{
			name: "unknown backend",
			env:  map[string]string{"STORAGE_BACKEND": "ftp"},
			want: ErrUnsupportedBackend,
		},
		{
			name: "s3 without credentials",
			env:  map[string]string{"STORAGE_BACKEND": "s3"},
			want: ErrCredentialsRequired,
		},
		{
			name: "s3 without secret",
			env:  map[string]string{"STORAGE_BACKEND": "s3", "AWS_ACCESS_KEY_ID": "key"},
			want: ErrCredentialsRequired,
		},
		{
			name: "minio without endpoint",
			env: map[string]string{
				"STORAGE_BACKEND":       "minio",
				"AWS_ACCESS_KEY_ID":     "key",
				"AWS_SECRET_ACCESS_KEY": "secret",
			},
			want: ErrMinioEndpointRequired,
		},
		{
			name: "port out of range",
			env:  map[string]string{"PORT": "70000"},
			want: ErrInvalidPort,
		},
		{
			name: "bad upload size",
			env:  map[string]string{"MAX_UPLOAD_SIZE": "lots"},
			want: ErrInvalidMaxUploadSize,
		},
		{
			name: "bad download size",
			env:  map[string]string{"MAX_DOWNLOAD_SIZE": "0"},
			want: ErrInvalidMaxDownloadSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfig_StorageSettings(t *testing.T) {
	t.Run("s3", func(t *testing.T) {
		cfg := &Config{
			StorageBackend:     "s3",
			StorageBucket:      "bucket",
			S3Region:           "us-east-2",
			S3Endpoint:         "http://localhost:4566",
			MinioEndpoint:      "ignored:9000",
			AWSAccessKeyID:     "key",
			AWSSecretAccessKey: "secret",
		}

		s := cfg.StorageSettings()
		assert.Equal(t, storage.BackendS3, s.Backend)
		assert.Equal(t, "bucket", s.Bucket)
		assert.Equal(t, "us-east-2", s.Region)
		assert.Equal(t, "http://localhost:4566", s.Endpoint)
		assert.Equal(t, "key", s.AccessKeyID)
		assert.Equal(t, "secret", s.SecretAccessKey)
	})

	t.Run("minio uses its own endpoint", func(t *testing.T) {
		cfg := &Config{
			StorageBackend: "minio",
			StorageBucket:  "avatars",
			S3Endpoint:     "http://ignored",
			MinioEndpoint:  "localhost:9000",
			MinioUseSSL:    true,
		}

		s := cfg.StorageSettings()
		assert.Equal(t, storage.BackendMinio, s.Backend)
		assert.Equal(t, "localhost:9000", s.Endpoint)
		assert.True(t, s.UseSSL)
	})
}

func TestConfig_String_MasksSecrets(t *testing.T) {
	cfg := &Config{
		Port:               8080,
		StorageBackend:     "s3",
		StorageBucket:      "bucket-123",
		AWSAccessKeyID:     "access-key",
		AWSSecretAccessKey: "secret-key",
	}

	str := cfg.String()

	// Should contain non-sensitive values
	assert.Contains(t, str, "8080")
	assert.Contains(t, str, "bucket-123")

	// Should NOT contain sensitive values
	assert.NotContains(t, str, "access-key")
	assert.NotContains(t, str, "secret-key")
}

func TestConfig_NewLogger_JSON(t *testing.T) {
	cfg := &Config{
		LogFormat: "JSON",
		LogLevel:  "warn",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	assert.IsType(t, &slog.JSONHandler{}, logger.Handler())
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}

func TestConfig_NewLogger_Text(t *testing.T) {
	cfg := &Config{
		LogFormat: "text",
		LogLevel:  "debug",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	assert.IsType(t, &slog.TextHandler{}, logger.Handler())
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}
