package storage

import (
	"context"
	"fmt"
)

// Settings selects and configures a backend.
type Settings struct {
	Backend         Backend
	Bucket          string
	Region          string
	Endpoint        string
	UsePathStyle    bool
	UseSSL          bool
	AccessKeyID     string
	SecretAccessKey string
}

// New creates the provider named by s.Backend. An empty backend means local.
func New(ctx context.Context, s Settings) (Provider, error) {
	switch s.Backend {
	case BackendLocal, "":
		p, err := NewLocalProvider(s.Bucket)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendS3:
		p, err := NewS3Provider(ctx, S3Config{
			Bucket:          s.Bucket,
			Region:          s.Region,
			Endpoint:        s.Endpoint,
			UsePathStyle:    s.UsePathStyle,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendMinio:
		p, err := NewMinioProvider(MinioConfig{
			Endpoint:        s.Endpoint,
			Bucket:          s.Bucket,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			Region:          s.Region,
			UseSSL:          s.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", s.Backend)
	}
}
