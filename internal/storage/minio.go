package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// minioSmallUpload is the most an upload may hold to be buffered and sent
	// as a single PUT with a known length.
	minioSmallUpload = 1 << 20
	// minioPartSize is the part buffer for longer streams. It is minio-go's
	// own minimum; with PartSize unset and an unknown length the client sizes
	// parts for a 5 TiB object.
	minioPartSize = 16 << 20
)

// Compile-time check that MinioProvider implements Provider.
var _ Provider = (*MinioProvider)(nil)

// MinioConfig holds the configuration for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint        string `validate:"required"` // host[:port], no scheme
	Bucket          string `validate:"required"`
	AccessKeyID     string `validate:"required"`
	SecretAccessKey string `validate:"required"`
	Region          string
	UseSSL          bool
}

// MinioProvider implements Provider using a MinIO (or any S3-compatible) backend.
type MinioProvider struct {
	client *minio.Client
	bucket string
}

// NewMinioProvider creates a MinIO client for cfg. No request is made until
// the first operation.
func NewMinioProvider(cfg MinioConfig) (*MinioProvider, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid MinIO config: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioProvider{client: client, bucket: cfg.Bucket}, nil
}

// Bucket returns the bucket name.
func (p *MinioProvider) Bucket() string {
	return p.bucket
}

// IsFile stats the object at path.
func (p *MinioProvider) IsFile(ctx context.Context, path string) (bool, error) {
	_, err := p.client.StatObject(ctx, p.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, newError("is_file", path, "File download failed.", err)
	}
	return true, nil
}

// GetFile downloads the object at path.
func (p *MinioProvider) GetFile(ctx context.Context, path string, opts ...Option) ([]byte, error) {
	o := applyOptions(opts)

	obj, err := p.client.GetObject(ctx, p.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, newError("get_file", path, "File download failed.", err)
	}
	defer func() { _ = obj.Close() }()

	data, err := readAll(obj, o.MaxBytes)
	if err != nil {
		return nil, newError("get_file", path, "File download failed.", err)
	}
	return data, nil
}

// SaveFile uploads contents to path and returns the key. Short uploads go
// out as one PUT; longer ones are streamed as a multipart upload.
func (p *MinioProvider) SaveFile(ctx context.Context, contents io.Reader, path string, opts ...Option) (string, error) {
	o := applyOptions(opts)

	head := &bytes.Buffer{}
	n, err := io.CopyN(head, contents, minioSmallUpload+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", newError("save_file", path, fmt.Sprintf("File upload failed (%v).", err), err)
	}

	putOpts := minio.PutObjectOptions{ContentType: o.ContentType}
	var body io.Reader = head
	size := n
	if n > minioSmallUpload {
		body = io.MultiReader(head, contents)
		size = -1
		putOpts.PartSize = minioPartSize
	}

	_, err = p.client.PutObject(ctx, p.bucket, path, body, size, putOpts)
	if err != nil {
		return "", newError("save_file", path, fmt.Sprintf("File upload failed (%v).", err), err)
	}
	return path, nil
}

// DeleteFile removes the object at path after checking it exists.
func (p *MinioProvider) DeleteFile(ctx context.Context, path string) (bool, error) {
	exists, err := p.IsFile(ctx, path)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if err := p.client.RemoveObject(ctx, p.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return false, nil
	}
	return true, nil
}
