package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/go-playground/validator/v10"
)

const defaultS3Region = "us-east-1"

var validate = validator.New()

// Compile-time check that S3Provider implements Provider.
var _ Provider = (*S3Provider)(nil)

// S3Config holds the configuration for S3 storage.
type S3Config struct {
	Bucket          string `validate:"required"`
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	UsePathStyle    bool   // Forced on when Endpoint is set
	AccessKeyID     string `validate:"required"`
	SecretAccessKey string `validate:"required"`
}

// S3Provider implements Provider on an S3 bucket.
// It keeps two handles built from the same AWS config: the S3 client for
// object calls and a managed uploader for transfers.
type S3Provider struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewS3Provider creates a new S3Provider. Static credentials are required.
func NewS3Provider(ctx context.Context, cfg S3Config) (*S3Provider, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid S3 config: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.UsePathStyle {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	return &S3Provider{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
	}, nil
}

// Bucket returns the bucket name.
func (p *S3Provider) Bucket() string {
	return p.bucket
}

// IsFile issues a HEAD request for path. A not-found response yields false;
// every other failure is a storage error.
func (p *S3Provider) IsFile(ctx context.Context, path string) (bool, error) {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, newError("is_file", path, "File download failed.", err)
	}
	return true, nil
}

// GetFile downloads the object at path.
func (p *S3Provider) GetFile(ctx context.Context, path string, opts ...Option) ([]byte, error) {
	o := applyOptions(opts)

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, newError("get_file", path, "File download failed.", err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := readAll(out.Body, o.MaxBytes)
	if err != nil {
		return nil, newError("get_file", path, "File download failed.", err)
	}
	return data, nil
}

// SaveFile uploads contents to path through the managed uploader and
// returns the key.
func (p *S3Provider) SaveFile(ctx context.Context, contents io.Reader, path string, opts ...Option) (string, error) {
	o := applyOptions(opts)

	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(path),
		Body:   contents,
	}
	if o.ContentType != "" {
		input.ContentType = aws.String(o.ContentType)
	}

	if _, err := p.uploader.Upload(ctx, input); err != nil {
		return "", newError("save_file", path, fmt.Sprintf("File upload failed (%v).", err), err)
	}
	return path, nil
}

// DeleteFile checks path with IsFile and deletes the object only when it is
// present. The check and the delete are separate requests, so a concurrent
// removal between them is reported as false.
func (p *S3Provider) DeleteFile(ctx context.Context, path string) (bool, error) {
	exists, err := p.IsFile(ctx, path)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	_, err = p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}

// isS3NotFound reports whether err is a 404 from S3.
func isS3NotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}

	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}
	return false
}
