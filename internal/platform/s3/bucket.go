package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	pkgerrors "github.com/yungbote/labelbridge-backend/internal/pkg/errors"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("s3 endpoint is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("s3 bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("s3 endpoint %q must be host[:port] without a scheme", c.Endpoint)
	}
	return nil
}

// BucketReader opens source objects from an S3-compatible bucket.
type BucketReader struct {
	log    *logger.Logger
	client *minio.Client
	bucket string
}

func NewBucketReader(cfg Config, log *logger.Logger) (*BucketReader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	serviceLog := log.With("service", "S3BucketReader")
	serviceLog.Info("Object storage initialized", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket, "ssl", cfg.UseSSL)
	return &BucketReader{log: serviceLog, client: client, bucket: cfg.Bucket}, nil
}

func (b *BucketReader) Describe() string { return "s3://" + b.bucket }

func (b *BucketReader) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open s3://%s/%s: %w", b.bucket, key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("s3://%s/%s: %w", b.bucket, key, pkgerrors.ErrNotFound)
		}
		return nil, fmt.Errorf("stat s3://%s/%s: %w", b.bucket, key, err)
	}
	return obj, nil
}
