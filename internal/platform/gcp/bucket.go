package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	pkgerrors "github.com/yungbote/labelbridge-backend/internal/pkg/errors"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

type BucketConfig struct {
	Bucket       string
	Mode         StorageMode
	EmulatorHost string
	// Credentials is a service-account JSON document or a path to one.
	// Empty falls back to GOOGLE_APPLICATION_CREDENTIALS_JSON, then
	// GOOGLE_APPLICATION_CREDENTIALS, then ambient credentials.
	Credentials string
}

// ResolveMode fills Mode from the emulator host when unset and validates the result.
func (cfg BucketConfig) ResolveMode() (BucketConfig, error) {
	cfg.EmulatorHost = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	switch StorageMode(strings.ToLower(strings.TrimSpace(string(cfg.Mode)))) {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeGCSEmulator
		} else {
			cfg.Mode = StorageModeGCS
		}
	case StorageModeGCS:
		cfg.Mode = StorageModeGCS
	case StorageModeGCSEmulator:
		cfg.Mode = StorageModeGCSEmulator
	default:
		return cfg, fmt.Errorf("invalid object storage mode %q (allowed: %q, %q)", cfg.Mode, StorageModeGCS, StorageModeGCSEmulator)
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return cfg, fmt.Errorf("gcs bucket name is required")
	}
	if cfg.Mode == StorageModeGCSEmulator {
		u, err := url.Parse(cfg.EmulatorHost)
		if cfg.EmulatorHost == "" || err != nil || u.Scheme == "" || u.Host == "" {
			return cfg, fmt.Errorf("invalid emulator host %q; expected absolute URL like http://fake-gcs:4443", cfg.EmulatorHost)
		}
	}
	return cfg, nil
}

// BucketReader opens source objects from one GCS bucket.
type BucketReader struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewBucketReader(ctx context.Context, cfg BucketConfig, log *logger.Logger) (*BucketReader, error) {
	cfg, err := cfg.ResolveMode()
	if err != nil {
		return nil, err
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "GCSBucketReader")
	serviceLog.Info("Object storage initialized", "mode", cfg.Mode, "emulator_host", cfg.EmulatorHost, "bucket", cfg.Bucket)
	return &BucketReader{log: serviceLog, client: client, bucket: cfg.Bucket}, nil
}

func newStorageClient(ctx context.Context, cfg BucketConfig) (*storage.Client, error) {
	if cfg.Mode == StorageModeGCSEmulator {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	return storage.NewClient(ctx, append(credentialOptions(cfg.Credentials), option.WithScopes(storage.ScopeReadOnly))...)
}

func credentialOptions(explicit string) []option.ClientOption {
	creds := strings.TrimSpace(explicit)
	for _, env := range []string{"GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS"} {
		if creds != "" {
			break
		}
		creds = strings.TrimSpace(os.Getenv(env))
	}
	switch {
	case creds == "":
		return nil
	case strings.HasPrefix(creds, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}
}

func (b *BucketReader) Describe() string { return "gs://" + b.bucket }

func (b *BucketReader) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := b.client.Bucket(b.bucket).Object(key).NewReader(rctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		cancel()
		return nil, fmt.Errorf("gs://%s/%s: %w", b.bucket, key, pkgerrors.ErrNotFound)
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open gs://%s/%s: %w", b.bucket, key, err)
	}
	return &cancelReader{ReadCloser: r, cancel: cancel}, nil
}

func (b *BucketReader) Close() error { return b.client.Close() }

type cancelReader struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReader) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
