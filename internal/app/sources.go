package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/labelbridge-backend/internal/data/source"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
	"github.com/yungbote/labelbridge-backend/internal/platform/gcp"
	"github.com/yungbote/labelbridge-backend/internal/platform/s3"
)

type SourceBootstrapErrorCode string

const (
	SourceBootstrapErrorInvalidKind   SourceBootstrapErrorCode = "invalid_kind"
	SourceBootstrapErrorInvalidConfig SourceBootstrapErrorCode = "invalid_config"
	SourceBootstrapErrorConnectFailed SourceBootstrapErrorCode = "connect_failed"
)

type SourceBootstrapError struct {
	Code  SourceBootstrapErrorCode
	Kind  string
	Cause error
}

func (e *SourceBootstrapError) Error() string {
	if e == nil {
		return "source bootstrap failed"
	}
	return fmt.Sprintf("source bootstrap failed (code=%s kind=%q): %v", e.Code, e.Kind, e.Cause)
}

func (e *SourceBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// sourceBackend is a loader plus whatever must be released with it.
type sourceBackend struct {
	Loader source.Loader
	Close  func()
}

var (
	newGCSReader = func(ctx context.Context, cfg gcp.BucketConfig, log *logger.Logger) (source.ObjectReader, func(), error) {
		r, err := gcp.NewBucketReader(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}
	newS3Reader = func(cfg s3.Config, log *logger.Logger) (source.ObjectReader, error) {
		return s3.NewBucketReader(cfg, log)
	}
	newPostgresLoader = func(ctx context.Context, dsn string) (*source.PostgresLoader, error) {
		return source.NewPostgresLoader(ctx, dsn)
	}
)

func resolveSource(ctx context.Context, log *logger.Logger, cfg SourcesConfig) (sourceBackend, error) {
	log.Info("Selecting source backend", "kind", cfg.Kind, "prefix", cfg.Prefix)
	fail := func(code SourceBootstrapErrorCode, err error) (sourceBackend, error) {
		bootErr := &SourceBootstrapError{Code: code, Kind: cfg.Kind, Cause: err}
		log.Error("Source backend bootstrap failed", "kind", cfg.Kind, "error_code", code, "error", err)
		return sourceBackend{}, bootErr
	}
	noop := func() {}

	switch cfg.Kind {
	case SourceDir:
		return sourceBackend{Loader: source.NewDirLoader(cfg.Dir), Close: noop}, nil

	case SourceGCS:
		bucketCfg, err := gcp.BucketConfig{
			Bucket:       cfg.GCS.Bucket,
			Mode:         gcp.StorageMode(cfg.GCS.Mode),
			EmulatorHost: cfg.GCS.EmulatorHost,
			Credentials:  cfg.GCS.Credentials,
		}.ResolveMode()
		if err != nil {
			return fail(SourceBootstrapErrorInvalidConfig, err)
		}
		reader, closeFn, err := newGCSReader(ctx, bucketCfg, log)
		if err != nil {
			return fail(SourceBootstrapErrorConnectFailed, err)
		}
		return sourceBackend{Loader: source.NewObjectLoader(reader, cfg.Prefix), Close: closeFn}, nil

	case SourceS3:
		s3Cfg := s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		}
		if err := s3Cfg.Validate(); err != nil {
			return fail(SourceBootstrapErrorInvalidConfig, err)
		}
		reader, err := newS3Reader(s3Cfg, log)
		if err != nil {
			return fail(SourceBootstrapErrorConnectFailed, err)
		}
		return sourceBackend{Loader: source.NewObjectLoader(reader, cfg.Prefix), Close: noop}, nil

	case SourcePostgres:
		if cfg.PostgresDSN == "" {
			return fail(SourceBootstrapErrorInvalidConfig, errors.New("postgres dsn is empty"))
		}
		pl, err := newPostgresLoader(ctx, cfg.PostgresDSN)
		if err != nil {
			return fail(SourceBootstrapErrorConnectFailed, err)
		}
		return sourceBackend{Loader: pl, Close: pl.Close}, nil

	default:
		return fail(SourceBootstrapErrorInvalidKind, fmt.Errorf("unsupported source kind %q", cfg.Kind))
	}
}
