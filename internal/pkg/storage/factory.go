package storage

import (
	"context"
	"fmt"
	"strings"
)

const (
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
)

// Options holds the bucket and the settings of every driver; New reads only
// the selected one.
type Options struct {
	Bucket string
	S3     S3Config
	GCS    GCSConfig
	MinIO  MinIOConfig
}

func New(ctx context.Context, driver string, opts Options) (Storage, error) {
	if opts.Bucket == "" {
		return nil, ErrBucketRequired
	}

	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case DriverS3:
		return NewS3(ctx, opts.Bucket, opts.S3)
	case DriverGCS:
		return NewGCS(ctx, opts.Bucket, opts.GCS)
	case DriverMinIO:
		return NewMinIO(opts.Bucket, opts.MinIO)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, d)
	}
}
