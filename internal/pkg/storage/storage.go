package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"time"
)

var (
	ErrBucketRequired = errors.New("storage: bucket is required")
	ErrUnknownDriver  = errors.New("storage: unknown driver")
	// ErrNoSigner means the GCS driver has no service account to sign links.
	ErrNoSigner = errors.New("storage: no url signer configured")
)

type Storage interface {
	io.Closer

	// Put writes doc under key, replacing any existing object.
	Put(ctx context.Context, key string, doc Document) error
	// Exists reports whether key is stored. A missing key is not an error.
	Exists(ctx context.Context, key string) (bool, error)
	// Link returns a presigned GET URL for key.
	Link(ctx context.Context, key string, opts LinkOptions) (string, error)
}

type Document struct {
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

type LinkOptions struct {
	TTL time.Duration
	// Filename makes browsers download the object under that name.
	Filename string
}

func (o LinkOptions) contentDisposition() string {
	if o.Filename == "" {
		return ""
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": o.Filename})
}
