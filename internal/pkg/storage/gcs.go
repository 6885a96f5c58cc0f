package storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	// CredentialsJSON is a service account key; empty uses the default
	// credentials of the environment.
	CredentialsJSON []byte
	// Endpoint and WithoutAuth target an emulator.
	Endpoint    string
	WithoutAuth bool

	// AccessID and PrivateKey sign download links.
	AccessID   string
	PrivateKey []byte
}

type GCS struct {
	bucket     string
	client     *gcs.Client
	accessID   string
	privateKey []byte
	now        func() time.Time
}

func NewGCS(ctx context.Context, bucket string, cfg GCSConfig) (*GCS, error) {
	var opts []option.ClientOption
	if cfg.WithoutAuth {
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if len(cfg.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, gcs.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCS{
		bucket:     bucket,
		client:     client,
		accessID:   cfg.AccessID,
		privateKey: cfg.PrivateKey,
		now:        time.Now,
	}, nil
}

func (g *GCS) Put(ctx context.Context, key string, doc Document) error {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = doc.ContentType
	w.Metadata = doc.Metadata

	if _, err := w.Write(doc.Body); err != nil {
		return errors.Join(err, w.Close())
	}
	return w.Close()
}

func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	switch {
	case errors.Is(err, gcs.ErrObjectNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (g *GCS) Link(_ context.Context, key string, opts LinkOptions) (string, error) {
	if g.accessID == "" || len(g.privateKey) == 0 {
		return "", ErrNoSigner
	}

	signOpts := &gcs.SignedURLOptions{
		Scheme:         gcs.SigningSchemeV4,
		Method:         http.MethodGet,
		Expires:        g.now().Add(opts.TTL),
		GoogleAccessID: g.accessID,
		PrivateKey:     g.privateKey,
	}
	if cd := opts.contentDisposition(); cd != "" {
		signOpts.QueryParameters = url.Values{"response-content-disposition": {cd}}
	}

	return gcs.SignedURL(g.bucket, key, signOpts)
}

func (g *GCS) Close() error { return g.client.Close() }
