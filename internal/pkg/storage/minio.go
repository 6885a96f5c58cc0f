package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOConfig struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UseSSL       bool
}

type MinIO struct {
	bucket string
	client *minio.Client
}

func NewMinIO(bucket string, cfg MinIOConfig) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &MinIO{bucket: bucket, client: client}, nil
}

func (m *MinIO) Put(ctx context.Context, key string, doc Document) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(doc.Body), int64(len(doc.Body)),
		minio.PutObjectOptions{ContentType: doc.ContentType, UserMetadata: doc.Metadata})
	return err
}

func (m *MinIO) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

func (m *MinIO) Link(ctx context.Context, key string, opts LinkOptions) (string, error) {
	params := url.Values{}
	if cd := opts.contentDisposition(); cd != "" {
		params.Set("response-content-disposition", cd)
	}

	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, opts.TTL, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (*MinIO) Close() error { return nil }
