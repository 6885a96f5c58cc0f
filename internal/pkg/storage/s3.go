package storage

import (
	"bytes"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// regionless S3-compatible endpoints still need a signing region
const fallbackRegion = "us-east-1"

type S3Config struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UsePathStyle bool
}

type S3 struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
}

// NewS3 uses static credentials when a key pair is set and the default AWS
// chain otherwise.
func NewS3(ctx context.Context, bucket string, cfg S3Config) (*S3, error) {
	var load []func(*awsconfig.LoadOptions) error

	switch {
	case cfg.Region != "":
		load = append(load, awsconfig.WithRegion(cfg.Region))
	case cfg.Endpoint != "":
		load = append(load, awsconfig.WithRegion(fallbackRegion))
	}
	if cfg.AccessKey != "" {
		load = append(load, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, load...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3{bucket: bucket, client: client, presign: s3.NewPresignClient(client)}, nil
}

func (s *S3) Put(ctx context.Context, key string, doc Document) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(doc.Body),
		ContentLength: aws.Int64(int64(len(doc.Body))),
		Metadata:      doc.Metadata,
	}
	if doc.ContentType != "" {
		in.ContentType = aws.String(doc.ContentType)
	}

	_, err := s.client.PutObject(ctx, in)
	return err
}

func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	var nf *types.NotFound
	switch {
	case errors.As(err, &nf):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (s *S3) Link(ctx context.Context, key string, opts LinkOptions) (string, error) {
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if cd := opts.contentDisposition(); cd != "" {
		in.ResponseContentDisposition = aws.String(cd)
	}

	req, err := s.presign.PresignGetObject(ctx, in, s3.WithPresignExpires(opts.TTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (*S3) Close() error { return nil }
