package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const minioScheme = "s3://"

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

// MinioStorage keeps reports in an S3 compatible bucket. Locations have the
// form s3://<bucket>/<object>.
type MinioStorage struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioStorage(opts ...MinioOpts) (*MinioStorage, error) {
	cfg := &minioConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.endpoint == "" || cfg.bucket == "" {
		return nil, fmt.Errorf("minio storage needs an endpoint and a bucket")
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStorage{cfg: cfg, client: client}, nil
}

func (s *MinioStorage) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}
	return minioScheme + s.cfg.bucket + "/" + name, nil
}

func (s *MinioStorage) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(location, minioScheme), "/")
	if !strings.HasPrefix(location, minioScheme) || !ok || bucket != s.cfg.bucket {
		return nil, fmt.Errorf("%w: unknown location %s", ErrNotFound, location)
	}

	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (s *MinioStorage) Type() string {
	return "minio"
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
