package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"greenintellect-backend/internal/shared/storage/object"
)

// Config describes a MinIO (or S3-compatible) endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Store implements ObjectStore against a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	region string
}

// New creates a MinIO client for the configured bucket.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put uploads the reader into the bucket at storageKey.
func (s *Store) Put(ctx context.Context, storageKey, contentType string, r io.Reader, size int64) (int64, error) {
	if !object.ValidKey(storageKey) {
		return 0, fmt.Errorf("invalid storage key")
	}
	info, err := s.client.PutObject(ctx, s.bucket, storageKey, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return 0, fmt.Errorf("minio put object %s: %w", storageKey, err)
	}
	return info.Size, nil
}

// Open fetches a stored object. The stat call surfaces missing keys eagerly.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, storageKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object %s: %w", storageKey, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("minio stat object %s: %w", storageKey, err)
	}
	return obj, nil
}

// Delete removes a stored object.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, storageKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove object %s: %w", storageKey, err)
	}
	return nil
}

// PresignGet returns a GET URL that downloads the object as fileName.
func (s *Store) PresignGet(ctx context.Context, storageKey, fileName string, ttl time.Duration) (string, error) {
	params := url.Values{}
	if fileName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, storageKey, ttl, params)
	if err != nil {
		return "", fmt.Errorf("minio presign get %s: %w", storageKey, err)
	}
	return u.String(), nil
}

var (
	_ object.ObjectStore = (*Store)(nil)
	_ object.Presigner   = (*Store)(nil)
)
