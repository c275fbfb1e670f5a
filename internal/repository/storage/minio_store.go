package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spendly/spendly-backend/internal/config"
)

// MinIOStore implements ObjectStore using MinIO with a public-read bucket
type MinIOStore struct {
	client     *minio.Client
	bucketName string
	endpoint   string
	useSSL     bool
}

// NewMinIOStore creates a new MinIO store and ensures the bucket exists
func NewMinIOStore(ctx context.Context, cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &MinIOStore{
		client:     client,
		bucketName: cfg.BucketName,
		endpoint:   cfg.Endpoint,
		useSSL:     cfg.UseSSL,
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	// Avatars only: public read on objects, no listing
	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"AWS": ["*"]},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::%s/avatars/*"]
		}]
	}`, s.bucketName)

	if err := s.client.SetBucketPolicy(ctx, s.bucketName, policy); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}
	return nil
}

func (s *MinIOStore) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	body, size, err := sizedReader(data, size)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucketName, objectPath, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return objectPath, nil
}

func (s *MinIOStore) Delete(ctx context.Context, objectPath string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// URL returns the public URL of the object
func (s *MinIOStore) URL(_ context.Context, objectPath string) (string, error) {
	return publicURL(s.useSSL, s.endpoint, s.bucketName, objectPath), nil
}

func publicURL(useSSL bool, endpoint, bucket, objectPath string) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, bucket, objectPath)
}
