package services

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Upload ceilings per route. Requests above these fail with 413.
const (
	MaxLogoSize       = 5 * 1024 * 1024  // branding logos
	MaxEventImageSize = 15 * 1024 * 1024 // per event image
	MaxEventImages    = 5
)

// StorageService relays uploaded media to object storage and returns a
// public URL to store on the owning record. The caller-declared content
// type is trusted as-is when setting object metadata.
type StorageService interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
	EnsureBucketExists(ctx context.Context) error
}

type minioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return &minioStorage{
		client:    client,
		bucket:    bucket,
		publicURL: fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket),
	}, nil
}

func (s *minioStorage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", s.publicURL, objectName), nil
}

func (s *minioStorage) Delete(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
}

func (s *minioStorage) EnsureBucketExists(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
