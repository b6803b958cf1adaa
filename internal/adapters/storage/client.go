package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"leadsync_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOService is the ObjectStore backed by MinIO or any S3 endpoint.
type MinIOService struct {
	client *minio.Client
}

func NewMinIOService(cfg config.ArchiveConfig) (*MinIOService, error) {
	if !cfg.IsArchiveEnabled() {
		return nil, errors.New("storage: archive endpoint not configured")
	}
	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return &MinIOService{client: client}, nil
}

func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		// Another replica may have created it between the check and here.
		if resp := minio.ToErrorResponse(err); resp.Code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("storage: create bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *MinIOService) PutObject(ctx context.Context, bucket string, obj Object) error {
	_, err := s.client.PutObject(ctx, bucket, obj.Key, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: obj.Metadata,
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", obj.Key, err)
	}
	return nil
}

func (s *MinIOService) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return obj, nil
}
