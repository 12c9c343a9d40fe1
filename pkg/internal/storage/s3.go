package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Driver struct {
	config models.S3Destination
	client *minio.Client
}

func NewS3Driver(config models.S3Destination) (*S3Driver, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.SecretID, config.SecretKey, ""),
		Secure: config.EnableSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to configure s3 client: %v", err)
	}

	return &S3Driver{config: config, client: client}, nil
}

func (d *S3Driver) Stat(ctx context.Context, key string) (int64, error) {
	info, err := d.client.StatObject(ctx, d.config.Bucket, filepath.Join(d.config.Path, key), minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("unable to stat object in s3: %v", err)
	}

	return info.Size, nil
}

func (d *S3Driver) Remove(ctx context.Context, key string) error {
	err := d.client.RemoveObject(ctx, d.config.Bucket, filepath.Join(d.config.Path, key), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("unable to remove object from s3: %v", err)
	}

	return nil
}
