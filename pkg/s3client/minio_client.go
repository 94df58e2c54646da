package s3client

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// generator is recorded on every uploaded frame
const generator = "photo-frame-formatter"

// MinioClient writes frames with the MinIO SDK
type MinioClient struct {
	client *minio.Client
	config Config
}

// NewMinIO connects to the endpoint and checks that the bucket exists
func NewMinIO(ctx context.Context, cfg Config) (S3Interface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil && IsNotFoundError(err) {
		exists, err = false, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %s", cfg.Bucket, FormatError(err))
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s: %w", cfg.Bucket, ErrBucketNotFound)
	}

	logger.Info("Writing frames to %s on %s", cfg.Location(), endpoint)
	return &MinioClient{client: client, config: cfg}, nil
}

// PutFrame uploads one encoded frame. Existing objects are replaced.
func (c *MinioClient) PutFrame(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	key := objectKey(c.config.Prefix, name)
	if contentType == "" {
		contentType = DetectContentType(name)
	}

	info, err := c.client.PutObject(ctx, c.config.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"generator": generator},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	logger.Debug("Uploaded %s (%d bytes, etag: %s)", key, info.Size, info.ETag)
	return nil
}

func (c *MinioClient) Location() string {
	return c.config.Location()
}
