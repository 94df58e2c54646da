package s3client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"no endpoint", Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}, "endpoint"},
		{"no bucket", Config{Endpoint: "e", AccessKey: "a", SecretKey: "s"}, "bucket"},
		{"no keys", Config{Endpoint: "e", Bucket: "b"}, "access key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNew_UsesMinIO(t *testing.T) {
	orig := NewMinIOFunc
	defer func() { NewMinIOFunc = orig }()

	var used bool
	NewMinIOFunc = func(ctx context.Context, cfg Config) (S3Interface, error) {
		used = true
		return &MinioClient{config: cfg}, nil
	}

	client, err := New(context.Background(), Config{Endpoint: "e", Bucket: "frames", AccessKey: "a", SecretKey: "s", Prefix: "living-room"})
	require.NoError(t, err)
	assert.True(t, used)
	assert.Equal(t, "s3://frames/living-room", client.Location())
}

func TestNewMinIO_MissingBucket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewMinIO(context.Background(), Config{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		Bucket:    "frames",
		AccessKey: "a",
		SecretKey: "s",
	})
	assert.ErrorIs(t, err, ErrBucketNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestConfig_Location(t *testing.T) {
	assert.Equal(t, "s3://frames", Config{Bucket: "frames"}.Location())
	assert.Equal(t, "s3://frames/den/wall", Config{Bucket: "frames", Prefix: "/den/wall/"}.Location())
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "a.jpg", objectKey("", "a.jpg"))
	assert.Equal(t, "frames/a.jpg", objectKey("frames/", "/a.jpg"))
	assert.Equal(t, "x/y/a.jpg", objectKey("x/y", "a.jpg"))
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectContentType("photosajpg.jpg"))
	assert.Equal(t, "image/png", DetectContentType("A.PNG"))
	assert.Equal(t, "application/octet-stream", DetectContentType("noext"))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNotFoundError(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, IsNotFoundError(ErrBucketNotFound))
	assert.False(t, IsNotFoundError(nil))

	assert.True(t, IsNotFoundError(fmt.Errorf("stat: %w", minio.ErrorResponse{Code: "NoSuchBucket"})))
	assert.False(t, IsNotFoundError(errors.New("object not found in cache")))

	assert.True(t, IsAuthError(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.True(t, IsAuthError(fmt.Errorf("upload: %w", minio.ErrorResponse{Code: "ExpiredToken"})))
	assert.False(t, IsAuthError(errors.New("timeout")))
	assert.False(t, IsAuthError(nil))

	assert.Equal(t, "S3 error: denied (code: AccessDenied)", FormatError(minio.ErrorResponse{Code: "AccessDenied", Message: "denied"}))
}
