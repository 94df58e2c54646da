// Package output stores finished frames in a local directory or an S3
// bucket. Writes to distinct names may run concurrently.
package output

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/bstardust/photo-frame-formatter/internal/logger"
	"github.com/bstardust/photo-frame-formatter/pkg/common"
	"github.com/bstardust/photo-frame-formatter/pkg/s3client"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
)

// Sink receives encoded frames
type Sink interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Close() error
	String() string
}

// Open picks a sink for destination: "s3://bucket/prefix" uploads with
// s3cfg's endpoint and credentials, anything else is a local directory.
func Open(ctx context.Context, destination string, s3cfg s3client.Config) (Sink, error) {
	if strings.HasPrefix(destination, "s3://") {
		u, err := url.Parse(destination)
		if err != nil {
			return nil, common.NewConfigError(fmt.Sprintf("invalid destination %q: %v", destination, err))
		}
		s3cfg.Bucket = u.Host
		s3cfg.Prefix = strings.Trim(u.Path, "/")

		client, err := s3client.New(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return NewS3(client), nil
	}
	return NewDir(destination)
}

// Dir writes frames into a local directory through a gocloud bucket
type Dir struct {
	path   string
	bucket *blob.Bucket
}

// NewDir opens path, creating it when missing
func NewDir(path string) (*Dir, error) {
	bucket, err := fileblob.OpenBucket(path, &fileblob.Options{
		CreateDir: true,
		// Temp files live next to the target so the final rename is atomic.
		NoTempDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open destination %s: %w", path, err)
	}
	return &Dir{path: path, bucket: bucket}, nil
}

// Put writes r under name, replacing any previous file
func (d *Dir) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	w, err := d.bucket.NewWriter(ctx, name, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	logger.Debug("Saved %s (%d bytes) to %s", name, size, d.path)
	return nil
}

func (d *Dir) Close() error {
	return d.bucket.Close()
}

func (d *Dir) String() string {
	return d.path
}

// S3 uploads frames with an S3 client
type S3 struct {
	client s3client.S3Interface
}

// NewS3 wraps client
func NewS3(client s3client.S3Interface) *S3 {
	return &S3{client: client}
}

func (s *S3) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	err := s.client.PutFrame(ctx, name, r, size, contentType)
	if err != nil && s3client.IsAuthError(err) {
		return common.NewS3Error(s3client.FormatError(err))
	}
	return err
}

func (s *S3) Close() error {
	return nil
}

func (s *S3) String() string {
	return s.client.Location()
}
